// Package sources computes the C and assembly translation units to compile
// for a Configuration.
//
// The removals mirror the capability macros emitted by package header; both
// must be derived from the same Configuration value.
package sources

import (
	"errors"
	"fmt"

	"github.com/goplus/evercrypt/internal/config"
	"github.com/goplus/evercrypt/pkgs/fileset"
	"github.com/goplus/evercrypt/pkgs/pattern"
)

var (
	// ErrUnsupportedOS is reserved for operating systems without a sane
	// assembly default. Every OS currently falls back to the Linux flavour.
	ErrUnsupportedOS = errors.New("unsupported target operating system")
	// ErrUnsupportedABI is returned for a Windows ABI other than msvc or gnu.
	ErrUnsupportedABI = errors.New("unsupported target ABI")
)

// CExt is the extension of C sources in the vendored distribution.
const CExt = ".c"

// Target is the operating system and ABI half of the target triple.
type Target struct {
	OS  string
	ABI string
}

type rule struct {
	disabled func(config.Configuration) bool
	remove   []pattern.Pattern
}

var cRules = []rule{
	{
		// Interop with x64 assembly that is not compiled.
		disabled: func(c config.Configuration) bool { return !c.Vale },
		remove: []pattern.Pattern{
			pattern.Start("Hacl_HPKE_Curve64_").And(pattern.End(CExt)),
			pattern.Exact("Hacl_Curve25519_64.c"),
			pattern.Exact("evercrypt_vale_stubs.c"),
		},
	},
	{
		disabled: func(c config.Configuration) bool { return !c.V128 },
		remove: []pattern.Pattern{
			pattern.Contains("CP128").And(pattern.End(CExt)),
			pattern.End("_128.c"),
			pattern.End("_Vec128.c"),
		},
	},
	{
		disabled: func(c config.Configuration) bool { return !c.V256 },
		remove: []pattern.Pattern{
			pattern.Contains("CP256").And(pattern.End(CExt)),
			pattern.End("_256.c"),
			pattern.End("_Vec256.c"),
		},
	},
}

// Exclusions returns the removal patterns that apply to cfg, in order.
func Exclusions(cfg config.Configuration) []pattern.Pattern {
	var pats []pattern.Pattern
	for _, r := range cRules {
		if r.disabled(cfg) {
			pats = append(pats, r.remove...)
		}
	}
	return pats
}

// CSources returns the C files in dir that are compiled for cfg.
func CSources(cfg config.Configuration, dir string) (*fileset.FileSet, error) {
	set := fileset.New()
	if err := set.Add(dir, pattern.End(CExt)); err != nil {
		return nil, err
	}
	for _, pat := range Exclusions(cfg) {
		set.Remove(pat)
	}
	return set, nil
}

// AsmTarget maps the target OS and ABI to the OS token and file extension
// used in vale assembly file names.
func AsmTarget(os, abi string) (osToken, ext string, err error) {
	switch os {
	case "macos", "ios":
		return "darwin", "S", nil
	case "linux":
		return "linux", "S", nil
	case "windows":
		switch abi {
		case "msvc":
			return "msvc", "asm", nil
		case "gnu":
			// GNU assemblers on Windows take the Linux syntax.
			return "linux", "S", nil
		}
		// No assembly flavour fits; an empty set would leave the vale
		// symbols enabled in config.h unresolved at link time.
		return "", "", fmt.Errorf("%w: %s on %s", ErrUnsupportedABI, abi, os)
	}
	return "linux", "S", nil
}

// AsmSuffix returns the file name suffix of the vale assembly sources for
// cfg, or "" when no assembly is compiled.
func AsmSuffix(cfg config.Configuration, t Target) (string, error) {
	if !cfg.Vale || cfg.Arch != config.ArchX86_64 {
		return "", nil
	}
	osToken, ext, err := AsmTarget(t.OS, t.ABI)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("-%s-%s.%s", cfg.Arch, osToken, ext), nil
}

// AsmSources returns the assembly files in dir that are compiled for cfg.
// The set is empty unless vale is enabled on x86_64.
func AsmSources(cfg config.Configuration, t Target, dir string) (*fileset.FileSet, error) {
	set := fileset.New()
	suffix, err := AsmSuffix(cfg, t)
	if err != nil || suffix == "" {
		return set, err
	}
	if err := set.Add(dir, pattern.End(suffix)); err != nil {
		return nil, err
	}
	return set, nil
}

// Plan is the complete source selection for one build.
type Plan struct {
	Config    config.Configuration
	Target    Target
	Dir       string
	AsmSuffix string
	C         *fileset.FileSet
	Asm       *fileset.FileSet
}

// Files returns the C sources followed by the assembly sources.
func (p *Plan) Files() []string {
	files := p.C.Paths()
	return append(files, p.Asm.Paths()...)
}

// Select computes the C and assembly sets in dir for cfg and t.
func Select(cfg config.Configuration, t Target, dir string) (*Plan, error) {
	suffix, err := AsmSuffix(cfg, t)
	if err != nil {
		return nil, err
	}
	cs, err := CSources(cfg, dir)
	if err != nil {
		return nil, err
	}
	asm, err := AsmSources(cfg, t, dir)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Config:    cfg,
		Target:    t,
		Dir:       dir,
		AsmSuffix: suffix,
		C:         cs,
		Asm:       asm,
	}, nil
}
