package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goplus/evercrypt/internal/config"
	"github.com/goplus/evercrypt/internal/dist"
	"github.com/goplus/evercrypt/internal/env"
	"github.com/goplus/evercrypt/internal/header"
	"github.com/goplus/evercrypt/internal/sources"
	"github.com/goplus/evercrypt/internal/toolchain"
	"github.com/qiniu/x/log"
)

// LibName is the name of the produced static library.
const LibName = "evercrypt"

// VendorDir is searched for a distribution when none is configured.
const VendorDir = "vendored"

// WarningFlags silence diagnostics the generated sources trigger by design.
// Each is passed only if the compiler accepts it.
var WarningFlags = []string{
	"-Wno-unused-parameter",
	"-Wno-unused-variable",
	"-Wno-unused-but-set-variable",
	"-Wno-unused-function",
	"-Wno-cpp",
}

// Plan is everything a build derives before running any tool.
type Plan struct {
	Config   config.Configuration
	Header   string // config.h text
	Dist     dist.Layout
	Includes []string // OutDir first, then the distribution
	Sources  *sources.Plan
}

// Result describes a finished build.
type Result struct {
	Plan       *Plan
	HeaderPath string
	Archive    string
	LibDir     string
	LibName    string
	PkgConfig  string
	Manifest   string
}

// LinkFlags returns the flags a linker needs to find the library.
func (r *Result) LinkFlags() []string {
	return []string{"-L" + r.LibDir, "-l" + r.LibName}
}

// Builder runs one build from an Input.
type Builder struct {
	in env.Input
	tc *toolchain.Toolchain
}

// NewBuilder returns a Builder for in. The toolchain flavour follows the
// target ABI.
func NewBuilder(in env.Input) *Builder {
	return &Builder{
		in: in,
		tc: toolchain.New(toolchain.Options{
			MSVC:   in.OS == "windows" && in.ABI == "msvc",
			CC:     in.CC,
			AR:     in.AR,
			CFlags: strings.Fields(in.CFlags),
		}),
	}
}

// Toolchain returns the toolchain used by b.
func (b *Builder) Toolchain() *toolchain.Toolchain {
	return b.tc
}

func (b *Builder) layout() (dist.Layout, error) {
	if b.in.DistDir != "" {
		return dist.Layout{Root: b.in.DistDir}, nil
	}
	return dist.Find(VendorDir)
}

// Plan resolves the configuration, renders the header and selects the
// sources. Header and sources derive from the same Configuration value.
func (b *Builder) Plan() (*Plan, error) {
	cfg, err := config.Resolve(b.in.Arch, b.in.Failsafe)
	if err != nil {
		return nil, err
	}
	layout, err := b.layout()
	if err != nil {
		return nil, err
	}
	return b.plan(cfg, layout)
}

func (b *Builder) plan(cfg config.Configuration, layout dist.Layout) (*Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	srcs, err := sources.Select(cfg, sources.Target{OS: b.in.OS, ABI: b.in.ABI}, layout.C89Dir())
	if err != nil {
		return nil, err
	}
	return &Plan{
		Config:   cfg,
		Header:   header.Synthesize(cfg),
		Dist:     layout,
		Includes: append([]string{b.in.OutDir}, layout.Includes()...),
		Sources:  srcs,
	}, nil
}

// Build plans, writes the header, compiles and archives the library and
// registers it. The outputs of a previous build in OutDir are removed
// first, so a failed build leaves no library behind.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	p, err := b.Plan()
	if err != nil {
		return nil, err
	}
	if err := p.Dist.Check(); err != nil {
		return nil, err
	}
	log.Infof("building %s for %s (%s)", LibName, b.in.Target(), p.Config)

	if err := removeOutputs(b.in.OutDir, b.tc.ArchiveName(LibName)); err != nil {
		return nil, err
	}
	hdr, err := header.Write(b.in.OutDir, p.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", header.FileName, err)
	}
	log.Debugf("wrote %s", hdr)

	flags := b.supportedFlags(ctx)
	files := p.Sources.Files()
	log.Infof("compiling %d C and %d assembly sources", p.Sources.C.Len(), p.Sources.Asm.Len())

	archive, err := b.tc.Build(ctx, toolchain.Job{
		Name:     LibName,
		OutDir:   b.in.OutDir,
		Includes: p.Includes,
		Sources:  files,
		Flags:    flags,
		Jobs:     b.in.Jobs,
	})
	if err != nil {
		return nil, err
	}

	r := &Result{
		Plan:       p,
		HeaderPath: hdr,
		Archive:    archive,
		LibDir:     filepath.Dir(archive),
		LibName:    LibName,
	}
	if r.PkgConfig, err = writePkgConfig(r); err != nil {
		return nil, err
	}
	if r.Manifest, err = writeManifest(r, b.in.Target(), time.Since(start)); err != nil {
		return nil, err
	}
	log.Infof("built %s", archive)
	return r, nil
}

func (b *Builder) supportedFlags(ctx context.Context) []string {
	if err := os.MkdirAll(b.in.OutDir, 0o755); err != nil {
		return nil
	}
	var flags []string
	for _, f := range WarningFlags {
		if b.tc.SupportsFlag(ctx, b.in.OutDir, f) {
			flags = append(flags, f)
			continue
		}
		log.Debugf("compiler %s does not accept %s", b.tc.CC(), f)
	}
	return flags
}
