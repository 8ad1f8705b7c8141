package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goplus/evercrypt/internal/config"
	"github.com/goplus/evercrypt/internal/header"
)

// Output directory layout:
//
//	outDir/
//	  config.h              # generated header
//	  obj/                  # one object per source
//	  libevercrypt.a        # or evercrypt.lib for msvc
//	  evercrypt.json        # build manifest
//	  lib/pkgconfig/evercrypt.pc
const manifestFile = LibName + ".json"

// manifest records what went into a build.
type manifest struct {
	Target       string               `json:"target"`
	Config       config.Configuration `json:"config"`
	DistVersion  string               `json:"dist_version,omitempty"`
	HeaderDigest string               `json:"header_sha256"`
	Srcs         []string             `json:"srcs"`
	Asm          []string             `json:"asm,omitempty"`
	AsmSuffix    string               `json:"asm_suffix,omitempty"`
	Archive      string               `json:"archive"`
	BuildTime    time.Time            `json:"build_time"`
	Duration     string               `json:"duration"`
}

// outputs returns the registered files of a build in outDir.
func outputs(outDir, archiveName string) []string {
	return []string{
		filepath.Join(outDir, archiveName),
		filepath.Join(outDir, manifestFile),
		filepath.Join(outDir, "lib", "pkgconfig", LibName+".pc"),
	}
}

func removeOutputs(outDir, archiveName string) error {
	for _, f := range outputs(outDir, archiveName) {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale %s: %w", filepath.Base(f), err)
		}
	}
	return nil
}

func newManifest(r *Result, target string, elapsed time.Duration) *manifest {
	p := r.Plan
	m := &manifest{
		Target:       target,
		Config:       p.Config,
		HeaderDigest: header.Digest(p.Config),
		Srcs:         p.Sources.C.Names(),
		Asm:          p.Sources.Asm.Names(),
		AsmSuffix:    p.Sources.AsmSuffix,
		Archive:      filepath.Base(r.Archive),
		BuildTime:    time.Now().UTC(),
		Duration:     elapsed.Round(time.Millisecond).String(),
	}
	if v, err := p.Dist.Version(); err == nil {
		m.DistVersion = v
	}
	return m
}

func writeManifest(r *Result, target string, elapsed time.Duration) (string, error) {
	path := filepath.Join(r.LibDir, manifestFile)
	if err := saveManifest(path, newManifest(r, target, elapsed)); err != nil {
		return "", err
	}
	return path, nil
}

func saveManifest(path string, m *manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// pkgConfig renders a pkg-config file describing the library of r.
func pkgConfig(r *Result) string {
	p := r.Plan
	version := "0.0.0"
	if v, err := p.Dist.Version(); err == nil {
		version = strings.TrimPrefix(v, "v")
	}
	cflags := make([]string, len(p.Includes))
	for i, inc := range p.Includes {
		cflags[i] = "-I" + inc
	}
	var b strings.Builder
	fmt.Fprintf(&b, "libdir=%s\n\n", r.LibDir)
	fmt.Fprintf(&b, "Name: %s\n", r.LibName)
	fmt.Fprintf(&b, "Description: HACL* and EverCrypt verified cryptography (%s)\n", p.Config)
	fmt.Fprintf(&b, "Version: %s\n", version)
	fmt.Fprintf(&b, "Libs: -L${libdir} -l%s\n", r.LibName)
	fmt.Fprintf(&b, "Cflags: %s\n", strings.Join(cflags, " "))
	return b.String()
}

func writePkgConfig(r *Result) (string, error) {
	dir := filepath.Join(r.LibDir, "lib", "pkgconfig")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, r.LibName+".pc")
	if err := os.WriteFile(path, []byte(pkgConfig(r)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
