// Package config derives the capability configuration of the vendored
// library from the target architecture.
//
// Feature detection is purely architecture driven: every target of a given
// architecture gets the same conservative baseline.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedArchitecture is returned for an unrecognized target architecture.
var ErrUnsupportedArchitecture = errors.New("unsupported target architecture")

// Arch is a target architecture.
type Arch string

const (
	ArchARM    Arch = "arm"
	ArchX86    Arch = "x86"
	ArchX86_64 Arch = "x86_64"
)

// ParseArch maps a target architecture identifier to an Arch.
// Both "arm" and "aarch64" map to ArchARM.
func ParseArch(s string) (Arch, error) {
	switch s {
	case "arm", "aarch64":
		return ArchARM, nil
	case "x86":
		return ArchX86, nil
	case "x86_64":
		return ArchX86_64, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedArchitecture, s)
}

// Configuration is the set of capabilities the library is compiled with.
type Configuration struct {
	Arch       Arch `json:"arch"`
	V128       bool `json:"v128"`        // 128 bit vector instructions
	V256       bool `json:"v256"`        // 256 bit vector instructions
	Vale       bool `json:"vale"`        // vale assembly
	InlineAsm  bool `json:"inline_asm"`  // inline assembly
	Intrinsics bool `json:"intrinsics"`  // compiler intrinsics
	NativeU128 bool `json:"native_u128"` // native 128 bit integers
}

var baseline = map[Arch]Configuration{
	ArchARM: {Arch: ArchARM},
	ArchX86: {Arch: ArchX86, Intrinsics: true},
	ArchX86_64: {
		Arch:       ArchX86_64,
		Vale:       true,
		InlineAsm:  true,
		Intrinsics: true,
	},
}

// Resolve returns the configuration for the target architecture arch.
// With failsafe set, every capability is disabled.
func Resolve(arch string, failsafe bool) (Configuration, error) {
	a, err := ParseArch(arch)
	if err != nil {
		return Configuration{}, err
	}
	if failsafe {
		return Failsafe(a), nil
	}
	return baseline[a], nil
}

// Failsafe returns the most conservative configuration for arch.
func Failsafe(arch Arch) Configuration {
	return Configuration{Arch: arch}
}

// Validate checks the invariants of a hand-built configuration.
func (c Configuration) Validate() error {
	if _, err := ParseArch(string(c.Arch)); err != nil {
		return err
	}
	if c.Vale && c.Arch != ArchX86_64 {
		return fmt.Errorf("vale requires %s, target is %s", ArchX86_64, c.Arch)
	}
	return nil
}

// String returns a compact summary such as "x86_64+vale+inline_asm+intrinsics".
func (c Configuration) String() string {
	parts := []string{string(c.Arch)}
	for _, f := range []struct {
		on   bool
		name string
	}{
		{c.V128, "v128"},
		{c.V256, "v256"},
		{c.Vale, "vale"},
		{c.InlineAsm, "inline_asm"},
		{c.Intrinsics, "intrinsics"},
		{c.NativeU128, "native_u128"},
	} {
		if f.on {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "+")
}
