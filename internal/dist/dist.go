// Package dist describes the layout of a vendored distribution.
package dist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

// Suffix ends the directory name of every vendored distribution, as in
// "v0.4.5-dist".
const Suffix = "-dist"

// ErrNoDistribution is returned when no vendored distribution is found.
var ErrNoDistribution = errors.New("no vendored distribution")

// Layout locates the directories of a distribution rooted at Root.
type Layout struct {
	Root string
}

// C89Dir is the directory holding the c89-compatible C and assembly sources.
func (l Layout) C89Dir() string {
	return filepath.Join(l.Root, "c89-compatible")
}

// KaramelInclude is the include directory of the KaRaMeL runtime.
func (l Layout) KaramelInclude() string {
	return filepath.Join(l.Root, "kremlin", "include")
}

// KaramelMinimalInclude is the include directory of the minimal KaRaMeL runtime.
func (l Layout) KaramelMinimalInclude() string {
	return filepath.Join(l.Root, "kremlin", "kremlib", "dist", "minimal")
}

// Includes returns the include paths of the distribution.
func (l Layout) Includes() []string {
	return []string{l.C89Dir(), l.KaramelInclude(), l.KaramelMinimalInclude()}
}

// Version returns the canonical semantic version of the distribution,
// taken from the base name of Root.
func (l Layout) Version() (string, error) {
	return versionOf(filepath.Base(l.Root))
}

func versionOf(name string) (string, error) {
	v, ok := strings.CutSuffix(name, Suffix)
	if !ok || !semver.IsValid(v) {
		return "", fmt.Errorf("bad distribution name %q, want vX.Y.Z%s", name, Suffix)
	}
	return semver.Canonical(v), nil
}

// Check verifies that the source and include directories exist.
func (l Layout) Check() error {
	for _, dir := range l.Includes() {
		fi, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("distribution %s: %w", l.Root, err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("distribution %s: %s is not a directory", l.Root, dir)
		}
	}
	return nil
}

// Find returns the distribution with the highest version in vendorDir.
func Find(vendorDir string) (Layout, error) {
	ents, err := os.ReadDir(vendorDir)
	if err != nil {
		return Layout{}, fmt.Errorf("%w in %s: %w", ErrNoDistribution, vendorDir, err)
	}
	var best, bestVer string
	for _, ent := range ents {
		if !ent.IsDir() {
			continue
		}
		v, err := versionOf(ent.Name())
		if err != nil {
			continue
		}
		if best == "" || semver.Compare(v, bestVer) > 0 {
			best, bestVer = ent.Name(), v
		}
	}
	if best == "" {
		return Layout{}, fmt.Errorf("%w in %s", ErrNoDistribution, vendorDir)
	}
	return Layout{Root: filepath.Join(vendorDir, best)}, nil
}
