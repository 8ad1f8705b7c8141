// Package env gathers every build input once, from the process environment
// and an optional settings file, into one explicit Input value.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Environment variables read by FromEnviron.
const (
	VarArch     = "EVERCRYPT_TARGET_ARCH"
	VarOS       = "EVERCRYPT_TARGET_OS"
	VarABI      = "EVERCRYPT_TARGET_ENV"
	VarFailsafe = "EVERCRYPT_FAILSAFE"
	VarOutDir   = "EVERCRYPT_OUT_DIR"
	VarDist     = "EVERCRYPT_DIST"
	VarJobs     = "EVERCRYPT_JOBS"
	VarCC       = "CC"
	VarAR       = "AR"
	VarCFlags   = "CFLAGS"
)

// Input holds the inputs of one build.
type Input struct {
	Arch     string `toml:"arch"`
	OS       string `toml:"os"`
	ABI      string `toml:"abi"`
	Failsafe bool   `toml:"failsafe"`
	OutDir   string `toml:"out_dir"`
	DistDir  string `toml:"dist"`
	CC       string `toml:"cc"`
	AR       string `toml:"ar"`
	CFlags   string `toml:"cflags"`
	Jobs     int    `toml:"jobs"`
}

// Target returns the target triple as arch-os-abi.
func (in *Input) Target() string {
	return in.Arch + "-" + in.OS + "-" + in.ABI
}

// WorkDir returns the root of the default build output directories.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".evercrypt"), nil
}

// HostArch maps a GOARCH value to the architecture identifier understood by
// the configuration resolver. Unknown values are returned unchanged.
func HostArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		return "aarch64"
	}
	return goarch
}

// HostOS maps a GOOS value to the target OS identifier.
func HostOS(goos string) string {
	if goos == "darwin" {
		return "macos"
	}
	return goos
}

// HostABI returns the ABI environment a native build on goos targets.
func HostABI(goos string) string {
	if goos == "windows" {
		return "msvc"
	}
	return "gnu"
}

// Default returns the Input for a native build on the running host.
func Default() Input {
	return Input{
		Arch: HostArch(runtime.GOARCH),
		OS:   HostOS(runtime.GOOS),
		ABI:  HostABI(runtime.GOOS),
		Jobs: runtime.NumCPU(),
	}
}

// LoadFile decodes the TOML settings file at path over in.
func LoadFile(path string, in *Input) error {
	if _, err := toml.DecodeFile(path, in); err != nil {
		return fmt.Errorf("failed to load settings %s: %w", path, err)
	}
	return nil
}

// Apply overrides fields of in with the variables set in the environment
// described by lookup, which has the signature of os.LookupEnv.
func Apply(in *Input, lookup func(string) (string, bool)) error {
	for key, dst := range map[string]*string{
		VarArch:   &in.Arch,
		VarOS:     &in.OS,
		VarABI:    &in.ABI,
		VarOutDir: &in.OutDir,
		VarDist:   &in.DistDir,
		VarCC:     &in.CC,
		VarAR:     &in.AR,
		VarCFlags: &in.CFlags,
	} {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if _, ok := lookup(VarFailsafe); ok {
		in.Failsafe = true
	}
	if v, ok := lookup(VarJobs); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: bad job count %q", VarJobs, v)
		}
		in.Jobs = n
	}
	return nil
}

// Finish fills OutDir when unset, rooted at WorkDir and keyed by target.
// A job count below one means one job per CPU.
func Finish(in *Input) error {
	if in.Jobs < 1 {
		in.Jobs = runtime.NumCPU()
	}
	if in.OutDir != "" {
		return nil
	}
	dir, err := WorkDir()
	if err != nil {
		return err
	}
	in.OutDir = filepath.Join(dir, in.Target())
	return nil
}

// FromEnviron gathers the build Input: host defaults, then the settings
// file (if settings is not empty), then the process environment.
func FromEnviron(settings string) (Input, error) {
	in := Default()
	if settings != "" {
		if err := LoadFile(settings, &in); err != nil {
			return Input{}, err
		}
	}
	if err := Apply(&in, os.LookupEnv); err != nil {
		return Input{}, err
	}
	return in, nil
}
