// Package hostcpu reports the instruction set extensions of the build host.
//
// The report is informational. Capability selection stays table driven and
// never depends on the machine the build runs on.
package hostcpu

import (
	"runtime"
	"sort"

	"golang.org/x/sys/cpu"
)

// Features maps feature names to their availability on the host.
type Features map[string]bool

// Detect returns the features relevant to the vendored vector and vale code.
func Detect() Features {
	f := Features{}
	switch runtime.GOARCH {
	case "amd64", "386":
		f["sse2"] = cpu.X86.HasSSE2
		f["sse41"] = cpu.X86.HasSSE41
		f["avx"] = cpu.X86.HasAVX
		f["avx2"] = cpu.X86.HasAVX2
		f["aes"] = cpu.X86.HasAES
		f["pclmulqdq"] = cpu.X86.HasPCLMULQDQ
		f["bmi2"] = cpu.X86.HasBMI2
		f["adx"] = cpu.X86.HasADX
	case "arm64":
		f["asimd"] = cpu.ARM64.HasASIMD
		f["aes"] = cpu.ARM64.HasAES
		f["pmull"] = cpu.ARM64.HasPMULL
		f["sha2"] = cpu.ARM64.HasSHA2
	case "arm":
		f["neon"] = cpu.ARM.HasNEON
	}
	return f
}

// Names returns the feature names in order.
func (f Features) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Vec128 reports whether the host could run 128 bit vector code.
func (f Features) Vec128() bool {
	return f["sse41"] || f["asimd"] || f["neon"]
}

// Vec256 reports whether the host could run 256 bit vector code.
func (f Features) Vec256() bool {
	return f["avx2"]
}

// Vale reports whether the host could run the vale x64 assembly, which
// relies on the ADX and BMI2 extensions for its bignum routines.
func (f Features) Vale() bool {
	return f["adx"] && f["bmi2"]
}
