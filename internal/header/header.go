// Package header renders a Configuration into the config.h consumed by the
// vendored C sources.
package header

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/evercrypt/internal/config"
)

// FileName is the name the vendored sources include the header by.
const FileName = "config.h"

// Opaque placeholders for vector types whose instructions are disabled.
// Generated code names these types unconditionally.
const (
	Vec128Placeholder = "#define Lib_IntVector_Intrinsics_vec128 void *"
	Vec256Placeholder = "#define Lib_IntVector_Intrinsics_vec256 void *"
)

func define(name string, on bool) string {
	line := "#define " + name + " 1"
	if on {
		return line
	}
	return "// " + line
}

func targetArch(cfg config.Configuration) string {
	var id string
	switch cfg.Arch {
	case config.ArchARM:
		id = "ARM7"
		if cfg.V128 {
			id = "ARM8"
		}
	case config.ArchX86:
		id = "X86"
	default:
		id = "X64"
	}
	return "#define TARGET_ARCHITECTURE TARGET_ARCHITECTURE_ID_" + id
}

// Synthesize returns the header text for cfg. Equal configurations yield
// byte-identical output.
func Synthesize(cfg config.Configuration) string {
	v128 := Vec128Placeholder
	if cfg.V128 {
		v128 = "#define HACL_CAN_COMPILE_VEC128 1"
	}
	v256 := Vec256Placeholder
	if cfg.V256 {
		v256 = "#define HACL_CAN_COMPILE_VEC256 1"
	}
	lines := []string{
		targetArch(cfg),
		define("HACL_CAN_COMPILE_INTRINSICS", cfg.Intrinsics),
		define("HACL_CAN_COMPILE_VALE", cfg.Vale),
		define("HACL_CAN_COMPILE_INLINE_ASM", cfg.InlineAsm),
		v128,
		v256,
		define("HACL_CAN_COMPILE_UINT128", cfg.NativeU128),
		"#define LINUX_NO_EXPLICIT_BZERO 1",
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(strings.TrimSpace(line))
		b.WriteByte('\n')
	}
	return b.String()
}

// Digest returns the hex SHA-256 of the header text for cfg.
func Digest(cfg config.Configuration) string {
	sum := sha256.Sum256([]byte(Synthesize(cfg)))
	return hex.EncodeToString(sum[:])
}

// Write writes the header for cfg into dir and returns its path.
func Write(dir string, cfg config.Configuration) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(Synthesize(cfg)), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
