package header

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goplus/evercrypt/internal/config"
	"github.com/stretchr/testify/require"
)

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestSynthesizeX86_64(t *testing.T) {
	cfg, err := config.Resolve("x86_64", false)
	require.NoError(t, err)

	want := []string{
		"#define TARGET_ARCHITECTURE TARGET_ARCHITECTURE_ID_X64",
		"#define HACL_CAN_COMPILE_INTRINSICS 1",
		"#define HACL_CAN_COMPILE_VALE 1",
		"#define HACL_CAN_COMPILE_INLINE_ASM 1",
		"#define Lib_IntVector_Intrinsics_vec128 void *",
		"#define Lib_IntVector_Intrinsics_vec256 void *",
		"// #define HACL_CAN_COMPILE_UINT128 1",
		"#define LINUX_NO_EXPLICIT_BZERO 1",
	}
	require.Equal(t, want, lines(Synthesize(cfg)))
}

func TestSynthesizeFailsafe(t *testing.T) {
	got := Synthesize(config.Failsafe(config.ArchX86))
	require.Contains(t, got, "TARGET_ARCHITECTURE_ID_X86\n")
	for _, name := range []string{"INTRINSICS", "VALE", "INLINE_ASM", "UINT128"} {
		require.Contains(t, got, "// #define HACL_CAN_COMPILE_"+name+" 1\n")
	}
}

func TestSynthesizeVectors(t *testing.T) {
	off := Synthesize(config.Configuration{Arch: config.ArchX86_64})
	require.Contains(t, off, Vec128Placeholder+"\n")
	require.Contains(t, off, Vec256Placeholder+"\n")
	require.NotContains(t, off, "#define HACL_CAN_COMPILE_VEC128")
	require.NotContains(t, off, "#define HACL_CAN_COMPILE_VEC256")

	on := Synthesize(config.Configuration{Arch: config.ArchX86_64, V128: true, V256: true})
	require.Contains(t, on, "#define HACL_CAN_COMPILE_VEC128 1\n")
	require.Contains(t, on, "#define HACL_CAN_COMPILE_VEC256 1\n")
	require.NotContains(t, on, Vec128Placeholder)
	require.NotContains(t, on, Vec256Placeholder)
}

func TestSynthesizeArmVariant(t *testing.T) {
	require.Contains(t, Synthesize(config.Configuration{Arch: config.ArchARM}), "TARGET_ARCHITECTURE_ID_ARM7")
	require.Contains(t, Synthesize(config.Configuration{Arch: config.ArchARM, V128: true}), "TARGET_ARCHITECTURE_ID_ARM8")
}

func TestSynthesizeDeterministic(t *testing.T) {
	cfg := config.Configuration{Arch: config.ArchX86, Intrinsics: true, NativeU128: true}
	require.Equal(t, Synthesize(cfg), Synthesize(cfg))
	require.Equal(t, Digest(cfg), Digest(cfg))
	require.NotEqual(t, Digest(cfg), Digest(config.Failsafe(config.ArchX86)))

	for _, line := range lines(Synthesize(cfg)) {
		require.Equal(t, strings.TrimSpace(line), line)
	}
}

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	cfg := config.Failsafe(config.ArchARM)
	path, err := Write(dir, cfg)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, FileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, Synthesize(cfg), string(data))
}
