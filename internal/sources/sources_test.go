package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goplus/evercrypt/internal/config"
	"github.com/goplus/evercrypt/pkgs/fileset"
	"github.com/stretchr/testify/require"
)

func distDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	return dir
}

func TestCSourcesAllDisabled(t *testing.T) {
	dir := distDir(t, "foo.c", "foo_128.c", "foo_256.c", "Hacl_Curve25519_64.c", "evercrypt_vale_stubs.c")
	set, err := CSources(config.Configuration{Arch: config.ArchX86_64}, dir)
	require.NoError(t, err)
	require.Equal(t, []string{"foo.c"}, set.Names())
}

func TestCSourcesRules(t *testing.T) {
	dir := distDir(t,
		"EverCrypt_Hash.c",
		"Hacl_Chacha20Poly1305_128.c",
		"Hacl_Chacha20Poly1305_256.c",
		"Hacl_Curve25519_51.c",
		"Hacl_Curve25519_64.c",
		"Hacl_HPKE_Curve51_CP128_SHA256.c",
		"Hacl_HPKE_Curve51_CP256_SHA512.c",
		"Hacl_HPKE_Curve64_CP32_SHA256.c",
		"Hacl_HPKE_Curve64_CP32_SHA256.h",
		"Hacl_Poly1305_128.c",
		"Lib_IntVector_Vec128.c",
		"Lib_IntVector_Vec256.c",
		"curve25519-x86_64-linux.S",
		"evercrypt_vale_stubs.c",
	)

	tests := []struct {
		name string
		cfg  config.Configuration
		want []string
	}{
		{
			name: "failsafe",
			cfg:  config.Failsafe(config.ArchX86_64),
			want: []string{"EverCrypt_Hash.c", "Hacl_Curve25519_51.c"},
		},
		{
			name: "vale only",
			cfg:  config.Configuration{Arch: config.ArchX86_64, Vale: true},
			want: []string{
				"EverCrypt_Hash.c",
				"Hacl_Curve25519_51.c",
				"Hacl_Curve25519_64.c",
				"Hacl_HPKE_Curve64_CP32_SHA256.c",
				"evercrypt_vale_stubs.c",
			},
		},
		{
			name: "v128",
			cfg:  config.Configuration{Arch: config.ArchX86_64, V128: true},
			want: []string{
				"EverCrypt_Hash.c",
				"Hacl_Chacha20Poly1305_128.c",
				"Hacl_Curve25519_51.c",
				"Hacl_HPKE_Curve51_CP128_SHA256.c",
				"Hacl_Poly1305_128.c",
				"Lib_IntVector_Vec128.c",
			},
		},
		{
			name: "v256",
			cfg:  config.Configuration{Arch: config.ArchX86_64, V256: true},
			want: []string{
				"EverCrypt_Hash.c",
				"Hacl_Chacha20Poly1305_256.c",
				"Hacl_Curve25519_51.c",
				"Hacl_HPKE_Curve51_CP256_SHA512.c",
				"Lib_IntVector_Vec256.c",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := CSources(tt.cfg, dir)
			require.NoError(t, err)
			require.Equal(t, tt.want, set.Names())
		})
	}
}

func TestCSourcesUnreadable(t *testing.T) {
	_, err := CSources(config.Failsafe(config.ArchARM), filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, fileset.ErrDirectoryUnreadable)
}

func TestAsmTarget(t *testing.T) {
	tests := []struct {
		os, abi     string
		token, ext  string
		expectError bool
	}{
		{"macos", "", "darwin", "S", false},
		{"ios", "", "darwin", "S", false},
		{"linux", "gnu", "linux", "S", false},
		{"linux", "musl", "linux", "S", false},
		{"windows", "msvc", "msvc", "asm", false},
		{"windows", "gnu", "linux", "S", false},
		{"windows", "", "", "", true},
		{"freebsd", "", "linux", "S", false},
		{"android", "", "linux", "S", false},
	}
	for _, tt := range tests {
		token, ext, err := AsmTarget(tt.os, tt.abi)
		if tt.expectError {
			require.ErrorIs(t, err, ErrUnsupportedABI)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.token, token, "%s/%s", tt.os, tt.abi)
		require.Equal(t, tt.ext, ext, "%s/%s", tt.os, tt.abi)
	}
}

func TestAsmSuffix(t *testing.T) {
	vale := config.Configuration{Arch: config.ArchX86_64, Vale: true}

	got, err := AsmSuffix(vale, Target{OS: "windows", ABI: "msvc"})
	require.NoError(t, err)
	require.Equal(t, "-x86_64-msvc.asm", got)

	got, err = AsmSuffix(vale, Target{OS: "linux", ABI: "gnu"})
	require.NoError(t, err)
	require.Equal(t, "-x86_64-linux.S", got)

	got, err = AsmSuffix(vale, Target{OS: "macos"})
	require.NoError(t, err)
	require.Equal(t, "-x86_64-darwin.S", got)

	got, err = AsmSuffix(config.Configuration{Arch: config.ArchX86_64}, Target{OS: "linux"})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestAsmSources(t *testing.T) {
	dir := distDir(t,
		"aesgcm-x86_64-linux.S",
		"aesgcm-x86_64-darwin.S",
		"aesgcm-x86_64-msvc.asm",
		"curve25519-x86_64-linux.S",
		"foo.c",
	)
	vale := config.Configuration{Arch: config.ArchX86_64, Vale: true}

	set, err := AsmSources(vale, Target{OS: "linux", ABI: "gnu"}, dir)
	require.NoError(t, err)
	require.Equal(t, []string{"aesgcm-x86_64-linux.S", "curve25519-x86_64-linux.S"}, set.Names())

	set, err = AsmSources(vale, Target{OS: "windows", ABI: "msvc"}, dir)
	require.NoError(t, err)
	require.Equal(t, []string{"aesgcm-x86_64-msvc.asm"}, set.Names())

	set, err = AsmSources(vale, Target{OS: "windows", ABI: "gnu"}, dir)
	require.NoError(t, err)
	require.Equal(t, []string{"aesgcm-x86_64-linux.S", "curve25519-x86_64-linux.S"}, set.Names())

	set, err = AsmSources(config.Failsafe(config.ArchX86_64), Target{OS: "linux"}, dir)
	require.NoError(t, err)
	require.Zero(t, set.Len())
}

func TestAsmSourcesArchGated(t *testing.T) {
	dir := distDir(t, "aesgcm-x86_64-linux.S", "aesgcm-x86_64-msvc.asm")
	arm := config.Configuration{Arch: config.ArchARM, Vale: true}
	for _, tgt := range []Target{{"linux", "gnu"}, {"windows", "msvc"}, {"windows", "weird"}, {"macos", ""}} {
		set, err := AsmSources(arm, tgt, dir)
		require.NoError(t, err)
		require.Zero(t, set.Len(), "%+v", tgt)
	}
}

func TestSelect(t *testing.T) {
	dir := distDir(t, "a.c", "b_256.c", "z-x86_64-linux.S", "a-x86_64-linux.S")
	cfg, err := config.Resolve("x86_64", false)
	require.NoError(t, err)

	plan, err := Select(cfg, Target{OS: "linux", ABI: "gnu"}, dir)
	require.NoError(t, err)
	require.Equal(t, "-x86_64-linux.S", plan.AsmSuffix)
	require.Equal(t, []string{
		filepath.Join(dir, "a.c"),
		filepath.Join(dir, "a-x86_64-linux.S"),
		filepath.Join(dir, "z-x86_64-linux.S"),
	}, plan.Files())

	_, err = Select(cfg, Target{OS: "windows", ABI: "cygnus"}, dir)
	require.ErrorIs(t, err, ErrUnsupportedABI)
}
