// Package toolchain drives the native C compiler, assembler and archiver.
//
// Every tool is started with an explicit argument vector; no command line
// is ever handed to a shell.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/qiniu/x/log"
	"golang.org/x/sync/errgroup"
)

// ErrExternalTool is returned when a tool cannot be started or exits
// with a non-zero status.
var ErrExternalTool = errors.New("external tool failed")

// Options selects the tools of a Toolchain. Empty fields take the
// defaults of the flavour selected by MSVC.
type Options struct {
	MSVC   bool     // use cl, ml64 and lib instead of cc and ar
	CC     string   // C compiler
	AR     string   // archiver
	ASM    string   // assembler for .asm sources (MSVC only)
	CFlags []string // flags passed to every compilation
}

// Toolchain wraps the native build tools.
type Toolchain struct {
	msvc   bool
	cc     string
	ar     string
	asm    string
	cflags []string
	env    map[string]string
}

// New returns a Toolchain for opts.
func New(opts Options) *Toolchain {
	t := &Toolchain{
		msvc:   opts.MSVC,
		cc:     opts.CC,
		ar:     opts.AR,
		asm:    opts.ASM,
		cflags: opts.CFlags,
		env:    map[string]string{},
	}
	if t.msvc {
		t.cc = orDefault(t.cc, "cl")
		t.ar = orDefault(t.ar, "lib")
		t.asm = orDefault(t.asm, "ml64")
	} else {
		t.cc = orDefault(t.cc, "cc")
		t.ar = orDefault(t.ar, "ar")
		// Apple ar stamps member times unless told otherwise.
		t.Env("ZERO_AR_DATE", "1")
	}
	return t
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Env sets an environment variable for every tool invocation.
func (t *Toolchain) Env(key, value string) {
	t.env[key] = value
}

// MSVC reports whether the toolchain uses the MSVC tools.
func (t *Toolchain) MSVC() bool {
	return t.msvc
}

// CC returns the C compiler.
func (t *Toolchain) CC() string {
	return t.cc
}

// RequiredTools returns the programs the toolchain runs.
func (t *Toolchain) RequiredTools() []string {
	tools := []string{t.cc, t.ar}
	if t.msvc {
		tools = append(tools, t.asm)
	}
	return tools
}

// CheckTools verifies that every required tool is in PATH.
func (t *Toolchain) CheckTools() error {
	var missing []string
	for _, tool := range t.RequiredTools() {
		if _, err := exec.LookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: not found in PATH: %s", ErrExternalTool, strings.Join(missing, ", "))
}

// ArchiveName returns the file name of the static library called name.
func (t *Toolchain) ArchiveName(name string) string {
	if t.msvc {
		return name + ".lib"
	}
	return "lib" + name + ".a"
}

func (t *Toolchain) objectName(src string) string {
	if t.msvc {
		return filepath.Base(src) + ".obj"
	}
	return filepath.Base(src) + ".o"
}

// SupportsFlag reports whether the C compiler accepts flag, by compiling an
// empty translation unit in dir with warnings turned into errors.
func (t *Toolchain) SupportsFlag(ctx context.Context, dir, flag string) bool {
	if t.msvc {
		// GNU style warning flags only.
		return !strings.HasPrefix(flag, "-W")
	}
	src := filepath.Join(dir, "flag_check.c")
	if err := os.WriteFile(src, nil, 0o644); err != nil {
		return false
	}
	defer os.Remove(src)
	obj := src + ".o"
	defer os.Remove(obj)
	_, err := t.run(ctx, t.cc, []string{"-Werror", flag, "-c", src, "-o", obj})
	return err == nil
}

// Job describes one static library build.
type Job struct {
	Name     string   // library name, e.g. "evercrypt"
	OutDir   string   // receives objects and the archive
	Includes []string // include directories, in search order
	Sources  []string // C and assembly sources, in link order
	Flags    []string // extra compiler flags, already filtered
	Jobs     int      // maximum concurrent compilations
}

// Build compiles every source of job and archives the objects into a
// static library. It returns the path of the archive.
func (t *Toolchain) Build(ctx context.Context, job Job) (string, error) {
	objDir := filepath.Join(job.OutDir, "obj")
	if err := os.MkdirAll(objDir, 0o755); err != nil {
		return "", err
	}

	objs := make([]string, len(job.Sources))
	g, gctx := errgroup.WithContext(ctx)
	if job.Jobs > 0 {
		g.SetLimit(job.Jobs)
	}
	for i, src := range job.Sources {
		src := src
		obj := filepath.Join(objDir, t.objectName(src))
		objs[i] = obj
		g.Go(func() error {
			return t.compile(gctx, job, src, obj)
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	archive := filepath.Join(job.OutDir, t.ArchiveName(job.Name))
	if err := t.archive(ctx, archive, objs); err != nil {
		return "", err
	}
	return archive, nil
}

func (t *Toolchain) compile(ctx context.Context, job Job, src, obj string) error {
	bin, args := t.compileArgs(job, src, obj)
	log.Debugf("compile %s", filepath.Base(src))
	_, err := t.run(ctx, bin, args)
	return err
}

func (t *Toolchain) compileArgs(job Job, src, obj string) (string, []string) {
	if t.msvc {
		if strings.HasSuffix(src, ".asm") {
			return t.asm, []string{"/nologo", "/c", "/Fo" + obj, src}
		}
		args := []string{"/nologo", "/c"}
		for _, inc := range job.Includes {
			args = append(args, "/I"+inc)
		}
		args = append(args, t.cflags...)
		args = append(args, job.Flags...)
		return t.cc, append(args, src, "/Fo"+obj)
	}
	var args []string
	for _, inc := range job.Includes {
		args = append(args, "-I"+inc)
	}
	args = append(args, t.cflags...)
	args = append(args, job.Flags...)
	return t.cc, append(args, "-c", src, "-o", obj)
}

func (t *Toolchain) archive(ctx context.Context, archive string, objs []string) error {
	// ar appends to an existing archive; start from scratch.
	if err := os.Remove(archive); err != nil && !os.IsNotExist(err) {
		return err
	}
	var args []string
	if t.msvc {
		args = append([]string{"/nologo", "/OUT:" + archive}, objs...)
	} else {
		args = append([]string{"crs", archive}, objs...)
	}
	log.Debugf("archive %s (%d objects)", filepath.Base(archive), len(objs))
	_, err := t.run(ctx, t.ar, args)
	return err
}

func (t *Toolchain) run(ctx context.Context, bin string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if len(t.env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), t.env)
	}
	if err := cmd.Run(); err != nil {
		return out.Bytes(), toolError(bin, args, out.String(), err)
	}
	return out.Bytes(), nil
}

// toolError folds the command line and its output into the error.
func toolError(bin string, args []string, output string, err error) error {
	cmdline := strings.Join(append([]string{bin}, args...), " ")
	if output = strings.TrimSpace(output); output != "" {
		return fmt.Errorf("%w: %s: %v\n\nOutput:\n%s", ErrExternalTool, cmdline, err, output)
	}
	return fmt.Errorf("%w: %s: %v", ErrExternalTool, cmdline, err)
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
