package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/evercrypt/internal/build"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the static library",
	Long: `Build generates config.h, compiles the selected sources of the vendored
distribution and archives them into a static library.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	in, err := loadInput()
	if err != nil {
		return err
	}

	ctx := context.Background()

	builder := build.NewBuilder(in)
	if err := builder.Toolchain().CheckTools(); err != nil {
		return err
	}
	result, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", build.LibName, err)
	}
	printLinkInfo(cmd.OutOrStdout(), result)
	return nil
}

// printLinkInfo prints what a consumer needs to link against the library.
func printLinkInfo(w io.Writer, r *build.Result) {
	fmt.Fprintf(w, "%s: %s\n", r.LibName, strings.Join(r.LinkFlags(), " "))
	fmt.Fprintf(w, "PKG_CONFIG_PATH=%s\n", filepath.Dir(r.PkgConfig))
	fmt.Fprintf(w, "CGO_CFLAGS=-I%s\n", r.LibDir)
	fmt.Fprintf(w, "CGO_LDFLAGS=%s\n", strings.Join(r.LinkFlags(), " "))
	if _, err := os.Stat(r.Manifest); err == nil {
		fmt.Fprintf(w, "manifest: %s\n", r.Manifest)
	}
}
