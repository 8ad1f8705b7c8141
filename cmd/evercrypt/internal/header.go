package internal

import (
	"fmt"
	"os"

	"github.com/goplus/evercrypt/internal/config"
	"github.com/goplus/evercrypt/internal/header"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var headerCmd = &cobra.Command{
	Use:   "header [file]",
	Short: "Print or write the generated config.h",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHeader,
}

func init() {
	rootCmd.AddCommand(headerCmd)
}

func runHeader(cmd *cobra.Command, args []string) error {
	in, err := loadInput()
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(in.Arch, in.Failsafe)
	if err != nil {
		return err
	}
	text := header.Synthesize(cfg)
	if len(args) == 0 {
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}
	if err := os.WriteFile(args[0], []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	log.Infof("wrote %s for %s", args[0], cfg)
	return nil
}
