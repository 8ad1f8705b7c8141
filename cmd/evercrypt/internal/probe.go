package internal

import (
	"fmt"
	"io"

	"github.com/goplus/evercrypt/internal/config"
	"github.com/goplus/evercrypt/internal/hostcpu"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Compare host CPU features with the resolved configuration",
	Long: `Probe lists the instruction set extensions of the build host next to the
capabilities the configuration enables. The configuration itself never
depends on the host.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	in, err := loadInput()
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(in.Arch, in.Failsafe)
	if err != nil {
		return err
	}
	printProbe(cmd.OutOrStdout(), in.Target(), cfg, hostcpu.Detect())
	return nil
}

func printProbe(w io.Writer, target string, cfg config.Configuration, host hostcpu.Features) {
	fmt.Fprintf(w, "target: %s\nconfig: %s\n\nhost features:\n", target, cfg)
	for _, name := range host.Names() {
		fmt.Fprintf(w, "  %-10s %v\n", name, host[name])
	}
	fmt.Fprintln(w, "\ncapability  config  host")
	for _, c := range []struct {
		name      string
		cfg, host bool
	}{
		{"v128", cfg.V128, host.Vec128()},
		{"v256", cfg.V256, host.Vec256()},
		{"vale", cfg.Vale, host.Vale()},
	} {
		fmt.Fprintf(w, "  %-9s %-7v %v\n", c.name, c.cfg, c.host)
	}
}
