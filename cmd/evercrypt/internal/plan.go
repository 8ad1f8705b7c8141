package internal

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goplus/evercrypt/internal/build"
	"github.com/goplus/evercrypt/internal/config"
	"github.com/spf13/cobra"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the configuration and sources a build would use",
	Long:  `Plan resolves the configuration and selects the sources without compiling anything.`,
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the plan as JSON")
	rootCmd.AddCommand(planCmd)
}

// planOutput is the JSON form of a plan.
type planOutput struct {
	Target    string               `json:"target"`
	Config    config.Configuration `json:"config"`
	Header    string               `json:"header"`
	Includes  []string             `json:"includes"`
	Srcs      []string             `json:"srcs"`
	Asm       []string             `json:"asm"`
	AsmSuffix string               `json:"asm_suffix,omitempty"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	in, err := loadInput()
	if err != nil {
		return err
	}
	p, err := build.NewBuilder(in).Plan()
	if err != nil {
		return err
	}
	out := planOutput{
		Target:    in.Target(),
		Config:    p.Config,
		Header:    p.Header,
		Includes:  p.Includes,
		Srcs:      p.Sources.C.Names(),
		Asm:       p.Sources.Asm.Names(),
		AsmSuffix: p.Sources.AsmSuffix,
	}
	if planJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printPlan(cmd.OutOrStdout(), &out)
	return nil
}

func printPlan(w io.Writer, p *planOutput) {
	fmt.Fprintf(w, "target: %s\n", p.Target)
	fmt.Fprintf(w, "config: %s\n", p.Config)
	fmt.Fprintf(w, "\n%s:\n%s", "config.h", p.Header)
	fmt.Fprintf(w, "\nC sources (%d):\n", len(p.Srcs))
	for _, s := range p.Srcs {
		fmt.Fprintf(w, "  %s\n", s)
	}
	if p.AsmSuffix == "" {
		fmt.Fprintln(w, "\nassembly: none")
		return
	}
	fmt.Fprintf(w, "\nassembly *%s (%d):\n", p.AsmSuffix, len(p.Asm))
	for _, s := range p.Asm {
		fmt.Fprintf(w, "  %s\n", s)
	}
}
