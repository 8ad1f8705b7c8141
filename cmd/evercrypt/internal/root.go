package internal

import (
	"github.com/goplus/evercrypt/internal/env"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var (
	flagSettings string
	flagVerbose  bool
	flagOut      string
	flagDist     string
	flagFailsafe bool
	flagJobs     int
)

var rootCmd = &cobra.Command{
	Use:   "evercrypt",
	Short: "evercrypt builds the vendored HACL*/EverCrypt static library",
	Long: `evercrypt derives a capability configuration for the target platform,
generates config.h, selects the matching C and assembly sources of the vendored
distribution and compiles them into a static library.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			log.SetOutputLevel(log.Ldebug)
		} else {
			log.SetOutputLevel(log.Linfo)
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSettings, "config", "", "TOML settings file")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")
	pf.StringVarP(&flagOut, "out", "o", "", "Output directory (overrides "+env.VarOutDir+")")
	pf.StringVar(&flagDist, "dist", "", "Vendored distribution root (overrides "+env.VarDist+")")
	pf.BoolVar(&flagFailsafe, "failsafe", false, "Disable every capability")
	pf.IntVarP(&flagJobs, "jobs", "j", 0, "Parallel compile jobs (default: number of CPUs)")
}

// loadInput gathers the build input once: defaults, settings file,
// environment, then command line flags.
func loadInput() (env.Input, error) {
	in, err := env.FromEnviron(flagSettings)
	if err != nil {
		return env.Input{}, err
	}
	if flagOut != "" {
		in.OutDir = flagOut
	}
	if flagDist != "" {
		in.DistDir = flagDist
	}
	if flagFailsafe {
		in.Failsafe = true
	}
	if flagJobs > 0 {
		in.Jobs = flagJobs
	}
	if err := env.Finish(&in); err != nil {
		return env.Input{}, err
	}
	log.Debugf("input: %+v", in)
	return in, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
