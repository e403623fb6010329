package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger = zap.NewNop()

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Decaying-state batch engine with live-tunable parameters",
	Long: "Lattice decays streams of tension values against runtime-tunable parameters.\n" +
		"Parameters can be re-tuned live via a watched config file, SIGHUP, or the admin API.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func initLogger() error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	logger = l
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose console logging")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(decayCmd)
}
