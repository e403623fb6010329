package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brendadeeznuts1111/lattice/internal/engine"
	"github.com/brendadeeznuts1111/lattice/internal/params"
)

var benchIterations int

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a one-shot decay throughput benchmark",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 100_000, "number of random tensions to decay")
}

func runBench(cmd *cobra.Command, args []string) error {
	store := params.New(logger)
	eng := engine.New(store, logger)
	defer eng.Destroy()

	res, err := eng.Benchmark(benchIterations)
	if err != nil {
		return fmt.Errorf("benchmark: %w", err)
	}

	fmt.Printf("iterations:   %d\n", res.Iterations)
	fmt.Printf("time:         %.3fms\n", res.TimeMs)
	fmt.Printf("rate:         %.0f tensions/sec\n", res.RatePerSecond)
	fmt.Printf("acceleration: %v (%s)\n", res.UsedAcceleration, eng.Strategy())
	return nil
}
