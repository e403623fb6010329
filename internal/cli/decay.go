package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/brendadeeznuts1111/lattice/internal/engine"
	"github.com/brendadeeznuts1111/lattice/internal/params"
)

var (
	decayFactorFlag float64
	decayFloorFlag  float64
)

var decayCmd = &cobra.Command{
	Use:   "decay [tension...]",
	Short: "Decay tension values once and print the results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDecay,
}

func init() {
	decayCmd.Flags().Float64Var(&decayFactorFlag, "factor", -1, "decay factor override in [0,1]")
	decayCmd.Flags().Float64Var(&decayFloorFlag, "floor", -1, "noise floor override in [0,1]")
}

func runDecay(cmd *cobra.Command, args []string) error {
	tensions := make([]float32, len(args))
	for i, arg := range args {
		f, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return fmt.Errorf("parse tension %q: %w", arg, err)
		}
		tensions[i] = float32(f)
	}

	store := params.New(logger)
	if decayFactorFlag >= 0 {
		if !store.Set(params.KeyDecayFactor, decayFactorFlag) {
			return fmt.Errorf("invalid decay factor %v", decayFactorFlag)
		}
	}
	if decayFloorFlag >= 0 {
		if !store.Set(params.KeyNoiseFloor, decayFloorFlag) {
			return fmt.Errorf("invalid noise floor %v", decayFloorFlag)
		}
	}

	eng := engine.New(store, logger)
	defer eng.Destroy()

	out, err := eng.BatchDecay(tensions)
	if err != nil {
		return fmt.Errorf("decay: %w", err)
	}
	for i, v := range out {
		fmt.Printf("%g\t%g\n", tensions[i], v)
	}
	return nil
}
