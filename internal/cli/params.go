package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brendadeeznuts1111/lattice/internal/client"
)

var paramsSetFlags []string

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Inspect or tune parameters on a running server",
	Long: "Without flags, prints the current parameter snapshot of the server at\n" +
		"LATTICE_URL (default http://127.0.0.1:37111). With --set key=value flags,\n" +
		"pushes updates and reports how many were accepted.",
	RunE: runParams,
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Trigger a config reload on a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.New().Reload()
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Trigger a parameter snapshot dump on a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.New().Dump()
	},
}

func init() {
	paramsCmd.Flags().StringArrayVar(&paramsSetFlags, "set", nil, "parameter update as key=value (repeatable)")
	rootCmd.AddCommand(paramsCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(dumpCmd)
}

func runParams(cmd *cobra.Command, args []string) error {
	c := client.New()

	if len(paramsSetFlags) > 0 {
		updates, err := parseSetFlags(paramsSetFlags)
		if err != nil {
			return err
		}
		accepted, err := c.Apply(updates)
		if err != nil {
			return err
		}
		fmt.Printf("accepted %d/%d updates\n", accepted, len(updates))
		if accepted < len(updates) {
			return fmt.Errorf("%d update(s) rejected by validation", len(updates)-accepted)
		}
		return nil
	}

	snap, err := c.Params()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s = %v\n", k, snap[k])
	}
	return nil
}

// parseSetFlags turns key=value pairs into typed values: bools and numbers
// are recognized, everything else stays a string.
func parseSetFlags(pairs []string) (map[string]any, error) {
	updates := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", pair)
		}
		switch {
		case raw == "true" || raw == "false":
			updates[key] = raw == "true"
		default:
			if n, err := strconv.Atoi(raw); err == nil {
				updates[key] = n
			} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
				updates[key] = f
			} else {
				updates[key] = raw
			}
		}
	}
	return updates, nil
}
