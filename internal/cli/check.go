package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brendadeeznuts1111/lattice/internal/harness"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the integration harness",
	Long:  "Runs the full scenario suite against the store, engine, and reload channel.\nExits 0 when every scenario passes, 1 otherwise — suitable for gating a deploy step.",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	report := harness.New(logger).Run(cmd.Context())

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tRESULT\tDURATION")
	for _, sc := range report.Scenarios {
		result := "pass"
		if !sc.Passed {
			result = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2fms\n", sc.Name, result, sc.DurationMs)
	}
	tw.Flush()
	fmt.Printf("\n%d/%d scenarios passed in %.2fms\n", report.Passed, report.Total, report.TimeMs)

	if report.Failed() {
		return fmt.Errorf("%d scenario(s) failed", report.Total-report.Passed)
	}
	return nil
}
