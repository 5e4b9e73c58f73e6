package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/cloud-guardian/internal/config"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/monitor"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/report"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run monitoring checks",
}

var checkCostCmd = &cobra.Command{
	Use:   "cost",
	Short: "Compare month-to-date spend with the cost threshold",
	RunE:  runCheckCost,
}

var checkInventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Check CPU utilization of running instances",
	RunE:  runCheckInventory,
}

var checkAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Run the cost and inventory checks",
	RunE:  runCheckAll,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.AddCommand(checkCostCmd)
	checkCmd.AddCommand(checkInventoryCmd)
	checkCmd.AddCommand(checkAllCmd)

	checkCostCmd.Flags().Float64("threshold", 0, "Cost threshold in USD (default from config)")
	checkInventoryCmd.Flags().Float64("threshold", 0, "CPU threshold in percent (default from config)")
	checkInventoryCmd.Flags().BoolP("verbose", "v", false, "Print the per-instance status table")
	checkAllCmd.Flags().BoolP("verbose", "v", false, "Print the per-instance status table")
}

// threshold returns the --threshold flag when given, else def.
func threshold(cmd *cobra.Command, def float64) (float64, error) {
	if !cmd.Flags().Changed("threshold") {
		return def, nil
	}
	v, _ := cmd.Flags().GetFloat64("threshold")
	if err := config.CheckThreshold("threshold", v); err != nil {
		return 0, err
	}
	return v, nil
}

func runCheckCost(cmd *cobra.Command, _ []string) error {
	a, err := initApp(cmd)
	if err != nil {
		return &exitError{code: monitor.ExitError, err: err}
	}
	defer a.Close()

	limit, err := threshold(cmd, a.cfg.Thresholds.Cost)
	if err != nil {
		return err
	}

	res := a.monitor.RunCostCheck(cmd.Context(), limit, time.Now())
	return finish(cmd.OutOrStdout(), res, false)
}

func runCheckInventory(cmd *cobra.Command, _ []string) error {
	a, err := initApp(cmd)
	if err != nil {
		return &exitError{code: monitor.ExitError, err: err}
	}
	defer a.Close()

	limit, err := threshold(cmd, a.cfg.Thresholds.CPU)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	res := a.monitor.RunInventoryCheck(cmd.Context(), limit)
	return finish(cmd.OutOrStdout(), res, verbose)
}

func runCheckAll(cmd *cobra.Command, _ []string) error {
	a, err := initApp(cmd)
	if err != nil {
		return &exitError{code: monitor.ExitError, err: err}
	}
	defer a.Close()

	verbose, _ := cmd.Flags().GetBool("verbose")
	out := cmd.OutOrStdout()

	costErr := finish(out, a.monitor.CheckCost(cmd.Context(), time.Now()), false)
	invErr := finish(out, a.monitor.CheckInventory(cmd.Context()), verbose)

	if costErr != nil {
		return costErr
	}
	return invErr
}

// finish prints what the notifiers did not, and maps the result onto the
// command error.
func finish(w io.Writer, res monitor.Result, verbose bool) error {
	if res.Err != nil {
		return &exitError{code: res.ExitCode, err: res.Err}
	}

	if verbose {
		if err := report.RenderStatusTable(w, res.Verdicts); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if !res.Notified {
		if err := report.Render(w, res.Report); err != nil {
			return err
		}
	}
	if res.DeliveryErr != nil {
		fmt.Fprintf(w, "Warning: some notifications failed: %v\n", res.DeliveryErr)
	}
	if res.ExitCode != monitor.ExitOK {
		return &exitError{code: res.ExitCode, err: fmt.Errorf("check exited with status %d", res.ExitCode)}
	}
	return nil
}
