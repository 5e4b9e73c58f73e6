package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/report"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/storage"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Inspect the alert journal",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled alert reports, newest first",
	RunE:  runAlertsList,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsListCmd)

	alertsListCmd.Flags().StringP("kind", "k", "", "Filter by kind (cost, inventory)")
	alertsListCmd.Flags().Duration("since", 0, "Only show reports recorded within this duration (e.g. 24h)")
	alertsListCmd.Flags().IntP("limit", "n", storage.DefaultListLimit, "Maximum number of reports")
}

func runAlertsList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return errors.New("alert journal is disabled (set journal.enabled)")
	}

	kind, _ := cmd.Flags().GetString("kind")
	since, _ := cmd.Flags().GetDuration("since")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := storage.AlertFilter{Kind: model.ReportKind(kind), Limit: limit}
	switch filter.Kind {
	case "", model.KindCost, model.KindInventory:
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}
	if since > 0 {
		filter.Since = time.Now().Add(-since)
	}

	journal, err := initJournal(cfg)
	if err != nil {
		return err
	}
	defer journal.Close()

	records, err := journal.ListAlerts(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No alerts recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RECORDED\tKIND\tSTATUS\tEXCEEDED\tSUBJECT\n")
	for _, r := range records {
		status := "ALERT"
		if r.NoAlerts {
			status = "OK"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\n",
			report.FormatTimestamp(r.RecordedAt), r.Kind, status, r.Exceeded, r.Evaluated, r.Subject)
	}
	return w.Flush()
}
