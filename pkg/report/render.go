package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

const width = 80

var (
	heavyRule = strings.Repeat("=", width)
	lightRule = strings.Repeat("-", width)
)

// Render writes the report as a plain-text block.
func Render(w io.Writer, r *model.AlertReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n%s\n", heavyRule, r.Title, heavyRule)
	writeFields(&b, "", r.Details)
	fmt.Fprintf(&b, "\n%s\n", r.Message)

	for _, e := range r.Entries {
		b.WriteString("\n")
		writeFields(&b, "  ", e.Fields)
		b.WriteString(lightRule + "\n")
	}

	s := r.Summary
	fmt.Fprintf(&b, "\nSummary: %d evaluated, %d skipped, %d exceeding\n", s.Evaluated, s.Skipped, s.Exceeded)
	if r.Recommendation != "" {
		fmt.Fprintf(&b, "Recommendation: %s\n", r.Recommendation)
	}
	b.WriteString(heavyRule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// String renders the report to a string.
func String(r *model.AlertReport) string {
	var b strings.Builder
	_ = Render(&b, r)
	return b.String()
}

func writeFields(w io.Writer, indent string, fields []model.ReportField) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, f := range fields {
		fmt.Fprintf(tw, "%s%s:\t%s\n", indent, f.Label, f.Value)
	}
	tw.Flush()
}

// RenderStatusTable writes one row per evaluated instance with its CPU
// reading and status.
func RenderStatusTable(w io.Writer, verdicts []model.ThresholdVerdict) error {
	if len(verdicts) == 0 {
		_, err := fmt.Fprintln(w, "No running instances found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "INSTANCE ID\tNAME\tCPU %%\tSTATUS\n")
	for _, v := range verdicts {
		if v.Instance == nil {
			continue
		}
		status := "Normal"
		if v.Exceeded {
			status = "HIGH CPU"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", v.Instance.ID, orNA(v.Instance.Name), v.MetricValue, status)
	}
	return tw.Flush()
}
