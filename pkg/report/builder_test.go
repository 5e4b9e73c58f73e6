package report_test

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/report"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/threshold"
)

var period = model.CurrentMonthRange(time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC))

func costSample(amount string) model.CostSample {
	return model.CostSample{
		Amount:   decimal.RequireFromString(amount),
		Currency: model.CurrencyUSD,
		Period:   period,
	}
}

func fieldValue(t *testing.T, fields []model.ReportField, label string) string {
	t.Helper()
	for _, f := range fields {
		if f.Label == label {
			return f.Value
		}
	}
	t.Fatalf("field %q not found", label)
	return ""
}

func TestBuildCostAlert(t *testing.T) {
	sample := costSample("150.00")
	v := threshold.CostVerdict(sample, 100)

	r := report.BuildCostAlert(sample, 100, v.Overage)

	assert.Equal(t, model.KindCost, r.Kind)
	assert.False(t, r.NoAlerts)
	assert.Equal(t, "AWS Cost Alert - Threshold Exceeded", r.Subject)
	assert.Equal(t, "Your AWS spending has reached $150.00, exceeding the $100.00 threshold.", r.Message)

	require.Len(t, r.Entries, 1)
	fields := r.Entries[0].Fields
	assert.Equal(t, "$150.00", fieldValue(t, fields, "Current Month Spending"))
	assert.Equal(t, "$100.00", fieldValue(t, fields, "Alert Threshold"))
	assert.Equal(t, "$50.00", fieldValue(t, fields, "Overage"))
	assert.Equal(t, "2024-12-01 to 2025-01-01", fieldValue(t, fields, "Billing Period"))

	assert.True(t, r.Entries[0].Verdict.Exceeded)
	assert.Equal(t, 50.0, r.Entries[0].Verdict.Overage)
	assert.Equal(t, 1, r.Summary.Exceeded)
	assert.Contains(t, report.String(r), "$50.00")
}

func TestBuildCostAlert_Deterministic(t *testing.T) {
	sample := costSample("123.456")
	a := report.String(report.BuildCostAlert(sample, 100, 23.456))
	b := report.String(report.BuildCostAlert(sample, 100, 23.456))
	assert.Equal(t, a, b)
	assert.Contains(t, a, "$123.46")
	assert.Contains(t, a, "$23.46")
}

func TestBuildCostWithinBudget(t *testing.T) {
	r := report.BuildCostWithinBudget(costSample("42.5"), 100)

	assert.True(t, r.NoAlerts)
	assert.Empty(t, r.Entries)
	assert.Equal(t, "Spending is within budget. $57.50 remaining before alert.", r.Message)
	assert.Equal(t, "$42.50", fieldValue(t, r.Details, "Current Month Spending"))
	assert.Zero(t, r.Summary.Exceeded)
}

func TestBuildCostWithinBudget_InfiniteThreshold(t *testing.T) {
	var r *model.AlertReport
	require.NotPanics(t, func() {
		r = report.BuildCostWithinBudget(costSample("42.5"), math.Inf(1))
	})
	assert.True(t, r.NoAlerts)
	assert.Equal(t, "$+Inf", fieldValue(t, r.Details, "Alert Threshold"))
}

func TestBuildInventoryAlert(t *testing.T) {
	launched := time.Date(2024, 5, 2, 9, 30, 15, 0, time.FixedZone("CEST", 2*60*60))
	hot := model.ResourceInstance{
		ID: "i-hot", State: model.StateRunning, Type: "m5.large", Name: "api-1",
		LaunchTime: launched, PrivateAddress: "10.0.1.7",
	}
	calm := model.ResourceInstance{ID: "i-calm", State: model.StateRunning, Name: "worker"}
	bare := model.ResourceInstance{ID: "i-bare", State: model.StateRunning, Name: model.NotAvailable}

	verdicts := []model.ThresholdVerdict{
		threshold.InstanceVerdict(hot, model.UtilizationSample{InstanceID: "i-hot", Percent: 91.237}, 80),
		threshold.InstanceVerdict(calm, model.UtilizationSample{InstanceID: "i-calm", Percent: 35}, 80),
		threshold.InstanceVerdict(bare, model.UtilizationSample{InstanceID: "i-bare", Percent: 80.5}, 80),
	}

	r := report.BuildInventoryAlert(verdicts, model.ReportSummary{Total: 5, Evaluated: 3, Skipped: 2, Threshold: 80})

	assert.Equal(t, model.KindInventory, r.Kind)
	assert.False(t, r.NoAlerts)
	assert.Equal(t, 2, r.Summary.Exceeded)
	assert.Equal(t, 2, r.Summary.Skipped)
	assert.Equal(t, "2 of 3 running instances exceed the 80.00% CPU threshold.", r.Message)
	assert.Equal(t, "EC2 CPU Alert - 2 instance(s) above 80.00%", r.Subject)
	assert.NotEmpty(t, r.Recommendation)

	require.Len(t, r.Entries, 2)
	assert.Equal(t, "i-hot", r.Entries[0].Verdict.Instance.ID, "discovery order preserved")
	assert.Equal(t, "i-bare", r.Entries[1].Verdict.Instance.ID)

	first := r.Entries[0].Fields
	assert.Equal(t, "91.24%", fieldValue(t, first, "CPU Usage"))
	assert.Equal(t, "2024-05-02 07:30:15 UTC", fieldValue(t, first, "Launch Time"))
	assert.Equal(t, "10.0.1.7", fieldValue(t, first, "Private IP"))
	assert.Equal(t, "N/A", fieldValue(t, first, "Public IP"))
	assert.Equal(t, "CPU usage exceeds 80.00% threshold", fieldValue(t, first, "Action Required"))
	assert.Equal(t, report.HighCPURunbook, fieldValue(t, first, "Refer to"))

	second := r.Entries[1].Fields
	assert.Equal(t, "N/A", fieldValue(t, second, "Launch Time"))
	assert.Equal(t, "N/A", fieldValue(t, second, "Instance Type"))
}

func TestBuildInventoryAlert_NoAlerts(t *testing.T) {
	calm := model.ResourceInstance{ID: "i-calm", State: model.StateRunning}
	verdicts := []model.ThresholdVerdict{
		threshold.InstanceVerdict(calm, model.UtilizationSample{Percent: 80}, 80),
	}

	r := report.BuildInventoryAlert(verdicts, model.ReportSummary{Total: 1, Evaluated: 1, Threshold: 80})
	assert.True(t, r.NoAlerts)
	assert.Empty(t, r.Entries)
	assert.Equal(t, "All instances are operating within normal CPU parameters.", r.Message)
}

func TestBuildInventoryAlert_Empty(t *testing.T) {
	r := report.BuildInventoryAlert(nil, model.ReportSummary{Threshold: 80})

	require.NotNil(t, r)
	assert.True(t, r.NoAlerts)
	assert.Equal(t, "No running instances found.", r.Message)
	assert.Equal(t, "EC2 CPU Check - No Alerts", r.Subject)
}

func TestRender(t *testing.T) {
	r := report.BuildCostAlert(costSample("150"), 100, 50)

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "COST ALERT TRIGGERED!")
	assert.Contains(t, out, "Overage:")
	assert.Contains(t, out, "Summary: 1 evaluated, 0 skipped, 1 exceeding")
}

func TestRenderStatusTable(t *testing.T) {
	verdicts := []model.ThresholdVerdict{
		threshold.InstanceVerdict(model.ResourceInstance{ID: "i-1", Name: "web"}, model.UtilizationSample{Percent: 91}, 80),
		threshold.InstanceVerdict(model.ResourceInstance{ID: "i-2"}, model.UtilizationSample{Percent: 12.5}, 80),
	}

	var buf bytes.Buffer
	require.NoError(t, report.RenderStatusTable(&buf, verdicts))

	out := buf.String()
	assert.Contains(t, out, "INSTANCE ID")
	assert.Contains(t, out, "HIGH CPU")
	assert.Contains(t, out, "Normal")
	assert.Contains(t, out, "12.50")
}

func TestRenderStatusTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.RenderStatusTable(&buf, nil))
	assert.Equal(t, "No running instances found.\n", buf.String())
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "$0.00", report.FormatUSD(decimal.Zero))
	assert.Equal(t, "$0.01", report.FormatUSDFloat(0.01))
	assert.Equal(t, "$+Inf", report.FormatUSDFloat(math.Inf(1)))
	assert.Equal(t, "$NaN", report.FormatUSDFloat(math.NaN()))
	assert.Equal(t, "7.34%", report.FormatPercent(7.34))
	assert.Equal(t, "N/A", report.FormatTimestamp(time.Time{}))
	assert.Equal(t, "2025-01-01 00:00:00 UTC", report.FormatTimestamp(period.End))
}
