// Package report assembles human-readable alert reports from threshold
// verdicts. Builders are deterministic: the same inputs always produce the same
// report, with no clock or randomness involved.
package report

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/threshold"
)

// HighCPURunbook is the operator runbook referenced by CPU alerts.
const HighCPURunbook = "docs/SOP-High-CPU-Troubleshooting.md"

const (
	costAlertTitle   = "COST ALERT TRIGGERED!"
	costAlertSubject = "AWS Cost Alert - Threshold Exceeded"
	costOKTitle      = "SPENDING WITHIN BUDGET"
	costOKSubject    = "AWS Cost Check - Within Budget"

	cpuAlertTitle  = "HIGH CPU ALERT - INSTANCES REQUIRING ATTENTION"
	cpuOKTitle     = "NO HIGH CPU INSTANCES"
	cpuOKSubject   = "EC2 CPU Check - No Alerts"
	cpuRecommended = "Follow the High CPU Troubleshooting SOP for diagnostic steps."
)

// BuildCostAlert builds the report for spend above threshold.
func BuildCostAlert(sample model.CostSample, limit, overage float64) *model.AlertReport {
	spend := FormatUSD(sample.Amount)
	limitStr := FormatUSDFloat(limit)

	verdict := model.ThresholdVerdict{
		Cost:        &sample,
		MetricValue: sample.Amount.InexactFloat64(),
		Threshold:   limit,
		Exceeded:    true,
		Overage:     overage,
	}

	return &model.AlertReport{
		Kind:    model.KindCost,
		Title:   costAlertTitle,
		Subject: costAlertSubject,
		Message: fmt.Sprintf("Your AWS spending has reached %s, exceeding the %s threshold.", spend, limitStr),
		Details: costDetails(sample, limit),
		Entries: []model.ReportEntry{{
			Verdict: verdict,
			Fields: []model.ReportField{
				{Label: "Current Month Spending", Value: spend},
				{Label: "Alert Threshold", Value: limitStr},
				{Label: "Overage", Value: FormatUSDFloat(overage)},
				{Label: "Billing Period", Value: sample.Period.String()},
			},
		}},
		Summary: model.ReportSummary{
			Total:     1,
			Evaluated: 1,
			Exceeded:  1,
			Threshold: limit,
		},
	}
}

// BuildCostWithinBudget builds the no-alert report for spend at or below threshold.
func BuildCostWithinBudget(sample model.CostSample, limit float64) *model.AlertReport {
	var remaining string
	if math.IsInf(limit, 0) || math.IsNaN(limit) {
		remaining = FormatUSDFloat(limit - sample.Amount.InexactFloat64())
	} else {
		remaining = FormatUSD(decimal.NewFromFloat(limit).Sub(sample.Amount))
	}

	return &model.AlertReport{
		Kind:     model.KindCost,
		Title:    costOKTitle,
		Subject:  costOKSubject,
		Message:  fmt.Sprintf("Spending is within budget. %s remaining before alert.", remaining),
		NoAlerts: true,
		Details:  costDetails(sample, limit),
		Summary: model.ReportSummary{
			Total:     1,
			Evaluated: 1,
			Threshold: limit,
		},
	}
}

func costDetails(sample model.CostSample, limit float64) []model.ReportField {
	return []model.ReportField{
		{Label: "Billing Period", Value: sample.Period.String()},
		{Label: "Current Month Spending", Value: FormatUSD(sample.Amount)},
		{Label: "Alert Threshold", Value: FormatUSDFloat(limit)},
	}
}

// BuildInventoryAlert builds the CPU report from the verdicts of one run.
// Only exceeding verdicts become entries, in the order given. summary supplies
// the run counts and threshold; Exceeded is filled in here.
func BuildInventoryAlert(verdicts []model.ThresholdVerdict, summary model.ReportSummary) *model.AlertReport {
	exceeding := threshold.Exceeding(verdicts)
	summary.Exceeded = len(exceeding)
	limit := FormatPercent(summary.Threshold)

	r := &model.AlertReport{
		Kind:    model.KindInventory,
		Summary: summary,
		Details: []model.ReportField{
			{Label: "Total Instances", Value: fmt.Sprint(summary.Total)},
			{Label: "Running Instances", Value: fmt.Sprint(summary.Evaluated)},
			{Label: "CPU Threshold", Value: limit},
		},
	}

	if len(exceeding) == 0 {
		r.Title = cpuOKTitle
		r.Subject = cpuOKSubject
		r.NoAlerts = true
		r.Message = "All instances are operating within normal CPU parameters."
		if summary.Evaluated == 0 {
			r.Message = "No running instances found."
		}
		return r
	}

	r.Title = cpuAlertTitle
	r.Subject = fmt.Sprintf("EC2 CPU Alert - %d instance(s) above %s", len(exceeding), limit)
	r.Message = fmt.Sprintf("%d of %d running instances exceed the %s CPU threshold.",
		len(exceeding), summary.Evaluated, limit)
	r.Recommendation = cpuRecommended
	r.Entries = make([]model.ReportEntry, 0, len(exceeding))
	for _, v := range exceeding {
		r.Entries = append(r.Entries, inventoryEntry(v))
	}
	return r
}

func inventoryEntry(v model.ThresholdVerdict) model.ReportEntry {
	var inst model.ResourceInstance
	if v.Instance != nil {
		inst = *v.Instance
	}
	v.Instance = &inst

	return model.ReportEntry{
		Verdict: v,
		Fields: []model.ReportField{
			{Label: "Instance ID", Value: inst.ID},
			{Label: "Name", Value: orNA(inst.Name)},
			{Label: "Instance Type", Value: orNA(inst.Type)},
			{Label: "CPU Usage", Value: FormatPercent(v.MetricValue)},
			{Label: "Launch Time", Value: FormatTimestamp(inst.LaunchTime)},
			{Label: "Private IP", Value: orNA(inst.PrivateAddress)},
			{Label: "Public IP", Value: orNA(inst.PublicAddress)},
			{Label: "Action Required", Value: fmt.Sprintf("CPU usage exceeds %s threshold", FormatPercent(v.Threshold))},
			{Label: "Refer to", Value: HighCPURunbook},
		},
	}
}
