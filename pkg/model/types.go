package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// NotAvailable is shown in place of absent instance attributes.
const NotAvailable = "N/A"

// CurrencyUSD is the only currency the billing API is queried in.
const CurrencyUSD = "USD"

// CostSample is the aggregated spend for a billing period.
type CostSample struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Period   BillingPeriod   `json:"period"`
}

// InstanceState is the lifecycle state of a compute instance.
type InstanceState string

const (
	StateRunning    InstanceState = "running"
	StateStopped    InstanceState = "stopped"
	StateTerminated InstanceState = "terminated"
	StateOther      InstanceState = "other" // pending, stopping, shutting-down, unknown
)

// ParseInstanceState maps a provider state name onto InstanceState.
func ParseInstanceState(name string) InstanceState {
	switch InstanceState(name) {
	case StateRunning, StateStopped, StateTerminated:
		return InstanceState(name)
	default:
		return StateOther
	}
}

// ResourceInstance is a snapshot of one compute instance at fetch time.
// Zero LaunchTime and empty addresses mean the provider did not report them.
type ResourceInstance struct {
	ID             string        `json:"id"`
	State          InstanceState `json:"state"`
	Type           string        `json:"type"`
	LaunchTime     time.Time     `json:"launch_time"`
	PrivateAddress string        `json:"private_address,omitempty"`
	PublicAddress  string        `json:"public_address,omitempty"`
	Name           string        `json:"name"`
}

// Running reports whether the instance is in the running state.
func (r ResourceInstance) Running() bool {
	return r.State == StateRunning
}

// UtilizationSample is a CPU utilization reading for one instance.
type UtilizationSample struct {
	InstanceID string  `json:"instance_id"`
	Percent    float64 `json:"percent"`
}

// ThresholdVerdict is the classification of one subject against a threshold.
// Exactly one of Cost or Instance is set.
type ThresholdVerdict struct {
	Cost        *CostSample       `json:"cost,omitempty"`
	Instance    *ResourceInstance `json:"instance,omitempty"`
	MetricValue float64           `json:"metric_value"`
	Threshold   float64           `json:"threshold"`
	Exceeded    bool              `json:"exceeded"`
	Overage     float64           `json:"overage"`
}

// ReportKind identifies the monitoring job that produced a report.
type ReportKind string

const (
	KindCost      ReportKind = "cost"
	KindInventory ReportKind = "inventory"
)

// AlertReport is the outcome of one monitoring run. It is built once by the
// report package and handed to notifiers; nothing mutates it afterwards.
type AlertReport struct {
	Kind           ReportKind    `json:"kind"`
	Title          string        `json:"title"`
	Subject        string        `json:"subject"`
	Message        string        `json:"message"`
	NoAlerts       bool          `json:"no_alerts"`
	Details        []ReportField `json:"details,omitempty"`
	Entries        []ReportEntry `json:"entries,omitempty"`
	Summary        ReportSummary `json:"summary"`
	Recommendation string        `json:"recommendation,omitempty"`
}

// ReportEntry is one exceeding verdict with its display fields in order.
type ReportEntry struct {
	Verdict ThresholdVerdict `json:"verdict"`
	Fields  []ReportField    `json:"fields"`
}

// ReportField is a labelled, pre-formatted value.
type ReportField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ReportSummary holds the counts for a run.
type ReportSummary struct {
	Total     int     `json:"total"`
	Evaluated int     `json:"evaluated"`
	Skipped   int     `json:"skipped"`
	Exceeded  int     `json:"exceeded"`
	Threshold float64 `json:"threshold"`
}
