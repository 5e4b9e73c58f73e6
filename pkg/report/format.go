package report

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

// TimestampLayout renders instants unambiguously in UTC.
const TimestampLayout = "2006-01-02 15:04:05 UTC"

// FormatUSD renders an amount as dollars with two decimals, e.g. "$50.00".
func FormatUSD(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatUSDFloat is FormatUSD for float thresholds and overages.
func FormatUSDFloat(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Sprintf("$%.2f", amount)
	}
	return FormatUSD(decimal.NewFromFloat(amount))
}

// FormatPercent renders a percentage with two decimals, e.g. "87.34%".
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatTimestamp renders t in UTC, or N/A for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return model.NotAvailable
	}
	return t.UTC().Format(TimestampLayout)
}

func orNA(s string) string {
	if s == "" {
		return model.NotAvailable
	}
	return s
}
