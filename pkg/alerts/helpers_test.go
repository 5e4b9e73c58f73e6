package alerts_test

import (
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/report"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func costSample(amount string) model.CostSample {
	return model.CostSample{
		Amount:   decimal.RequireFromString(amount),
		Currency: model.CurrencyUSD,
		Period:   model.CurrentMonthRange(time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)),
	}
}

func costAlert() *model.AlertReport {
	return report.BuildCostAlert(costSample("150.00"), 100, 50)
}

func withinBudget() *model.AlertReport {
	return report.BuildCostWithinBudget(costSample("20.00"), 100)
}
