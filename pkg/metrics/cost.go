// Package metrics fetches raw metric data from the cloud provider and
// normalizes it into model types.
package metrics

import (
	"context"
	"log/slog"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

// UnblendedCost is the Cost Explorer metric for cost before discount allocation.
const UnblendedCost = "UnblendedCost"

// CostExplorerAPI is the subset of the Cost Explorer client used by CostFetcher.
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// CostFetcher reads month-to-date spend from Cost Explorer.
type CostFetcher struct {
	client CostExplorerAPI
	logger *slog.Logger
}

// NewCostFetcher creates a cost fetcher.
func NewCostFetcher(client CostExplorerAPI, logger *slog.Logger) *CostFetcher {
	return &CostFetcher{client: client, logger: logger}
}

// FetchMonthToDateCost returns the unblended cost for period. A period with no
// data yields a zero amount. The call is made exactly once.
func (f *CostFetcher) FetchMonthToDateCost(ctx context.Context, period model.BillingPeriod) (model.CostSample, error) {
	start, end := period.DateRange()
	f.logger.Debug("fetching cost", "start", start, "end", end)

	out, err := f.client.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{UnblendedCost},
	})
	if err != nil {
		return model.CostSample{}, Classify("GetCostAndUsage", err)
	}

	sample := model.CostSample{
		Amount:   decimal.Zero,
		Currency: model.CurrencyUSD,
		Period:   period,
	}

	if len(out.ResultsByTime) == 0 {
		f.logger.Info("no cost data for period", "start", start, "end", end)
		return sample, nil
	}

	metric, ok := out.ResultsByTime[0].Total[UnblendedCost]
	if !ok || metric.Amount == nil {
		return sample, nil
	}

	amount, err := decimal.NewFromString(aws.ToString(metric.Amount))
	if err != nil {
		return model.CostSample{}, &ProviderError{
			Op:      "GetCostAndUsage",
			Code:    "MalformedResponse",
			Message: "unparseable amount " + aws.ToString(metric.Amount),
		}
	}
	if math.IsInf(amount.InexactFloat64(), 0) {
		return model.CostSample{}, &ProviderError{
			Op:      "GetCostAndUsage",
			Code:    "MalformedResponse",
			Message: "amount out of range " + aws.ToString(metric.Amount),
		}
	}
	sample.Amount = amount

	return sample, nil
}
