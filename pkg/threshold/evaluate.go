// Package threshold classifies metric values against static limits.
// Every function here is pure and total.
package threshold

import (
	"math"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

// Result is the outcome of comparing one value with a threshold.
type Result struct {
	Exceeded bool
	Overage  float64
}

// Evaluate reports whether value is strictly above threshold. A value equal to
// the threshold is not an alert, and neither is any comparison involving NaN.
// Overage is zero unless exceeded.
func Evaluate(value, threshold float64) Result {
	if !(value > threshold) {
		return Result{}
	}
	if math.IsInf(value, 0) || math.IsInf(threshold, 0) {
		return Result{Exceeded: true, Overage: value - threshold}
	}
	overage := decimal.NewFromFloat(value).Sub(decimal.NewFromFloat(threshold))
	return Result{Exceeded: true, Overage: overage.InexactFloat64()}
}

// CostVerdict evaluates a cost sample against the spend threshold.
func CostVerdict(sample model.CostSample, threshold float64) model.ThresholdVerdict {
	value := sample.Amount.InexactFloat64()
	r := Evaluate(value, threshold)
	return model.ThresholdVerdict{
		Cost:        &sample,
		MetricValue: value,
		Threshold:   threshold,
		Exceeded:    r.Exceeded,
		Overage:     r.Overage,
	}
}

// InstanceVerdict evaluates one instance's utilization against the CPU threshold.
func InstanceVerdict(instance model.ResourceInstance, sample model.UtilizationSample, threshold float64) model.ThresholdVerdict {
	r := Evaluate(sample.Percent, threshold)
	return model.ThresholdVerdict{
		Instance:    &instance,
		MetricValue: sample.Percent,
		Threshold:   threshold,
		Exceeded:    r.Exceeded,
		Overage:     r.Overage,
	}
}

// Running splits instances into those eligible for evaluation and the count of
// those skipped. Order is preserved.
func Running(instances []model.ResourceInstance) (running []model.ResourceInstance, skipped int) {
	running = lo.Filter(instances, func(inst model.ResourceInstance, _ int) bool {
		return inst.Running()
	})
	return running, len(instances) - len(running)
}

// Exceeding returns the verdicts that crossed their threshold, in input order.
func Exceeding(verdicts []model.ThresholdVerdict) []model.ThresholdVerdict {
	return lo.Filter(verdicts, func(v model.ThresholdVerdict, _ int) bool {
		return v.Exceeded
	})
}
