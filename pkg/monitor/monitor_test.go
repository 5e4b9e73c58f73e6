package monitor_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/metrics"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/monitor"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/usage"
)

var now = time.Date(2024, 12, 15, 8, 0, 0, 0, time.UTC)

type fakeCost struct {
	amount string
	err    error
	period model.BillingPeriod
}

func (f *fakeCost) FetchMonthToDateCost(_ context.Context, p model.BillingPeriod) (model.CostSample, error) {
	f.period = p
	if f.err != nil {
		return model.CostSample{}, f.err
	}
	return model.CostSample{
		Amount:   decimal.RequireFromString(f.amount),
		Currency: model.CurrencyUSD,
		Period:   p,
	}, nil
}

type fakeInventory struct {
	instances []model.ResourceInstance
	err       error
}

func (f *fakeInventory) ListInstances(context.Context) ([]model.ResourceInstance, error) {
	return f.instances, f.err
}

// fixedSource returns preset readings and records the IDs it was asked about.
type fixedSource struct {
	mu       sync.Mutex
	readings map[string]float64
	errFor   string
	asked    []string
	delay    func(id string) time.Duration
}

func (s *fixedSource) Name() string { return "fixed" }

func (s *fixedSource) Sample(ctx context.Context, id string) (model.UtilizationSample, error) {
	if s.delay != nil {
		select {
		case <-time.After(s.delay(id)):
		case <-ctx.Done():
			return model.UtilizationSample{}, ctx.Err()
		}
	}
	s.mu.Lock()
	s.asked = append(s.asked, id)
	s.mu.Unlock()
	if id == s.errFor {
		return model.UtilizationSample{}, &metrics.TransientIOError{Op: "GetMetricStatistics", Err: errors.New("timeout")}
	}
	return model.UtilizationSample{InstanceID: id, Percent: s.readings[id]}, nil
}

type captureNotifier struct {
	mu      sync.Mutex
	reports []*model.AlertReport
	err     error
}

func (c *captureNotifier) Name() string { return "capture" }

func (c *captureNotifier) Send(_ context.Context, r *model.AlertReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
	return c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func running(id, name string) model.ResourceInstance {
	return model.ResourceInstance{ID: id, State: model.StateRunning, Type: "t3.micro", Name: name}
}

func newMonitor(cost monitor.CostFetcher, inv monitor.InventoryFetcher, src usage.Source, n alerts.Notifier) *monitor.Monitor {
	cfg := monitor.Config{CostThreshold: 100, CPUThreshold: 80, Concurrency: 4}
	return monitor.New(cfg, cost, inv, src, n, discardLogger())
}

func TestRunCostCheck_Exceeded(t *testing.T) {
	cost := &fakeCost{amount: "150.00"}
	n := &captureNotifier{}
	m := newMonitor(cost, &fakeInventory{}, usage.NewSimulatedSource(), n)

	res := m.RunCostCheck(context.Background(), 100, now)

	require.NoError(t, res.Err)
	assert.Equal(t, monitor.ExitOK, res.ExitCode)
	require.NotNil(t, res.Report)
	assert.False(t, res.Report.NoAlerts)
	assert.True(t, res.Notified)
	require.Len(t, n.reports, 1)
	assert.Same(t, res.Report, n.reports[0])
	assert.Equal(t, "$50.00", res.Report.Entries[0].Fields[2].Value)

	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), cost.period.Start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), cost.period.End)
}

func TestRunCostCheck_AtThresholdIsWithinBudget(t *testing.T) {
	n := &captureNotifier{}
	m := newMonitor(&fakeCost{amount: "100.00"}, &fakeInventory{}, usage.NewSimulatedSource(), n)

	res := m.RunCostCheck(context.Background(), 100, now)

	assert.Equal(t, monitor.ExitOK, res.ExitCode)
	require.NotNil(t, res.Report)
	assert.True(t, res.Report.NoAlerts)
	assert.False(t, res.Notified)
	assert.Empty(t, n.reports)
}

func TestCheckCost_UsesConfiguredThreshold(t *testing.T) {
	cfg := monitor.Config{CostThreshold: 10}
	m := monitor.New(cfg, &fakeCost{amount: "10.01"}, &fakeInventory{}, usage.NewSimulatedSource(), nil, discardLogger())

	res := m.CheckCost(context.Background(), now)
	require.NotNil(t, res.Report)
	assert.False(t, res.Report.NoAlerts)
	assert.InDelta(t, 0.01, res.Verdicts[0].Overage, 1e-9)
	assert.False(t, res.Notified, "nil notifier")
	assert.Equal(t, monitor.DefaultConcurrency, m.Config().Concurrency)
}

func TestRunCostCheck_CredentialsMissing(t *testing.T) {
	n := &captureNotifier{}
	err := fmt.Errorf("GetCostAndUsage: %w", metrics.ErrCredentialsMissing)
	m := newMonitor(&fakeCost{err: err}, &fakeInventory{}, usage.NewSimulatedSource(), n)

	res := m.RunCostCheck(context.Background(), 100, now)

	assert.Equal(t, monitor.ExitError, res.ExitCode)
	assert.Nil(t, res.Report)
	assert.ErrorIs(t, res.Err, metrics.ErrCredentialsMissing)
	assert.Empty(t, n.reports)
}

func TestRunCostCheck_DeliveryErrorIsNonFatal(t *testing.T) {
	n := &captureNotifier{err: errors.New("sns down")}
	m := newMonitor(&fakeCost{amount: "500"}, &fakeInventory{}, usage.NewSimulatedSource(), n)

	res := m.RunCostCheck(context.Background(), 100, now)

	assert.Equal(t, monitor.ExitOK, res.ExitCode)
	require.NoError(t, res.Err)
	require.NotNil(t, res.Report)
	assert.EqualError(t, res.DeliveryErr, "sns down")
}

func TestRunInventoryCheck(t *testing.T) {
	inv := &fakeInventory{instances: []model.ResourceInstance{
		running("i-1", "web"),
		{ID: "i-2", State: model.StateStopped, Name: "batch"},
		running("i-3", "api"),
		{ID: "i-4", State: model.StateTerminated},
		running("i-5", "db"),
	}}
	src := &fixedSource{readings: map[string]float64{
		"i-1": 91, "i-2": 99, "i-3": 40, "i-4": 99, "i-5": 85.5,
	}}
	n := &captureNotifier{}
	m := newMonitor(&fakeCost{}, inv, src, n)

	res := m.RunInventoryCheck(context.Background(), 80)

	require.NoError(t, res.Err)
	assert.Equal(t, monitor.ExitOK, res.ExitCode)
	require.NotNil(t, res.Report)
	assert.ElementsMatch(t, []string{"i-1", "i-3", "i-5"}, src.asked, "only running instances are sampled")

	require.Len(t, res.Verdicts, 3)
	assert.Equal(t, "i-1", res.Verdicts[0].Instance.ID)
	assert.Equal(t, "i-3", res.Verdicts[1].Instance.ID)
	assert.Equal(t, "i-5", res.Verdicts[2].Instance.ID)

	r := res.Report
	assert.Equal(t, model.ReportSummary{Total: 5, Evaluated: 3, Skipped: 2, Exceeded: 2, Threshold: 80}, r.Summary)
	require.Len(t, r.Entries, 2)
	assert.Equal(t, "i-1", r.Entries[0].Verdict.Instance.ID)
	assert.Equal(t, "i-5", r.Entries[1].Verdict.Instance.ID)

	require.Len(t, n.reports, 1)
}

func TestRunInventoryCheck_PreservesOrderUnderConcurrency(t *testing.T) {
	var instances []model.ResourceInstance
	readings := map[string]float64{}
	for i := range 20 {
		id := fmt.Sprintf("i-%02d", i)
		instances = append(instances, running(id, id))
		readings[id] = 95
	}
	src := &fixedSource{
		readings: readings,
		// Earlier instances finish last.
		delay: func(id string) time.Duration {
			var n int
			fmt.Sscanf(id, "i-%d", &n)
			return time.Duration(20-n) * time.Millisecond
		},
	}
	m := newMonitor(&fakeCost{}, &fakeInventory{instances: instances}, src, nil)

	res := m.RunInventoryCheck(context.Background(), 80)

	require.NotNil(t, res.Report)
	require.Len(t, res.Report.Entries, 20)
	for i, e := range res.Report.Entries {
		assert.Equal(t, instances[i].ID, e.Verdict.Instance.ID)
	}
}

func TestRunInventoryCheck_Empty(t *testing.T) {
	n := &captureNotifier{}
	m := newMonitor(&fakeCost{}, &fakeInventory{}, usage.NewSimulatedSource(), n)

	res := m.RunInventoryCheck(context.Background(), 80)

	assert.Equal(t, monitor.ExitOK, res.ExitCode)
	require.NotNil(t, res.Report)
	assert.True(t, res.Report.NoAlerts)
	assert.Equal(t, "No running instances found.", res.Report.Message)
	assert.Len(t, n.reports, 1, "no-alert inventory runs are still delivered")
}

func TestRunInventoryCheck_OnlyStopped(t *testing.T) {
	inv := &fakeInventory{instances: []model.ResourceInstance{
		{ID: "i-1", State: model.StateStopped},
		{ID: "i-2", State: model.StateOther},
	}}
	src := &fixedSource{}
	m := newMonitor(&fakeCost{}, inv, src, nil)

	res := m.RunInventoryCheck(context.Background(), 80)

	require.NotNil(t, res.Report)
	assert.True(t, res.Report.NoAlerts)
	assert.Equal(t, 2, res.Report.Summary.Skipped)
	assert.Empty(t, src.asked)
	assert.Empty(t, res.Verdicts)
}

func TestRunInventoryCheck_CredentialsMissing(t *testing.T) {
	inv := &fakeInventory{err: fmt.Errorf("DescribeInstances: %w", metrics.ErrCredentialsMissing)}
	m := newMonitor(&fakeCost{}, inv, usage.NewSimulatedSource(), &captureNotifier{})

	res := m.RunInventoryCheck(context.Background(), 80)

	assert.Equal(t, monitor.ExitError, res.ExitCode)
	assert.Nil(t, res.Report)
	assert.ErrorIs(t, res.Err, metrics.ErrCredentialsMissing)
}

func TestRunInventoryCheck_UtilizationErrorAborts(t *testing.T) {
	inv := &fakeInventory{instances: []model.ResourceInstance{running("i-1", "a"), running("i-2", "b")}}
	src := &fixedSource{readings: map[string]float64{"i-1": 10}, errFor: "i-2"}
	n := &captureNotifier{}
	m := newMonitor(&fakeCost{}, inv, src, n)

	res := m.RunInventoryCheck(context.Background(), 80)

	assert.Equal(t, monitor.ExitError, res.ExitCode)
	assert.Nil(t, res.Report)
	assert.Equal(t, metrics.ClassTransientIO, metrics.Classification(res.Err))
	assert.Contains(t, res.Err.Error(), "i-2")
	assert.Empty(t, n.reports)
}

func TestRunInventoryCheck_SimulatedIsDeterministic(t *testing.T) {
	inv := &fakeInventory{instances: []model.ResourceInstance{
		running("i-0a1b2c3d", "a"), running("i-0e4f5a6b", "b"), running("i-0c7d8e9f", "c"),
	}}
	m := newMonitor(&fakeCost{}, inv, usage.NewSimulatedSource(), nil)

	first := m.RunInventoryCheck(context.Background(), 50)
	second := m.RunInventoryCheck(context.Background(), 50)
	assert.Equal(t, first.Report, second.Report)
}
