package usage_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/usage"
)

func TestSimulatedUtilization_Deterministic(t *testing.T) {
	for _, id := range []string{"i-0abc123", "i-0def456", "", "i-ffffffffffffffff"} {
		first := usage.SimulatedUtilization(id)
		second := usage.SimulatedUtilization(id)
		assert.Equal(t, first, second, "id %q", id)
	}
}

func TestSimulatedUtilization_Range(t *testing.T) {
	for i := range 2000 {
		v := usage.SimulatedUtilization(fmt.Sprintf("i-%017x", i))
		assert.GreaterOrEqual(t, v, 10.0)
		assert.LessOrEqual(t, v, 95.0)
	}
}

func TestSimulatedUtilization_Distribution(t *testing.T) {
	const trials = 5000
	high := 0
	for i := range trials {
		if usage.SimulatedUtilization(fmt.Sprintf("i-%017x", i)) >= 60 {
			high++
		}
	}

	assert.InDelta(t, 0.3, float64(high)/trials, 0.04)
}

func TestSimulatedUtilization_TwoDecimals(t *testing.T) {
	v := usage.SimulatedUtilization("i-0123456789")
	assert.InDelta(t, v, float64(int(v*100+0.5))/100, 1e-9)
}

func TestSimulatedSource_Sample(t *testing.T) {
	src := usage.NewSimulatedSource()
	assert.Equal(t, "simulated", src.Name())

	sample, err := src.Sample(context.Background(), "i-0abc")
	require.NoError(t, err)
	assert.Equal(t, "i-0abc", sample.InstanceID)
	assert.Equal(t, usage.SimulatedUtilization("i-0abc"), sample.Percent)
}

func TestRegistry(t *testing.T) {
	r := usage.NewRegistry()
	require.NoError(t, r.Register(usage.NewSimulatedSource()))

	err := r.Register(usage.NewSimulatedSource())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	got, err := r.Get("simulated")
	require.NoError(t, err)
	assert.Equal(t, "simulated", got.Name())

	_, err = r.Get("cloudwatch")
	assert.Error(t, err)

	assert.Equal(t, []string{"simulated"}, r.List())
}
