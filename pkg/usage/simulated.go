package usage

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

// SourceSimulated is the configuration name of SimulatedSource.
const SourceSimulated = "simulated"

// Simulated distribution: most instances idle along in the normal band,
// the rest run hot.
const (
	normalShare = 0.7
	normalLow   = 10.0
	normalHigh  = 60.0
	highLow     = 60.0
	highHigh    = 95.0
)

// pcgStream is the fixed second PCG seed word; only the first varies per instance.
const pcgStream = 0x9e3779b97f4a7c15

// SimulatedUtilization returns a reproducible CPU percentage for instanceID.
// The same ID always yields the same value, in any process.
func SimulatedUtilization(instanceID string) float64 {
	rng := rand.New(rand.NewPCG(xxhash.Sum64String(instanceID), pcgStream))

	var v float64
	if rng.Float64() < normalShare {
		v = normalLow + rng.Float64()*(normalHigh-normalLow)
	} else {
		v = highLow + rng.Float64()*(highHigh-highLow)
	}
	return math.Round(v*100) / 100
}

// SimulatedSource serves SimulatedUtilization behind the Source interface.
type SimulatedSource struct{}

// NewSimulatedSource creates a simulated utilization source.
func NewSimulatedSource() *SimulatedSource { return &SimulatedSource{} }

func (s *SimulatedSource) Name() string { return SourceSimulated }

func (s *SimulatedSource) Sample(_ context.Context, instanceID string) (model.UtilizationSample, error) {
	return model.UtilizationSample{
		InstanceID: instanceID,
		Percent:    SimulatedUtilization(instanceID),
	}, nil
}
