package alerts

import (
	"context"
	"fmt"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

// Notifier delivers alert reports to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers a report. Implementations must be safe for concurrent use
	// and must not modify the report.
	Send(ctx context.Context, report *model.AlertReport) error
}

// DeliveryError is the failure of a single notifier.
type DeliveryError struct {
	Notifier string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver via %s: %v", e.Notifier, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
