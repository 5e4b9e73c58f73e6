package alerts

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

// Multi fans a report out to every notifier in order. A failing notifier does
// not stop delivery to the rest; all failures are returned joined, each as a
// *DeliveryError.
type Multi struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewMulti creates a fan-out notifier.
func NewMulti(logger *slog.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

func (m *Multi) Name() string { return "multi" }

// Len returns the number of wrapped notifiers.
func (m *Multi) Len() int { return len(m.notifiers) }

func (m *Multi) Send(ctx context.Context, report *model.AlertReport) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Send(ctx, report); err != nil {
			m.logger.Error("alert delivery failed",
				"notifier", n.Name(),
				"kind", report.Kind,
				"error", err,
			)
			errs = append(errs, &DeliveryError{Notifier: n.Name(), Err: err})
			continue
		}
		m.logger.Debug("alert delivered", "notifier", n.Name(), "kind", report.Kind)
	}
	return errors.Join(errs...)
}
