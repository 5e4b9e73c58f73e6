// Package storage persists the alert journal: one record per report handed to
// the notifiers. The journal is append-only and is never read by the
// evaluation pipeline.
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

// AlertRecord is a journaled report.
type AlertRecord struct {
	ID         string           `json:"id"`
	Kind       model.ReportKind `json:"kind"`
	Title      string           `json:"title"`
	Subject    string           `json:"subject"`
	NoAlerts   bool             `json:"no_alerts"`
	Evaluated  int              `json:"evaluated"`
	Skipped    int              `json:"skipped"`
	Exceeded   int              `json:"exceeded"`
	Threshold  float64          `json:"threshold"`
	Report     json.RawMessage  `json:"report"`
	RecordedAt time.Time        `json:"recorded_at"`
}

// AlertFilter narrows ListAlerts. Zero values mean no constraint; a zero
// Limit uses DefaultListLimit.
type AlertFilter struct {
	Kind  model.ReportKind
	Since time.Time
	Limit int
}

// DefaultListLimit caps ListAlerts when no limit is given.
const DefaultListLimit = 50

// Journal defines the persistence layer for delivered alert reports.
type Journal interface {
	// RecordAlert persists a report and returns the new record ID.
	RecordAlert(ctx context.Context, report *model.AlertReport) (string, error)

	// ListAlerts returns records matching the filter, newest first.
	ListAlerts(ctx context.Context, filter AlertFilter) ([]AlertRecord, error)

	// Close releases resources.
	Close() error
}
