package alerts

import (
	"context"
	"fmt"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

// Recorder persists delivered reports.
type Recorder interface {
	RecordAlert(ctx context.Context, report *model.AlertReport) (string, error)
}

// JournalNotifier records every report, including no-alert runs.
type JournalNotifier struct {
	recorder Recorder
}

// NewJournalNotifier creates a notifier backed by an alert journal.
func NewJournalNotifier(recorder Recorder) *JournalNotifier {
	return &JournalNotifier{recorder: recorder}
}

func (j *JournalNotifier) Name() string { return "journal" }

func (j *JournalNotifier) Send(ctx context.Context, r *model.AlertReport) error {
	if _, err := j.recorder.RecordAlert(ctx, r); err != nil {
		return fmt.Errorf("record alert: %w", err)
	}
	return nil
}
