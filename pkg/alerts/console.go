package alerts

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/report"
)

// ConsoleNotifier prints reports to a writer. Cost alerts are framed the way
// they would be published to SNS, with the topic and subject shown first.
type ConsoleNotifier struct {
	mu       sync.Mutex
	w        io.Writer
	topicARN string
}

// NewConsoleNotifier creates a console notifier. topicARN may be empty.
func NewConsoleNotifier(w io.Writer, topicARN string) *ConsoleNotifier {
	return &ConsoleNotifier{w: w, topicARN: topicARN}
}

func (c *ConsoleNotifier) Name() string { return "console" }

func (c *ConsoleNotifier) Send(_ context.Context, r *model.AlertReport) error {
	var b strings.Builder
	if r.Kind == model.KindCost && !r.NoAlerts && c.topicARN != "" {
		fmt.Fprintf(&b, "[SNS] Topic: %s\n", c.topicARN)
		fmt.Fprintf(&b, "[SNS] Subject: %s\n", r.Subject)
	}
	if err := report.Render(&b, r); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
