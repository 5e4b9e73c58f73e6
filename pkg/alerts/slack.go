package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

const (
	colorAlert   = "#cc0000"
	colorSummary = "#ff9900"
)

// SlackNotifier sends alert reports to a Slack webhook.
type SlackNotifier struct {
	webhookURL string
	channel    string
	client     *http.Client
	now        func() time.Time
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Send(ctx context.Context, r *model.AlertReport) error {
	if r.NoAlerts {
		return nil
	}

	ts := s.now().Unix()
	attachments := make([]slackAttachment, 0, len(r.Entries)+1)
	attachments = append(attachments, slackAttachment{
		Color:  colorSummary,
		Title:  r.Subject,
		Text:   r.Message,
		Fields: slackFields(r.Details, true),
		Footer: "Cloud Guardian",
		Ts:     ts,
	})
	for _, e := range r.Entries {
		attachments = append(attachments, slackAttachment{
			Color:  colorAlert,
			Title:  r.Title,
			Fields: slackFields(e.Fields, true),
			Footer: "Cloud Guardian",
			Ts:     ts,
		})
	}

	payload := slackPayload{
		Channel:     s.channel,
		Text:        r.Recommendation,
		Attachments: attachments,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}

func slackFields(fields []model.ReportField, short bool) []slackField {
	out := make([]slackField, 0, len(fields))
	for _, f := range fields {
		out = append(out, slackField{Title: f.Label, Value: f.Value, Short: short})
	}
	return out
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Text        string            `json:"text,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}
