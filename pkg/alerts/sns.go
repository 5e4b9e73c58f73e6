package alerts

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/report"
)

// SNS limits subjects to 100 characters.
const maxSubjectLen = 100

// SNSAPI is the subset of the SNS client used by SNSNotifier.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes alert reports to an SNS topic.
type SNSNotifier struct {
	client   SNSAPI
	topicARN string
}

// NewSNSNotifier creates an SNS notifier for the given topic.
func NewSNSNotifier(client SNSAPI, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

func (s *SNSNotifier) Name() string { return "sns" }

func (s *SNSNotifier) Send(ctx context.Context, r *model.AlertReport) error {
	if r.NoAlerts {
		return nil
	}

	subject := r.Subject
	if len(subject) > maxSubjectLen {
		subject = subject[:maxSubjectLen]
	}

	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(report.String(r)),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", s.topicARN, err)
	}
	return nil
}
