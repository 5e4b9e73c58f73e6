package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"golang.org/x/time/rate"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/metrics"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

// SourceCloudWatch is the configuration name of CloudWatchSource.
const SourceCloudWatch = "cloudwatch"

const (
	cpuNamespace  = "AWS/EC2"
	cpuMetricName = "CPUUtilization"
	cpuPeriod     = 300 // seconds
)

// CloudWatchAPI is the subset of the CloudWatch client used by CloudWatchSource.
type CloudWatchAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// CloudWatchSource reads average CPU utilization from CloudWatch.
type CloudWatchSource struct {
	client   CloudWatchAPI
	lookback time.Duration
	limiter  *rate.Limiter
	now      func() time.Time
	logger   *slog.Logger
}

// NewCloudWatchSource creates a live utilization source. Requests are paced to
// rps per second; rps <= 0 disables pacing.
func NewCloudWatchSource(client CloudWatchAPI, lookback time.Duration, rps float64, logger *slog.Logger) *CloudWatchSource {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &CloudWatchSource{
		client:   client,
		lookback: lookback,
		limiter:  rate.NewLimiter(limit, 1),
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *CloudWatchSource) WithClock(now func() time.Time) *CloudWatchSource {
	s.now = now
	return s
}

func (s *CloudWatchSource) Name() string { return SourceCloudWatch }

// Sample returns the most recent average datapoint in the lookback window.
// An instance with no datapoints reads as 0%.
func (s *CloudWatchSource) Sample(ctx context.Context, instanceID string) (model.UtilizationSample, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return model.UtilizationSample{}, metrics.Classify("GetMetricStatistics", err)
	}

	end := s.now().UTC()
	out, err := s.client.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String(cpuNamespace),
		MetricName: aws.String(cpuMetricName),
		Dimensions: []cwtypes.Dimension{{
			Name:  aws.String("InstanceId"),
			Value: aws.String(instanceID),
		}},
		StartTime:  aws.Time(end.Add(-s.lookback)),
		EndTime:    aws.Time(end),
		Period:     aws.Int32(cpuPeriod),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil {
		return model.UtilizationSample{}, metrics.Classify(fmt.Sprintf("GetMetricStatistics %s", instanceID), err)
	}

	sample := model.UtilizationSample{InstanceID: instanceID}

	var latest *cwtypes.Datapoint
	for i := range out.Datapoints {
		dp := &out.Datapoints[i]
		if dp.Average == nil {
			continue
		}
		if latest == nil || aws.ToTime(dp.Timestamp).After(aws.ToTime(latest.Timestamp)) {
			latest = dp
		}
	}
	if latest == nil {
		s.logger.Debug("no cpu datapoints", "instance_id", instanceID)
		return sample, nil
	}

	sample.Percent = min(max(aws.ToFloat64(latest.Average), 0), 100)
	return sample, nil
}
