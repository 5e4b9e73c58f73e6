package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/metrics"
)

// Reservations returned per DescribeInstances page.
const fixturePageSize = 2

// Fixture is the YAML document describing an offline account.
type Fixture struct {
	Cost         *FixtureCost         `yaml:"cost"`
	Reservations []FixtureReservation `yaml:"reservations"`
}

// FixtureCost is the month-to-date spend. A missing block means no cost data.
type FixtureCost struct {
	Amount string `yaml:"amount"`
}

// FixtureReservation groups instances the way EC2 does.
type FixtureReservation struct {
	ID        string            `yaml:"id"`
	Instances []FixtureInstance `yaml:"instances"`
}

// FixtureInstance is one instance. CPU, when set, is served as the latest
// CloudWatch average.
type FixtureInstance struct {
	ID         string    `yaml:"id"`
	State      string    `yaml:"state"`
	Type       string    `yaml:"type"`
	LaunchTime time.Time `yaml:"launch_time"`
	PrivateIP  string    `yaml:"private_ip"`
	PublicIP   string    `yaml:"public_ip"`
	Name       string    `yaml:"name"`
	CPU        *float64  `yaml:"cpu"`
}

// FixtureClient answers Cost Explorer, EC2, CloudWatch and SNS calls from a
// Fixture. Published messages are kept in memory and logged.
type FixtureClient struct {
	fixture Fixture
	cpu     map[string]float64
	logger  *slog.Logger

	mu        sync.Mutex
	published []*sns.PublishInput
}

// LoadFixture reads and validates a fixture file.
func LoadFixture(path string, logger *slog.Logger) (*FixtureClient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return NewFixtureClient(f, logger)
}

// NewFixtureClient validates f and wraps it in a client.
func NewFixtureClient(f Fixture, logger *slog.Logger) (*FixtureClient, error) {
	cpu := make(map[string]float64)
	seen := make(map[string]bool)
	for ri, r := range f.Reservations {
		for ii, inst := range r.Instances {
			if inst.ID == "" {
				return nil, fmt.Errorf("reservation %d instance %d: id is required", ri, ii)
			}
			if seen[inst.ID] {
				return nil, fmt.Errorf("duplicate instance id %q", inst.ID)
			}
			seen[inst.ID] = true
			if inst.CPU != nil {
				cpu[inst.ID] = *inst.CPU
			}
		}
	}
	return &FixtureClient{fixture: f, cpu: cpu, logger: logger}, nil
}

func (c *FixtureClient) GetCostAndUsage(_ context.Context, in *costexplorer.GetCostAndUsageInput, _ ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error) {
	out := &costexplorer.GetCostAndUsageOutput{}
	if c.fixture.Cost == nil {
		return out, nil
	}
	out.ResultsByTime = []cetypes.ResultByTime{{
		TimePeriod: in.TimePeriod,
		Total: map[string]cetypes.MetricValue{
			metrics.UnblendedCost: {
				Amount: aws.String(c.fixture.Cost.Amount),
				Unit:   aws.String("USD"),
			},
		},
	}}
	return out, nil
}

func (c *FixtureClient) DescribeInstances(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	start := 0
	if token := aws.ToString(in.NextToken); token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > len(c.fixture.Reservations) {
			return nil, fmt.Errorf("invalid next token %q", token)
		}
		start = n
	}
	end := min(start+fixturePageSize, len(c.fixture.Reservations))

	out := &ec2.DescribeInstancesOutput{}
	for _, r := range c.fixture.Reservations[start:end] {
		out.Reservations = append(out.Reservations, toReservation(r))
	}
	if end < len(c.fixture.Reservations) {
		out.NextToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (c *FixtureClient) GetMetricStatistics(_ context.Context, in *cloudwatch.GetMetricStatisticsInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	out := &cloudwatch.GetMetricStatisticsOutput{Label: in.MetricName}
	for _, d := range in.Dimensions {
		if aws.ToString(d.Name) != "InstanceId" {
			continue
		}
		if v, ok := c.cpu[aws.ToString(d.Value)]; ok {
			out.Datapoints = append(out.Datapoints, cwtypes.Datapoint{
				Average:   aws.Float64(v),
				Timestamp: in.EndTime,
				Unit:      cwtypes.StandardUnitPercent,
			})
		}
	}
	return out, nil
}

func (c *FixtureClient) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	c.mu.Lock()
	c.published = append(c.published, in)
	c.mu.Unlock()

	id := uuid.NewString()
	c.logger.Info("fixture sns publish",
		"topic_arn", aws.ToString(in.TopicArn),
		"subject", aws.ToString(in.Subject),
		"message_id", id,
	)
	return &sns.PublishOutput{MessageId: aws.String(id)}, nil
}

// Published returns the messages passed to Publish so far.
func (c *FixtureClient) Published() []*sns.PublishInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*sns.PublishInput(nil), c.published...)
}

func toReservation(r FixtureReservation) ec2types.Reservation {
	res := ec2types.Reservation{ReservationId: aws.String(r.ID)}
	for _, inst := range r.Instances {
		res.Instances = append(res.Instances, toInstance(inst))
	}
	return res
}

func toInstance(f FixtureInstance) ec2types.Instance {
	inst := ec2types.Instance{
		InstanceId:   aws.String(f.ID),
		InstanceType: ec2types.InstanceType(f.Type),
		State:        &ec2types.InstanceState{Name: ec2types.InstanceStateName(f.State)},
	}
	if !f.LaunchTime.IsZero() {
		inst.LaunchTime = aws.Time(f.LaunchTime)
	}
	if f.PrivateIP != "" {
		inst.PrivateIpAddress = aws.String(f.PrivateIP)
	}
	if f.PublicIP != "" {
		inst.PublicIpAddress = aws.String(f.PublicIP)
	}
	if f.Name != "" {
		inst.Tags = []ec2types.Tag{{Key: aws.String(metrics.NameTag), Value: aws.String(f.Name)}}
	}
	return inst
}
