// Package cloud builds the provider clients used by the monitoring jobs,
// either real AWS SDK clients or an offline fixture.
package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/alerts"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/metrics"
	"github.com/ogulcanaydogan/cloud-guardian/pkg/usage"
)

// CostExplorerRegion is the only region serving the Cost Explorer API.
const CostExplorerRegion = "us-east-1"

// Clients groups the provider APIs consumed by the jobs and notifiers.
type Clients struct {
	CostExplorer metrics.CostExplorerAPI
	EC2          metrics.EC2API
	CloudWatch   usage.CloudWatchAPI
	SNS          alerts.SNSAPI
}

// LoadAWSConfig resolves the SDK configuration for region and the optional
// shared profile, then checks that credentials can be retrieved. The SDK is
// configured for a single attempt per call.
func LoadAWSConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithRetryMaxAttempts(1),
	}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}

	if cfg.Credentials == nil {
		return aws.Config{}, metrics.ErrCredentialsMissing
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return aws.Config{}, fmt.Errorf("%w: %w", metrics.ErrCredentialsMissing, err)
	}
	return cfg, nil
}

// NewAWSClients creates SDK clients from cfg. Cost Explorer is pinned to
// CostExplorerRegion whatever region cfg carries.
func NewAWSClients(cfg aws.Config) *Clients {
	return &Clients{
		CostExplorer: costexplorer.NewFromConfig(cfg, func(o *costexplorer.Options) {
			o.Region = CostExplorerRegion
		}),
		EC2:        ec2.NewFromConfig(cfg),
		CloudWatch: cloudwatch.NewFromConfig(cfg),
		SNS:        sns.NewFromConfig(cfg),
	}
}

// FixtureClients serves every API from one fixture.
func FixtureClients(f *FixtureClient) *Clients {
	return &Clients{
		CostExplorer: f,
		EC2:          f,
		CloudWatch:   f,
		SNS:          f,
	}
}
