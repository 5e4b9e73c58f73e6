package metrics

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/samber/lo"

	"github.com/ogulcanaydogan/cloud-guardian/pkg/model"
)

// NameTag is the tag key holding an instance's display name.
const NameTag = "Name"

// EC2API is the subset of the EC2 client used by InventoryFetcher.
type EC2API interface {
	ec2.DescribeInstancesAPIClient
}

// InventoryFetcher lists compute instances in one region.
type InventoryFetcher struct {
	client EC2API
	logger *slog.Logger
}

// NewInventoryFetcher creates an inventory fetcher.
func NewInventoryFetcher(client EC2API, logger *slog.Logger) *InventoryFetcher {
	return &InventoryFetcher{client: client, logger: logger}
}

// ListInstances returns every instance across all reservations, in the order
// the provider returned them. A failure on any page discards the whole listing.
func (f *InventoryFetcher) ListInstances(ctx context.Context) ([]model.ResourceInstance, error) {
	var instances []model.ResourceInstance

	paginator := ec2.NewDescribeInstancesPaginator(f.client, &ec2.DescribeInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, Classify("DescribeInstances", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				instances = append(instances, toResourceInstance(inst))
			}
		}
	}

	f.logger.Debug("instances listed", "count", len(instances))
	return instances, nil
}

func toResourceInstance(inst ec2types.Instance) model.ResourceInstance {
	r := model.ResourceInstance{
		ID:             aws.ToString(inst.InstanceId),
		State:          model.StateOther,
		Type:           string(inst.InstanceType),
		LaunchTime:     aws.ToTime(inst.LaunchTime).UTC(),
		PrivateAddress: aws.ToString(inst.PrivateIpAddress),
		PublicAddress:  aws.ToString(inst.PublicIpAddress),
		Name:           instanceName(inst.Tags),
	}
	if inst.State != nil {
		r.State = model.ParseInstanceState(string(inst.State.Name))
	}
	return r
}

func instanceName(tags []ec2types.Tag) string {
	tag, ok := lo.Find(tags, func(t ec2types.Tag) bool {
		return aws.ToString(t.Key) == NameTag
	})
	if !ok {
		return model.NotAvailable
	}
	return aws.ToString(tag.Value)
}
