package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/sundownlabs/teardown/types"
)

// EC2-family listers: instances, volumes, snapshots, and the networking
// layers underneath them.

type ec2InstanceLister struct{}

func (ec2InstanceLister) name() string   { return "EC2 instances" }
func (ec2InstanceLister) critical() bool { return true }
func (ec2InstanceLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := ec2.NewDescribeInstancesPaginator(c.ec2, &ec2.DescribeInstancesInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, reservation := range output.Reservations {
				for _, instance := range reservation.Instances {
					if instance.State != nil && instance.State.Name == ec2types.InstanceStateNameTerminated {
						continue
					}
					resources = append(resources, buildInstanceRecord(instance, c.region))
				}
			}
		}
		return resources, nil
	})
}

func buildInstanceRecord(instance ec2types.Instance, region string) types.ResourceRecord {
	tags := convertEC2Tags(instance.Tags)
	return types.ResourceRecord{
		Type:   types.TypeEC2Instance,
		ID:     aws.ToString(instance.InstanceId),
		Region: region,
		Name:   tags["Name"],
		Tags:   tags,
		Metadata: map[string]string{
			"state":  string(instance.State.Name),
			"vpc_id": aws.ToString(instance.VpcId),
		},
	}
}

type ebsVolumeLister struct{}

func (ebsVolumeLister) name() string   { return "EBS volumes" }
func (ebsVolumeLister) critical() bool { return false }
func (ebsVolumeLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := ec2.NewDescribeVolumesPaginator(c.ec2, &ec2.DescribeVolumesInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, volume := range output.Volumes {
				tags := convertEC2Tags(volume.Tags)
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeEBSVolume,
					ID:     aws.ToString(volume.VolumeId),
					Region: c.region,
					Name:   tags["Name"],
					Tags:   tags,
					Metadata: map[string]string{
						"state": string(volume.State),
					},
				})
			}
		}
		return resources, nil
	})
}

type ebsSnapshotLister struct{}

func (ebsSnapshotLister) name() string   { return "EBS snapshots" }
func (ebsSnapshotLister) critical() bool { return false }
func (ebsSnapshotLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := ec2.NewDescribeSnapshotsPaginator(c.ec2, &ec2.DescribeSnapshotsInput{
			OwnerIds: []string{"self"},
		})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, snapshot := range output.Snapshots {
				tags := convertEC2Tags(snapshot.Tags)
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeEBSSnapshot,
					ID:     aws.ToString(snapshot.SnapshotId),
					Region: c.region,
					Name:   tags["Name"],
					Tags:   tags,
				})
			}
		}
		return resources, nil
	})
}

type natGatewayLister struct{}

func (natGatewayLister) name() string   { return "NAT gateways" }
func (natGatewayLister) critical() bool { return false }
func (natGatewayLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := ec2.NewDescribeNatGatewaysPaginator(c.ec2, &ec2.DescribeNatGatewaysInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, gateway := range output.NatGateways {
				if gateway.State == ec2types.NatGatewayStateDeleted ||
					gateway.State == ec2types.NatGatewayStateDeleting {
					continue
				}
				tags := convertEC2Tags(gateway.Tags)
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeNATGateway,
					ID:     aws.ToString(gateway.NatGatewayId),
					Region: c.region,
					Name:   tags["Name"],
					Tags:   tags,
					Metadata: map[string]string{
						"vpc_id": aws.ToString(gateway.VpcId),
					},
				})
			}
		}
		return resources, nil
	})
}

type internetGatewayLister struct{}

func (internetGatewayLister) name() string   { return "internet gateways" }
func (internetGatewayLister) critical() bool { return false }
func (internetGatewayLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := ec2.NewDescribeInternetGatewaysPaginator(c.ec2, &ec2.DescribeInternetGatewaysInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, gateway := range output.InternetGateways {
				resources = append(resources, buildInternetGatewayRecord(gateway, c.region))
			}
		}
		return resources, nil
	})
}

func buildInternetGatewayRecord(gateway ec2types.InternetGateway, region string) types.ResourceRecord {
	tags := convertEC2Tags(gateway.Tags)
	metadata := map[string]string{}
	if len(gateway.Attachments) > 0 {
		metadata["vpc_id"] = aws.ToString(gateway.Attachments[0].VpcId)
	}
	return types.ResourceRecord{
		Type:     types.TypeInternetGateway,
		ID:       aws.ToString(gateway.InternetGatewayId),
		Region:   region,
		Name:     tags["Name"],
		Tags:     tags,
		Metadata: metadata,
	}
}

type securityGroupLister struct{}

func (securityGroupLister) name() string   { return "security groups" }
func (securityGroupLister) critical() bool { return true }
func (securityGroupLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := ec2.NewDescribeSecurityGroupsPaginator(c.ec2, &ec2.DescribeSecurityGroupsInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, group := range output.SecurityGroups {
				// The default group is undeletable; it goes with its VPC.
				if aws.ToString(group.GroupName) == "default" {
					continue
				}
				tags := convertEC2Tags(group.Tags)
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeSecurityGroup,
					ID:     aws.ToString(group.GroupId),
					Region: c.region,
					Name:   aws.ToString(group.GroupName),
					Tags:   tags,
					Metadata: map[string]string{
						"vpc_id": aws.ToString(group.VpcId),
					},
				})
			}
		}
		return resources, nil
	})
}

type vpcLister struct{}

func (vpcLister) name() string   { return "VPCs" }
func (vpcLister) critical() bool { return true }
func (vpcLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := ec2.NewDescribeVpcsPaginator(c.ec2, &ec2.DescribeVpcsInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, vpc := range output.Vpcs {
				tags := convertEC2Tags(vpc.Tags)
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeVPC,
					ID:     aws.ToString(vpc.VpcId),
					Region: c.region,
					Name:   tags["Name"],
					Tags:   tags,
					Metadata: map[string]string{
						"cidr":    aws.ToString(vpc.CidrBlock),
						"default": boolString(aws.ToBool(vpc.IsDefault)),
					},
				})
			}
		}
		return resources, nil
	})
}

// convertEC2Tags flattens the EC2 tag list into a map.
func convertEC2Tags(tags []ec2types.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return m
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
