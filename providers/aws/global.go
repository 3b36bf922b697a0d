package aws

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sundownlabs/teardown/types"
)

// Global listers: S3 buckets, IAM roles, Route53 zones. These carry no
// region; the partitioner groups them under "global".

type s3Lister struct{}

func (s3Lister) name() string   { return "S3 buckets" }
func (s3Lister) critical() bool { return true }
func (s3Lister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	client := p.clients[p.regions[0]].s3

	output, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, classify(err)
	}

	resources := make([]types.ResourceRecord, 0, len(output.Buckets))
	for _, bucket := range output.Buckets {
		resources = append(resources, types.ResourceRecord{
			Type: types.TypeS3Bucket,
			ID:   aws.ToString(bucket.Name),
		})
	}
	return resources, nil
}

// IAM roles are in the protected catalogue: listed so the journal shows
// them preserved, never destroyed.
type iamRoleLister struct{}

func (iamRoleLister) name() string   { return "IAM roles" }
func (iamRoleLister) critical() bool { return true }
func (iamRoleLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	var resources []types.ResourceRecord
	paginator := iam.NewListRolesPaginator(p.global.iam, &iam.ListRolesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}
		for _, role := range output.Roles {
			resources = append(resources, types.ResourceRecord{
				Type: types.TypeIAMRole,
				ID:   aws.ToString(role.RoleName),
				ARN:  aws.ToString(role.Arn),
			})
		}
	}
	return resources, nil
}

type route53Lister struct{}

func (route53Lister) name() string   { return "Route53 hosted zones" }
func (route53Lister) critical() bool { return false }
func (route53Lister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	var resources []types.ResourceRecord
	paginator := route53.NewListHostedZonesPaginator(p.global.route53, &route53.ListHostedZonesInput{})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err)
		}
		for _, zone := range output.HostedZones {
			resources = append(resources, types.ResourceRecord{
				Type: types.TypeRoute53Zone,
				ID:   strings.TrimPrefix(aws.ToString(zone.Id), "/hostedzone/"),
				Name: aws.ToString(zone.Name),
			})
		}
	}
	return resources, nil
}
