package aws

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/sundownlabs/teardown/types"
)

// Lookup fetches the authoritative tags for a resource at classification
// time. Snapshot tags can be minutes stale; a preserve tag added after the
// scan must still win. Types without a cheap tag API fall back to the
// snapshot tags with no error.
func (p *Provider) Lookup(ctx context.Context, r types.ResourceRecord) (map[string]string, error) {
	switch r.Type {
	case types.TypeEC2Instance, types.TypeEBSVolume, types.TypeEBSSnapshot,
		types.TypeNATGateway, types.TypeInternetGateway,
		types.TypeSecurityGroup, types.TypeVPC:
		return p.lookupEC2Tags(ctx, r)
	case types.TypeS3Bucket:
		return p.lookupBucketTags(ctx, r)
	case types.TypeRDSInstance, types.TypeRDSCluster:
		return p.lookupRDSTags(ctx, r)
	default:
		return r.Tags, nil
	}
}

func (p *Provider) lookupEC2Tags(ctx context.Context, r types.ResourceRecord) (map[string]string, error) {
	output, err := p.clientsFor(r).ec2.DescribeTags(ctx, &ec2.DescribeTagsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("resource-id"), Values: []string{r.ID}},
		},
	})
	if err != nil {
		return nil, classify(err)
	}

	tags := make(map[string]string, len(output.Tags))
	for _, tag := range output.Tags {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return tags, nil
}

func (p *Provider) lookupBucketTags(ctx context.Context, r types.ResourceRecord) (map[string]string, error) {
	output, err := p.clientsFor(r).s3.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{
		Bucket: aws.String(r.ID),
	})
	if err != nil {
		// An untagged bucket is not an error.
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchTagSet" {
			return nil, nil
		}
		return nil, classify(err)
	}

	tags := make(map[string]string, len(output.TagSet))
	for _, tag := range output.TagSet {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return tags, nil
}

func (p *Provider) lookupRDSTags(ctx context.Context, r types.ResourceRecord) (map[string]string, error) {
	if r.ARN == "" {
		return r.Tags, nil
	}

	output, err := p.clientsFor(r).rds.ListTagsForResource(ctx, &rds.ListTagsForResourceInput{
		ResourceName: aws.String(r.ARN),
	})
	if err != nil {
		return nil, classify(err)
	}
	return convertRDSTags(output.TagList), nil
}
