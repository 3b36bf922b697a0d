package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/types"
)

// sqsPrimitive deletes queues. The record ID is the queue URL.
type sqsPrimitive struct {
	p *Provider
}

func (d *sqsPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	_, err := d.p.clientsFor(r).sqs.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(r.ID),
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *sqsPrimitive) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	return nil
}

func (d *sqsPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).sqs.DeleteQueue(ctx, &sqs.DeleteQueueInput{
		QueueUrl: aws.String(r.ID),
	})
	return classify(err)
}

type logGroupPrimitive struct {
	p *Provider
}

func (d *logGroupPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).logs.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(r.ID),
	})
	if err != nil {
		return false, classify(err)
	}
	for _, group := range output.LogGroups {
		if aws.ToString(group.LogGroupName) == r.ID {
			return true, nil
		}
	}
	return false, nil
}

func (d *logGroupPrimitive) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	return nil
}

func (d *logGroupPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).logs.DeleteLogGroup(ctx, &cloudwatchlogs.DeleteLogGroupInput{
		LogGroupName: aws.String(r.ID),
	})
	return classify(err)
}

// cloudTrailPrimitive deletes trails, stopping log delivery first.
type cloudTrailPrimitive struct {
	p *Provider
}

func (d *cloudTrailPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	_, err := d.p.clientsFor(r).cloudtrail.GetTrail(ctx, &cloudtrail.GetTrailInput{
		Name: aws.String(r.ID),
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *cloudTrailPrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).cloudtrail.StopLogging(ctx, &cloudtrail.StopLoggingInput{
		Name: aws.String(r.ID),
	})
	return classify(err)
}

func (d *cloudTrailPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).cloudtrail.DeleteTrail(ctx, &cloudtrail.DeleteTrailInput{
		Name: aws.String(r.ID),
	})
	return classify(err)
}
