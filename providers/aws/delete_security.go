package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/types"
)

// kmsPrimitive schedules key deletion with the minimum 7-day window.
// KMS never deletes immediately; scheduling is this engine's terminal state
// for a key.
type kmsPrimitive struct {
	p *Provider
}

func (d *kmsPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).kms.DescribeKey(ctx, &kms.DescribeKeyInput{
		KeyId: aws.String(r.ID),
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return output.KeyMetadata.KeyState != kmstypes.KeyStatePendingDeletion, nil
}

func (d *kmsPrimitive) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	return nil
}

func (d *kmsPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).kms.ScheduleKeyDeletion(ctx, &kms.ScheduleKeyDeletionInput{
		KeyId:               aws.String(r.ID),
		PendingWindowInDays: aws.Int32(7),
	})
	return classify(err)
}

// stackPrimitive deletes CloudFormation stacks, lifting termination
// protection first. Stack deletion is asynchronous; a later existence
// check or the next run confirms completion.
type stackPrimitive struct {
	p *Provider
}

func (d *stackPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).cloudformation.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(r.ID),
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	for _, stack := range output.Stacks {
		if stack.StackStatus != cfntypes.StackStatusDeleteComplete {
			return true, nil
		}
	}
	return false, nil
}

func (d *stackPrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).cloudformation.UpdateTerminationProtection(ctx, &cloudformation.UpdateTerminationProtectionInput{
		StackName:                   aws.String(r.ID),
		EnableTerminationProtection: aws.Bool(false),
	})
	return classify(err)
}

func (d *stackPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).cloudformation.DeleteStack(ctx, &cloudformation.DeleteStackInput{
		StackName: aws.String(r.ID),
	})
	return classify(err)
}
