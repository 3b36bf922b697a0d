package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/types"
)

// ec2InstancePrimitive terminates instances, lifting termination
// protection first.
type ec2InstancePrimitive struct {
	p *Provider
}

func (d *ec2InstancePrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{r.ID},
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	for _, reservation := range output.Reservations {
		for _, instance := range reservation.Instances {
			if instance.State != nil && instance.State.Name != ec2types.InstanceStateNameTerminated {
				return true, nil
			}
		}
	}
	return false, nil
}

func (d *ec2InstancePrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).ec2.ModifyInstanceAttribute(ctx, &ec2.ModifyInstanceAttributeInput{
		InstanceId: aws.String(r.ID),
		DisableApiTermination: &ec2types.AttributeBooleanValue{
			Value: aws.Bool(false),
		},
	})
	return classify(err)
}

func (d *ec2InstancePrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).ec2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{r.ID},
	})
	return classify(err)
}

// asgPrimitive force-deletes scaling groups, taking their instances along.
type asgPrimitive struct {
	p *Provider
}

func (d *asgPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).autoscaling.DescribeAutoScalingGroups(ctx, &autoscaling.DescribeAutoScalingGroupsInput{
		AutoScalingGroupNames: []string{r.ID},
	})
	if err != nil {
		return false, classify(err)
	}
	return len(output.AutoScalingGroups) > 0, nil
}

func (d *asgPrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	// Scale to zero so instance termination starts before the delete call.
	_, err := d.p.clientsFor(r).autoscaling.UpdateAutoScalingGroup(ctx, &autoscaling.UpdateAutoScalingGroupInput{
		AutoScalingGroupName: aws.String(r.ID),
		MinSize:              aws.Int32(0),
		DesiredCapacity:      aws.Int32(0),
	})
	return classify(err)
}

func (d *asgPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).autoscaling.DeleteAutoScalingGroup(ctx, &autoscaling.DeleteAutoScalingGroupInput{
		AutoScalingGroupName: aws.String(r.ID),
		ForceDelete:          aws.Bool(true),
	})
	return classify(err)
}

type lambdaPrimitive struct {
	p *Provider
}

func (d *lambdaPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	_, err := d.p.clientsFor(r).lambda.GetFunction(ctx, &lambda.GetFunctionInput{
		FunctionName: aws.String(r.ID),
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

func (d *lambdaPrimitive) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	return nil
}

func (d *lambdaPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).lambda.DeleteFunction(ctx, &lambda.DeleteFunctionInput{
		FunctionName: aws.String(r.ID),
	})
	return classify(err)
}

// ecsPrimitive deletes clusters after draining their services.
type ecsPrimitive struct {
	p *Provider
}

func (d *ecsPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).ecs.DescribeClusters(ctx, &ecs.DescribeClustersInput{
		Clusters: []string{r.ID},
	})
	if err != nil {
		return false, classify(err)
	}
	for _, cluster := range output.Clusters {
		if aws.ToString(cluster.Status) != "INACTIVE" {
			return true, nil
		}
	}
	return false, nil
}

func (d *ecsPrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	client := d.p.clientsFor(r).ecs

	paginator := ecs.NewListServicesPaginator(client, &ecs.ListServicesInput{
		Cluster: aws.String(r.ID),
	})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return classify(err)
		}
		for _, serviceArn := range output.ServiceArns {
			_, err := client.DeleteService(ctx, &ecs.DeleteServiceInput{
				Cluster: aws.String(r.ID),
				Service: aws.String(serviceArn),
				Force:   aws.Bool(true),
			})
			if err = classify(err); err != nil && !providers.IsNotFound(err) {
				return err
			}
		}
	}
	return nil
}

func (d *ecsPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).ecs.DeleteCluster(ctx, &ecs.DeleteClusterInput{
		Cluster: aws.String(r.ID),
	})
	return classify(err)
}

// eksPrimitive deletes clusters after their node groups.
type eksPrimitive struct {
	p *Provider
}

func (d *eksPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	_, err := d.p.clientsFor(r).eks.DescribeCluster(ctx, &eks.DescribeClusterInput{
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

func (d *eksPrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	client := d.p.clientsFor(r).eks

	paginator := eks.NewListNodegroupsPaginator(client, &eks.ListNodegroupsInput{
		ClusterName: aws.String(r.ID),
	})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return classify(err)
		}
		for _, nodegroup := range output.Nodegroups {
			_, err := client.DeleteNodegroup(ctx, &eks.DeleteNodegroupInput{
				ClusterName:   aws.String(r.ID),
				NodegroupName: aws.String(nodegroup),
			})
			if err = classify(err); err != nil && !providers.IsNotFound(err) {
				return err
			}
		}
	}
	return nil
}

func (d *eksPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).eks.DeleteCluster(ctx, &eks.DeleteClusterInput{
		Name: aws.String(r.ID),
	})
	return classify(err)
}

type ecrPrimitive struct {
	p *Provider
}

func (d *ecrPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).ecr.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{r.ID},
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(output.Repositories) > 0, nil
}

func (d *ecrPrimitive) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	return nil // force delete removes images with the repository
}

func (d *ecrPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).ecr.DeleteRepository(ctx, &ecr.DeleteRepositoryInput{
		RepositoryName: aws.String(r.ID),
		Force:          true,
	})
	return classify(err)
}
