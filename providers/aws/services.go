package aws

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/memorydb"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/sundownlabs/teardown/types"
)

type autoScalingLister struct{}

func (autoScalingLister) name() string   { return "auto scaling groups" }
func (autoScalingLister) critical() bool { return false }
func (autoScalingLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := autoscaling.NewDescribeAutoScalingGroupsPaginator(c.autoscaling, &autoscaling.DescribeAutoScalingGroupsInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, group := range output.AutoScalingGroups {
				tags := make(map[string]string, len(group.Tags))
				for _, tag := range group.Tags {
					tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
				}
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeAutoScalingGroup,
					ID:     aws.ToString(group.AutoScalingGroupName),
					ARN:    aws.ToString(group.AutoScalingGroupARN),
					Region: c.region,
					Tags:   tags,
				})
			}
		}
		return resources, nil
	})
}

type lambdaLister struct{}

func (lambdaLister) name() string   { return "Lambda functions" }
func (lambdaLister) critical() bool { return false }
func (lambdaLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := lambda.NewListFunctionsPaginator(c.lambda, &lambda.ListFunctionsInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, fn := range output.Functions {
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeLambdaFunction,
					ID:     aws.ToString(fn.FunctionName),
					ARN:    aws.ToString(fn.FunctionArn),
					Region: c.region,
				})
			}
		}
		return resources, nil
	})
}

type ecsLister struct{}

func (ecsLister) name() string   { return "ECS clusters" }
func (ecsLister) critical() bool { return false }
func (ecsLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := ecs.NewListClustersPaginator(c.ecs, &ecs.ListClustersInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, arn := range output.ClusterArns {
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeECSCluster,
					ID:     nameFromARN(arn),
					ARN:    arn,
					Region: c.region,
				})
			}
		}
		return resources, nil
	})
}

type eksLister struct{}

func (eksLister) name() string   { return "EKS clusters" }
func (eksLister) critical() bool { return false }
func (eksLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := eks.NewListClustersPaginator(c.eks, &eks.ListClustersInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, name := range output.Clusters {
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeEKSCluster,
					ID:     name,
					Region: c.region,
				})
			}
		}
		return resources, nil
	})
}

type ecrLister struct{}

func (ecrLister) name() string   { return "ECR repositories" }
func (ecrLister) critical() bool { return false }
func (ecrLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := ecr.NewDescribeRepositoriesPaginator(c.ecr, &ecr.DescribeRepositoriesInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, repo := range output.Repositories {
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeECRRepository,
					ID:     aws.ToString(repo.RepositoryName),
					ARN:    aws.ToString(repo.RepositoryArn),
					Region: c.region,
				})
			}
		}
		return resources, nil
	})
}

type sqsLister struct{}

func (sqsLister) name() string   { return "SQS queues" }
func (sqsLister) critical() bool { return false }
func (sqsLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := sqs.NewListQueuesPaginator(c.sqs, &sqs.ListQueuesInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, url := range output.QueueUrls {
				// The queue URL is the delete handle; keep it as the ID.
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeSQSQueue,
					ID:     url,
					Region: c.region,
					Name:   url[strings.LastIndex(url, "/")+1:],
				})
			}
		}
		return resources, nil
	})
}

type logGroupLister struct{}

func (logGroupLister) name() string   { return "CloudWatch log groups" }
func (logGroupLister) critical() bool { return false }
func (logGroupLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(c.logs, &cloudwatchlogs.DescribeLogGroupsInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, group := range output.LogGroups {
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeLogGroup,
					ID:     aws.ToString(group.LogGroupName),
					ARN:    aws.ToString(group.Arn),
					Region: c.region,
				})
			}
		}
		return resources, nil
	})
}

type cloudTrailLister struct{}

func (cloudTrailLister) name() string   { return "CloudTrail trails" }
func (cloudTrailLister) critical() bool { return false }
func (cloudTrailLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := cloudtrail.NewListTrailsPaginator(c.cloudtrail, &cloudtrail.ListTrailsInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, trail := range output.Trails {
				// Multi-region trails appear everywhere; count them once,
				// in their home region.
				if aws.ToString(trail.HomeRegion) != c.region {
					continue
				}
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeCloudTrail,
					ID:     aws.ToString(trail.Name),
					ARN:    aws.ToString(trail.TrailARN),
					Region: c.region,
				})
			}
		}
		return resources, nil
	})
}

type kmsLister struct{}

func (kmsLister) name() string   { return "KMS keys" }
func (kmsLister) critical() bool { return false }
func (kmsLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := kms.NewListKeysPaginator(c.kms, &kms.ListKeysInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, entry := range output.Keys {
				describe, err := c.kms.DescribeKey(ctx, &kms.DescribeKeyInput{
					KeyId: entry.KeyId,
				})
				if err != nil {
					return nil, classify(err)
				}
				meta := describe.KeyMetadata
				// AWS-managed keys cannot be deleted; keys already pending
				// deletion need no further attempt.
				if meta.KeyManager != kmstypes.KeyManagerTypeCustomer ||
					meta.KeyState == kmstypes.KeyStatePendingDeletion {
					continue
				}
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeKMSKey,
					ID:     aws.ToString(meta.KeyId),
					ARN:    aws.ToString(meta.Arn),
					Region: c.region,
					Name:   aws.ToString(meta.Description),
				})
			}
		}
		return resources, nil
	})
}

type loadBalancerLister struct{}

func (loadBalancerLister) name() string   { return "load balancers" }
func (loadBalancerLister) critical() bool { return false }
func (loadBalancerLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := elasticloadbalancingv2.NewDescribeLoadBalancersPaginator(c.elbv2, &elasticloadbalancingv2.DescribeLoadBalancersInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, lb := range output.LoadBalancers {
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeLoadBalancer,
					ID:     aws.ToString(lb.LoadBalancerArn),
					ARN:    aws.ToString(lb.LoadBalancerArn),
					Region: c.region,
					Name:   aws.ToString(lb.LoadBalancerName),
				})
			}
		}
		return resources, nil
	})
}

type rdsLister struct{}

func (rdsLister) name() string   { return "RDS databases" }
func (rdsLister) critical() bool { return true }
func (rdsLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord

		clusters := rds.NewDescribeDBClustersPaginator(c.rds, &rds.DescribeDBClustersInput{})
		for clusters.HasMorePages() {
			output, err := clusters.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, cluster := range output.DBClusters {
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeRDSCluster,
					ID:     aws.ToString(cluster.DBClusterIdentifier),
					ARN:    aws.ToString(cluster.DBClusterArn),
					Region: c.region,
					Tags:   convertRDSTags(cluster.TagList),
				})
			}
		}

		instances := rds.NewDescribeDBInstancesPaginator(c.rds, &rds.DescribeDBInstancesInput{})
		for instances.HasMorePages() {
			output, err := instances.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, instance := range output.DBInstances {
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeRDSInstance,
					ID:     aws.ToString(instance.DBInstanceIdentifier),
					ARN:    aws.ToString(instance.DBInstanceArn),
					Region: c.region,
					Tags:   convertRDSTags(instance.TagList),
					Metadata: map[string]string{
						"cluster": aws.ToString(instance.DBClusterIdentifier),
					},
				})
			}
		}

		return resources, nil
	})
}

type dynamoDBLister struct{}

func (dynamoDBLister) name() string   { return "DynamoDB tables" }
func (dynamoDBLister) critical() bool { return false }
func (dynamoDBLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := dynamodb.NewListTablesPaginator(c.dynamodb, &dynamodb.ListTablesInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, table := range output.TableNames {
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeDynamoDBTable,
					ID:     table,
					Region: c.region,
				})
			}
		}
		return resources, nil
	})
}

type redshiftLister struct{}

func (redshiftLister) name() string   { return "Redshift clusters" }
func (redshiftLister) critical() bool { return false }
func (redshiftLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := redshift.NewDescribeClustersPaginator(c.redshift, &redshift.DescribeClustersInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, cluster := range output.Clusters {
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeRedshiftCluster,
					ID:     aws.ToString(cluster.ClusterIdentifier),
					Region: c.region,
				})
			}
		}
		return resources, nil
	})
}

type memoryDBLister struct{}

func (memoryDBLister) name() string   { return "MemoryDB clusters" }
func (memoryDBLister) critical() bool { return false }
func (memoryDBLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := memorydb.NewDescribeClustersPaginator(c.memorydb, &memorydb.DescribeClustersInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, cluster := range output.Clusters {
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeMemoryDBCluster,
					ID:     aws.ToString(cluster.Name),
					ARN:    aws.ToString(cluster.ARN),
					Region: c.region,
				})
			}
		}
		return resources, nil
	})
}

type stackLister struct{}

func (stackLister) name() string   { return "CloudFormation stacks" }
func (stackLister) critical() bool { return false }
func (stackLister) list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error) {
	return p.eachRegion(func(c *regionClients) ([]types.ResourceRecord, error) {
		var resources []types.ResourceRecord
		paginator := cloudformation.NewListStacksPaginator(c.cloudformation, &cloudformation.ListStacksInput{})
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				return nil, classify(err)
			}
			for _, stack := range output.StackSummaries {
				if stack.StackStatus == cfntypes.StackStatusDeleteComplete {
					continue
				}
				resources = append(resources, types.ResourceRecord{
					Type:   types.TypeCloudFormationStack,
					ID:     aws.ToString(stack.StackName),
					Region: c.region,
					Metadata: map[string]string{
						"status": string(stack.StackStatus),
					},
				})
			}
		}
		return resources, nil
	})
}

func convertRDSTags(tags []rdstypes.Tag) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for _, tag := range tags {
		m[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return m
}

// nameFromARN extracts the trailing resource name from an ARN.
func nameFromARN(arn string) string {
	if i := strings.LastIndex(arn, "/"); i >= 0 {
		return arn[i+1:]
	}
	return arn
}
