package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/memorydb"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/redshift"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// regionClients holds one client per service for one region.
type regionClients struct {
	region string

	ec2            *ec2.Client
	s3             *s3.Client
	rds            *rds.Client
	autoscaling    *autoscaling.Client
	lambda         *lambda.Client
	ecs            *ecs.Client
	eks            *eks.Client
	ecr            *ecr.Client
	sqs            *sqs.Client
	logs           *cloudwatchlogs.Client
	cloudtrail     *cloudtrail.Client
	kms            *kms.Client
	elbv2          *elasticloadbalancingv2.Client
	dynamodb       *dynamodb.Client
	redshift       *redshift.Client
	memorydb       *memorydb.Client
	cloudformation *cloudformation.Client
}

// globalClients holds clients for services without a regional scope.
type globalClients struct {
	iam     *iam.Client
	route53 *route53.Client
}

func newRegionClients(cfg aws.Config, region string) *regionClients {
	cfg.Region = region
	return &regionClients{
		region:         region,
		ec2:            ec2.NewFromConfig(cfg),
		s3:             s3.NewFromConfig(cfg),
		rds:            rds.NewFromConfig(cfg),
		autoscaling:    autoscaling.NewFromConfig(cfg),
		lambda:         lambda.NewFromConfig(cfg),
		ecs:            ecs.NewFromConfig(cfg),
		eks:            eks.NewFromConfig(cfg),
		ecr:            ecr.NewFromConfig(cfg),
		sqs:            sqs.NewFromConfig(cfg),
		logs:           cloudwatchlogs.NewFromConfig(cfg),
		cloudtrail:     cloudtrail.NewFromConfig(cfg),
		kms:            kms.NewFromConfig(cfg),
		elbv2:          elasticloadbalancingv2.NewFromConfig(cfg),
		dynamodb:       dynamodb.NewFromConfig(cfg),
		redshift:       redshift.NewFromConfig(cfg),
		memorydb:       memorydb.NewFromConfig(cfg),
		cloudformation: cloudformation.NewFromConfig(cfg),
	}
}

func newGlobalClients(cfg aws.Config) *globalClients {
	cfg.Region = "us-east-1"
	return &globalClients{
		iam:     iam.NewFromConfig(cfg),
		route53: route53.NewFromConfig(cfg),
	}
}

// loadConfig resolves SDK configuration for one account profile.
func loadConfig(ctx context.Context, profile string) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}
