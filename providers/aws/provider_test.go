package aws

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"

	"github.com/sundownlabs/teardown/types"
)

func TestCatalogueCoversEveryDeletableType(t *testing.T) {
	p := &Provider{}
	catalogue := p.buildCatalogue()

	deletable := []types.ResourceType{
		types.TypeS3Bucket, types.TypeEBSVolume, types.TypeEBSSnapshot,
		types.TypeEC2Instance, types.TypeAutoScalingGroup, types.TypeLambdaFunction,
		types.TypeRDSInstance, types.TypeRDSCluster, types.TypeDynamoDBTable,
		types.TypeRedshiftCluster, types.TypeMemoryDBCluster, types.TypeECSCluster,
		types.TypeEKSCluster, types.TypeECRRepository, types.TypeSQSQueue,
		types.TypeLogGroup, types.TypeCloudTrail, types.TypeKMSKey,
		types.TypeLoadBalancer, types.TypeCloudFormationStack, types.TypeNATGateway,
		types.TypeInternetGateway, types.TypeSecurityGroup, types.TypeVPC,
	}

	for _, typ := range deletable {
		_, ok := catalogue.Primitive(typ)
		assert.True(t, ok, "no delete primitive for %s", typ)
	}
}

func TestCatalogueNeverCoversProtectedTypes(t *testing.T) {
	p := &Provider{}
	catalogue := p.buildCatalogue()

	for _, typ := range []types.ResourceType{
		types.TypeIAMRole, types.TypeIAMUser, types.TypeIAMPolicy,
		types.TypeRoute53Zone, types.TypeBudget, types.TypeSavingsPlan,
	} {
		_, ok := catalogue.Primitive(typ)
		assert.False(t, ok, "protected type %s has a delete primitive", typ)
	}
}

func TestBuildInstanceRecord(t *testing.T) {
	instance := ec2types.Instance{
		InstanceId: aws.String("i-0abc123"),
		VpcId:      aws.String("vpc-111"),
		State:      &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
		Tags: []ec2types.Tag{
			{Key: aws.String("Name"), Value: aws.String("web-1")},
			{Key: aws.String("decom:preserve"), Value: aws.String("true")},
		},
	}

	record := buildInstanceRecord(instance, "us-east-1")

	assert.Equal(t, types.TypeEC2Instance, record.Type)
	assert.Equal(t, "i-0abc123", record.ID)
	assert.Equal(t, "us-east-1", record.Region)
	assert.Equal(t, "web-1", record.Name)
	assert.Equal(t, "true", record.Tags["decom:preserve"])
	assert.Equal(t, "vpc-111", record.Metadata["vpc_id"])
}

func TestBuildInternetGatewayRecord(t *testing.T) {
	gateway := ec2types.InternetGateway{
		InternetGatewayId: aws.String("igw-222"),
		Attachments: []ec2types.InternetGatewayAttachment{
			{VpcId: aws.String("vpc-111")},
		},
	}

	record := buildInternetGatewayRecord(gateway, "eu-west-1")

	assert.Equal(t, types.TypeInternetGateway, record.Type)
	assert.Equal(t, "igw-222", record.ID)
	assert.Equal(t, "vpc-111", record.Metadata["vpc_id"])
}

func TestConvertEC2Tags(t *testing.T) {
	assert.Nil(t, convertEC2Tags(nil))

	tags := convertEC2Tags([]ec2types.Tag{
		{Key: aws.String("Environment"), Value: aws.String("production")},
	})
	assert.Equal(t, map[string]string{"Environment": "production"}, tags)
}

func TestNameFromARN(t *testing.T) {
	assert.Equal(t, "my-cluster", nameFromARN("arn:aws:ecs:us-east-1:111111111111:cluster/my-cluster"))
	assert.Equal(t, "plain-name", nameFromARN("plain-name"))
}
