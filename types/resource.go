package types

import "fmt"

// ResourceType identifies one category in the destruction catalogue.
type ResourceType string

// Deletable catalogue - categories the engine is allowed to destroy.
const (
	TypeS3Bucket            ResourceType = "s3_bucket"
	TypeEBSVolume           ResourceType = "ebs_volume"
	TypeEBSSnapshot         ResourceType = "ebs_snapshot"
	TypeEC2Instance         ResourceType = "ec2_instance"
	TypeAutoScalingGroup    ResourceType = "autoscaling_group"
	TypeLambdaFunction      ResourceType = "lambda_function"
	TypeRDSInstance         ResourceType = "rds_instance"
	TypeRDSCluster          ResourceType = "rds_cluster"
	TypeDynamoDBTable       ResourceType = "dynamodb_table"
	TypeRedshiftCluster     ResourceType = "redshift_cluster"
	TypeMemoryDBCluster     ResourceType = "memorydb_cluster"
	TypeECSCluster          ResourceType = "ecs_cluster"
	TypeEKSCluster          ResourceType = "eks_cluster"
	TypeECRRepository       ResourceType = "ecr_repository"
	TypeSQSQueue            ResourceType = "sqs_queue"
	TypeLogGroup            ResourceType = "cloudwatch_log_group"
	TypeCloudTrail          ResourceType = "cloudtrail_trail"
	TypeKMSKey              ResourceType = "kms_key"
	TypeLoadBalancer        ResourceType = "load_balancer"
	TypeCloudFormationStack ResourceType = "cloudformation_stack"
	TypeNATGateway          ResourceType = "nat_gateway"
	TypeInternetGateway     ResourceType = "internet_gateway"
	TypeSecurityGroup       ResourceType = "security_group"
	TypeVPC                 ResourceType = "vpc"
)

// Protected catalogue - categories that always survive decommissioning.
const (
	TypeIAMRole            ResourceType = "iam_role"
	TypeIAMUser            ResourceType = "iam_user"
	TypeIAMPolicy          ResourceType = "iam_policy"
	TypeOrganizationalUnit ResourceType = "organizational_unit"
	TypeRoute53Zone        ResourceType = "route53_zone"
	TypeBudget             ResourceType = "budget"
	TypeSavingsPlan        ResourceType = "savings_plan"
)

var deletableTypes = map[ResourceType]bool{
	TypeS3Bucket:            true,
	TypeEBSVolume:           true,
	TypeEBSSnapshot:         true,
	TypeEC2Instance:         true,
	TypeAutoScalingGroup:    true,
	TypeLambdaFunction:      true,
	TypeRDSInstance:         true,
	TypeRDSCluster:          true,
	TypeDynamoDBTable:       true,
	TypeRedshiftCluster:     true,
	TypeMemoryDBCluster:     true,
	TypeECSCluster:          true,
	TypeEKSCluster:          true,
	TypeECRRepository:       true,
	TypeSQSQueue:            true,
	TypeLogGroup:            true,
	TypeCloudTrail:          true,
	TypeKMSKey:              true,
	TypeLoadBalancer:        true,
	TypeCloudFormationStack: true,
	TypeNATGateway:          true,
	TypeInternetGateway:     true,
	TypeSecurityGroup:       true,
	TypeVPC:                 true,
}

var protectedTypes = map[ResourceType]bool{
	TypeIAMRole:            true,
	TypeIAMUser:            true,
	TypeIAMPolicy:          true,
	TypeOrganizationalUnit: true,
	TypeRoute53Zone:        true,
	TypeBudget:             true,
	TypeSavingsPlan:        true,
}

// Deletable reports whether the type belongs to the deletable catalogue.
func (t ResourceType) Deletable() bool {
	return deletableTypes[t]
}

// Protected reports whether the type belongs to the always-preserved catalogue.
func (t ResourceType) Protected() bool {
	return protectedTypes[t]
}

// Known reports whether the type belongs to either catalogue.
func (t ResourceType) Known() bool {
	return deletableTypes[t] || protectedTypes[t]
}

// ResourceRecord is one discovered cloud resource. Produced by the inventory
// source at scan time, read-only to the engine. (Type, ID, Region) is unique
// within an account snapshot; Region is empty for global resources.
type ResourceRecord struct {
	Type     ResourceType      `json:"type"`
	ID       string            `json:"id"`
	ARN      string            `json:"arn,omitempty"`
	Region   string            `json:"region,omitempty"`
	Name     string            `json:"name,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Key returns the snapshot-unique identity of the resource.
func (r ResourceRecord) Key() string {
	return fmt.Sprintf("%s/%s/%s", r.Type, r.Region, r.ID)
}

// Global reports whether the resource lives outside any region.
func (r ResourceRecord) Global() bool {
	return r.Region == ""
}

// DisplayName returns the name tag when present, the ID otherwise.
func (r ResourceRecord) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}

// Account identifies one cloud account being decommissioned.
// Supplied at run start, never mutated.
type Account struct {
	ID         string `json:"id"`
	Profile    string `json:"profile"`
	Restricted bool   `json:"restricted,omitempty"`
}
