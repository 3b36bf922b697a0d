package aws

import (
	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/types"
)

// buildCatalogue wires one delete primitive per deletable type. Protected
// types deliberately have no entry: nothing in the engine can destroy them.
func (p *Provider) buildCatalogue() providers.CatalogueMap {
	return providers.CatalogueMap{
		types.TypeS3Bucket:    &s3Primitive{p: p},
		types.TypeEBSVolume:   &ebsVolumePrimitive{p: p},
		types.TypeEBSSnapshot: &ebsSnapshotPrimitive{p: p},

		types.TypeEC2Instance:      &ec2InstancePrimitive{p: p},
		types.TypeAutoScalingGroup: &asgPrimitive{p: p},
		types.TypeLambdaFunction:   &lambdaPrimitive{p: p},
		types.TypeECSCluster:       &ecsPrimitive{p: p},
		types.TypeEKSCluster:       &eksPrimitive{p: p},
		types.TypeECRRepository:    &ecrPrimitive{p: p},

		types.TypeRDSInstance:     &rdsInstancePrimitive{p: p},
		types.TypeRDSCluster:      &rdsClusterPrimitive{p: p},
		types.TypeDynamoDBTable:   &dynamoDBPrimitive{p: p},
		types.TypeRedshiftCluster: &redshiftPrimitive{p: p},
		types.TypeMemoryDBCluster: &memoryDBPrimitive{p: p},

		types.TypeSQSQueue:   &sqsPrimitive{p: p},
		types.TypeLogGroup:   &logGroupPrimitive{p: p},
		types.TypeCloudTrail: &cloudTrailPrimitive{p: p},

		types.TypeKMSKey:              &kmsPrimitive{p: p},
		types.TypeCloudFormationStack: &stackPrimitive{p: p},

		types.TypeLoadBalancer:    &loadBalancerPrimitive{p: p},
		types.TypeNATGateway:      &natGatewayPrimitive{p: p},
		types.TypeInternetGateway: &internetGatewayPrimitive{p: p},
		types.TypeSecurityGroup:   &securityGroupPrimitive{p: p},
		types.TypeVPC:             &vpcPrimitive{p: p},
	}
}
