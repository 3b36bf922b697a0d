package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/memorydb"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/redshift"

	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/types"
)

// rdsInstancePrimitive deletes database instances. Deletion protection is
// lifted in ClearBlocking; no final snapshot is taken - the account is
// going away.
type rdsInstancePrimitive struct {
	p *Provider
}

func (d *rdsInstancePrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).rds.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(r.ID),
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(output.DBInstances) > 0, nil
}

func (d *rdsInstancePrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).rds.ModifyDBInstance(ctx, &rds.ModifyDBInstanceInput{
		DBInstanceIdentifier: aws.String(r.ID),
		DeletionProtection:   aws.Bool(false),
		ApplyImmediately:     aws.Bool(true),
	})
	return classify(err)
}

func (d *rdsInstancePrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).rds.DeleteDBInstance(ctx, &rds.DeleteDBInstanceInput{
		DBInstanceIdentifier:   aws.String(r.ID),
		SkipFinalSnapshot:      aws.Bool(true),
		DeleteAutomatedBackups: aws.Bool(true),
	})
	return classify(err)
}

type rdsClusterPrimitive struct {
	p *Provider
}

func (d *rdsClusterPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).rds.DescribeDBClusters(ctx, &rds.DescribeDBClustersInput{
		DBClusterIdentifier: aws.String(r.ID),
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(output.DBClusters) > 0, nil
}

func (d *rdsClusterPrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).rds.ModifyDBCluster(ctx, &rds.ModifyDBClusterInput{
		DBClusterIdentifier: aws.String(r.ID),
		DeletionProtection:  aws.Bool(false),
		ApplyImmediately:    aws.Bool(true),
	})
	return classify(err)
}

func (d *rdsClusterPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).rds.DeleteDBCluster(ctx, &rds.DeleteDBClusterInput{
		DBClusterIdentifier: aws.String(r.ID),
		SkipFinalSnapshot:   aws.Bool(true),
	})
	return classify(err)
}

type dynamoDBPrimitive struct {
	p *Provider
}

func (d *dynamoDBPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	_, err := d.p.clientsFor(r).dynamodb.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(r.ID),
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

func (d *dynamoDBPrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).dynamodb.UpdateTable(ctx, &dynamodb.UpdateTableInput{
		TableName:                 aws.String(r.ID),
		DeletionProtectionEnabled: aws.Bool(false),
	})
	return classify(err)
}

func (d *dynamoDBPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).dynamodb.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(r.ID),
	})
	return classify(err)
}

type redshiftPrimitive struct {
	p *Provider
}

func (d *redshiftPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).redshift.DescribeClusters(ctx, &redshift.DescribeClustersInput{
		ClusterIdentifier: aws.String(r.ID),
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(output.Clusters) > 0, nil
}

func (d *redshiftPrimitive) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	return nil
}

func (d *redshiftPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).redshift.DeleteCluster(ctx, &redshift.DeleteClusterInput{
		ClusterIdentifier:        aws.String(r.ID),
		SkipFinalClusterSnapshot: aws.Bool(true),
	})
	return classify(err)
}

type memoryDBPrimitive struct {
	p *Provider
}

func (d *memoryDBPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).memorydb.DescribeClusters(ctx, &memorydb.DescribeClustersInput{
		ClusterName: aws.String(r.ID),
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(output.Clusters) > 0, nil
}

func (d *memoryDBPrimitive) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	return nil
}

func (d *memoryDBPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).memorydb.DeleteCluster(ctx, &memorydb.DeleteClusterInput{
		ClusterName: aws.String(r.ID),
	})
	return classify(err)
}
