package aws

import (
	"context"
	"fmt"

	"github.com/sundownlabs/teardown/types"
)

// lister enumerates one resource type. Critical listers abort the snapshot
// on failure; optional ones log and continue, since a partial snapshot of
// an optional type only delays that type to the next run.
type lister interface {
	name() string
	critical() bool
	list(ctx context.Context, p *Provider) ([]types.ResourceRecord, error)
}

// Core infrastructure must be fully visible before any destruction:
// a blind spot there could orphan dependents or miss preserved resources.
var listers = []lister{
	ec2InstanceLister{},
	vpcLister{},
	securityGroupLister{},
	s3Lister{},
	rdsLister{},
	iamRoleLister{},

	ebsVolumeLister{},
	ebsSnapshotLister{},
	natGatewayLister{},
	internetGatewayLister{},
	autoScalingLister{},
	lambdaLister{},
	ecsLister{},
	eksLister{},
	ecrLister{},
	sqsLister{},
	logGroupLister{},
	cloudTrailLister{},
	kmsLister{},
	loadBalancerLister{},
	dynamoDBLister{},
	redshiftLister{},
	memoryDBLister{},
	stackLister{},
	route53Lister{},
}

// Snapshot enumerates the account across all configured regions.
func (p *Provider) Snapshot(ctx context.Context, account types.Account) ([]types.ResourceRecord, error) {
	var all []types.ResourceRecord

	for _, l := range listers {
		resources, err := l.list(ctx, p)
		if err != nil {
			if l.critical() {
				return nil, fmt.Errorf("failed to list %s: %w", l.name(), err)
			}
			p.logger.WithContext(ctx).Warn().
				Err(err).
				Str("lister", l.name()).
				Msg("optional lister failed, resources deferred to next run")
			continue
		}
		all = append(all, resources...)
	}

	p.logger.WithContext(ctx).Info().
		Str("account_id", account.ID).
		Int("resources", len(all)).
		Msg("account snapshot complete")

	return all, nil
}

// eachRegion runs fn once per configured region, concatenating results.
func (p *Provider) eachRegion(fn func(c *regionClients) ([]types.ResourceRecord, error)) ([]types.ResourceRecord, error) {
	var all []types.ResourceRecord
	for _, region := range p.regions {
		resources, err := fn(p.clients[region])
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", region, err)
		}
		all = append(all, resources...)
	}
	return all, nil
}
