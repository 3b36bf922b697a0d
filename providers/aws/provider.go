// Package aws implements the provider capability surface against the AWS
// SDK: inventory listers per resource type, authoritative tag lookup, and
// delete primitives that clear deletion blockers before destroying.
package aws

import (
	"context"

	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/telemetry"
	"github.com/sundownlabs/teardown/types"
)

func init() {
	providers.Register("aws", func(ctx context.Context, account types.Account, regions []string) (providers.Provider, error) {
		return New(ctx, account, regions)
	})
}

// Provider implements inventory, tag lookup and delete primitives for one
// AWS account across a fixed set of regions.
type Provider struct {
	account   types.Account
	regions   []string
	clients   map[string]*regionClients
	global    *globalClients
	catalogue providers.CatalogueMap
	logger    *telemetry.Logger
}

// New builds a provider with clients for every configured region.
func New(ctx context.Context, account types.Account, regions []string) (*Provider, error) {
	cfg, err := loadConfig(ctx, account.Profile)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		account: account,
		regions: regions,
		clients: make(map[string]*regionClients, len(regions)),
		global:  newGlobalClients(cfg),
		logger:  telemetry.NewLogger("aws"),
	}
	for _, region := range regions {
		p.clients[region] = newRegionClients(cfg, region)
	}
	p.catalogue = p.buildCatalogue()

	return p, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "aws"
}

// Primitive returns the delete primitive for a resource type.
func (p *Provider) Primitive(t types.ResourceType) (providers.DeletePrimitive, bool) {
	prim, ok := p.catalogue[t]
	return prim, ok
}

// clientsFor resolves the client set for a resource's region. Global
// resources use the first configured region's clients.
func (p *Provider) clientsFor(r types.ResourceRecord) *regionClients {
	if r.Region != "" {
		if c, ok := p.clients[r.Region]; ok {
			return c
		}
	}
	return p.clients[p.regions[0]]
}
