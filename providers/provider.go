// Package providers defines the capability boundary between the destruction
// engine and the cloud provider: inventory snapshots, tag lookup, and the
// per-type delete primitives.
package providers

import (
	"context"
	"fmt"

	"github.com/sundownlabs/teardown/types"
)

// InventorySource supplies a complete resource snapshot for one account,
// regional resources grouped under their region and global resources with
// an empty region.
type InventorySource interface {
	Snapshot(ctx context.Context, account types.Account) ([]types.ResourceRecord, error)
}

// TagLookup returns the authoritative tags for a resource. Callers must
// treat an error as a preserve signal, never as permission to delete.
type TagLookup interface {
	Lookup(ctx context.Context, r types.ResourceRecord) (map[string]string, error)
}

// DeletePrimitive is the idempotent destroy surface for one resource type.
// Every method is safe to call more than once.
type DeletePrimitive interface {
	// Exists reports whether the resource is still present remotely.
	Exists(ctx context.Context, r types.ResourceRecord) (bool, error)

	// ClearBlocking removes configuration that blocks deletion: protection
	// flags, attachments, contents. Best-effort; implementations swallow
	// not-found and not-configured conditions.
	ClearBlocking(ctx context.Context, r types.ResourceRecord) error

	// Delete issues the delete call. Errors are classified via the
	// Transient/Terminal taxonomy in this package.
	Delete(ctx context.Context, r types.ResourceRecord) error
}

// Catalogue maps resource types to their delete primitives.
type Catalogue interface {
	Primitive(t types.ResourceType) (DeletePrimitive, bool)
}

// CatalogueMap is a plain map-backed Catalogue.
type CatalogueMap map[types.ResourceType]DeletePrimitive

// Primitive returns the delete primitive for a resource type.
func (m CatalogueMap) Primitive(t types.ResourceType) (DeletePrimitive, bool) {
	p, ok := m[t]
	return p, ok
}

// Registry of available provider factories, keyed by provider name.
type Factory func(ctx context.Context, account types.Account, regions []string) (Provider, error)

// Provider bundles the three capabilities for one cloud.
type Provider interface {
	InventorySource
	TagLookup
	Catalogue
	Name() string
}

var factories = make(map[string]Factory)

// Register registers a provider factory.
func Register(name string, factory Factory) {
	factories[name] = factory
}

// Get builds a provider instance by name.
func Get(ctx context.Context, name string, account types.Account, regions []string) (Provider, error) {
	factory, exists := factories[name]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", name)
	}
	return factory(ctx, account, regions)
}
