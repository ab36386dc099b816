package urldir

import (
	"context"
	"sync"
)

// Resolver is satisfied by storage backends that can produce a public URL
// for an object key (e.g. the S3 backend for public-read objects).
type Resolver interface {
	PublicURL(objectKey string) string
}

// Delegated defers URL construction to the storage backend that holds the
// assets, keeping a registry of published names like Static does.
type Delegated struct {
	resolver Resolver

	mu    sync.RWMutex
	names map[string]struct{}
}

// NewDelegated creates a directory backed by the given resolver
func NewDelegated(resolver Resolver) *Delegated {
	return &Delegated{
		resolver: resolver,
		names:    make(map[string]struct{}),
	}
}

// Register records a published fingerprinted name
func (d *Delegated) Register(ctx context.Context, fingerprintedName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[fingerprintedName] = struct{}{}
	return nil
}

// ResolveURL asks the storage backend for the object's public URL
func (d *Delegated) ResolveURL(ctx context.Context, fingerprintedName string) (string, error) {
	return d.resolver.PublicURL(fingerprintedName), nil
}

// Assets returns the name-to-URL mapping for every registered asset
func (d *Delegated) Assets(ctx context.Context) (map[string]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]string, len(d.names))
	for name := range d.names {
		out[name] = d.resolver.PublicURL(name)
	}
	return out, nil
}
