package simplepublish

import (
	"context"
	"sync"
)

// noopDirectory is an AssetDirectory that resolves names to root-relative
// paths and remembers what was registered. Suitable for tests and for
// deployments that serve assets off the same origin.
type noopDirectory struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewNoopDirectory creates an asset directory that maps every registered
// name to "/" + name.
func NewNoopDirectory() AssetDirectory {
	return &noopDirectory{names: make(map[string]string)}
}

func (d *noopDirectory) Register(ctx context.Context, fingerprintedName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[fingerprintedName] = "/" + fingerprintedName
	return nil
}

func (d *noopDirectory) ResolveURL(ctx context.Context, fingerprintedName string) (string, error) {
	return "/" + fingerprintedName, nil
}

func (d *noopDirectory) Assets(ctx context.Context) (map[string]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(d.names))
	for k, v := range d.names {
		out[k] = v
	}
	return out, nil
}
