// Package urldir provides AssetDirectory implementations that resolve
// fingerprinted asset names to publicly reachable URLs.
//
// The registry of published names is held in process memory only: after a
// restart the directory starts empty even though the published objects
// persist in the blob store, so an envelope retrieved before any asset is
// re-published carries an empty assets map. A directory backed by a blob
// store listing would survive restarts.
package urldir

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Static resolves asset names against a fixed base URL (a CDN or the
// public face of the blob store) and keeps a registry of every name
// published through it.
type Static struct {
	baseURL string

	mu    sync.RWMutex
	names map[string]struct{}
}

// NewStatic creates a directory rooted at baseURL, e.g.
// "https://cdn.example.com/assets".
func NewStatic(baseURL string) (*Static, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	return &Static{
		baseURL: baseURL,
		names:   make(map[string]struct{}),
	}, nil
}

// Register records a published fingerprinted name
func (d *Static) Register(ctx context.Context, fingerprintedName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[fingerprintedName] = struct{}{}
	return nil
}

// ResolveURL joins the base URL with the fingerprinted name
func (d *Static) ResolveURL(ctx context.Context, fingerprintedName string) (string, error) {
	return d.baseURL + "/" + fingerprintedName, nil
}

// Assets returns the name-to-URL mapping for every registered asset
func (d *Static) Assets(ctx context.Context) (map[string]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[string]string, len(d.names))
	for name := range d.names {
		out[name] = d.baseURL + "/" + name
	}
	return out, nil
}
