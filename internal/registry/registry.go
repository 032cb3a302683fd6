package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/desertthunder/oembed/internal/shared"
)

//go:embed providers.json
var providersJSON []byte

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Registry is an ordered, read-only list of providers.
type Registry struct {
	providers []Provider
}

// Default returns the registry parsed from the embedded providers.json.
// The data is parsed at most once; concurrent callers wait for the same result.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = Load(providersJSON)
	})
	return defaultRegistry, defaultErr
}

// MustDefault is like [Default] but panics when the embedded data cannot be parsed.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Load parses providers.json formatted data.
func Load(data []byte) (*Registry, error) {
	var providers []Provider
	if err := json.Unmarshal(data, &providers); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRegistryLoad, err)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: no providers", shared.ErrRegistryLoad)
	}

	for i, p := range providers {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: provider %d has no provider_name", shared.ErrRegistryLoad, i)
		}
		for j, e := range p.Endpoints {
			if e.URL == "" {
				return nil, fmt.Errorf("%w: %s endpoint %d has no url", shared.ErrRegistryLoad, p.Name, j)
			}
		}
	}
	return &Registry{providers: providers}, nil
}

// LoadFile reads and parses a providers.json file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRegistryLoad, err)
	}
	return Load(data)
}

// Open returns the registry at path, or the embedded one when path is empty.
func Open(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// FindProvider returns the first provider and non-discovery endpoint with a scheme matching url.
// ok is false when no provider can embed url.
//
// The returned pointers refer to the registry itself and must not be modified;
// use [Provider.Clone] for a private copy.
func (r *Registry) FindProvider(url string) (*Provider, *Endpoint, bool) {
	for i := range r.providers {
		p := &r.providers[i]
		for j := range p.Endpoints {
			if p.Endpoints[j].Matches(url) {
				return p, &p.Endpoints[j], true
			}
		}
	}
	return nil, nil, false
}

// Providers returns a deep copy of the provider list in registry order.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	for i, p := range r.providers {
		out[i] = p.Clone()
	}
	return out
}

// Provider looks up a provider by name, ignoring case. The result is a copy.
func (r *Registry) Provider(name string) (*Provider, error) {
	for i := range r.providers {
		if strings.EqualFold(r.providers[i].Name, name) {
			p := r.providers[i].Clone()
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrProviderNotFound, name)
}

// ProviderForEndpoint returns the provider owning the endpoint URL, used to attach credentials
// to requests built outside of [Registry.FindProvider]. Like FindProvider, the result must not be modified.
func (r *Registry) ProviderForEndpoint(endpointURL string) (*Provider, bool) {
	for i := range r.providers {
		for _, e := range r.providers[i].Endpoints {
			if e.URL == endpointURL {
				return &r.providers[i], true
			}
		}
	}
	return nil, false
}

// Len returns the number of providers.
func (r *Registry) Len() int {
	return len(r.providers)
}
