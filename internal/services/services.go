// package services defines interface Service for fetching oEmbed descriptions
//
// OEmbedService (registry lookup + provider HTTP API)
package services

import (
	"context"

	"github.com/desertthunder/oembed/internal/oembed"
	"github.com/desertthunder/oembed/internal/registry"
)

// Service defines the operations the CLI, batch engine and HTTP proxy need from an oEmbed consumer.
type Service interface {
	// Fetch requests an embed description from a known endpoint.
	Fetch(ctx context.Context, endpointURL string, req ConsumerRequest) (*oembed.Response, error)

	// FetchURL requests a fully built oEmbed URL, e.g. one found by link discovery.
	FetchURL(ctx context.Context, target string) (*oembed.Response, error)

	// Resolve finds the provider for req.URL and fetches its embed description.
	// Returns [shared.ErrNoMatchingProvider] when no provider matches.
	Resolve(ctx context.Context, req ConsumerRequest) (*Embed, error)

	// Registry returns the provider registry used by Resolve.
	Registry() *registry.Registry
}

// Embed is a resolved embed: the source URL, the provider and endpoint that matched, and the response.
type Embed struct {
	URL      string
	Provider registry.Provider
	Endpoint registry.Endpoint
	Response *oembed.Response
}
