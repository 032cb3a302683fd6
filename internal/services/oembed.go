// oEmbed consumer implementation of [Service]
//
// Protocol reference: https://oembed.com/#section2
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/oembed/internal/oembed"
	"github.com/desertthunder/oembed/internal/registry"
	"github.com/desertthunder/oembed/internal/shared"
)

const (
	defaultUserAgent = "oembed/0.3 (+https://github.com/desertthunder/oembed)"
	maxBodySize      = 10 << 20
	statusBodyLimit  = 512
)

// StatusError is returned when a provider answers with a non-2xx status.
// It unwraps to [shared.ErrTransport].
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: %s returned status %d", shared.ErrTransport, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%v: %s returned status %d: %s", shared.ErrTransport, e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return shared.ErrTransport
}

// OEmbedOpts configures an [OEmbedService]. Nil fields use defaults.
type OEmbedOpts struct {
	Registry    *registry.Registry
	HTTPClient  *http.Client
	UserAgent   string
	Logger      *log.Logger
	Credentials []shared.ProviderCredentials
	MaxBodySize int64 // response bodies larger than this are rejected; default 10 MiB
}

// OEmbedService resolves URLs against a [registry.Registry] and fetches embed descriptions over HTTP.
//
// A single value is safe for concurrent use.
type OEmbedService struct {
	registry   *registry.Registry
	httpClient *http.Client
	userAgent  string
	logger     *log.Logger
	maxBody    int64
	// endpoint URL ({format} expanded) -> client carrying provider credentials
	authClients map[string]*http.Client
}

// NewOEmbedService creates a service. Credentials for providers missing from the registry are an error.
func NewOEmbedService(ctx context.Context, opts OEmbedOpts) (*OEmbedService, error) {
	if opts.Registry == nil {
		reg, err := registry.Default()
		if err != nil {
			return nil, err
		}
		opts.Registry = reg
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = maxBodySize
	}

	authClients, err := credentialClients(ctx, opts.Registry, opts.HTTPClient, opts.Credentials)
	if err != nil {
		return nil, err
	}

	return &OEmbedService{
		registry:    opts.Registry,
		httpClient:  opts.HTTPClient,
		userAgent:   opts.UserAgent,
		logger:      opts.Logger,
		maxBody:     opts.MaxBodySize,
		authClients: authClients,
	}, nil
}

// Registry returns the provider registry.
func (s *OEmbedService) Registry() *registry.Registry {
	return s.registry
}

// Resolve finds the provider endpoint for req.URL and fetches from it.
func (s *OEmbedService) Resolve(ctx context.Context, req ConsumerRequest) (*Embed, error) {
	provider, endpoint, ok := s.registry.FindProvider(req.URL)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoMatchingProvider, req.URL)
	}

	s.logger.Debug("resolved provider", "url", req.URL, "provider", provider.Name, "endpoint", endpoint.URL)

	resp, err := s.Fetch(ctx, endpoint.URL, req)
	if err != nil {
		return nil, err
	}

	return &Embed{URL: req.URL, Provider: *provider, Endpoint: *endpoint, Response: resp}, nil
}

// Fetch performs one GET against endpointURL and decodes the response. No retries are attempted.
func (s *OEmbedService) Fetch(ctx context.Context, endpointURL string, req ConsumerRequest) (*oembed.Response, error) {
	target, err := BuildURL(endpointURL, req)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, s.clientFor(ExpandFormat(endpointURL)), target)
}

// FetchURL performs one GET against a complete oEmbed URL and decodes the response.
func (s *OEmbedService) FetchURL(ctx context.Context, target string) (*oembed.Response, error) {
	endpoint, _, _ := strings.Cut(target, "?")
	return s.get(ctx, s.clientFor(endpoint), target)
}

func (s *OEmbedService) clientFor(endpointURL string) *http.Client {
	if c, ok := s.authClients[endpointURL]; ok {
		return c
	}
	return s.httpClient
}

func (s *OEmbedService) get(ctx context.Context, client *http.Client, target string) (*oembed.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrTransport, err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	s.logger.Debug("fetching oembed", "url", target)

	resp, err := client.Do(req)
	if err != nil {
		s.logger.Warn("oembed request failed", "url", target, "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrTransport, err)
	}
	tooLarge := int64(len(body)) > s.maxBody

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("oembed provider error", "url", target, "status", resp.StatusCode)
		return nil, &StatusError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       shared.Truncate(strings.TrimSpace(string(body)), statusBodyLimit),
		}
	}

	if tooLarge {
		s.logger.Warn("oembed response too large", "url", target, "limit", s.maxBody)
		return nil, fmt.Errorf("%w: %w: %s exceeds %d bytes", shared.ErrTransport, shared.ErrResponseTooLarge, target, s.maxBody)
	}

	out, err := oembed.Decode(body)
	if err != nil {
		s.logger.Warn("oembed response rejected", "url", target, "error", err)
		return nil, err
	}
	return out, nil
}
