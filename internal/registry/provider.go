package registry

import "slices"

// Provider is a third-party service that can describe some URLs as embeddable content.
type Provider struct {
	Name      string     `json:"provider_name"`
	URL       string     `json:"provider_url"`
	Endpoints []Endpoint `json:"endpoints"`
}

// Endpoint is one oEmbed API target of a [Provider], guarded by wildcard schemes.
type Endpoint struct {
	Schemes []string `json:"schemes,omitempty"`
	URL     string   `json:"url"`
	// Discovery endpoints are never selected by scheme matching.
	Discovery bool     `json:"discovery,omitempty"`
	Formats   []string `json:"formats,omitempty"`
}

// Matches reports whether any of the endpoint's schemes matches rawURL.
// Discovery endpoints never match.
func (e Endpoint) Matches(rawURL string) bool {
	if e.Discovery {
		return false
	}
	for _, scheme := range e.Schemes {
		if MatchScheme(scheme, rawURL) {
			return true
		}
	}
	return false
}

// Scheme returns the first scheme that matches rawURL, or "" when none does.
func (e Endpoint) Scheme(rawURL string) string {
	if e.Discovery {
		return ""
	}
	for _, scheme := range e.Schemes {
		if MatchScheme(scheme, rawURL) {
			return scheme
		}
	}
	return ""
}

// Clone returns a copy of p that shares no slices with it.
func (p Provider) Clone() Provider {
	out := p
	out.Endpoints = make([]Endpoint, len(p.Endpoints))
	for i, e := range p.Endpoints {
		e.Schemes = slices.Clone(e.Schemes)
		e.Formats = slices.Clone(e.Formats)
		out.Endpoints[i] = e
	}
	return out
}

// SchemeCount returns the number of schemes across all endpoints.
func (p Provider) SchemeCount() int {
	n := 0
	for _, e := range p.Endpoints {
		n += len(e.Schemes)
	}
	return n
}

// HasDiscovery reports whether any endpoint is discovery-only.
func (p Provider) HasDiscovery() bool {
	for _, e := range p.Endpoints {
		if e.Discovery {
			return true
		}
	}
	return false
}
