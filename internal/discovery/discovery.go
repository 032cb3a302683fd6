// Package discovery finds oEmbed endpoints advertised by a page through
// <link rel="alternate" type="application/json+oembed"> tags.
//
// Providers flagged with discovery in the registry are only reachable this way.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/oembed/internal/shared"
)

const (
	jsonType     = "application/json+oembed"
	xmlType      = "text/xml+oembed"
	altXMLType   = "application/xml+oembed"
	maxPageBytes = 5 << 20
)

// Format is the response format a discovered link advertises.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Link is one oEmbed link found in a page.
type Link struct {
	Href   string `json:"href"`
	Title  string `json:"title,omitempty"`
	Format Format `json:"format"`
}

// ParseLinks extracts oEmbed links from an HTML document, resolving relative hrefs against base.
func ParseLinks(r io.Reader, base *url.URL) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	var links []Link
	seen := make(map[string]bool)
	doc.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		typ, _ := s.Attr("type")

		var format Format
		switch strings.ToLower(strings.TrimSpace(typ)) {
		case jsonType:
			format = FormatJSON
		case xmlType, altXMLType:
			format = FormatXML
		default:
			return
		}

		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		if seen[href] {
			return
		}
		seen[href] = true

		title, _ := s.Attr("title")
		links = append(links, Link{Href: href, Title: strings.TrimSpace(title), Format: format})
	})

	return links, nil
}

// JSONLink returns the first JSON link.
func JSONLink(links []Link) (Link, bool) {
	for _, l := range links {
		if l.Format == FormatJSON {
			return l, true
		}
	}
	return Link{}, false
}

// DiscovererOpts configures a [Discoverer]. Nil fields use defaults.
type DiscovererOpts struct {
	HTTPClient *http.Client
	UserAgent  string
	Logger     *log.Logger
}

// Discoverer downloads pages and extracts their oEmbed links.
type Discoverer struct {
	httpClient *http.Client
	userAgent  string
	logger     *log.Logger
}

// NewDiscoverer creates a [Discoverer].
func NewDiscoverer(opts DiscovererOpts) *Discoverer {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Discoverer{httpClient: opts.HTTPClient, userAgent: opts.UserAgent, logger: opts.Logger}
}

// Discover fetches pageURL and returns its oEmbed links.
// Returns [shared.ErrNoLinks] when the page advertises none.
func (d *Discoverer) Discover(ctx context.Context, pageURL string) ([]Link, error) {
	base, err := url.Parse(pageURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q is not an http(s) URL", shared.ErrInvalidInput, pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", shared.ErrTransport, err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	d.logger.Debug("discovering oembed links", "url", pageURL)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned status %d", shared.ErrTransport, pageURL, resp.StatusCode)
	}

	// resp.Request.URL is the final URL after redirects
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}

	links, err := ParseLinks(io.LimitReader(resp.Body, maxPageBytes), base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDecode, err)
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoLinks, pageURL)
	}
	return links, nil
}
