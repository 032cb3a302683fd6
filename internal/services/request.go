package services

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/oembed/internal/shared"
)

// ConsumerRequest holds the parameters of a single oEmbed request.
//
// Params are appended after url, maxwidth and maxheight in key order.
// Keys that collide with those three are not deduplicated.
type ConsumerRequest struct {
	URL       string
	MaxWidth  *int
	MaxHeight *int
	Params    map[string]string
}

// WithDefaults fills unset size limits from the client config. Zero config values mean no limit.
func (r ConsumerRequest) WithDefaults(c shared.ClientConfig) ConsumerRequest {
	if r.MaxWidth == nil && c.MaxWidth > 0 {
		w := c.MaxWidth
		r.MaxWidth = &w
	}
	if r.MaxHeight == nil && c.MaxHeight > 0 {
		h := c.MaxHeight
		r.MaxHeight = &h
	}
	return r
}

// BuildURL returns the GET target for req against endpointURL.
//
// A `{format}` placeholder in the endpoint is expanded to json. Query parameters already on the
// endpoint are kept ahead of the request's own.
func BuildURL(endpointURL string, req ConsumerRequest) (string, error) {
	if req.URL == "" {
		return "", fmt.Errorf("%w: url is required", shared.ErrInvalidInput)
	}

	u, err := url.Parse(ExpandFormat(endpointURL))
	if err != nil {
		return "", fmt.Errorf("%w: endpoint %q: %v", shared.ErrInvalidInput, endpointURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: endpoint %q is not an http(s) URL", shared.ErrInvalidInput, endpointURL)
	}

	var query []string
	if u.RawQuery != "" {
		query = append(query, u.RawQuery)
	}
	query = append(query, "url="+url.QueryEscape(req.URL))
	if req.MaxWidth != nil {
		query = append(query, "maxwidth="+strconv.Itoa(*req.MaxWidth))
	}
	if req.MaxHeight != nil {
		query = append(query, "maxheight="+strconv.Itoa(*req.MaxHeight))
	}

	keys := make([]string, 0, len(req.Params))
	for k := range req.Params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		query = append(query, url.QueryEscape(k)+"="+url.QueryEscape(req.Params[k]))
	}

	u.RawQuery = strings.Join(query, "&")
	return u.String(), nil
}

// ExpandFormat replaces the `{format}` placeholder used by some endpoints with json.
func ExpandFormat(endpointURL string) string {
	return strings.ReplaceAll(endpointURL, "{format}", "json")
}

// ParseParams parses key=value pairs into request params. Later keys overwrite earlier ones.
func ParseParams(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: param %q must be key=value", shared.ErrInvalidArgument, pair)
		}
		params[k] = v
	}
	return params, nil
}
