package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/oembed/internal/registry"
	"github.com/desertthunder/oembed/internal/services"
	"github.com/desertthunder/oembed/internal/shared"
)

// reserved query parameters are consumed by the proxy; the rest are forwarded to the provider.
var reserved = map[string]bool{"url": true, "maxwidth": true, "maxheight": true, "format": true}

// OEmbedHandler answers GET /oembed by resolving the url parameter against the registry and
// returning the provider's response.
type OEmbedHandler struct {
	svc      services.Service
	defaults shared.ClientConfig
	logger   *log.Logger
}

// NewOEmbedHandler creates an OEmbedHandler. defaults supplies maxwidth/maxheight when the query omits them.
func NewOEmbedHandler(svc services.Service, defaults shared.ClientConfig, logger *log.Logger) *OEmbedHandler {
	return &OEmbedHandler{svc: svc, defaults: defaults, logger: logger}
}

func (h *OEmbedHandler) Routes() []string {
	return []string{"GET /oembed"}
}

func (h *OEmbedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := parseConsumerRequest(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if format := r.URL.Query().Get("format"); format != "" && format != "json" {
		writeError(w, http.StatusNotImplemented, fmt.Sprintf("format %q is not supported", format))
		return
	}

	embed, err := h.svc.Resolve(r.Context(), req.WithDefaults(h.defaults))
	if err != nil {
		h.logger.Debug("resolve failed", "url", req.URL, "error", err)
		writeServiceError(w, err)
		return
	}

	w.Header().Set("X-OEmbed-Provider", embed.Provider.Name)
	writeJSON(w, http.StatusOK, embed.Response)
}

func parseConsumerRequest(r *http.Request) (services.ConsumerRequest, error) {
	query := r.URL.Query()
	req := services.ConsumerRequest{URL: strings.TrimSpace(query.Get("url"))}
	if req.URL == "" {
		return req, fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	var err error
	if req.MaxWidth, err = parseDimension(query.Get("maxwidth"), "maxwidth"); err != nil {
		return req, err
	}
	if req.MaxHeight, err = parseDimension(query.Get("maxheight"), "maxheight"); err != nil {
		return req, err
	}

	for key, values := range query {
		if reserved[key] || len(values) == 0 {
			continue
		}
		if req.Params == nil {
			req.Params = make(map[string]string)
		}
		req.Params[key] = values[0]
	}
	return req, nil
}

func parseDimension(v, name string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("%w: %s must be a positive integer", shared.ErrInvalidArgument, name)
	}
	return &n, nil
}

// ProvidersHandler answers GET /providers with the registry contents and
// GET /providers/{name} with a single provider.
type ProvidersHandler struct {
	reg *registry.Registry
}

// NewProvidersHandler creates a ProvidersHandler over reg.
func NewProvidersHandler(reg *registry.Registry) *ProvidersHandler {
	return &ProvidersHandler{reg: reg}
}

func (h *ProvidersHandler) Routes() []string {
	return []string{"GET /providers", "GET /providers/{name}"}
}

func (h *ProvidersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeJSON(w, http.StatusOK, h.reg.Providers())
		return
	}

	p, err := h.reg.Provider(name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Health reports liveness and the number of loaded providers.
func Health(reg *registry.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "providers": reg.Len()})
	})
}

// StatusFor maps a service error to the proxy's HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNoMatchingProvider), errors.Is(err, shared.ErrProviderNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, StatusFor(err), err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg, "status": status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := shared.MarshalJSON(v, false)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}
