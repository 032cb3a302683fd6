package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/oembed/internal/oembed"
	"github.com/desertthunder/oembed/internal/services"
	"github.com/desertthunder/oembed/internal/shared"
	th "github.com/desertthunder/oembed/internal/testing"
)

func newTestRouter(svc services.Service) (*BasicRouter, *strings.Builder) {
	var logs strings.Builder
	logger := log.New(&logs)
	return NewRouter(svc, shared.ClientConfig{MaxWidth: 640}, logger), &logs
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestOEmbedHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := th.NewMockService("A Video")
		router, logs := newTestRouter(svc)

		rec := do(t, router, http.MethodGet, "/oembed?url=https://www.youtube.com/watch?v%3Dabc&maxheight=200&theme=dark")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("X-OEmbed-Provider"); got != "YouTube" {
			t.Errorf("expected provider header YouTube, got %q", got)
		}
		if rec.Header().Get(requestIDHeader) == "" {
			t.Error("expected request id header")
		}

		body := decodeBody(t, rec)
		if body["type"] != "link" || body["title"] != "A Video" {
			t.Errorf("unexpected body %v", body)
		}

		reqs := svc.Requests()
		if len(reqs) != 1 {
			t.Fatalf("expected 1 request, got %d", len(reqs))
		}
		req := reqs[0]
		if req.URL != "https://www.youtube.com/watch?v=abc" {
			t.Errorf("unexpected url %s", req.URL)
		}
		if req.MaxWidth == nil || *req.MaxWidth != 640 {
			t.Errorf("expected default maxwidth 640, got %v", req.MaxWidth)
		}
		if req.MaxHeight == nil || *req.MaxHeight != 200 {
			t.Errorf("expected maxheight 200, got %v", req.MaxHeight)
		}
		if req.Params["theme"] != "dark" || len(req.Params) != 1 {
			t.Errorf("expected only theme forwarded, got %v", req.Params)
		}

		if !strings.Contains(logs.String(), "/oembed") {
			t.Errorf("expected request to be logged, got %s", logs.String())
		}
	})

	tests := []struct {
		name   string
		target string
		err    error
		status int
	}{
		{"MissingURL", "/oembed", nil, http.StatusBadRequest},
		{"BadMaxWidth", "/oembed?url=https://vimeo.com/1&maxwidth=wide", nil, http.StatusBadRequest},
		{"NegativeMaxHeight", "/oembed?url=https://vimeo.com/1&maxheight=-4", nil, http.StatusBadRequest},
		{"XMLFormat", "/oembed?url=https://vimeo.com/1&format=xml", nil, http.StatusNotImplemented},
		{"NoProvider", "/oembed?url=https://unknown.example/x", nil, http.StatusNotFound},
		{"Transport", "/oembed?url=https://vimeo.com/1", fmt.Errorf("%w: status 500", shared.ErrTransport), http.StatusBadGateway},
		{"StatusError", "/oembed?url=https://vimeo.com/1", &services.StatusError{URL: "https://vimeo.com/api/oembed.json", StatusCode: 404}, http.StatusBadGateway},
		{"Decode", "/oembed?url=https://vimeo.com/1", oembed.ErrMalformedVariant, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := th.NewMockService("x")
			svc.Err = tt.err
			router, _ := newTestRouter(svc)

			rec := do(t, router, http.MethodGet, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if body["error"] == "" || body["status"] != float64(tt.status) {
				t.Errorf("unexpected error body %v", body)
			}
		})
	}

	t.Run("MethodNotAllowed", func(t *testing.T) {
		router, _ := newTestRouter(th.NewMockService("x"))
		if rec := do(t, router, http.MethodPost, "/oembed?url=https://vimeo.com/1"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestProvidersHandler(t *testing.T) {
	router, _ := newTestRouter(th.NewMockService("x"))

	t.Run("List", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/providers")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var providers []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &providers); err != nil {
			t.Fatal(err)
		}
		if len(providers) == 0 || providers[0]["provider_name"] == nil {
			t.Errorf("unexpected providers %v", providers)
		}
	})

	t.Run("ByName", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/providers/youtube")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body := decodeBody(t, rec); body["provider_name"] != "YouTube" {
			t.Errorf("unexpected provider %v", body)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		if rec := do(t, router, http.MethodGet, "/providers/nope"); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Health", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/health")
		body := decodeBody(t, rec)
		if body["status"] != "ok" || body["providers"].(float64) <= 0 {
			t.Errorf("unexpected health %v", body)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("OrderAndRequestID", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(RequestID(), mark("first"), mark("second"))
		router.Handle("get", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "pong")
		}))

		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(requestIDHeader, "abc")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Body.String() != "pong" {
			t.Errorf("unexpected body %q", rec.Body.String())
		}
		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("unexpected middleware order %v", order)
		}
		if rec.Header().Get(requestIDHeader) != "abc" {
			t.Errorf("expected inbound request id to be kept")
		}
	})

	t.Run("Recover", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(Recover(log.New(io.Discard)))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		if rec := do(t, router, http.MethodGet, "/boom"); rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{shared.ErrMissingArgument, http.StatusBadRequest},
		{shared.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("%w: x", shared.ErrNoMatchingProvider), http.StatusNotFound},
		{shared.ErrProviderNotFound, http.StatusNotFound},
		{oembed.ErrUnknownVariant, http.StatusUnprocessableEntity},
		{shared.ErrTransport, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
