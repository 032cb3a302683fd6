// package testing contains shared test doubles and file helpers
package testing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/oembed/internal/oembed"
	"github.com/desertthunder/oembed/internal/registry"
	"github.com/desertthunder/oembed/internal/services"
	"github.com/desertthunder/oembed/internal/shared"
)

// MockService is a test double for [services.Service].
//
// Resolve matches the request URL against Registry (the embedded registry when nil) and returns
// Response for the matched provider. Err, when set, is returned by every fetch.
type MockService struct {
	Reg      *registry.Registry
	Response *oembed.Response
	Err      error

	mu       sync.Mutex
	requests []services.ConsumerRequest
	fetched  []string
}

var _ services.Service = (*MockService)(nil)

// NewMockService returns a MockService that answers every matched URL with a link response titled title.
func NewMockService(title string) *MockService {
	return &MockService{Response: &oembed.Response{Variant: oembed.Link{}, Version: "1.0", Title: &title}}
}

func (m *MockService) Registry() *registry.Registry {
	if m.Reg == nil {
		return registry.MustDefault()
	}
	return m.Reg
}

func (m *MockService) Fetch(ctx context.Context, endpointURL string, req services.ConsumerRequest) (*oembed.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.fetched = append(m.fetched, endpointURL)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockService) FetchURL(ctx context.Context, target string) (*oembed.Response, error) {
	return m.Fetch(ctx, target, services.ConsumerRequest{})
}

func (m *MockService) Resolve(ctx context.Context, req services.ConsumerRequest) (*services.Embed, error) {
	provider, endpoint, ok := m.Registry().FindProvider(req.URL)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrNoMatchingProvider, req.URL)
	}
	resp, err := m.Fetch(ctx, endpoint.URL, req)
	if err != nil {
		return nil, err
	}
	return &services.Embed{URL: req.URL, Provider: *provider, Endpoint: *endpoint, Response: resp}, nil
}

// Requests returns the consumer requests received so far.
func (m *MockService) Requests() []services.ConsumerRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]services.ConsumerRequest(nil), m.requests...)
}

// Fetched returns the endpoint or target URLs fetched so far.
func (m *MockService) Fetched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetched...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper returns a canned response or error and records the requests it sees.
type MockRoundTripper struct {
	response *http.Response
	err      error

	mu   sync.Mutex
	reqs []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
	if m.response != nil && m.response.Request == nil {
		m.response.Request = req
	}
	return m.response, m.err
}

// Requests returns the requests seen so far.
func (m *MockRoundTripper) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.reqs...)
}

// JSONResponse builds a response with a JSON body for use with [NewMockRoundTripper].
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// NewTestDB opens a migrated in-memory database that is closed when the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}
