package services

import (
	"errors"
	"net/url"
	"testing"

	"github.com/desertthunder/oembed/internal/shared"
)

func intPtr(n int) *int { return &n }

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		req      ConsumerRequest
		want     string
	}{
		{
			name:     "url only",
			endpoint: "https://publish.twitter.com/oembed",
			req:      ConsumerRequest{URL: "https://twitter.com/user/status/1"},
			want:     "https://publish.twitter.com/oembed?url=https%3A%2F%2Ftwitter.com%2Fuser%2Fstatus%2F1",
		},
		{
			name:     "max sizes",
			endpoint: "https://www.youtube.com/oembed",
			req:      ConsumerRequest{URL: "https://youtu.be/x", MaxWidth: intPtr(640), MaxHeight: intPtr(480)},
			want:     "https://www.youtube.com/oembed?url=https%3A%2F%2Fyoutu.be%2Fx&maxwidth=640&maxheight=480",
		},
		{
			name:     "height without width",
			endpoint: "https://www.youtube.com/oembed",
			req:      ConsumerRequest{URL: "u", MaxHeight: intPtr(0)},
			want:     "https://www.youtube.com/oembed?url=u&maxheight=0",
		},
		{
			name:     "params after sizes in key order",
			endpoint: "https://www.youtube.com/oembed",
			req: ConsumerRequest{
				URL:      "u",
				MaxWidth: intPtr(100),
				Params:   map[string]string{"theme": "dark", "format": "json", "maxwidth": "200"},
			},
			want: "https://www.youtube.com/oembed?url=u&maxwidth=100&format=json&maxwidth=200&theme=dark",
		},
		{
			name:     "format placeholder",
			endpoint: "https://vimeo.com/api/oembed.{format}",
			req:      ConsumerRequest{URL: "https://vimeo.com/1"},
			want:     "https://vimeo.com/api/oembed.json?url=https%3A%2F%2Fvimeo.com%2F1",
		},
		{
			name:     "existing query kept first",
			endpoint: "https://example.com/oembed?key=abc",
			req:      ConsumerRequest{URL: "u"},
			want:     "https://example.com/oembed?key=abc&url=u",
		},
		{
			name:     "escapes param values",
			endpoint: "https://example.com/oembed",
			req:      ConsumerRequest{URL: "u", Params: map[string]string{"q": "a b&c"}},
			want:     "https://example.com/oembed?url=u&q=a+b%26c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildURL(tt.endpoint, tt.req)
			if err != nil {
				t.Fatalf("BuildURL failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected\n%s\ngot\n%s", tt.want, got)
			}
		})
	}

	t.Run("url round trips through query", func(t *testing.T) {
		src := "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42"
		got, err := BuildURL("https://www.youtube.com/oembed", ConsumerRequest{URL: src})
		if err != nil {
			t.Fatal(err)
		}
		u, _ := url.Parse(got)
		if u.Query().Get("url") != src {
			t.Errorf("expected url param %q, got %q", src, u.Query().Get("url"))
		}
	})

	errs := []struct {
		name     string
		endpoint string
		req      ConsumerRequest
	}{
		{"missing url", "https://example.com/oembed", ConsumerRequest{}},
		{"bad endpoint", "://nope", ConsumerRequest{URL: "u"}},
		{"non-http endpoint", "ftp://example.com/oembed", ConsumerRequest{URL: "u"}},
	}
	for _, tt := range errs {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildURL(tt.endpoint, tt.req); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := shared.ClientConfig{MaxWidth: 800, MaxHeight: 600}

	req := ConsumerRequest{URL: "u"}.WithDefaults(cfg)
	if req.MaxWidth == nil || *req.MaxWidth != 800 {
		t.Errorf("expected default width 800, got %v", req.MaxWidth)
	}
	if req.MaxHeight == nil || *req.MaxHeight != 600 {
		t.Errorf("expected default height 600, got %v", req.MaxHeight)
	}

	req = ConsumerRequest{URL: "u", MaxWidth: intPtr(100)}.WithDefaults(cfg)
	if *req.MaxWidth != 100 {
		t.Errorf("explicit width overwritten: %d", *req.MaxWidth)
	}

	req = ConsumerRequest{URL: "u"}.WithDefaults(shared.ClientConfig{})
	if req.MaxWidth != nil || req.MaxHeight != nil {
		t.Error("zero config should leave sizes unset")
	}
}

func TestParseParams(t *testing.T) {
	params, err := ParseParams([]string{"theme=dark", "omit_script=1", "theme=light", "empty="})
	if err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	if params["theme"] != "light" {
		t.Errorf("expected last theme to win, got %s", params["theme"])
	}
	if v, ok := params["empty"]; !ok || v != "" {
		t.Errorf("expected empty value, got %q", v)
	}

	if params, err := ParseParams(nil); err != nil || params != nil {
		t.Errorf("expected nil params, got %v %v", params, err)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := ParseParams([]string{bad}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("%q: expected ErrInvalidArgument, got %v", bad, err)
		}
	}
}
