package registry

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/oembed/internal/shared"
)

const fixture = `[
	{
		"provider_name": "Twitter",
		"provider_url": "https://www.twitter.com/",
		"endpoints": [
			{"schemes": ["https://twitter.com/*/status/*"], "url": "https://publish.twitter.com/oembed"}
		]
	},
	{
		"provider_name": "Example",
		"provider_url": "https://example.com/",
		"endpoints": [
			{"schemes": ["https://example.com/*"], "url": "https://example.com/discover", "discovery": true},
			{"schemes": ["https://example.com/photos/*"], "url": "https://example.com/oembed"}
		]
	},
	{
		"provider_name": "Shadow",
		"provider_url": "https://shadow.example/",
		"endpoints": [
			{"schemes": ["https://twitter.com/*"], "url": "https://shadow.example/oembed"}
		]
	}
]`

func TestLoad(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		r, err := Load([]byte(fixture))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if r.Len() != 3 {
			t.Errorf("expected 3 providers, got %d", r.Len())
		}
	})

	tests := []struct {
		name string
		data string
	}{
		{"malformed", `[{"provider_name": `},
		{"not an array", `{"provider_name": "x"}`},
		{"empty", `[]`},
		{"missing name", `[{"provider_url": "https://x", "endpoints": []}]`},
		{"missing endpoint url", `[{"provider_name": "x", "endpoints": [{"schemes": ["https://x/*"]}]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data))
			if !errors.Is(err, shared.ErrRegistryLoad) {
				t.Errorf("expected ErrRegistryLoad, got %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "providers.json")
		if err := os.WriteFile(path, []byte(fixture), 0644); err != nil {
			t.Fatal(err)
		}
		r, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile failed: %v", err)
		}
		if r.Len() != 3 {
			t.Errorf("expected 3 providers, got %d", r.Len())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
		if !errors.Is(err, shared.ErrRegistryLoad) {
			t.Errorf("expected ErrRegistryLoad, got %v", err)
		}
	})

	t.Run("open empty path uses embedded", func(t *testing.T) {
		r, err := Open("")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		def, _ := Default()
		if r != def {
			t.Error("expected the default registry")
		}
	})
}

func TestFindProvider(t *testing.T) {
	r, err := Load([]byte(fixture))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("twitter status", func(t *testing.T) {
		p, e, ok := r.FindProvider("https://twitter.com/user/status/123")
		if !ok {
			t.Fatal("expected a provider")
		}
		if p.Name != "Twitter" {
			t.Errorf("expected Twitter, got %s", p.Name)
		}
		if e.URL != "https://publish.twitter.com/oembed" {
			t.Errorf("unexpected endpoint %s", e.URL)
		}
	})

	t.Run("first provider wins", func(t *testing.T) {
		p, _, ok := r.FindProvider("https://twitter.com/user")
		if !ok || p.Name != "Shadow" {
			t.Errorf("expected Shadow for non-status URL, got %v", p)
		}

		p, _, _ = r.FindProvider("https://twitter.com/user/status/1")
		if p.Name != "Twitter" {
			t.Errorf("expected Twitter to shadow later providers, got %s", p.Name)
		}
	})

	t.Run("wrong domain", func(t *testing.T) {
		if _, _, ok := r.FindProvider("https://twitter.nl/user/status/123"); ok {
			t.Error("expected no provider")
		}
	})

	t.Run("discovery endpoint skipped", func(t *testing.T) {
		_, e, ok := r.FindProvider("https://example.com/photos/1")
		if !ok {
			t.Fatal("expected a provider")
		}
		if e.Discovery || e.URL != "https://example.com/oembed" {
			t.Errorf("expected the non-discovery endpoint, got %+v", e)
		}

		if _, _, ok := r.FindProvider("https://example.com/about"); ok {
			t.Error("discovery-only match should not resolve")
		}
	})
}

func TestProviderLookup(t *testing.T) {
	r, err := Load([]byte(fixture))
	if err != nil {
		t.Fatal(err)
	}

	p, err := r.Provider("twitter")
	if err != nil {
		t.Fatalf("Provider failed: %v", err)
	}
	if p.URL != "https://www.twitter.com/" {
		t.Errorf("unexpected provider url %s", p.URL)
	}

	if _, err := r.Provider("Myspace"); !errors.Is(err, shared.ErrProviderNotFound) {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}

	if p, ok := r.ProviderForEndpoint("https://example.com/oembed"); !ok || p.Name != "Example" {
		t.Errorf("expected Example, got %v", p)
	}

	list := r.Providers()
	list[0].Name = "changed"
	if again := r.Providers(); again[0].Name != "Twitter" {
		t.Error("Providers should return a copy")
	}

	t.Run("copies do not share endpoints", func(t *testing.T) {
		list := r.Providers()
		list[0].Endpoints[0].URL = "https://evil.example/oembed"
		list[0].Endpoints[0].Schemes[0] = "https://*"

		p, err := r.Provider("Twitter")
		if err != nil {
			t.Fatal(err)
		}
		p.Endpoints[0].Schemes = append(p.Endpoints[0].Schemes[:0], "https://evil.example/*")

		_, e, ok := r.FindProvider("https://twitter.com/jack/status/20")
		if !ok || e.URL != "https://publish.twitter.com/oembed" {
			t.Errorf("registry endpoint was modified through a copy: %+v", e)
		}
		if _, _, ok := r.FindProvider("https://evil.example/x"); ok {
			t.Error("registry schemes were modified through a copy")
		}
	})
}

func TestProviderHelpers(t *testing.T) {
	r, _ := Load([]byte(fixture))
	p, _ := r.Provider("Example")
	if p.SchemeCount() != 2 {
		t.Errorf("expected 2 schemes, got %d", p.SchemeCount())
	}
	if !p.HasDiscovery() {
		t.Error("expected a discovery endpoint")
	}
	if s := p.Endpoints[1].Scheme("https://example.com/photos/9"); s != "https://example.com/photos/*" {
		t.Errorf("unexpected scheme %q", s)
	}
	if s := p.Endpoints[0].Scheme("https://example.com/photos/9"); s != "" {
		t.Errorf("discovery endpoint returned scheme %q", s)
	}
}

func TestDefault(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]*Registry, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := Default()
			if err != nil {
				t.Errorf("Default failed: %v", err)
			}
			results[i] = r
		}()
	}
	wg.Wait()

	for _, r := range results[1:] {
		if r != results[0] {
			t.Fatal("Default returned distinct registries")
		}
	}

	tests := []struct {
		url      string
		provider string
	}{
		{"https://twitter.com/jack/status/20", "Twitter"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "YouTube"},
		{"https://youtu.be/dQw4w9WgXcQ", "YouTube"},
		{"https://vimeo.com/76979871", "Vimeo"},
		{"https://www.flickr.com/photos/bees/2341623661/", "Flickr"},
		{"https://bsky.app/profile/bsky.app/post/3l6oveex3ii2l", "Bluesky Social"},
	}
	r := results[0]
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, _, ok := r.FindProvider(tt.url)
			if !ok {
				t.Fatalf("no provider for %s", tt.url)
			}
			if p.Name != tt.provider {
				t.Errorf("expected %s, got %s", tt.provider, p.Name)
			}
		})
	}

	if _, _, ok := r.FindProvider("https://medium.com/@user/post"); ok {
		t.Error("discovery-only Medium endpoint should not resolve")
	}
}
