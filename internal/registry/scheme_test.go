package registry

import "testing"

func TestMatchScheme(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		url     string
		want    bool
	}{
		{"no wildcard never matches", "https://example.com/", "https://example.com/", false},
		{"no wildcard never matches empty", "", "", false},
		{"trailing wildcard", "https://example.com/*", "https://example.com/anything", true},
		{"trailing wildcard other host", "https://example.com/*", "https://other.com/x", false},
		{"trailing wildcard empty suffix", "https://example.com/*", "https://example.com/", true},
		{"trailing wildcard crosses segments", "https://example.com/*", "https://example.com/a/b?c=d#e", true},
		{"interior wildcard one segment", "https://a.com/*/watch", "https://a.com/x/watch", true},
		{"interior wildcard two segments", "https://a.com/*/watch", "https://a.com/x/y/watch", false},
		{"interior wildcard zero length", "https://a.com/*/watch", "https://a.com//watch", true},
		{"final fragment must end url", "https://a.com/*/watch", "https://a.com/x/watchlater", false},
		{"subdomain wildcard", "https://*.twitter.com/*/status/*", "https://mobile.twitter.com/user/status/123", true},
		{"subdomain wildcard cannot swallow host", "https://*.twitter.com/*/status/*", "https://evil.com/x.twitter.com/u/status/1", false},
		{"twitter status", "https://twitter.com/*/status/*", "https://twitter.com/user/status/123", true},
		{"twitter wrong tld", "https://twitter.com/*/status/*", "https://twitter.nl/user/status/123", false},
		{"query after wildcard", "https://*.youtube.com/watch*", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", true},
		{"partial segment suffix", "https://*.youtube.com/watch*", "https://www.youtube.com/watching", true},
		{"leading wildcard", "*.example.com/x", "cdn.example.com/x", true},
		{"leading wildcard stops at slash", "*.example.com/x", "a/cdn.example.com/x", false},
		{"only wildcard", "*", "anything/at/all", true},
		{"only wildcard empty url", "*", "", true},
		{"adjacent wildcards collapse", "https://a.com/**/watch", "https://a.com/x/watch", true},
		{"adjacent wildcards still one segment", "https://a.com/**/watch", "https://a.com/x/y/watch", false},
		{"adjacent trailing wildcards", "https://a.com/**", "https://a.com/x/y", true},
		{"backtracks to later occurrence", "https://a.com/*b/c", "https://a.com/abab/c", true},
		{"multiple interior wildcards", "https://reddit.com/r/*/comments/*/*", "https://reddit.com/r/golang/comments/abc/title", true},
		{"multiple interior wildcards missing segment", "https://reddit.com/r/*/comments/*/*", "https://reddit.com/r/golang/comments/abc", false},
		{"case sensitive", "https://Example.com/*", "https://example.com/x", false},
		{"prefix longer than url", "https://example.com/*", "https://ex", false},
		{"wildcard inside segment", "https://a.com/v*x", "https://a.com/v123x", true},
		{"wildcard inside segment no slash", "https://a.com/v*x", "https://a.com/v1/2x", false},
		{"scheme only pattern", "mailto:*", "mailto:someone@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchScheme(tt.pattern, tt.url); got != tt.want {
				t.Errorf("MatchScheme(%q, %q) = %v, want %v", tt.pattern, tt.url, got, tt.want)
			}
		})
	}
}

func TestMatchSchemeNoWildcard(t *testing.T) {
	urls := []string{"", "https://example.com", "https://example.com/", "x"}
	for _, u := range urls {
		if MatchScheme(u, u) {
			t.Errorf("literal pattern %q matched itself", u)
		}
	}
}

func TestMatchSchemeLongInput(t *testing.T) {
	pattern := "https://a.com/*a*a*a*a*a*a*a*a*b"
	url := "https://a.com/"
	for range 500 {
		url += "a"
	}
	if MatchScheme(pattern, url) {
		t.Error("expected no match")
	}
}
