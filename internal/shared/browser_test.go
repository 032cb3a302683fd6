package shared

import (
	"errors"
	"slices"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	tests := []struct {
		goos string
		want []string
	}{
		{"darwin", []string{"open", "https://vimeo.com/"}},
		{"linux", []string{"xdg-open", "https://vimeo.com/"}},
		{"windows", []string{"rundll32", "url.dll,FileProtocolHandler", "https://vimeo.com/"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, err := browserCommand(tt.goos, "https://vimeo.com/")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !slices.Equal(cmd.Args, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, cmd.Args)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		if _, err := browserCommand("plan9", "https://vimeo.com/"); !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})
}

func TestOpenBrowserRejectsNonHTTP(t *testing.T) {
	for _, target := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "https://"} {
		if err := OpenBrowser(target); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%q: expected ErrInvalidArgument, got %v", target, err)
		}
	}
}
