package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/oembed/internal/shared"
	th "github.com/desertthunder/oembed/internal/testing"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel() (*Model, *th.MockService) {
	svc := th.NewMockService("A Video")
	m := NewModel(context.Background(), svc)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, svc
}

func TestProviderList(t *testing.T) {
	m, svc := newTestModel()

	if got := len(m.providerList.Items()); got != svc.Registry().Len() {
		t.Fatalf("expected %d providers, got %d", svc.Registry().Len(), got)
	}
	if !strings.Contains(m.View(), "oEmbed Providers") {
		t.Errorf("list view missing title")
	}

	t.Run("EnterShowsDetail", func(t *testing.T) {
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != ProviderDetailView || m.selected == nil {
			t.Fatalf("expected detail view, got %v", m.view)
		}
		view := m.View()
		if !strings.Contains(view, m.selected.Name) || !strings.Contains(view, "Endpoint 1") {
			t.Errorf("detail view missing provider, got: %s", view)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != ProviderListView || m.selected != nil {
			t.Errorf("expected esc to return to list")
		}
	})

	t.Run("Quit", func(t *testing.T) {
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestFetchView(t *testing.T) {
	t.Run("LiveMatch", func(t *testing.T) {
		m, _ := newTestModel()
		m.Update(runes("f"))
		if m.view != FetchView {
			t.Fatalf("expected fetch view, got %v", m.view)
		}
		if !strings.Contains(m.View(), "Type a URL") {
			t.Errorf("expected prompt hint")
		}

		m.input.SetValue("https://vimeo.com/76979871")
		if view := m.View(); !strings.Contains(view, "Vimeo") || !strings.Contains(view, "oembed.json") {
			t.Errorf("expected Vimeo match with expanded endpoint, got: %s", view)
		}

		m.input.SetValue("https://unknown.example/")
		if !strings.Contains(m.View(), "No provider matches") {
			t.Errorf("expected no-match notice")
		}
	})

	t.Run("TypingQDoesNotQuit", func(t *testing.T) {
		m, _ := newTestModel()
		m.Update(runes("f"))
		m.Update(runes("q"))
		if m.view != FetchView {
			t.Fatal("q should be typed into the input")
		}
		if m.input.Value() != "q" {
			t.Errorf("expected input to hold q, got %q", m.input.Value())
		}
	})

	t.Run("Fetch", func(t *testing.T) {
		m, svc := newTestModel()
		m.Update(runes("f"))

		url := "https://www.youtube.com/watch?v=abc"
		m.input.SetValue(url)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if cmd == nil || !m.loading {
			t.Fatal("expected fetch to start")
		}
		if !strings.Contains(m.View(), "Resolving") {
			t.Errorf("expected loading indicator")
		}

		m.Update(m.fetch(url)())
		if m.loading || m.err != nil || m.embed == nil {
			t.Fatalf("expected embed, got err=%v", m.err)
		}
		if view := m.View(); !strings.Contains(view, "✓ A Video") || !strings.Contains(view, "Provider: YouTube") {
			t.Errorf("unexpected result view: %s", view)
		}
		if reqs := svc.Requests(); len(reqs) != 1 || reqs[0].URL != url {
			t.Errorf("unexpected requests %v", reqs)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != ProviderListView {
			t.Errorf("expected esc to return to the list")
		}
	})

	t.Run("FetchError", func(t *testing.T) {
		m, svc := newTestModel()
		svc.Err = fmt.Errorf("%w: status 503", shared.ErrTransport)
		m.Update(runes("f"))

		url := "https://vimeo.com/1"
		m.input.SetValue(url)
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m.Update(m.fetch(url)())

		if !errors.Is(m.err, shared.ErrTransport) {
			t.Fatalf("expected transport error, got %v", m.err)
		}
		if !strings.Contains(m.View(), "status 503") {
			t.Errorf("expected error in view")
		}
	})

	t.Run("StaleResultIgnored", func(t *testing.T) {
		m, _ := newTestModel()
		m.Update(runes("f"))
		m.input.SetValue("https://vimeo.com/2")
		m.loading = true

		m.Update(embedFetchedMsg("https://vimeo.com/1", nil, errors.New("old")))
		if !m.loading || m.err != nil {
			t.Error("result for a previous URL should be ignored")
		}
	})
}
