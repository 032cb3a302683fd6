package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/oembed/internal/formatter"
	"github.com/desertthunder/oembed/internal/registry"
	"github.com/desertthunder/oembed/internal/services"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ProviderListView ViewState = iota
	ProviderDetailView
	FetchView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	previous     ViewState
	svc          services.Service
	reg          *registry.Registry
	width        int
	height       int
	providerList list.Model
	selected     *registry.Provider
	input        textinput.Model
	spinner      spinner.Model
	loading      bool
	embed        *services.Embed
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a browser over the service's registry.
func NewModel(ctx context.Context, svc services.Service) *Model {
	reg := svc.Registry()

	providerList := list.New(providerItems(reg.Providers()), list.NewDefaultDelegate(), 0, 0)
	providerList.Title = fmt.Sprintf("oEmbed Providers (%d)", reg.Len())
	providerList.SetShowHelp(false)

	input := textinput.New()
	input.Placeholder = "https://www.youtube.com/watch?v=..."
	input.Prompt = "URL › "
	input.CharLimit = 2048

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.label

	return &Model{
		ctx:          ctx,
		view:         ProviderListView,
		svc:          svc,
		reg:          reg,
		providerList: providerList,
		input:        input,
		spinner:      sp,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init implements [tea.Model]. The registry is already loaded so there is nothing to fetch.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.providerList.SetSize(msg.Width-4, msg.Height-4)
		m.input.Width = max(msg.Width-10, 20)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ProviderListView:
			return m.handleListKeys(msg)
		case ProviderDetailView:
			return m.handleDetailKeys(msg)
		case FetchView:
			return m.handleFetchKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgEmbedFetched:
			data := msg.data.(embedFetched)
			if data.url != strings.TrimSpace(m.input.Value()) {
				return m, nil
			}
			m.loading = false
			m.embed = data.embed
			m.err = data.err
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateComponents(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ProviderListView:
		return m.renderList()
	case ProviderDetailView:
		return m.renderDetail()
	case FetchView:
		return m.renderFetch()
	default:
		return ""
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.providerList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.providerList, cmd = m.providerList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.providerList.SelectedItem().(providerItem); ok {
			p := item.provider
			m.selected = &p
			m.view = ProviderDetailView
		}
		return m, nil
	case key.Matches(msg, m.keys.fetch):
		return m, m.openFetch()
	}

	var cmd tea.Cmd
	m.providerList, cmd = m.providerList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ProviderListView
		m.selected = nil
	case key.Matches(msg, m.keys.fetch):
		return m, m.openFetch()
	}
	return m, nil
}

func (m *Model) handleFetchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.view = m.previous
		return m, nil
	case "enter":
		url := strings.TrimSpace(m.input.Value())
		if url == "" || m.loading {
			return m, nil
		}
		m.loading = true
		m.embed = nil
		m.err = nil
		return m, tea.Batch(m.spinner.Tick, m.fetch(url))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ProviderListView:
		m.providerList, cmd = m.providerList.Update(msg)
	case FetchView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) openFetch() tea.Cmd {
	m.previous = m.view
	m.view = FetchView
	return m.input.Focus()
}

func (m *Model) fetch(url string) tea.Cmd {
	return func() tea.Msg {
		embed, err := m.svc.Resolve(m.ctx, services.ConsumerRequest{URL: url})
		return embedFetchedMsg(url, embed, err)
	}
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.filter, m.keys.fetch, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.providerList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}
	p := m.selected

	var b strings.Builder
	b.WriteString(styles.title.Render(p.Name))
	b.WriteString("\n")
	b.WriteString(styles.help.Render(p.URL))
	b.WriteString("\n")

	for i, ep := range p.Endpoints {
		b.WriteString("\n")
		b.WriteString(styles.label.Render(fmt.Sprintf("Endpoint %d", i+1)))
		b.WriteString("\n")
		b.WriteString(styles.code.Render(ep.URL))
		b.WriteString("\n")
		if ep.Discovery {
			b.WriteString(styles.warn.Render("  discovery only; never selected by URL scheme"))
			b.WriteString("\n")
		}
		if len(ep.Formats) > 0 {
			b.WriteString(fmt.Sprintf("  formats: %s\n", strings.Join(ep.Formats, ", ")))
		}
		for _, scheme := range ep.Schemes {
			b.WriteString(fmt.Sprintf("  • %s\n", scheme))
		}
	}

	helpKeys := []key.Binding{m.keys.fetch, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s", b.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderFetch() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Fetch Embed"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.renderMatch())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(fmt.Sprintf("%s Resolving...\n", m.spinner.View()))
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case m.embed != nil:
		b.WriteString(styles.ok.Render(fmt.Sprintf("✓ %s", m.embed.Response.TitleOr(m.embed.URL))))
		b.WriteString("\n\n")
		b.WriteString(string(formatter.EmbedToText(m.embed)))
	}

	enter := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "fetch"))
	quit := key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit"))
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{enter, m.keys.back, quit}))
	return b.String()
}

// renderMatch reports which provider the typed URL resolves to, without any network access.
func (m *Model) renderMatch() string {
	url := strings.TrimSpace(m.input.Value())
	if url == "" {
		return styles.help.Render("Type a URL to see which provider handles it")
	}

	provider, endpoint, ok := m.reg.FindProvider(url)
	if !ok {
		return styles.warn.Render("No provider matches this URL")
	}
	return styles.ok.Render(fmt.Sprintf("→ %s", provider.Name)) +
		styles.help.Render(fmt.Sprintf("  (%s via %s)", endpoint.Scheme(url), services.ExpandFormat(endpoint.URL)))
}
