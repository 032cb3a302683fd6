package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/oembed/internal/services"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgEmbedFetched MsgKind = iota
)

type embedFetched struct {
	url   string
	embed *services.Embed
	err   error
}

// embedFetchedMsg is the constructor for [MsgEmbedFetched]
func embedFetchedMsg(url string, embed *services.Embed, err error) Msg {
	return Msg{kind: MsgEmbedFetched, data: embedFetched{url: url, embed: embed, err: err}}
}
