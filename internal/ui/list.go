package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/oembed/internal/registry"
)

var _ list.Item = providerItem{}

// providerItem wraps [registry.Provider] to implement [list.Item].
type providerItem struct {
	provider registry.Provider
}

func (i providerItem) FilterValue() string { return i.provider.Name + " " + i.provider.URL }
func (i providerItem) Title() string       { return i.provider.Name }
func (i providerItem) Description() string {
	desc := fmt.Sprintf("%d schemes • %s", i.provider.SchemeCount(), i.provider.URL)
	if i.provider.HasDiscovery() {
		desc += " • discovery"
	}
	return desc
}

func providerItems(providers []registry.Provider) []list.Item {
	items := make([]list.Item, len(providers))
	for i, p := range providers {
		items[i] = providerItem{provider: p}
	}
	return items
}
