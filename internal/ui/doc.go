// Package ui implements the interactive provider browser using bubbletea's Elm architecture.
//
// Views:
//  1. [ProviderListView] : filterable list of registry providers (press / to filter)
//  2. [ProviderDetailView] : endpoints, formats and URL schemes of the selected provider
//  3. [FetchView] : type a URL, see which provider matches as you type, press enter to fetch its embed
//
// The [Model] implements the standard Init/Update/View pattern. Fetches run as [tea.Cmd]s and report back
// through the [Msg] union so the UI never blocks on the network.
package ui
