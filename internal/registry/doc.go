// Package registry holds the oEmbed provider list and resolves a URL to the provider endpoint
// that can embed it.
//
// # Data
//
// The provider list uses the oembed.com providers.json format and is embedded in the binary.
// [Default] parses it once per process; [Load] and [LoadFile] build independent values from other
// data, e.g. an updated copy of providers.json named in config.toml.
//
// # Matching
//
// [Registry.FindProvider] walks providers in file order, then their endpoints, then each
// endpoint's schemes, and returns the first pair whose scheme satisfies [MatchScheme].
// Endpoints flagged with discovery are skipped; they are reachable only through link discovery.
//
// A scheme is literal text with `*` wildcards. See [MatchScheme] for the exact rules.
//
// A [Registry] is never mutated after it is built, so a single value can be shared by any number
// of goroutines.
package registry
