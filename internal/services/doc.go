// Package services defines the [Service] interface for oEmbed consumers and implements it with [OEmbedService].
//
// # Resolving and fetching
//
// [OEmbedService.Resolve] looks the URL up in a [registry.Registry] and calls
// [OEmbedService.Fetch] with the matched endpoint. Fetch builds the request URL with [BuildURL]:
// `url` first, then `maxwidth`/`maxheight` when set, then caller params sorted by key.
// Exactly one GET is sent per call; there are no retries and no caching.
// Deadlines come from the context and the injected [http.Client].
//
// # Credentials
//
// Some providers (Facebook, Instagram) require an access token. Credentials from config.toml are
// turned into an [oauth2.TokenSource], either static or via the client credentials grant, and
// applied with [oauth2.Transport] to every endpoint of that provider.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNoMatchingProvider] : no registry scheme matches the URL
//   - [shared.ErrTransport] : network failure or non-2xx status ([StatusError])
//   - [shared.ErrDecode] : the body is not a valid oEmbed response
//   - [shared.ErrInvalidInput] : empty URL or unusable endpoint
package services
