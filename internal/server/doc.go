// Package server is the HTTP face of the oEmbed consumer: a small proxy that lets browsers and other
// services resolve URLs without knowing the provider registry.
//
// # Routes
//
//	GET /oembed?url=...&maxwidth=...&maxheight=...   resolve and fetch; other query parameters are forwarded
//	GET /providers                                   list the registry
//	GET /providers/{name}                            one provider, case-insensitive
//	GET /health                                      liveness
//
// Errors are JSON objects of the form {"error": "...", "status": N}. [StatusFor] maps service errors:
// bad input is 400, no matching provider is 404, provider transport failures are 502 and undecodable
// provider responses are 422. A format other than json is 501, as oEmbed prescribes.
//
// # Router Infrastructure
//
// [BasicRouter] uses [http.ServeMux] method patterns. [Middleware] added with Use wraps handlers
// registered afterwards, outermost first. Handlers that serve several routes implement [Handler].
package server
