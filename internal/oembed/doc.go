// Package oembed models an oEmbed response: one of four content kinds (photo, video, link, rich)
// plus the common metadata fields and whatever extension fields the provider adds.
//
// [Decode] works in two phases. The `type` discriminator is read and removed first and the
// matching [Variant] is decoded from its payload fields. The fixed metadata fields are then
// decoded, and every key left over is kept verbatim in [Response.Extra].
//
// Decode failures wrap [shared.ErrDecode]; [ErrUnknownVariant] and [ErrMalformedVariant]
// narrow the cause.
package oembed
