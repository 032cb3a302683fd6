package oembed

import (
	"encoding/json"
)

// Kind is the value of the `type` discriminator.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
	KindLink  Kind = "link"
	KindRich  Kind = "rich"
)

// Variant is the kind-specific payload of a [Response].
// It is implemented by [Photo], [Video], [Link] and [Rich].
type Variant interface {
	Kind() Kind
	fields() map[string]any
}

// Photo is a static image.
type Photo struct {
	URL    string
	Width  int
	Height int
}

// Video is a playable video embedded with HTML.
type Video struct {
	HTML   string
	Width  int
	Height int
}

// Link carries no payload; consumers render the metadata only.
type Link struct{}

// Rich is arbitrary HTML content. Some providers omit the height.
type Rich struct {
	HTML   string
	Width  int
	Height *int
}

func (Photo) Kind() Kind { return KindPhoto }
func (Video) Kind() Kind { return KindVideo }
func (Link) Kind() Kind  { return KindLink }
func (Rich) Kind() Kind  { return KindRich }

func (p Photo) fields() map[string]any {
	return map[string]any{"url": p.URL, "width": p.Width, "height": p.Height}
}

func (v Video) fields() map[string]any {
	return map[string]any{"html": v.HTML, "width": v.Width, "height": v.Height}
}

func (Link) fields() map[string]any { return nil }

func (r Rich) fields() map[string]any {
	out := map[string]any{"html": r.HTML, "width": r.Width}
	if r.Height != nil {
		out["height"] = *r.Height
	}
	return out
}

// Response is a decoded oEmbed response.
type Response struct {
	Variant Variant

	Version         string
	Title           *string
	AuthorName      *string
	AuthorURL       *string
	ProviderName    *string
	ProviderURL     *string
	CacheAge        *string
	ThumbnailURL    *string
	ThumbnailWidth  *int
	ThumbnailHeight *int

	// Extra holds fields outside the fixed schema, compacted but otherwise verbatim.
	Extra map[string]json.RawMessage
}

// Kind returns the variant's kind, or "" when the response has no variant.
func (r *Response) Kind() Kind {
	if r.Variant == nil {
		return ""
	}
	return r.Variant.Kind()
}

// HTML returns the embed markup of video and rich responses.
func (r *Response) HTML() string {
	switch v := r.Variant.(type) {
	case Video:
		return v.HTML
	case Rich:
		return v.HTML
	}
	return ""
}

// Size returns the variant's width and height; height is 0 when unknown.
func (r *Response) Size() (width, height int) {
	switch v := r.Variant.(type) {
	case Photo:
		return v.Width, v.Height
	case Video:
		return v.Width, v.Height
	case Rich:
		if v.Height != nil {
			return v.Width, *v.Height
		}
		return v.Width, 0
	}
	return 0, 0
}

// TitleOr returns the title, or fallback when the provider sent none.
func (r *Response) TitleOr(fallback string) string {
	if r.Title == nil || *r.Title == "" {
		return fallback
	}
	return *r.Title
}

// MarshalJSON encodes the response back into the flat oEmbed shape.
// Fixed and variant fields take precedence over extra fields with the same key.
func (r Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+12)
	for k, v := range r.Extra {
		out[k] = v
	}

	if r.Version != "" {
		out["version"] = r.Version
	}
	putString(out, "title", r.Title)
	putString(out, "author_name", r.AuthorName)
	putString(out, "author_url", r.AuthorURL)
	putString(out, "provider_name", r.ProviderName)
	putString(out, "provider_url", r.ProviderURL)
	putString(out, "cache_age", r.CacheAge)
	putString(out, "thumbnail_url", r.ThumbnailURL)
	putInt(out, "thumbnail_width", r.ThumbnailWidth)
	putInt(out, "thumbnail_height", r.ThumbnailHeight)

	if r.Variant != nil {
		for k, v := range r.Variant.fields() {
			out[k] = v
		}
		out["type"] = r.Variant.Kind()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes data with [Decode].
func (r *Response) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*r = *decoded
	return nil
}

func putString(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func putInt(m map[string]any, key string, v *int) {
	if v != nil {
		m[key] = *v
	}
}
