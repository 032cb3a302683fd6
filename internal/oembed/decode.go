package oembed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/desertthunder/oembed/internal/shared"
)

var (
	ErrUnknownVariant   = fmt.Errorf("%w: unknown or missing type", shared.ErrDecode)
	ErrMalformedVariant = fmt.Errorf("%w: malformed variant payload", shared.ErrDecode)
)

// Decode parses an oEmbed JSON body.
func Decode(data []byte) (*Response, error) {
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDecode, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: body is not a JSON object", shared.ErrDecode)
	}

	variant, err := decodeVariant(obj)
	if err != nil {
		return nil, err
	}

	resp := &Response{Variant: variant}
	if err := decodeFixed(obj, resp); err != nil {
		return nil, err
	}

	resp.Extra = make(map[string]json.RawMessage, len(obj))
	for k, raw := range obj {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", shared.ErrDecode, k, err)
		}
		resp.Extra[k] = buf.Bytes()
	}
	return resp, nil
}

func decodeVariant(obj object) (Variant, error) {
	raw, ok := obj.take("type")
	if !ok {
		return nil, ErrUnknownVariant
	}
	var kind string
	if err := json.Unmarshal(raw, &kind); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, raw)
	}

	switch Kind(kind) {
	case KindPhoto:
		var p Photo
		var err error
		if p.URL, err = obj.requiredString("url"); err != nil {
			return nil, err
		}
		if p.Width, err = obj.requiredInt("width"); err != nil {
			return nil, err
		}
		if p.Height, err = obj.requiredInt("height"); err != nil {
			return nil, err
		}
		return p, nil
	case KindVideo:
		var v Video
		var err error
		if v.HTML, err = obj.requiredString("html"); err != nil {
			return nil, err
		}
		if v.Width, err = obj.requiredInt("width"); err != nil {
			return nil, err
		}
		if v.Height, err = obj.requiredInt("height"); err != nil {
			return nil, err
		}
		return v, nil
	case KindRich:
		var r Rich
		var err error
		if r.HTML, err = obj.requiredString("html"); err != nil {
			return nil, err
		}
		if r.Width, err = obj.requiredInt("width"); err != nil {
			return nil, err
		}
		if raw, ok := obj.take("height"); ok {
			h, err := parseInt(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: height: %v", ErrMalformedVariant, err)
			}
			r.Height = &h
		}
		return r, nil
	case KindLink:
		return Link{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, kind)
	}
}

func decodeFixed(obj object, resp *Response) error {
	version, err := obj.optionalText("version")
	if err != nil {
		return err
	}
	if version != nil {
		resp.Version = *version
	}

	strs := []struct {
		key string
		dst **string
	}{
		{"title", &resp.Title},
		{"author_name", &resp.AuthorName},
		{"author_url", &resp.AuthorURL},
		{"provider_name", &resp.ProviderName},
		{"provider_url", &resp.ProviderURL},
		{"thumbnail_url", &resp.ThumbnailURL},
	}
	for _, s := range strs {
		if *s.dst, err = obj.optionalString(s.key); err != nil {
			return err
		}
	}

	if resp.CacheAge, err = obj.optionalText("cache_age"); err != nil {
		return err
	}
	if resp.ThumbnailWidth, err = obj.optionalInt("thumbnail_width"); err != nil {
		return err
	}
	if resp.ThumbnailHeight, err = obj.optionalInt("thumbnail_height"); err != nil {
		return err
	}
	return nil
}

// object is a JSON object whose keys are removed as they are claimed.
type object map[string]json.RawMessage

// take removes key and returns its value; a null value counts as absent.
func (o object) take(key string) (json.RawMessage, bool) {
	raw, ok := o[key]
	delete(o, key)
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (o object) requiredString(key string) (string, error) {
	raw, ok := o.take(key)
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedVariant, key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s is not a string", ErrMalformedVariant, key)
	}
	return s, nil
}

func (o object) requiredInt(key string) (int, error) {
	raw, ok := o.take(key)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedVariant, key)
	}
	n, err := parseInt(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformedVariant, key, err)
	}
	return n, nil
}

func (o object) optionalString(key string) (*string, error) {
	raw, ok := o.take(key)
	if !ok {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %s is not a string", shared.ErrDecode, key)
	}
	return &s, nil
}

// optionalText accepts a string or a number, keeping a number's literal text.
func (o object) optionalText(key string) (*string, error) {
	raw, ok := o.take(key)
	if !ok {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("%w: %s is neither a string nor a number", shared.ErrDecode, key)
	}
	s = n.String()
	return &s, nil
}

// optionalInt accepts an integer or a string holding one.
func (o object) optionalInt(key string) (*int, error) {
	raw, ok := o.take(key)
	if !ok {
		return nil, nil
	}
	if n, err := parseInt(raw); err == nil {
		return &n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return &n, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is not an integer", shared.ErrDecode, key)
}

// parseInt decodes a JSON number with no fractional part.
func parseInt(raw json.RawMessage) (int, error) {
	// json.Number also accepts quoted numbers
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '"' {
		return 0, fmt.Errorf("not a number")
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if i, err := strconv.Atoi(n.String()); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s is not an integer", n)
	}
	return int(f), nil
}
