package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/oembed/internal/oembed"
	"github.com/desertthunder/oembed/internal/shared"
)

// EmbedRecord is a saved oEmbed response.
type EmbedRecord struct {
	id           string
	sequence     int
	url          string
	providerName string
	endpointURL  string
	kind         oembed.Kind
	title        string
	body         []byte
	batchID      string
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewEmbedRecord encodes resp for storage.
func NewEmbedRecord(sequence int, url, providerName, endpointURL string, resp *oembed.Response) (*EmbedRecord, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: response is required", shared.ErrInvalidInput)
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}

	now := time.Now()
	return &EmbedRecord{
		sequence:     sequence,
		url:          url,
		providerName: providerName,
		endpointURL:  endpointURL,
		kind:         resp.Kind(),
		title:        resp.TitleOr(""),
		body:         body,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// RestoreEmbedRecord rebuilds a record from stored columns.
func RestoreEmbedRecord(id string, sequence int, url, providerName, endpointURL, kind, title string, body []byte, batchID string, createdAt, updatedAt time.Time, deletedAt *time.Time) *EmbedRecord {
	return &EmbedRecord{
		id:           id,
		sequence:     sequence,
		url:          url,
		providerName: providerName,
		endpointURL:  endpointURL,
		kind:         oembed.Kind(kind),
		title:        title,
		body:         body,
		batchID:      batchID,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		deletedAt:    deletedAt,
	}
}

func (e *EmbedRecord) ID() string                { return e.id }
func (e *EmbedRecord) SetID(id string)           { e.id = id }
func (e *EmbedRecord) Sequence() int             { return e.sequence }
func (e *EmbedRecord) SetSequence(seq int)       { e.sequence = seq }
func (e *EmbedRecord) URL() string               { return e.url }
func (e *EmbedRecord) ProviderName() string      { return e.providerName }
func (e *EmbedRecord) EndpointURL() string       { return e.endpointURL }
func (e *EmbedRecord) Kind() oembed.Kind         { return e.kind }
func (e *EmbedRecord) Title() string             { return e.title }
func (e *EmbedRecord) Body() []byte              { return e.body }
func (e *EmbedRecord) BatchID() string           { return e.batchID }
func (e *EmbedRecord) SetBatchID(id string)      { e.batchID = id }
func (e *EmbedRecord) CreatedAt() time.Time      { return e.createdAt }
func (e *EmbedRecord) UpdatedAt() time.Time      { return e.updatedAt }
func (e *EmbedRecord) SetUpdatedAt(t time.Time)  { e.updatedAt = t }
func (e *EmbedRecord) DeletedAt() *time.Time     { return e.deletedAt }
func (e *EmbedRecord) SetDeletedAt(t *time.Time) { e.deletedAt = t }
func (e *EmbedRecord) IsDeleted() bool           { return e.deletedAt != nil }

// SetResponse replaces the stored body, kind and title.
func (e *EmbedRecord) SetResponse(resp *oembed.Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	e.body = body
	e.kind = resp.Kind()
	e.title = resp.TitleOr("")
	return nil
}

// Response decodes the stored body.
func (e *EmbedRecord) Response() (*oembed.Response, error) {
	return oembed.Decode(e.body)
}

// Validate checks that the record has everything needed to be stored.
func (e *EmbedRecord) Validate() error {
	switch {
	case e.url == "":
		return fmt.Errorf("%w: url is required", shared.ErrInvalidInput)
	case e.providerName == "":
		return fmt.Errorf("%w: provider name is required", shared.ErrInvalidInput)
	case e.endpointURL == "":
		return fmt.Errorf("%w: endpoint url is required", shared.ErrInvalidInput)
	case len(e.body) == 0:
		return fmt.Errorf("%w: body is required", shared.ErrInvalidInput)
	}

	switch e.kind {
	case oembed.KindPhoto, oembed.KindVideo, oembed.KindLink, oembed.KindRich:
	default:
		return fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidInput, e.kind)
	}
	return nil
}
