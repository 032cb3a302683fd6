// package models defines the persisted data model for the oembed history store
package models

import (
	"time"
)

// Model is a record that can be stored by a [Repository].
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error // checked before every insert and update
}

// Repository is the CRUD contract shared by the history stores.
//
// List criteria keys are store specific; unknown keys are ignored.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}

var (
	_ Model = (*EmbedRecord)(nil)
	_ Model = (*BatchRun)(nil)
)
