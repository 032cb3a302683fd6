package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/oembed/internal/shared"
)

// Outcome is the result of one URL in a batch.
type Outcome string

const (
	OutcomeFetched   Outcome = "fetched"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeFailed    Outcome = "failed"
)

// BatchRun records the counters of one batch invocation.
type BatchRun struct {
	id          string
	total       int
	fetched     int
	unmatched   int
	failed      int
	startedAt   time.Time
	completedAt *time.Time
}

// NewBatchRun starts a run over total URLs.
func NewBatchRun(total int) *BatchRun {
	return &BatchRun{total: total, startedAt: time.Now()}
}

// RestoreBatchRun rebuilds a run from stored columns.
func RestoreBatchRun(id string, total, fetched, unmatched, failed int, startedAt time.Time, completedAt *time.Time) *BatchRun {
	return &BatchRun{
		id:          id,
		total:       total,
		fetched:     fetched,
		unmatched:   unmatched,
		failed:      failed,
		startedAt:   startedAt,
		completedAt: completedAt,
	}
}

func (b *BatchRun) ID() string              { return b.id }
func (b *BatchRun) SetID(id string)         { b.id = id }
func (b *BatchRun) Total() int              { return b.total }
func (b *BatchRun) Fetched() int            { return b.fetched }
func (b *BatchRun) Unmatched() int          { return b.unmatched }
func (b *BatchRun) Failed() int             { return b.failed }
func (b *BatchRun) StartedAt() time.Time    { return b.startedAt }
func (b *BatchRun) CompletedAt() *time.Time { return b.completedAt }
func (b *BatchRun) CreatedAt() time.Time    { return b.startedAt }

// UpdatedAt is the completion time, or the start time while the run is open.
func (b *BatchRun) UpdatedAt() time.Time {
	if b.completedAt != nil {
		return *b.completedAt
	}
	return b.startedAt
}

// Processed returns how many URLs have an outcome.
func (b *BatchRun) Processed() int {
	return b.fetched + b.unmatched + b.failed
}

// Record counts one outcome.
func (b *BatchRun) Record(o Outcome) {
	switch o {
	case OutcomeFetched:
		b.fetched++
	case OutcomeUnmatched:
		b.unmatched++
	case OutcomeFailed:
		b.failed++
	}
}

// Complete marks the run finished at t.
func (b *BatchRun) Complete(t time.Time) {
	b.completedAt = &t
}

// Validate checks the counters are consistent.
func (b *BatchRun) Validate() error {
	if b.total < 0 {
		return fmt.Errorf("%w: total must not be negative", shared.ErrInvalidInput)
	}
	if b.Processed() > b.total {
		return fmt.Errorf("%w: %d outcomes recorded for %d urls", shared.ErrInvalidInput, b.Processed(), b.total)
	}
	return nil
}
