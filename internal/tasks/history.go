package tasks

import (
	"fmt"

	"github.com/desertthunder/oembed/internal/models"
	"github.com/desertthunder/oembed/internal/repositories"
	"github.com/desertthunder/oembed/internal/services"
)

// EmbedArchiver is the optional persistence layer for fetched embeds, implemented by [History].
type EmbedArchiver interface {
	StartBatch(run *models.BatchRun) error
	SaveEmbed(embed *services.Embed, batchID string) (*models.EmbedRecord, error)
	FinishBatch(run *models.BatchRun) error
}

// History archives embeds and batch runs in the database.
type History struct {
	embeds  *repositories.EmbedRepository
	batches *repositories.BatchRepository
}

// NewHistory creates a History over the given repositories.
func NewHistory(embeds *repositories.EmbedRepository, batches *repositories.BatchRepository) *History {
	return &History{embeds: embeds, batches: batches}
}

// StartBatch stores a new run and assigns its ID.
func (h *History) StartBatch(run *models.BatchRun) error {
	return h.batches.Create(run)
}

// SaveEmbed stores a fetched embed. batchID may be empty.
func (h *History) SaveEmbed(embed *services.Embed, batchID string) (*models.EmbedRecord, error) {
	record, err := models.NewEmbedRecord(0, embed.URL, embed.Provider.Name, embed.Endpoint.URL, embed.Response)
	if err != nil {
		return nil, err
	}
	record.SetBatchID(batchID)

	if err := h.embeds.Create(record); err != nil {
		return nil, fmt.Errorf("failed to save embed: %w", err)
	}
	return record, nil
}

// FinishBatch stores the run's final counters.
func (h *History) FinishBatch(run *models.BatchRun) error {
	return h.batches.Update(run)
}
