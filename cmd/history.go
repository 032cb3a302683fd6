package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/oembed/internal/models"
	"github.com/desertthunder/oembed/internal/shared"
	"github.com/urfave/cli/v3"
)

type embedSummary struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	URL       string    `json:"url"`
	Provider  string    `json:"provider_name"`
	Kind      string    `json:"type"`
	Title     string    `json:"title,omitempty"`
	BatchID   string    `json:"batch_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func summarize(e *models.EmbedRecord) embedSummary {
	return embedSummary{
		ID:        e.ID(),
		Sequence:  e.Sequence(),
		URL:       e.URL(),
		Provider:  e.ProviderName(),
		Kind:      string(e.Kind()),
		Title:     e.Title(),
		BatchID:   e.BatchID(),
		CreatedAt: e.CreatedAt(),
	}
}

// HistoryList lists saved embeds, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	_, embeds, _, err := r.history()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if p := cmd.String("provider"); p != "" {
		criteria["provider_name"] = p
	}
	if b := cmd.String("batch"); b != "" {
		criteria["batch_id"] = b
	}

	records, err := embeds.List(criteria)
	if err != nil {
		return err
	}

	summaries := make([]embedSummary, len(records))
	for i, rec := range records {
		summaries[i] = summarize(rec)
	}
	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	if len(summaries) == 0 {
		return r.writePlain("No saved embeds\n")
	}
	for _, s := range summaries {
		r.writePlain("#%d  %s  %-12s %-6s %s\n", s.Sequence, s.CreatedAt.Format(time.DateTime), s.Provider, s.Kind, shared.Truncate(s.Title, 48))
		r.writePlain("     %s\n", s.URL)
	}
	return nil
}

// lookupEmbed finds an embed by ID, or by sequence number when the argument is numeric.
func (r *Runner) lookupEmbed(arg string) (*models.EmbedRecord, error) {
	if arg == "" {
		return nil, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	_, embeds, _, err := r.history()
	if err != nil {
		return nil, err
	}
	if seq, err := strconv.Atoi(arg); err == nil {
		return embeds.GetBySequence(seq)
	}
	return embeds.Get(arg)
}

// HistoryShow prints a saved embed's stored response.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	record, err := r.lookupEmbed(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	resp, err := record.Response()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(resp, cmd.Bool("pretty"))
	}

	s := summarize(record)
	r.writePlainHeader(resp.TitleOr(s.URL))
	r.writePlain("ID:       %s (#%d)\n", s.ID, s.Sequence)
	r.writePlain("URL:      %s\n", s.URL)
	r.writePlain("Provider: %s\n", s.Provider)
	r.writePlain("Endpoint: %s\n", record.EndpointURL())
	r.writePlain("Type:     %s\n", s.Kind)
	if s.BatchID != "" {
		r.writePlain("Batch:    %s\n", s.BatchID)
	}
	r.writePlain("Saved:    %s\n", s.CreatedAt.Format(time.DateTime))
	if html := resp.HTML(); html != "" {
		r.writePlain("\n%s\n", html)
	}
	return nil
}

// HistoryDelete soft-deletes a saved embed.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	record, err := r.lookupEmbed(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	_, embeds, _, err := r.history()
	if err != nil {
		return err
	}
	if err := embeds.Delete(record.ID()); err != nil {
		return err
	}

	r.logger.Info("deleted embed", "id", record.ID())
	return r.writePlain("✓ Deleted #%d %s\n", record.Sequence(), record.URL())
}

// HistoryBatches lists batch runs, newest first.
func (r *Runner) HistoryBatches(ctx context.Context, cmd *cli.Command) error {
	_, _, batches, err := r.history()
	if err != nil {
		return err
	}

	runs, err := batches.List(map[string]any{"limit": int(cmd.Int("limit"))})
	if err != nil {
		return err
	}

	type runSummary struct {
		ID          string     `json:"id"`
		Total       int        `json:"total"`
		Fetched     int        `json:"fetched"`
		Unmatched   int        `json:"unmatched"`
		Failed      int        `json:"failed"`
		StartedAt   time.Time  `json:"started_at"`
		CompletedAt *time.Time `json:"completed_at,omitempty"`
	}
	summaries := make([]runSummary, len(runs))
	for i, run := range runs {
		summaries[i] = runSummary{
			ID:          run.ID(),
			Total:       run.Total(),
			Fetched:     run.Fetched(),
			Unmatched:   run.Unmatched(),
			Failed:      run.Failed(),
			StartedAt:   run.StartedAt(),
			CompletedAt: run.CompletedAt(),
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}
	if len(summaries) == 0 {
		return r.writePlain("No batch runs\n")
	}
	for _, s := range summaries {
		status := "incomplete"
		if s.CompletedAt != nil {
			status = s.CompletedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
		}
		r.writePlain("%s  %s  %d urls: %d fetched, %d unmatched, %d failed (%s)\n",
			s.ID, s.StartedAt.Format(time.DateTime), s.Total, s.Fetched, s.Unmatched, s.Failed, status)
	}
	return nil
}
