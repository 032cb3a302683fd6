package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/oembed/internal/models"
	"github.com/desertthunder/oembed/internal/shared"
)

var _ models.Repository[*models.BatchRun] = (*BatchRepository)(nil)

// BatchRepository implements models.Repository[*models.BatchRun].
type BatchRepository struct {
	db *sql.DB
}

// NewBatchRepository creates a new BatchRepository with the given database connection
func NewBatchRepository(db *sql.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a new run with a generated ID
func (r *BatchRepository) Create(run *models.BatchRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO batches (id, total, fetched, unmatched, failed, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, id, run.Total(), run.Fetched(), run.Unmatched(), run.Failed(), run.StartedAt(), nullTime(run.CompletedAt()))
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	run.SetID(id)
	return nil
}

// Get retrieves a run by ID
func (r *BatchRepository) Get(id string) (*models.BatchRun, error) {
	query := `SELECT id, total, fetched, unmatched, failed, started_at, completed_at FROM batches WHERE id = ?`

	run, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrBatchNotFound, id)
	}
	return run, err
}

// Update stores the run's counters and completion time
func (r *BatchRepository) Update(run *models.BatchRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE batches
		SET total = ?, fetched = ?, unmatched = ?, failed = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, run.Total(), run.Fetched(), run.Unmatched(), run.Failed(), nullTime(run.CompletedAt()), run.ID())
	if err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}

	return expectRow(result, shared.ErrBatchNotFound, run.ID())
}

// Delete removes a run and detaches its embeds
func (r *BatchRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE embeds SET batch_id = NULL WHERE batch_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach embeds: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM batches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}
	if err := expectRow(result, shared.ErrBatchNotFound, id); err != nil {
		return err
	}

	return tx.Commit()
}

// List retrieves runs newest first. Supported criteria: "completed" (bool), "limit" (int).
func (r *BatchRepository) List(criteria map[string]any) ([]*models.BatchRun, error) {
	query := `SELECT id, total, fetched, unmatched, failed, started_at, completed_at FROM batches WHERE 1 = 1`
	args := []any{}

	if completed, ok := criteria["completed"].(bool); ok {
		if completed {
			query += " AND completed_at IS NOT NULL"
		} else {
			query += " AND completed_at IS NULL"
		}
	}

	query += " ORDER BY started_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var runs []*models.BatchRun
	for rows.Next() {
		run, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

func (r *BatchRepository) scan(row scanner) (*models.BatchRun, error) {
	var (
		id          string
		total       int
		fetched     int
		unmatched   int
		failed      int
		startedAt   time.Time
		completedAt sql.NullTime
	)

	err := row.Scan(&id, &total, &fetched, &unmatched, &failed, &startedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan batch: %w", err)
	}

	var completed *time.Time
	if completedAt.Valid {
		completed = &completedAt.Time
	}

	return models.RestoreBatchRun(id, total, fetched, unmatched, failed, startedAt, completed), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
