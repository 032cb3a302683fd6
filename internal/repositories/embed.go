package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/oembed/internal/models"
	"github.com/desertthunder/oembed/internal/shared"
)

var _ models.Repository[*models.EmbedRecord] = (*EmbedRepository)(nil)

const embedColumns = `id, sequence, url, provider_name, endpoint_url, kind, title, body, batch_id, created_at, updated_at, deleted_at`

// EmbedRepository implements models.Repository[*models.EmbedRecord] for the embed history.
//
// Deletes are soft; deleted embeds are hidden from Get and List.
type EmbedRepository struct {
	db *sql.DB
}

// NewEmbedRepository creates a new EmbedRepository with the given database connection
func NewEmbedRepository(db *sql.DB) *EmbedRepository {
	return &EmbedRepository{db: db}
}

// Create inserts a new [models.EmbedRecord] with a generated ID and sequence
func (r *EmbedRepository) Create(embed *models.EmbedRecord) error {
	if err := embed.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "embeds")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO embeds (id, sequence, url, provider_name, endpoint_url, kind, title, body, batch_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		embed.URL(),
		embed.ProviderName(),
		embed.EndpointURL(),
		string(embed.Kind()),
		embed.Title(),
		string(embed.Body()),
		nullString(embed.BatchID()),
		embed.CreatedAt(),
		embed.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert embed: %w", err)
	}

	embed.SetID(id)
	embed.SetSequence(sequence)
	return nil
}

// Get retrieves an embed by ID, excluding soft-deleted embeds
func (r *EmbedRepository) Get(id string) (*models.EmbedRecord, error) {
	query := `SELECT ` + embedColumns + ` FROM embeds WHERE id = ? AND deleted_at IS NULL`

	embed, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmbedNotFound, id)
	}
	return embed, err
}

// GetBySequence retrieves an embed by its sequence number
func (r *EmbedRepository) GetBySequence(sequence int) (*models.EmbedRecord, error) {
	query := `SELECT ` + embedColumns + ` FROM embeds WHERE sequence = ? AND deleted_at IS NULL`

	embed, err := r.scan(r.db.QueryRow(query, sequence))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: #%d", shared.ErrEmbedNotFound, sequence)
	}
	return embed, err
}

// LatestByURL retrieves the most recently saved embed for a source URL
func (r *EmbedRepository) LatestByURL(url string) (*models.EmbedRecord, error) {
	query := `SELECT ` + embedColumns + ` FROM embeds WHERE url = ? AND deleted_at IS NULL ORDER BY sequence DESC LIMIT 1`

	embed, err := r.scan(r.db.QueryRow(query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmbedNotFound, url)
	}
	return embed, err
}

// Update replaces the stored response of an existing embed
func (r *EmbedRepository) Update(embed *models.EmbedRecord) error {
	if err := embed.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()

	query := `
		UPDATE embeds
		SET kind = ?, title = ?, body = ?, batch_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(embed.Kind()),
		embed.Title(),
		string(embed.Body()),
		nullString(embed.BatchID()),
		now,
		embed.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update embed: %w", err)
	}

	if err := expectRow(result, shared.ErrEmbedNotFound, embed.ID()); err != nil {
		return err
	}

	embed.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes an embed by ID
func (r *EmbedRepository) Delete(id string) error {
	query := `UPDATE embeds SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete embed: %w", err)
	}

	return expectRow(result, shared.ErrEmbedNotFound, id)
}

// List retrieves embeds matching the given criteria, newest first, excluding soft-deleted embeds.
//
// Supported criteria: "provider_name" (string), "url" (string), "kind" (string),
// "batch_id" (string), "limit" (int).
func (r *EmbedRepository) List(criteria map[string]any) ([]*models.EmbedRecord, error) {
	query := `SELECT ` + embedColumns + ` FROM embeds WHERE deleted_at IS NULL`

	args := []any{}

	for _, col := range []string{"provider_name", "url", "kind", "batch_id"} {
		if v, ok := criteria[col].(string); ok && v != "" {
			query += " AND " + col + " = ?"
			args = append(args, v)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeds: %w", err)
	}
	defer rows.Close()

	var embeds []*models.EmbedRecord
	for rows.Next() {
		embed, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		embeds = append(embeds, embed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return embeds, nil
}

// Count returns the number of embeds that have not been deleted
func (r *EmbedRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM embeds WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count embeds: %w", err)
	}
	return n, nil
}

// scan reads one row into a [models.EmbedRecord]. [sql.ErrNoRows] is returned unwrapped.
func (r *EmbedRepository) scan(row scanner) (*models.EmbedRecord, error) {
	var (
		id           string
		sequence     int
		url          string
		providerName string
		endpointURL  string
		kind         string
		title        string
		body         string
		batchID      sql.NullString
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := row.Scan(&id, &sequence, &url, &providerName, &endpointURL, &kind, &title, &body, &batchID, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan embed: %w", err)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreEmbedRecord(id, sequence, url, providerName, endpointURL, kind, title, []byte(body), batchID.String, createdAt, updatedAt, deleted), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// expectRow returns notFound when result affected no rows.
func expectRow(result sql.Result, notFound error, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
