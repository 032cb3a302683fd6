// Package repositories implements SQLite persistence for the embed history.
//
// Each repository handles CRUD operations against the tables created by the embedded migrations.
// Embeds are soft deleted via deleted_at and excluded from queries by default; batch runs are
// removed outright, detaching the embeds they saved.
//
// Key Implementations:
//   - [EmbedRepository] : saved oEmbed responses, looked up by ID, sequence or source URL
//   - [BatchRepository] : batch run counters and completion times
//
// Sequence numbers give embeds a stable, human-readable order (embed #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
