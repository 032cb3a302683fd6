// Package tasks runs batch oEmbed fetches with real-time progress reporting.
//
// # Batch Runs
//
// [BatchEngine.Run] resolves each URL through a [Resolver] (normally [services.OEmbedService]):
//   - URLs are handed to a small worker pool (one worker unless configured)
//   - every request waits on a shared [rate.Limiter]
//   - each URL ends as fetched, unmatched (no provider) or failed
//   - results are returned in input order
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Archiving
//
// The optional [EmbedArchiver] interface persists each fetched embed and the batch counters.
// [History] implements it with the repositories package. Archive failures are logged and do not stop the run.
package tasks
