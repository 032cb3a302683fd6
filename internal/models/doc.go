// Package models defines the persistent entities of the embed history store.
//
//   - [EmbedRecord] : one fetched oEmbed response with the provider and endpoint that produced it
//   - [BatchRun] : counters for a single batch invocation; embeds saved by it carry its ID
//
// All entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
//
// History is an archive only; nothing reads it before a fetch.
package models
