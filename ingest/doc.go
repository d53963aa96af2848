// Package ingest keeps the search indexes consistent with the record store.
//
// The Pipeline applies lexical index updates synchronously, so a record
// is findable by keyword the moment its write returns. Embedding work is
// submitted to a worker pool: vectors are computed, normalized, persisted
// on the record, and added to the vector index in the background.
//
// Embedding failures never fail a write. The record simply participates
// in lexical results only until a later write or a rebuild embeds it.
package ingest
