// Package reindex rebuilds the search indexes from the record store.
//
// A rebuild walks every stored record in ID order, restores live records
// to the lexical index, and reindexes embeddings into a fresh vector
// index. Records without a stored embedding are embedded in batches with
// retry and exponential backoff, so a rebuild also repairs records that
// were written while the embedding service was down.
//
// Progress is reported incrementally, which matters when a store holds
// years of work history.
package reindex
