package ingest

import "errors"

var (
	// ErrRecordRepositoryRequired is returned when a record repository is not provided.
	ErrRecordRepositoryRequired = errors.New("record repository required")

	// ErrLexicalIndexRequired is returned when a lexical index is not provided.
	ErrLexicalIndexRequired = errors.New("lexical index required")

	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
