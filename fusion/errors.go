package fusion

import "errors"

var (
	// ErrSearchUnavailable is returned when every attempted search source
	// failed and no results could be produced.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrLexicalSourceRequired is returned when a lexical source is not provided.
	ErrLexicalSourceRequired = errors.New("lexical source required")

	// ErrVectorSourceRequired is returned when a vector source is not provided.
	ErrVectorSourceRequired = errors.New("vector source required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRecordRepositoryRequired is returned when a record repository is not provided.
	ErrRecordRepositoryRequired = errors.New("record repository required")

	// ErrProfileStoreRequired is returned when a profile store is not provided.
	ErrProfileStoreRequired = errors.New("profile store required")
)
