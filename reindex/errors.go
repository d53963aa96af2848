package reindex

import "errors"

// ErrInvalidMaxAttempts rejects a retry budget of zero or less.
var ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
