package index

import (
	"time"

	"github.com/worklore/worklore/core"
)

// Candidate is a single ranked entry returned by an index search.
// Rank is zero-based within the source that produced it.
type Candidate struct {
	ID        core.ID
	Score     float64
	UpdatedAt time.Time
}
