package fusion

import "github.com/worklore/worklore/core"

// Result is a single fused search hit with its scoring provenance.
// Rank fields are 1-based within their source; 0 means the record was
// absent from that source's candidates.
type Result struct {
	Record *core.Record
	Score  float64

	LexicalRank         int
	VectorRank          int
	LexicalContribution float64
	VectorContribution  float64
	RecencyTerm         float64
	CategoryMultiplier  float64
}

// Response is the outcome of a fused search.
type Response struct {
	Results []*Result

	// Degraded is true when one source failed or was skipped and the
	// results come from the remaining source alone.
	Degraded bool

	// Profile is the name of the tuning profile that scored the results.
	Profile string
}
