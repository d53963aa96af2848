package core

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// ID is a unique identifier for domain entities.
// It is generated from database sequences and is stable for the life of a record.
type ID uint64

// Category labels classify what kind of knowledge a record carries.
// Log-like entries use the descriptive categories; work items use CategoryTask.
const (
	CategoryFeature    = "feature"    // New feature implementation
	CategoryBugfix     = "bugfix"     // Bug fix
	CategoryDeployment = "deployment" // Deployment notes
	CategoryConfig     = "config"     // Configuration changes
	CategoryIncident   = "incident"   // Incident report
	CategoryRefactor   = "refactor"   // Code refactoring
	CategoryResearch   = "research"   // Research findings
	CategoryDecision   = "decision"   // Architectural/design decision
	CategoryMigration  = "migration"  // Data/schema migration
	CategoryNote       = "note"       // General note
	CategoryTask       = "task"       // Work item
)

// Categories lists all valid category labels.
var Categories = []string{
	CategoryFeature,
	CategoryBugfix,
	CategoryDeployment,
	CategoryConfig,
	CategoryIncident,
	CategoryRefactor,
	CategoryResearch,
	CategoryDecision,
	CategoryMigration,
	CategoryNote,
	CategoryTask,
}

// Record is a single searchable entry: a devlog-style note or a work item.
// The CRUD layer owns all fields except Vector and LexicalWeight, which are
// populated by the indexing pipeline after the write.
type Record struct {
	Id            ID
	Category      string
	Title         string
	Body          string
	Tags          []string
	CreatedAt     time.Time // When the record was created
	UpdatedAt     time.Time // When the record was last modified
	DeletedAt     time.Time // Soft-delete marker; zero means live
	Vector        []float32 // Embedding vector; empty until the pipeline computes it
	LexicalWeight float32   // Per-record lexical boost derived from the text
}

// IsDeleted reports whether the record has been soft-deleted.
func (r *Record) IsDeleted() bool {
	return !r.DeletedAt.IsZero()
}

// SearchText returns the text the indexes operate on: title, body, and tags
// joined into one document.
func (r *Record) SearchText() string {
	parts := make([]string, 0, 2+len(r.Tags))
	if r.Title != "" {
		parts = append(parts, r.Title)
	}
	if r.Body != "" {
		parts = append(parts, r.Body)
	}
	parts = append(parts, r.Tags...)
	return strings.Join(parts, "\n")
}

// Profile is a named bundle of fusion weights. Profiles are immutable at query
// time: the fusion engine receives a value copy and never mutates it mid-query.
type Profile struct {
	Name                string
	LexicalWeight       float64            // Weight of the lexical contribution
	VectorWeight        float64            // Weight of the vector contribution
	DampeningK          float64            // Reciprocal-rank dampening constant; must be > 0
	RecencyWeight       float64            // Weight of the recency decay term
	RecencyHalfLife     time.Duration      // Age at which the recency signal halves
	CategoryBoosts      map[string]float64 // Per-category multipliers; absent means 1.0
	CandidatesPerSource int                // Cap on candidates fetched from each index
	UpdatedAt           time.Time
}

// CategoryBoost returns the multiplier for the given category, defaulting to 1.0.
func (p *Profile) CategoryBoost(category string) float64 {
	if boost, ok := p.CategoryBoosts[category]; ok {
		return boost
	}
	return 1.0
}

// LexicalWeightOf derives a record's lexical weight from its text.
// Short, dense entries score slightly above sprawling ones so that a title-only
// match on a terse record is not drowned out by sheer document length.
// Deterministic: identical text always yields the same weight.
func LexicalWeightOf(text string) float32 {
	tokens := 0
	inToken := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if !inToken {
				tokens++
				inToken = true
			}
		} else {
			inToken = false
		}
	}
	if tokens == 0 {
		return 0
	}
	// 1.0 at zero length, decaying gently for very long bodies.
	w := 1.0 / (1.0 + 0.15*math.Log1p(float64(tokens)/20.0))
	return float32(w)
}
