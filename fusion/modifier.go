package fusion

import (
	"math"
	"time"

	"github.com/worklore/worklore/core"
)

// Modifier is one multiplicative re-ranking signal. It returns the factor
// applied to the fused base score and may record its term on the result
// for score provenance. Modifiers run in order after base fusion and never
// affect candidate retrieval.
type Modifier func(profile *core.Profile, result *Result, now time.Time) float64

// defaultModifiers returns the built-in chain: recency decay, then
// category boost.
func defaultModifiers() []Modifier {
	return []Modifier{recencyModifier, categoryModifier}
}

// recencyModifier computes the exponential-decay recency bonus for a record.
// A record updated just now earns the full recency weight; the bonus halves
// every half-life. The factor is 1 when recency scoring is disabled.
func recencyModifier(profile *core.Profile, result *Result, now time.Time) float64 {
	if profile.RecencyWeight <= 0 || profile.RecencyHalfLife <= 0 {
		return 1
	}

	age := now.Sub(result.Record.UpdatedAt)
	if age < 0 {
		age = 0
	}
	halfLives := float64(age) / float64(profile.RecencyHalfLife)
	term := profile.RecencyWeight * math.Pow(2, -halfLives)
	result.RecencyTerm = term
	return 1 + term
}

// categoryModifier applies the profile's boost for the record's category,
// defaulting to 1.0 for unboosted categories.
func categoryModifier(profile *core.Profile, result *Result, now time.Time) float64 {
	boost := profile.CategoryBoost(result.Record.Category)
	result.CategoryMultiplier = boost
	return boost
}
