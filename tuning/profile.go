package tuning

import (
	"fmt"
	"time"

	"github.com/worklore/worklore/core"
)

// DefaultProfileName is the profile used when a search names none.
const DefaultProfileName = "default"

// DefaultProfile returns the built-in profile. It exists even on a fresh
// store and is used as the fallback whenever a requested profile is
// missing.
func DefaultProfile() *core.Profile {
	return &core.Profile{
		Name:                DefaultProfileName,
		LexicalWeight:       1.0,
		VectorWeight:        1.0,
		DampeningK:          60,
		RecencyWeight:       0.25,
		RecencyHalfLife:     14 * 24 * time.Hour,
		CategoryBoosts:      map[string]float64{},
		CandidatesPerSource: 50,
	}
}

// Validate checks a profile for storage. Every violation is reported as
// an error wrapping ErrInvalidProfile.
func Validate(profile *core.Profile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}
	if profile.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if profile.LexicalWeight < 0 {
		return fmt.Errorf("%w: lexical weight must not be negative", ErrInvalidProfile)
	}
	if profile.VectorWeight < 0 {
		return fmt.Errorf("%w: vector weight must not be negative", ErrInvalidProfile)
	}
	if profile.LexicalWeight == 0 && profile.VectorWeight == 0 {
		return fmt.Errorf("%w: at least one source weight must be positive", ErrInvalidProfile)
	}
	if profile.DampeningK <= 0 {
		return fmt.Errorf("%w: dampening constant must be positive", ErrInvalidProfile)
	}
	if profile.RecencyWeight < 0 {
		return fmt.Errorf("%w: recency weight must not be negative", ErrInvalidProfile)
	}
	if profile.RecencyWeight > 0 && profile.RecencyHalfLife <= 0 {
		return fmt.Errorf("%w: recency half-life must be positive when recency weight is set", ErrInvalidProfile)
	}
	for category, boost := range profile.CategoryBoosts {
		if err := core.ValidateCategory(category); err != nil {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidProfile, category)
		}
		if boost <= 0 {
			return fmt.Errorf("%w: boost for category %q must be positive", ErrInvalidProfile, category)
		}
	}
	if profile.CandidatesPerSource <= 0 {
		return fmt.Errorf("%w: candidates per source must be positive", ErrInvalidProfile)
	}
	return nil
}
