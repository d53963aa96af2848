package tuning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/storage"
)

// Store manages tuning profiles on top of a profile repository.
// A missing profile never fails a search: lookups fall back to the
// built-in default.
type Store struct {
	repo   storage.ProfileRepository
	logger *slog.Logger
}

// NewStore creates a profile store.
func NewStore(repo storage.ProfileRepository) *Store {
	return &Store{
		repo:   repo,
		logger: slog.Default().With("component", "tuning-store"),
	}
}

// Get returns the named profile. An empty name or an unknown name
// resolves to the default profile; the default itself may be overridden
// by storing a profile named "default".
func (s *Store) Get(ctx context.Context, name string) (*core.Profile, error) {
	if name == "" {
		name = DefaultProfileName
	}

	profile, err := s.repo.GetProfile(ctx, name)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if name != DefaultProfileName {
		s.logger.Warn("profile not found, using default", "profile", name)
	}
	return DefaultProfile(), nil
}

// Put validates and stores a profile.
func (s *Store) Put(ctx context.Context, profile *core.Profile) error {
	if err := Validate(profile); err != nil {
		return err
	}
	return s.repo.PutProfile(ctx, profile)
}

// Delete removes a stored profile. Deleting the default override is
// allowed; lookups then fall back to the built-in default.
func (s *Store) Delete(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	return s.repo.DeleteProfile(ctx, name)
}

// List returns every available profile ordered by name, including the
// built-in default when no stored profile overrides it.
func (s *Store) List(ctx context.Context) ([]*core.Profile, error) {
	profiles, err := s.repo.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	hasDefault := false
	for _, p := range profiles {
		if p.Name == DefaultProfileName {
			hasDefault = true
			break
		}
	}
	if !hasDefault {
		profiles = append(profiles, DefaultProfile())
		sort.Slice(profiles, func(i, j int) bool {
			return profiles[i].Name < profiles[j].Name
		})
	}
	return profiles, nil
}
