package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/storage"
)

func TestProfileRoundTrip(t *testing.T) {
	recordRepo, profileRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { recordRepo.Close(); backend.Close() }()

	ctx := context.Background()

	profile := &core.Profile{
		Name:                "recent-heavy",
		LexicalWeight:       1.0,
		VectorWeight:        0.8,
		DampeningK:          60,
		RecencyWeight:       0.5,
		RecencyHalfLife:     72 * time.Hour,
		CategoryBoosts:      map[string]float64{core.CategoryIncident: 1.5},
		CandidatesPerSource: 50,
	}

	if err := profileRepo.PutProfile(ctx, profile); err != nil {
		t.Fatalf("Failed to put profile: %v", err)
	}

	got, err := profileRepo.GetProfile(ctx, "recent-heavy")
	if err != nil {
		t.Fatalf("Failed to get profile: %v", err)
	}
	if got.VectorWeight != 0.8 {
		t.Fatalf("Expected vector weight 0.8, got %v", got.VectorWeight)
	}
	if got.CategoryBoosts[core.CategoryIncident] != 1.5 {
		t.Fatalf("Expected incident boost 1.5, got %v", got.CategoryBoosts[core.CategoryIncident])
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("Expected UpdatedAt to be set")
	}
}

func TestProfileNotFound(t *testing.T) {
	recordRepo, profileRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { recordRepo.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = profileRepo.GetProfile(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	err = profileRepo.DeleteProfile(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestProfileListOrdered(t *testing.T) {
	recordRepo, profileRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { recordRepo.Close(); backend.Close() }()

	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mid"} {
		profile := &core.Profile{
			Name: name, LexicalWeight: 1, VectorWeight: 1,
			DampeningK: 60, CandidatesPerSource: 50,
		}
		if err := profileRepo.PutProfile(ctx, profile); err != nil {
			t.Fatalf("Failed to put profile %s: %v", name, err)
		}
	}

	profiles, err := profileRepo.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("Failed to list profiles: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("Expected 3 profiles, got %d", len(profiles))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, p := range profiles {
		if p.Name != want[i] {
			t.Fatalf("Expected %s at position %d, got %s", want[i], i, p.Name)
		}
	}
}

func TestVectorCache(t *testing.T) {
	backend, err := OpenBackend("", true)
	if err != nil {
		t.Fatalf("Failed to open backend: %v", err)
	}
	defer backend.Close()

	cache := NewVectorCache(backend)
	ctx := context.Background()

	_, err = cache.GetVector(ctx, "abc123")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on miss, got %v", err)
	}

	if err := cache.PutVector(ctx, "abc123", []float32{1, 2, 3}); err != nil {
		t.Fatalf("Failed to put vector: %v", err)
	}

	got, err := cache.GetVector(ctx, "abc123")
	if err != nil {
		t.Fatalf("Failed to get vector: %v", err)
	}
	if len(got) != 3 || got[0] != 1 {
		t.Fatalf("Unexpected cached vector: %v", got)
	}
}

func TestProfileRepositoryLifecycle(t *testing.T) {
	recordRepo, profileRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { recordRepo.Close(); backend.Close() }()

	ctx := context.Background()

	// storage.ProfileRepository includes the shared repository surface
	var repo storage.ProfileRepository = profileRepo

	err = repo.WithTransaction(ctx, func(ctx context.Context) error {
		return repo.PutProfile(ctx, &core.Profile{
			Name:                "tx-profile",
			LexicalWeight:       1.0,
			VectorWeight:        1.0,
			DampeningK:          60,
			CandidatesPerSource: 50,
		})
	})
	if err != nil {
		t.Fatalf("Failed transactional put: %v", err)
	}

	if _, err := repo.GetProfile(ctx, "tx-profile"); err != nil {
		t.Fatalf("Failed to get profile after transaction: %v", err)
	}

	if err := repo.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
