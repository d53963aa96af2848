package fusion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worklore/worklore/ai/mock"
	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/index"
	"github.com/worklore/worklore/storage"
	"github.com/worklore/worklore/storage/badger"
	"github.com/worklore/worklore/tuning"
)

// stubSource returns canned candidates or a canned error.
type stubSource struct {
	candidates []index.Candidate
	err        error
	calls      int
}

func (s *stubSource) Search(ctx context.Context, _ string, _ int) ([]index.Candidate, error) {
	s.calls++
	return s.candidates, s.err
}

type stubVectorSource struct {
	candidates []index.Candidate
	err        error
	calls      int
}

func (s *stubVectorSource) Search(ctx context.Context, _ []float32, _ int) ([]index.Candidate, error) {
	s.calls++
	return s.candidates, s.err
}

type engineFixture struct {
	engine  *Engine
	lexical *stubSource
	vector  *stubVectorSource
	records storage.RecordRepository
	store   *tuning.Store
}

func newEngineFixture(t *testing.T, opts ...Option) *engineFixture {
	t.Helper()

	recordRepo, profileRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		recordRepo.Close()
		backend.Close()
	})

	f := &engineFixture{
		lexical: &stubSource{},
		vector:  &stubVectorSource{},
		records: recordRepo,
		store:   tuning.NewStore(profileRepo),
	}

	engine, err := NewEngine(f.lexical, f.vector, mock.NewMockEmbedder(), recordRepo, f.store, opts...)
	require.NoError(t, err)
	f.engine = engine
	return f
}

// addRecords stores n live records and returns them in insertion order.
func (f *engineFixture) addRecords(t *testing.T, n int) []*core.Record {
	t.Helper()
	records := make([]*core.Record, n)
	for i := range records {
		records[i] = &core.Record{
			Category: core.CategoryNote,
			Title:    "Entry",
			Body:     "Body text.",
		}
	}
	added, err := f.records.AddRecords(context.Background(), records...)
	require.NoError(t, err)
	return added
}

func candidatesFor(records ...*core.Record) []index.Candidate {
	candidates := make([]index.Candidate, len(records))
	for i, r := range records {
		candidates[i] = index.Candidate{ID: r.Id, Score: 1.0 / float64(i+1), UpdatedAt: r.UpdatedAt}
	}
	return candidates
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newEngineFixture(t)

	response, err := f.engine.Search(context.Background(), "   ", "", 10)
	require.NoError(t, err)
	assert.Empty(t, response.Results)
	assert.False(t, response.Degraded)
	assert.Equal(t, 0, f.lexical.calls, "blank query must not hit the indexes")
}

func TestSearchDualSignalOutranksSingle(t *testing.T) {
	f := newEngineFixture(t)
	records := f.addRecords(t, 3)

	// Record 0 appears in both sources; 1 and 2 in one each, at better ranks
	f.lexical.candidates = candidatesFor(records[1], records[0])
	f.vector.candidates = candidatesFor(records[2], records[0])

	response, err := f.engine.Search(context.Background(), "query", "", 10)
	require.NoError(t, err)
	require.Len(t, response.Results, 3)

	assert.Equal(t, records[0].Id, response.Results[0].Record.Id,
		"record found by both sources must outrank single-source records")
	assert.Positive(t, response.Results[0].LexicalRank)
	assert.Positive(t, response.Results[0].VectorRank)
	assert.False(t, response.Degraded)
}

func TestSearchDeterministic(t *testing.T) {
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f := newEngineFixture(t, WithClock(func() time.Time { return fixed }))
	records := f.addRecords(t, 5)

	f.lexical.candidates = candidatesFor(records[0], records[2], records[4])
	f.vector.candidates = candidatesFor(records[1], records[2], records[3])

	first, err := f.engine.Search(context.Background(), "query", "", 10)
	require.NoError(t, err)
	second, err := f.engine.Search(context.Background(), "query", "", 10)
	require.NoError(t, err)

	require.Equal(t, len(first.Results), len(second.Results))
	for i := range first.Results {
		assert.Equal(t, first.Results[i].Record.Id, second.Results[i].Record.Id)
		assert.Equal(t, first.Results[i].Score, second.Results[i].Score)
	}
}

func TestSearchVectorWeightZeroMatchesLexicalOrder(t *testing.T) {
	f := newEngineFixture(t)
	records := f.addRecords(t, 3)

	profile := tuning.DefaultProfile()
	profile.Name = "lexical-only"
	profile.VectorWeight = 0
	require.NoError(t, f.store.Put(context.Background(), profile))

	f.lexical.candidates = candidatesFor(records[2], records[0], records[1])
	f.vector.candidates = candidatesFor(records[1])

	response, err := f.engine.Search(context.Background(), "query", "lexical-only", 10)
	require.NoError(t, err)
	require.Len(t, response.Results, 3)

	assert.Equal(t, 0, f.vector.calls, "zero vector weight must skip the vector source")
	assert.Equal(t, records[2].Id, response.Results[0].Record.Id)
	assert.Equal(t, records[0].Id, response.Results[1].Record.Id)
	assert.Equal(t, records[1].Id, response.Results[2].Record.Id)
	assert.False(t, response.Degraded, "an intentionally skipped source is not a degradation")
}

func TestSearchEmbeddingFailureDegrades(t *testing.T) {
	f := newEngineFixture(t)
	records := f.addRecords(t, 2)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}
	engine, err := NewEngine(f.lexical, f.vector, embedder, f.records, f.store)
	require.NoError(t, err)

	f.lexical.candidates = candidatesFor(records[0], records[1])

	response, err := engine.Search(context.Background(), "query", "", 10)
	require.NoError(t, err)
	require.Len(t, response.Results, 2)
	assert.True(t, response.Degraded)
	assert.Equal(t, 0, f.vector.calls)
}

func TestSearchAllSourcesFailing(t *testing.T) {
	f := newEngineFixture(t)

	f.lexical.err = index.ErrIndexUnavailable
	f.vector.err = index.ErrIndexUnavailable

	_, err := f.engine.Search(context.Background(), "query", "", 10)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

// blockingSource holds until its deadline expires.
type blockingSource struct{}

func (blockingSource) Search(ctx context.Context, _ string, _ int) ([]index.Candidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type blockingVectorSource struct{}

func (blockingVectorSource) Search(ctx context.Context, _ []float32, _ int) ([]index.Candidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSearchBothSourcesTimeOut(t *testing.T) {
	f := newEngineFixture(t)

	engine, err := NewEngine(blockingSource{}, blockingVectorSource{}, mock.NewMockEmbedder(),
		f.records, f.store, WithSourceTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = engine.Search(context.Background(), "query", "", 10)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestSearchOneSourceTimesOut(t *testing.T) {
	f := newEngineFixture(t)
	records := f.addRecords(t, 2)
	f.vector.candidates = candidatesFor(records[0], records[1])

	engine, err := NewEngine(blockingSource{}, f.vector, mock.NewMockEmbedder(),
		f.records, f.store, WithSourceTimeout(20*time.Millisecond))
	require.NoError(t, err)

	response, err := engine.Search(context.Background(), "query", "", 10)
	require.NoError(t, err)
	require.Len(t, response.Results, 2)
	assert.True(t, response.Degraded, "a timed-out source degrades the search")
}

func TestSearchOneSourceFailing(t *testing.T) {
	f := newEngineFixture(t)
	records := f.addRecords(t, 2)

	f.lexical.err = index.ErrIndexUnavailable
	f.vector.candidates = candidatesFor(records[0], records[1])

	response, err := f.engine.Search(context.Background(), "query", "", 10)
	require.NoError(t, err)
	require.Len(t, response.Results, 2)
	assert.True(t, response.Degraded)
}

func TestSearchFiltersDeletedRecords(t *testing.T) {
	f := newEngineFixture(t)
	records := f.addRecords(t, 2)

	require.NoError(t, f.records.SoftDeleteRecords(context.Background(), time.Now().UTC(), records[0].Id))

	// Index still serves the deleted record as a candidate
	f.lexical.candidates = candidatesFor(records[0], records[1])

	response, err := f.engine.Search(context.Background(), "query", "", 10)
	require.NoError(t, err)
	require.Len(t, response.Results, 1)
	assert.Equal(t, records[1].Id, response.Results[0].Record.Id)
}

func TestSearchCategoryBoost(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	added, err := f.records.AddRecords(ctx,
		&core.Record{Category: core.CategoryNote, Title: "Plain note", Body: "Text."},
		&core.Record{Category: core.CategoryIncident, Title: "Outage report", Body: "Text."},
	)
	require.NoError(t, err)

	profile := tuning.DefaultProfile()
	profile.Name = "incidents-first"
	profile.RecencyWeight = 0
	profile.CategoryBoosts = map[string]float64{core.CategoryIncident: 3.0}
	require.NoError(t, f.store.Put(ctx, profile))

	// Note ranks first in the only source
	f.lexical.candidates = candidatesFor(added[0], added[1])
	f.vector.candidates = nil

	response, err := f.engine.Search(ctx, "query", "incidents-first", 10)
	require.NoError(t, err)
	require.Len(t, response.Results, 2)

	assert.Equal(t, added[1].Id, response.Results[0].Record.Id,
		"boosted category must overcome a one-rank deficit")
	assert.Equal(t, 3.0, response.Results[0].CategoryMultiplier)
}

func TestSearchCategoryFilter(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	added, err := f.records.AddRecords(ctx,
		&core.Record{Category: core.CategoryNote, Title: "A note", Body: "Text."},
		&core.Record{Category: core.CategoryDeployment, Title: "A deploy", Body: "Text."},
		&core.Record{Category: core.CategoryIncident, Title: "An outage", Body: "Text."},
	)
	require.NoError(t, err)

	f.lexical.candidates = candidatesFor(added...)

	response, err := f.engine.SearchWithOptions(ctx, "query", &SearchOptions{
		Categories: []string{core.CategoryDeployment, core.CategoryIncident},
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, response.Results, 2)
	for _, result := range response.Results {
		assert.NotEqual(t, core.CategoryNote, result.Record.Category)
	}
}

func TestSearchLimitTruncates(t *testing.T) {
	f := newEngineFixture(t)
	records := f.addRecords(t, 5)

	f.lexical.candidates = candidatesFor(records...)

	response, err := f.engine.Search(context.Background(), "query", "", 2)
	require.NoError(t, err)
	assert.Len(t, response.Results, 2)
}

func TestRecencyModifier(t *testing.T) {
	profile := tuning.DefaultProfile()
	profile.RecencyWeight = 0.5
	profile.RecencyHalfLife = 24 * time.Hour

	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	factorAt := func(updatedAt time.Time) float64 {
		result := &Result{Record: &core.Record{UpdatedAt: updatedAt}}
		return recencyModifier(profile, result, now)
	}

	assert.InDelta(t, 1.5, factorAt(now), 1e-9, "fresh record earns full weight")
	assert.InDelta(t, 1.25, factorAt(now.Add(-24*time.Hour)), 1e-9, "one half-life halves the bonus")
	assert.InDelta(t, 1.125, factorAt(now.Add(-48*time.Hour)), 1e-9)
	assert.InDelta(t, 1.5, factorAt(now.Add(time.Hour)), 1e-9, "future timestamps clamp to zero age")

	result := &Result{Record: &core.Record{UpdatedAt: now}}
	recencyModifier(profile, result, now)
	assert.InDelta(t, 0.5, result.RecencyTerm, 1e-9, "term recorded for provenance")

	profile.RecencyWeight = 0
	assert.Equal(t, 1.0, recencyModifier(profile, result, now))
}

func TestSearchCustomModifierChain(t *testing.T) {
	doubler := func(profile *core.Profile, result *Result, now time.Time) float64 { return 2 }
	f := newEngineFixture(t, WithModifiers(doubler))
	records := f.addRecords(t, 1)

	f.lexical.candidates = candidatesFor(records[0])

	response, err := f.engine.Search(context.Background(), "query", "", 10)
	require.NoError(t, err)
	require.Len(t, response.Results, 1)

	top := response.Results[0]
	base := tuning.DefaultProfile().LexicalWeight * top.LexicalContribution
	assert.InDelta(t, 2*base, top.Score, 1e-12, "replacement chain supplants the built-in modifiers")
	assert.Zero(t, top.RecencyTerm)
	assert.Zero(t, top.CategoryMultiplier)
}

func TestSearchTieBreakOrdering(t *testing.T) {
	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f := newEngineFixture(t, WithClock(func() time.Time { return fixed }))
	records := f.addRecords(t, 2)

	profile := tuning.DefaultProfile()
	profile.Name = "no-recency"
	profile.RecencyWeight = 0
	require.NoError(t, f.store.Put(context.Background(), profile))

	// Identical ranks in separate sources produce identical scores
	f.lexical.candidates = candidatesFor(records[0])
	f.vector.candidates = candidatesFor(records[1])

	response, err := f.engine.Search(context.Background(), "query", "no-recency", 10)
	require.NoError(t, err)
	require.Len(t, response.Results, 2)

	a, b := response.Results[0], response.Results[1]
	require.Equal(t, a.Score, b.Score)
	if a.Record.UpdatedAt.Equal(b.Record.UpdatedAt) {
		assert.Less(t, a.Record.Id, b.Record.Id)
	} else {
		assert.True(t, a.Record.UpdatedAt.After(b.Record.UpdatedAt))
	}
}
