package reindex

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worklore/worklore/ai"
	"github.com/worklore/worklore/ai/mock"
	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/index"
	"github.com/worklore/worklore/storage"
	"github.com/worklore/worklore/storage/badger"
)

func newRepo(t *testing.T) storage.RecordRepository {
	t.Helper()
	recordRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		recordRepo.Close()
		backend.Close()
	})
	return recordRepo
}

func addRecords(t *testing.T, repo storage.RecordRepository, n int) []*core.Record {
	t.Helper()
	records := make([]*core.Record, n)
	for i := range records {
		records[i] = &core.Record{
			Category: core.CategoryNote,
			Title:    "Entry",
			Body:     "Some content worth indexing.",
		}
		records[i].LexicalWeight = core.LexicalWeightOf(records[i].SearchText())
	}
	added, err := repo.AddRecords(context.Background(), records...)
	require.NoError(t, err)
	return added
}

func TestIteratorBatches(t *testing.T) {
	repo := newRepo(t)
	addRecords(t, repo, 7)

	iterator := NewRecordIterator(repo, 3)

	var batches []int
	var seen []core.ID
	err := iterator.ForEach(context.Background(), func(batch []*core.Record) error {
		batches = append(batches, len(batch))
		for _, r := range batch {
			seen = append(seen, r.Id)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, batches)
	for i := 1; i < len(seen); i++ {
		assert.Less(t, seen[i-1], seen[i], "IDs must be ascending across batches")
	}
}

func TestIteratorStopsOnError(t *testing.T) {
	repo := newRepo(t)
	addRecords(t, repo, 5)

	wantErr := errors.New("stop")
	calls := 0
	err := NewRecordIterator(repo, 2).ForEach(context.Background(), func(_ []*core.Record) error {
		calls++
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestRebuildFromScratch(t *testing.T) {
	repo := newRepo(t)
	added := addRecords(t, repo, 5)

	lexical := index.NewLexicalIndex()
	vector, err := index.NewVectorIndex(mock.DefaultDimensions)
	require.NoError(t, err)

	var out bytes.Buffer
	config := DefaultConfig()
	config.BatchSize = 2
	config.RetryDelay = time.Millisecond

	rebuilder := NewRebuilder(repo, lexical, vector, mock.NewMockEmbedder(), config, &out)
	require.NoError(t, rebuilder.Run(context.Background()))

	assert.Equal(t, 5, lexical.Len())
	assert.Equal(t, 5, vector.Len())

	// Vectors were persisted back to storage
	for _, record := range added {
		stored, err := repo.GetRecord(context.Background(), record.Id)
		require.NoError(t, err)
		assert.Len(t, stored.Vector, mock.DefaultDimensions)
	}

	assert.Contains(t, out.String(), "Rebuild complete")
}

func TestRebuildReusesStoredVectors(t *testing.T) {
	repo := newRepo(t)
	added := addRecords(t, repo, 3)
	ctx := context.Background()

	// Give one record a stored embedding
	preset := make([]float32, mock.DefaultDimensions)
	preset[0] = 1
	require.NoError(t, repo.SetVector(ctx, added[0].Id, preset))

	lexical := index.NewLexicalIndex()
	vector, err := index.NewVectorIndex(mock.DefaultDimensions)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	config := DefaultConfig()
	config.RetryDelay = time.Millisecond

	rebuilder := NewRebuilder(repo, lexical, vector, embedder, config, nil)
	require.NoError(t, rebuilder.Run(ctx))

	assert.Equal(t, 3, vector.Len())

	// Only the two records without vectors hit the embedder
	stored, err := repo.GetRecord(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, preset, stored.Vector, "existing embedding must survive the rebuild")
}

func TestRebuildSkipsDeletedRecords(t *testing.T) {
	repo := newRepo(t)
	added := addRecords(t, repo, 3)
	ctx := context.Background()

	require.NoError(t, repo.SoftDeleteRecords(ctx, time.Now().UTC(), added[1].Id))

	lexical := index.NewLexicalIndex()
	vector, err := index.NewVectorIndex(mock.DefaultDimensions)
	require.NoError(t, err)

	config := DefaultConfig()
	config.RetryDelay = time.Millisecond

	rebuilder := NewRebuilder(repo, lexical, vector, mock.NewMockEmbedder(), config, nil)
	require.NoError(t, rebuilder.Run(ctx))

	assert.Equal(t, 2, lexical.Len())
	assert.Equal(t, 2, vector.Len())
	assert.False(t, vector.Has(added[1].Id))
}

func TestRebuildDropsStaleIndexEntries(t *testing.T) {
	repo := newRepo(t)
	added := addRecords(t, repo, 2)
	ctx := context.Background()

	lexical := index.NewLexicalIndex()
	vector, err := index.NewVectorIndex(mock.DefaultDimensions)
	require.NoError(t, err)

	// Seed the lexical index with an entry that no longer exists in storage
	ghost := &core.Record{
		Id:        9999,
		Category:  core.CategoryNote,
		Title:     "Ghost entry",
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, lexical.Index(ghost))

	config := DefaultConfig()
	config.RetryDelay = time.Millisecond

	rebuilder := NewRebuilder(repo, lexical, vector, mock.NewMockEmbedder(), config, nil)
	require.NoError(t, rebuilder.Run(ctx))

	assert.Equal(t, len(added), lexical.Len(), "rebuild must drop entries not present in storage")
	candidates, err := lexical.Search(ctx, "ghost entry", 10)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestRebuildEmptyStore(t *testing.T) {
	repo := newRepo(t)

	lexical := index.NewLexicalIndex()
	vector, err := index.NewVectorIndex(mock.DefaultDimensions)
	require.NoError(t, err)

	var out bytes.Buffer
	rebuilder := NewRebuilder(repo, lexical, vector, mock.NewMockEmbedder(), nil, &out)
	require.NoError(t, rebuilder.Run(context.Background()))

	assert.Equal(t, 0, lexical.Len())
	assert.Contains(t, out.String(), "No records found")
}

func TestRebuildEmbedderFailure(t *testing.T) {
	repo := newRepo(t)
	addRecords(t, repo, 2)

	lexical := index.NewLexicalIndex()
	vector, err := index.NewVectorIndex(mock.DefaultDimensions)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, ai.ErrEmbeddingUnavailable
	}

	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = time.Millisecond

	rebuilder := NewRebuilder(repo, lexical, vector, embedder, config, nil)
	err = rebuilder.Run(context.Background())
	assert.ErrorIs(t, err, ai.ErrEmbeddingUnavailable)
}
