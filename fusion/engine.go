package fusion

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/worklore/worklore/ai"
	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/index"
	"github.com/worklore/worklore/storage"
	"github.com/worklore/worklore/tuning"
)

const (
	defaultLimit         = 10
	defaultSourceTimeout = 2 * time.Second
)

// LexicalSource serves ranked candidates for a text query.
type LexicalSource interface {
	Search(ctx context.Context, query string, limit int) ([]index.Candidate, error)
}

// VectorSource serves ranked candidates for an embedding.
type VectorSource interface {
	Search(ctx context.Context, vector []float32, limit int) ([]index.Candidate, error)
}

// Engine fuses lexical and vector search into one ranked result list.
type Engine struct {
	lexical  LexicalSource
	vector   VectorSource
	embedder ai.Embedder
	records  storage.RecordRepository
	profiles *tuning.Store

	modifiers     []Modifier
	logger        *slog.Logger
	clock         func() time.Time
	sourceTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithClock sets the time source used for recency scoring.
// Default is time.Now. Tests inject a fixed clock for stable scores.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) error {
		if clock != nil {
			e.clock = clock
		}
		return nil
	}
}

// WithSourceTimeout bounds each sub-query, embedding included.
// A source that misses its deadline is treated as failed and the search
// degrades to the remaining source.
func WithSourceTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout > 0 {
			e.sourceTimeout = timeout
		}
		return nil
	}
}

// WithModifiers replaces the re-ranking chain. The default chain applies
// recency decay then category boost.
func WithModifiers(modifiers ...Modifier) Option {
	return func(e *Engine) error {
		e.modifiers = modifiers
		return nil
	}
}

// NewEngine creates a fusion engine.
func NewEngine(
	lexical LexicalSource,
	vector VectorSource,
	embedder ai.Embedder,
	records storage.RecordRepository,
	profiles *tuning.Store,
	opts ...Option,
) (*Engine, error) {
	if lexical == nil {
		return nil, ErrLexicalSourceRequired
	}
	if vector == nil {
		return nil, ErrVectorSourceRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if records == nil {
		return nil, ErrRecordRepositoryRequired
	}
	if profiles == nil {
		return nil, ErrProfileStoreRequired
	}

	e := &Engine{
		lexical:       lexical,
		vector:        vector,
		embedder:      embedder,
		records:       records,
		profiles:      profiles,
		modifiers:     defaultModifiers(),
		logger:        slog.Default(),
		clock:         time.Now,
		sourceTimeout: defaultSourceTimeout,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// SearchOptions holds optional parameters for a search.
type SearchOptions struct {
	// Profile names the tuning profile; empty selects the default.
	Profile string

	// Limit caps the result count. Zero or negative uses the default.
	Limit int

	// Categories restricts results to the given categories when non-empty.
	Categories []string

	// Monitor receives observation hooks during the search.
	Monitor SearchMonitor
}

// Search runs a fused search using the named tuning profile.
// An empty profile name selects the default profile.
func (e *Engine) Search(ctx context.Context, query string, profileName string, limit int) (*Response, error) {
	return e.SearchWithOptions(ctx, query, &SearchOptions{Profile: profileName, Limit: limit})
}

// SearchWithMonitor runs a fused search with observation hooks.
func (e *Engine) SearchWithMonitor(ctx context.Context, query string, profileName string, limit int, monitor SearchMonitor) (*Response, error) {
	return e.SearchWithOptions(ctx, query, &SearchOptions{Profile: profileName, Limit: limit, Monitor: monitor})
}

// SearchWithOptions runs a fused search.
// A blank query returns an empty response, not an error.
func (e *Engine) SearchWithOptions(ctx context.Context, query string, opts *SearchOptions) (*Response, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	profileName := opts.Profile
	limit := opts.Limit

	query = strings.TrimSpace(query)
	if query == "" {
		return &Response{Profile: profileName}, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	profile, err := e.profiles.Get(ctx, profileName)
	if err != nil {
		return nil, err
	}
	monitor.Start(query, profile.Name)

	candidateLimit := profile.CandidatesPerSource
	if candidateLimit < limit {
		candidateLimit = limit
	}

	lexicalCandidates, vectorCandidates, degraded, err := e.gatherCandidates(ctx, query, profile, candidateLimit, monitor)
	if err != nil {
		return nil, err
	}

	results, err := e.fuse(ctx, lexicalCandidates, vectorCandidates, profile, opts.Categories, monitor)
	if err != nil {
		return nil, err
	}

	if len(results) > limit {
		results = results[:limit]
	}

	monitor.Finish(results, degraded)
	return &Response{
		Results:  results,
		Degraded: degraded,
		Profile:  profile.Name,
	}, nil
}

// gatherCandidates runs both sub-queries in parallel, each under its own
// deadline. One failing source degrades the search; both failing kills it.
func (e *Engine) gatherCandidates(
	ctx context.Context,
	query string,
	profile *core.Profile,
	candidateLimit int,
	monitor SearchMonitor,
) (lexical []index.Candidate, vector []index.Candidate, degraded bool, err error) {
	var lexicalErr, vectorErr error
	vectorSkipped := profile.VectorWeight == 0
	lexicalSkipped := profile.LexicalWeight == 0

	g, gctx := errgroup.WithContext(ctx)

	if !lexicalSkipped {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, e.sourceTimeout)
			defer cancel()

			lexical, lexicalErr = e.lexical.Search(sctx, query, candidateLimit)
			monitor.AfterLexicalSearch(lexical, lexicalErr)
			if lexicalErr != nil {
				e.logger.Warn("lexical search failed", "err", lexicalErr)
			}
			return nil
		})
	}

	if !vectorSkipped {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, e.sourceTimeout)
			defer cancel()

			embedding, embedErr := e.embedder.EmbedText(sctx, query)
			if embedErr != nil {
				vectorErr = embedErr
				monitor.EmbeddingFailed(embedErr)
				e.logger.Warn("query embedding failed, degrading to lexical-only", "err", embedErr)
				return nil
			}

			vector, vectorErr = e.vector.Search(sctx, embedding, candidateLimit)
			monitor.AfterVectorSearch(vector, vectorErr)
			if vectorErr != nil {
				e.logger.Warn("vector search failed", "err", vectorErr)
			}
			return nil
		})
	}

	// Sub-queries record their own failures and never abort the group
	_ = g.Wait()

	lexicalDown := !lexicalSkipped && lexicalErr != nil
	vectorDown := !vectorSkipped && vectorErr != nil

	if lexicalDown && (vectorDown || vectorSkipped) {
		return nil, nil, false, ErrSearchUnavailable
	}
	if vectorDown && lexicalSkipped {
		return nil, nil, false, ErrSearchUnavailable
	}

	if lexicalDown {
		lexical = nil
	}
	if vectorDown {
		vector = nil
	}
	return lexical, vector, lexicalDown || vectorDown, nil
}

// fuse merges candidate lists with reciprocal rank fusion, loads the
// surviving records, applies profile modifiers, and orders the output.
func (e *Engine) fuse(
	ctx context.Context,
	lexicalCandidates []index.Candidate,
	vectorCandidates []index.Candidate,
	profile *core.Profile,
	categories []string,
	monitor SearchMonitor,
) ([]*Result, error) {
	var allowed map[string]bool
	if len(categories) > 0 {
		allowed = make(map[string]bool, len(categories))
		for _, c := range categories {
			allowed[c] = true
		}
	}

	type contribution struct {
		lexicalRank int
		vectorRank  int
	}
	merged := make(map[core.ID]*contribution)

	for i, candidate := range lexicalCandidates {
		merged[candidate.ID] = &contribution{lexicalRank: i + 1}
	}
	for i, candidate := range vectorCandidates {
		if c, ok := merged[candidate.ID]; ok {
			c.vectorRank = i + 1
		} else {
			merged[candidate.ID] = &contribution{vectorRank: i + 1}
		}
	}

	if len(merged) == 0 {
		return nil, nil
	}

	ids := make([]core.ID, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}

	records, err := e.records.GetRecords(ctx, ids...)
	if err != nil {
		return nil, err
	}
	monitor.AfterRecordRetrieval(records)

	now := e.clock().UTC()
	results := make([]*Result, 0, len(records))

	for _, record := range records {
		if record == nil || record.IsDeleted() {
			// Indexes may briefly trail storage
			continue
		}
		if allowed != nil && !allowed[record.Category] {
			continue
		}

		c := merged[record.Id]
		var lexicalContribution, vectorContribution float64
		if c.lexicalRank > 0 {
			lexicalContribution = 1.0 / (profile.DampeningK + float64(c.lexicalRank))
		}
		if c.vectorRank > 0 {
			vectorContribution = 1.0 / (profile.DampeningK + float64(c.vectorRank))
		}

		result := &Result{
			Record:              record,
			LexicalRank:         c.lexicalRank,
			VectorRank:          c.vectorRank,
			LexicalContribution: lexicalContribution,
			VectorContribution:  vectorContribution,
		}

		score := profile.LexicalWeight*lexicalContribution + profile.VectorWeight*vectorContribution
		for _, modifier := range e.modifiers {
			score *= modifier(profile, result, now)
		}
		result.Score = score

		results = append(results, result)
	}

	// Total order so equal searches always agree
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Record.UpdatedAt.Equal(b.Record.UpdatedAt) {
			return a.Record.UpdatedAt.After(b.Record.UpdatedAt)
		}
		return a.Record.Id < b.Record.Id
	})

	return results, nil
}
