// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Note: This package has no dependencies on other internal packages. Storage,
// collaborators, candidate sources and group aggregation are injected through
// the interfaces in interfaces.go.

// conversionWindow is the feedback window used for the conversion-rate
// tie-break; conversionRefresh is how long the cached rates are reused.
const (
	conversionWindow  = 30 * 24 * time.Hour
	conversionRefresh = time.Hour
)

// EngineDeps holds the collaborators of the engine.
type EngineDeps struct {
	Store        Store
	Interactions InteractionSource
	Catalog      Catalog
	Groups       GroupDirectory

	// Aggregator combines member profiles for group content. Optional; when
	// nil the requesting user's profile is used.
	Aggregator ProfileAggregator
}

// SourceObserver is notified after every candidate source run.
type SourceObserver func(source string, mode Mode, elapsed time.Duration, produced int, err error)

// EngineStats is a snapshot of engine counters.
type EngineStats struct {
	Runs           int64 `json:"runs"`
	Candidates     int64 `json:"candidates"`
	Inserted       int64 `json:"inserted"`
	Replaced       int64 `json:"replaced"`
	Extended       int64 `json:"extended"`
	Unchanged      int64 `json:"unchanged"`
	Conflicts      int64 `json:"conflicts"`
	SourceFailures int64 `json:"source_failures"`
	Trimmed        int64 `json:"trimmed"`
}

// Engine generates, ranks and persists recommendations.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	deps   EngineDeps

	// Registered sources and rerankers
	sources   []CandidateSource
	rerankers []Reranker
	regMu     sync.RWMutex

	observer SourceObserver
	now      func() time.Time

	// Conversion rates per reason code, refreshed lazily
	convMu       sync.Mutex
	convRates    map[ReasonCode]float64
	convLoadedAt time.Time

	runs           atomic.Int64
	candidates     atomic.Int64
	inserted       atomic.Int64
	replaced       atomic.Int64
	extended       atomic.Int64
	unchanged      atomic.Int64
	conflicts      atomic.Int64
	sourceFailures atomic.Int64
	trimmed        atomic.Int64
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, deps EngineDeps, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Store == nil || deps.Interactions == nil || deps.Catalog == nil || deps.Groups == nil {
		return nil, fmt.Errorf("%w: store, interactions, catalog and groups are required", ErrInvalidArgument)
	}

	return &Engine{
		config: cfg,
		deps:   deps,
		logger: logger.With().Str("component", "recommend").Logger(),
		now:    time.Now,
	}, nil
}

// RegisterSource adds a candidate source.
func (e *Engine) RegisterSource(src CandidateSource) {
	e.regMu.Lock()
	defer e.regMu.Unlock()
	e.sources = append(e.sources, src)
	e.logger.Debug().Str("source", src.Name()).Msg("registered candidate source")
}

// RegisterReranker adds a post-processing reranker. Rerankers run in
// registration order.
func (e *Engine) RegisterReranker(rr Reranker) {
	e.regMu.Lock()
	defer e.regMu.Unlock()
	e.rerankers = append(e.rerankers, rr)
	e.logger.Debug().Str("reranker", rr.Name()).Msg("registered reranker")
}

// SetObserver installs a callback invoked after each source run.
func (e *Engine) SetObserver(o SourceObserver) {
	e.regMu.Lock()
	defer e.regMu.Unlock()
	e.observer = o
}

// SetClock replaces the wall clock. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		Runs:           e.runs.Load(),
		Candidates:     e.candidates.Load(),
		Inserted:       e.inserted.Load(),
		Replaced:       e.replaced.Load(),
		Extended:       e.extended.Load(),
		Unchanged:      e.unchanged.Load(),
		Conflicts:      e.conflicts.Load(),
		SourceFailures: e.sourceFailures.Load(),
		Trimmed:        e.trimmed.Load(),
	}
}

// HasSufficientData reports whether a profile is reliable enough to
// generate recommendations from.
func (c *Config) HasSufficientData(p *PreferenceProfile, now time.Time) bool {
	if p == nil {
		return false
	}
	if p.TotalInteractions < c.Thresholds.MinInteractionsForRecommendations {
		return false
	}
	return p.EffectiveConfidence(now, c.Profile.StaleAfter) >= c.Thresholds.MinConfidence
}

// Personal generates and persists content recommendations for a user. Users
// without sufficient data get no recommendations and no error.
func (e *Engine) Personal(ctx context.Context, userID int64, limit int) ([]*Recommendation, error) {
	now := e.now()
	profile, err := e.loadProfile(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if !e.config.HasSufficientData(profile, now) {
		e.logger.Debug().Int64("user_id", userID).Msg("insufficient data for personal recommendations")
		return nil, nil
	}

	req, err := e.buildRequest(ctx, ModePersonal, userID, profile, limit, now)
	if err != nil {
		return nil, err
	}

	ranked := e.generate(ctx, req)
	return e.persist(ctx, userID, nil, ranked, now)
}

// Groups generates and persists suggestions of groups to join.
func (e *Engine) Groups(ctx context.Context, userID int64, limit int) ([]*Recommendation, error) {
	now := e.now()
	profile, err := e.loadProfile(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if !e.config.HasSufficientData(profile, now) {
		return nil, nil
	}

	uctx, cancel := e.upstreamCtx(ctx)
	joined, err := e.deps.Groups.UserGroups(uctx, userID)
	cancel()
	if err != nil {
		return nil, Unavailable("list user groups", err)
	}

	seen := make(map[int64]struct{}, len(joined))
	for _, g := range joined {
		seen[g.ID] = struct{}{}
	}

	req := &SourceRequest{
		Mode:    ModeGroupDiscovery,
		UserID:  userID,
		Profile: profile,
		Seen:    seen,
		Limit:   e.limit(limit),
		Now:     now,
	}

	ranked := e.generate(ctx, req)
	return e.persist(ctx, userID, nil, ranked, now)
}

// ForGroup generates and persists content recommendations scoped to a group
// the user is an active member of.
func (e *Engine) ForGroup(ctx context.Context, userID, groupID int64, limit int) ([]*Recommendation, error) {
	now := e.now()

	uctx, cancel := e.upstreamCtx(ctx)
	members, err := e.deps.Groups.ActiveMembers(uctx, groupID)
	cancel()
	if err != nil {
		return nil, Unavailable("list group members", err)
	}
	if !isMember(members, userID) {
		return nil, fmt.Errorf("%w: user %d is not an active member of group %d", ErrInvalidArgument, userID, groupID)
	}

	profile, err := e.loadProfile(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if !e.config.HasSufficientData(profile, now) {
		return nil, nil
	}

	req, err := e.buildRequest(ctx, ModeGroupContent, userID, profile, limit, now)
	if err != nil {
		return nil, err
	}
	req.GroupID = groupID
	req.GroupProfile = e.groupProfile(ctx, members, profile, now)

	ranked := e.generate(ctx, req)
	return e.persist(ctx, userID, &groupID, ranked, now)
}

// Trending returns population trending content blended with the user's
// profile. Results are computed on demand and never persisted. A userID of 0
// or a user without sufficient data yields unpersonalized results.
func (e *Engine) Trending(ctx context.Context, userID int64, limit int) ([]*Recommendation, error) {
	now := e.now()
	req := &SourceRequest{
		Mode:   ModeTrending,
		UserID: userID,
		Seen:   map[int64]struct{}{},
		Limit:  e.limit(limit),
		Now:    now,
	}

	if userID > 0 {
		profile, err := e.loadProfile(ctx, userID, now)
		if err != nil {
			return nil, err
		}
		if e.config.HasSufficientData(profile, now) {
			full, err := e.buildRequest(ctx, ModeTrending, userID, profile, limit, now)
			if err != nil {
				return nil, err
			}
			req = full
		}
	}

	ranked := e.generate(ctx, req)
	return e.transient(userID, ranked, now), nil
}

// Realtime returns "because you are viewing" suggestions for mediaID.
// Results are computed on demand and never persisted.
func (e *Engine) Realtime(ctx context.Context, userID, mediaID int64, limit int) ([]*Recommendation, error) {
	if mediaID <= 0 {
		return nil, fmt.Errorf("%w: media id must be positive", ErrInvalidArgument)
	}
	now := e.now()
	req := &SourceRequest{
		Mode:   ModeRealtime,
		UserID: userID,
		Seen:   map[int64]struct{}{},
		Limit:  e.limit(limit),
		Now:    now,
	}

	if userID > 0 {
		profile, err := e.loadProfile(ctx, userID, now)
		if err != nil {
			return nil, err
		}
		full, err := e.buildRequest(ctx, ModeRealtime, userID, profile, limit, now)
		if err != nil {
			return nil, err
		}
		req = full
	}
	req.CurrentMediaID = mediaID
	req.Seen[mediaID] = struct{}{}

	ranked := e.generate(ctx, req)
	return e.transient(userID, ranked, now), nil
}

// limit applies the default generation limit.
func (e *Engine) limit(limit int) int {
	if limit <= 0 {
		return e.config.Limits.GenerationLimit
	}
	return limit
}

func (e *Engine) upstreamCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.config.Limits.UpstreamTimeout)
}

// loadProfile returns the stored profile or a default one.
func (e *Engine) loadProfile(ctx context.Context, userID int64, now time.Time) (*PreferenceProfile, error) {
	p, err := e.deps.Store.GetProfile(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return NewDefaultProfile(userID, now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// buildRequest loads history and metadata for a personalized run.
func (e *Engine) buildRequest(ctx context.Context, mode Mode, userID int64, profile *PreferenceProfile, limit int, now time.Time) (*SourceRequest, error) {
	uctx, cancel := e.upstreamCtx(ctx)
	history, err := e.deps.Interactions.History(uctx, userID)
	cancel()
	if err != nil {
		return nil, Unavailable("load history", err)
	}

	seen := make(map[int64]struct{}, len(history))
	ids := make([]int64, 0, len(history))
	for i := range history {
		if _, ok := seen[history[i].MediaID]; ok {
			continue
		}
		seen[history[i].MediaID] = struct{}{}
		ids = append(ids, history[i].MediaID)
	}

	meta := map[int64]*MediaMetadata{}
	if len(ids) > 0 {
		uctx, cancel := e.upstreamCtx(ctx)
		meta, err = e.deps.Catalog.Metadata(uctx, ids)
		cancel()
		if err != nil {
			return nil, Unavailable("load metadata", err)
		}
	}

	return &SourceRequest{
		Mode:        mode,
		UserID:      userID,
		Profile:     profile,
		History:     history,
		HistoryMeta: meta,
		Seen:        seen,
		Limit:       e.limit(limit),
		Now:         now,
	}, nil
}

// groupProfile aggregates the profiles of active members. Members without a
// stored profile are skipped.
func (e *Engine) groupProfile(ctx context.Context, members []GroupMember, fallback *PreferenceProfile, now time.Time) *PreferenceProfile {
	if e.deps.Aggregator == nil {
		return fallback
	}
	profiles := make([]*PreferenceProfile, 0, len(members))
	for _, m := range members {
		p, err := e.deps.Store.GetProfile(ctx, m.UserID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				e.logger.Warn().Err(err).Int64("user_id", m.UserID).Msg("skipping member profile")
			}
			continue
		}
		profiles = append(profiles, p)
	}
	agg := e.deps.Aggregator.Aggregate(profiles)
	if agg == nil || agg.ConfidenceScore == 0 {
		return fallback
	}
	agg.LastCalculatedAt = now
	return agg
}

func isMember(members []GroupMember, userID int64) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// generate runs the sources supporting req.Mode and ranks their output.
func (e *Engine) generate(ctx context.Context, req *SourceRequest) []Candidate {
	e.runs.Add(1)

	sources := e.sourcesFor(req.Mode)
	if len(sources) == 0 {
		e.logger.Warn().Str("mode", req.Mode.String()).Msg("no candidate sources registered")
		return nil
	}

	results := e.runSources(ctx, req, sources)
	merged := e.merge(results)
	e.candidates.Add(int64(len(merged)))

	return e.rank(ctx, req, merged)
}

func (e *Engine) sourcesFor(mode Mode) []CandidateSource {
	e.regMu.RLock()
	defer e.regMu.RUnlock()

	out := make([]CandidateSource, 0, len(e.sources))
	for _, s := range e.sources {
		if s.Supports(mode) {
			out = append(out, s)
		}
	}
	return out
}

// sourceResult holds the output of a single source run.
type sourceResult struct {
	name       string
	candidates []Candidate
	err        error
}

// runSources runs all sources in parallel, each bounded by the source timeout.
func (e *Engine) runSources(ctx context.Context, req *SourceRequest, sources []CandidateSource) []sourceResult {
	results := make([]sourceResult, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s CandidateSource) {
			defer wg.Done()
			results[idx] = e.runSingleSource(ctx, req, s)
		}(i, src)
	}

	wg.Wait()
	return results
}

func (e *Engine) runSingleSource(ctx context.Context, req *SourceRequest, src CandidateSource) sourceResult {
	result := sourceResult{name: src.Name()}

	srcCtx, cancel := context.WithTimeout(ctx, e.config.Limits.SourceTimeout)
	defer cancel()

	start := time.Now()
	poolReq := *req
	poolReq.Limit = e.config.Limits.CandidatePoolSize
	result.candidates, result.err = src.Candidates(srcCtx, &poolReq)

	e.regMu.RLock()
	observer := e.observer
	e.regMu.RUnlock()
	if observer != nil {
		observer(result.name, req.Mode, time.Since(start), len(result.candidates), result.err)
	}

	return result
}

// merge combines source outputs. A candidate produced by several sources
// keeps the highest scoring variant; the per-source scores are kept in
// Scores.
func (e *Engine) merge(results []sourceResult) []Candidate {
	byID := make(map[int64]*Candidate)
	order := make([]int64, 0)

	for _, result := range results {
		if result.err != nil {
			e.sourceFailures.Add(1)
			e.logger.Warn().
				Str("source", result.name).
				Err(result.err).
				Msg("candidate source failed")
			continue
		}

		for i := range result.candidates {
			c := result.candidates[i]
			c.Score = clamp01(c.Score)

			existing, ok := byID[c.CandidateID]
			if !ok {
				cp := c
				cp.Scores = map[string]float64{result.name: c.Score}
				byID[c.CandidateID] = &cp
				order = append(order, c.CandidateID)
				continue
			}

			scores := existing.Scores
			if prev, ok := scores[result.name]; !ok || c.Score > prev {
				scores[result.name] = c.Score
			}
			if c.Score > existing.Score {
				cp := c
				cp.Scores = scores
				byID[c.CandidateID] = &cp
			}
		}
	}

	merged := make([]Candidate, 0, len(order))
	for _, id := range order {
		merged = append(merged, *byID[id])
	}
	return merged
}

// rank filters, orders, reranks and truncates merged candidates.
func (e *Engine) rank(ctx context.Context, req *SourceRequest, candidates []Candidate) []Candidate {
	filterSeen := e.config.FilterSeenContent || req.Mode == ModeGroupDiscovery || req.Mode == ModeRealtime
	minScore := e.config.Thresholds.MinRelevanceScore

	filtered := candidates[:0]
	for _, c := range candidates {
		if filterSeen {
			if _, ok := req.Seen[c.CandidateID]; ok {
				continue
			}
		}
		if c.Score < minScore {
			continue
		}
		filtered = append(filtered, c)
	}

	rates := e.conversionRates(ctx, req.Now)
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if ra, rb := rates[a.Reason], rates[b.Reason]; ra != rb {
			return ra > rb
		}
		if !a.SourceAt.Equal(b.SourceAt) {
			return a.SourceAt.After(b.SourceAt)
		}
		return a.CandidateID < b.CandidateID
	})

	e.regMu.RLock()
	rerankers := e.rerankers
	e.regMu.RUnlock()

	for _, rr := range rerankers {
		filtered = rr.Rerank(ctx, filtered, req.Limit)
	}

	if len(filtered) > req.Limit {
		filtered = filtered[:req.Limit]
	}
	return filtered
}

// conversionRates returns cached positive-feedback shares per reason code.
// A failed refresh keeps the previous rates.
func (e *Engine) conversionRates(ctx context.Context, now time.Time) map[ReasonCode]float64 {
	e.convMu.Lock()
	defer e.convMu.Unlock()

	if e.convRates != nil && now.Sub(e.convLoadedAt) < conversionRefresh {
		return e.convRates
	}

	rates, err := e.deps.Store.ConversionRates(ctx, now.Add(-conversionWindow))
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to refresh conversion rates")
		if e.convRates == nil {
			return map[ReasonCode]float64{}
		}
		return e.convRates
	}
	e.convRates = rates
	e.convLoadedAt = now
	return rates
}

// newRecommendation builds a row from a ranked candidate.
func (e *Engine) newRecommendation(userID int64, groupID *int64, c *Candidate, now time.Time) *Recommendation {
	return &Recommendation{
		ID:            uuid.NewString(),
		UserID:        userID,
		CandidateID:   c.CandidateID,
		Kind:          c.Kind,
		Score:         c.Score,
		ReasonCode:    c.Reason,
		Explanation:   c.Explanation(),
		SourceMediaID: cloneInt64(c.SourceMediaID),
		SourceGroupID: cloneInt64(c.SourceGroupID),
		SourceUserID:  cloneInt64(c.SourceUserID),
		GroupID:       cloneInt64(groupID),
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpiresAt:     now.Add(e.config.Expiry.For(c.Kind)),
	}
}

// transient converts ranked candidates without persisting them.
func (e *Engine) transient(userID int64, ranked []Candidate, now time.Time) []*Recommendation {
	out := make([]*Recommendation, 0, len(ranked))
	for i := range ranked {
		out = append(out, e.newRecommendation(userID, nil, &ranked[i], now))
	}
	return out
}

// persist upserts ranked candidates and trims the user's rows. It returns
// the actionable rows in rank order.
func (e *Engine) persist(ctx context.Context, userID int64, groupID *int64, ranked []Candidate, now time.Time) ([]*Recommendation, error) {
	out := make([]*Recommendation, 0, len(ranked))
	kinds := make(map[Kind]struct{}, 1)

	for i := range ranked {
		rec := e.newRecommendation(userID, groupID, &ranked[i], now)
		kinds[rec.Kind] = struct{}{}

		stored, outcome, err := e.deps.Store.UpsertRecommendation(ctx, rec, now)
		if errors.Is(err, ErrConflict) {
			e.conflicts.Add(1)
			e.logger.Debug().
				Int64("user_id", userID).
				Int64("candidate_id", rec.CandidateID).
				Msg("concurrent insert for active recommendation, skipping")
			continue
		}
		if err != nil {
			return out, fmt.Errorf("persist recommendation: %w", err)
		}

		switch outcome {
		case UpsertInserted:
			e.inserted.Add(1)
		case UpsertReplaced:
			e.replaced.Add(1)
		case UpsertExtended:
			e.extended.Add(1)
		default:
			e.unchanged.Add(1)
		}

		if stored.Actionable(now) {
			out = append(out, stored)
		}
	}

	trimmed := 0
	for kind := range kinds {
		n, err := e.deps.Store.TrimRecommendations(ctx, userID, kind, e.config.Limits.MaxRecommendationsPerUser, now)
		if err != nil {
			return out, fmt.Errorf("trim recommendations: %w", err)
		}
		trimmed += n
	}
	e.trimmed.Add(int64(trimmed))

	if trimmed > 0 {
		out = e.surviving(ctx, out)
	}

	e.logger.Debug().
		Int64("user_id", userID).
		Int("ranked", len(ranked)).
		Int("actionable", len(out)).
		Msg("recommendations persisted")

	return out, nil
}

// surviving drops rows removed by trimming.
func (e *Engine) surviving(ctx context.Context, recs []*Recommendation) []*Recommendation {
	kept := recs[:0]
	for _, rec := range recs {
		if _, err := e.deps.Store.GetRecommendation(ctx, rec.ID); errors.Is(err, ErrNotFound) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
