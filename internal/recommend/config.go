// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package recommend

import (
	"fmt"
	"math"
	"time"
)

// weightSumTolerance bounds the rounding error accepted on ScoringWeights.
const weightSumTolerance = 1e-6

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights defines the contribution of each profile dimension to
	// compatibility and content match scores. Must sum to 1.0.
	Weights ScoringWeights `json:"weights" koanf:"weights"`

	// Thresholds gates generation and filtering.
	Thresholds ThresholdConfig `json:"thresholds" koanf:"thresholds"`

	// Expiry contains the validity window per recommendation kind.
	Expiry ExpiryConfig `json:"expiry" koanf:"expiry"`

	// Balance contains the diversity, exploration and personalization knobs.
	Balance BalanceConfig `json:"balance" koanf:"balance"`

	// Profile contains preference calculation parameters.
	Profile ProfileConfig `json:"profile" koanf:"profile"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Schedule contains batch refresh cadences.
	Schedule ScheduleConfig `json:"schedule" koanf:"schedule"`

	// FilterSeenContent drops candidates already present in the user's history.
	// Default: true.
	FilterSeenContent bool `json:"filter_seen_content" koanf:"filter_seen_content"`
}

// ScoringWeights defines the contribution of each profile dimension.
type ScoringWeights struct {
	// Genre is the weight of genre similarity.
	// Default: 0.4.
	Genre float64 `json:"genre" koanf:"genre"`

	// Platform is the weight of platform similarity.
	// Default: 0.2.
	Platform float64 `json:"platform" koanf:"platform"`

	// Era is the weight of era similarity.
	// Default: 0.2.
	Era float64 `json:"era" koanf:"era"`

	// Rating is the weight of rating behavior alignment.
	// Default: 0.2.
	Rating float64 `json:"rating" koanf:"rating"`
}

// Sum returns the total of all weights.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w ScoringWeights) Sum() float64 {
	return w.Genre + w.Platform + w.Era + w.Rating
}

// Of returns the weight of a dimension.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w ScoringWeights) Of(d Dimension) float64 {
	switch d {
	case DimensionGenre:
		return w.Genre
	case DimensionPlatform:
		return w.Platform
	case DimensionEra:
		return w.Era
	case DimensionRating:
		return w.Rating
	default:
		return 0
	}
}

// ThresholdConfig gates generation and filtering.
type ThresholdConfig struct {
	// MinConfidence is the effective profile confidence required to generate.
	// Default: 0.3.
	MinConfidence float64 `json:"min_confidence" koanf:"min_confidence"`

	// MinInteractionsForRecommendations is the history size required before
	// generating or assigning a personality.
	// Default: 5.
	MinInteractionsForRecommendations int `json:"min_interactions_for_recommendations" koanf:"min_interactions_for_recommendations"`

	// MinInteractionsForHighConfidence is the history size at which
	// confidence approaches 1.
	// Default: 50.
	MinInteractionsForHighConfidence int `json:"min_interactions_for_high_confidence" koanf:"min_interactions_for_high_confidence"`

	// MinRelevanceScore drops candidates scoring below it.
	// Default: 0.1.
	MinRelevanceScore float64 `json:"min_relevance_score" koanf:"min_relevance_score"`

	// MinCompatibility is the similarity required for neighbours and groups.
	// Default: 0.6.
	MinCompatibility float64 `json:"min_compatibility" koanf:"min_compatibility"`
}

// ExpiryConfig contains validity windows.
type ExpiryConfig struct {
	// Content is the validity window of content recommendations.
	// Default: 336h (14 days).
	Content time.Duration `json:"content" koanf:"content"`

	// Group is the validity window of group recommendations.
	// Default: 720h (30 days).
	Group time.Duration `json:"group" koanf:"group"`
}

// For returns the validity window of a kind.
func (e ExpiryConfig) For(kind Kind) time.Duration {
	if kind == KindGroup {
		return e.Group
	}
	return e.Content
}

// BalanceConfig contains ranking balance knobs, each in [0,1].
type BalanceConfig struct {
	// DiversityFactor trades relevance for genre diversity in reranking.
	// Default: 0.3.
	DiversityFactor float64 `json:"diversity_factor" koanf:"diversity_factor"`

	// ExplorationFactor scales exploration candidates.
	// Default: 0.1.
	ExplorationFactor float64 `json:"exploration_factor" koanf:"exploration_factor"`

	// PersonalizationBalance blends trending popularity with profile match.
	// 0 is pure popularity, 1 is pure personal match.
	// Default: 0.5.
	PersonalizationBalance float64 `json:"personalization_balance" koanf:"personalization_balance"`
}

// ProfileConfig contains preference calculation parameters.
type ProfileConfig struct {
	// DecayBase is the per-period multiplier applied to older interactions.
	// Default: 0.95.
	DecayBase float64 `json:"decay_base" koanf:"decay_base"`

	// DecayPeriod is the age unit of DecayBase.
	// Default: 168h (7 days).
	DecayPeriod time.Duration `json:"decay_period" koanf:"decay_period"`

	// RecencyWindow is the age under which interactions are boosted.
	// Default: 336h (14 days).
	RecencyWindow time.Duration `json:"recency_window" koanf:"recency_window"`

	// RecencyBoost is the extra weight of recent interactions.
	// Default: 0.25.
	RecencyBoost float64 `json:"recency_boost" koanf:"recency_boost"`

	// StaleAfter discounts confidence of data or profiles older than this.
	// Default: 720h (30 days).
	StaleAfter time.Duration `json:"stale_after" koanf:"stale_after"`

	// LearningRate is the weight nudge applied per feedback record.
	// Default: 0.05.
	LearningRate float64 `json:"learning_rate" koanf:"learning_rate"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// MaxSameTypeRecommendations caps suggestions sharing a reason code.
	// Default: 5.
	MaxSameTypeRecommendations int `json:"max_same_type_recommendations" koanf:"max_same_type_recommendations"`

	// MaxRecommendationsPerUser caps stored rows per user and kind.
	// Default: 100.
	MaxRecommendationsPerUser int `json:"max_recommendations_per_user" koanf:"max_recommendations_per_user"`

	// DefaultPageSize is used when a read does not specify a size.
	// Default: 20.
	DefaultPageSize int `json:"default_page_size" koanf:"default_page_size"`

	// MaxPageSize bounds page sizes.
	// Default: 100.
	MaxPageSize int `json:"max_page_size" koanf:"max_page_size"`

	// GenerationLimit is the number of suggestions generated per batch run.
	// Default: 50.
	GenerationLimit int `json:"generation_limit" koanf:"generation_limit"`

	// CandidatePoolSize bounds candidates requested from each source.
	// Default: 200.
	CandidatePoolSize int `json:"candidate_pool_size" koanf:"candidate_pool_size"`

	// NeighborPoolSize bounds profiles scanned for similar users.
	// Default: 50.
	NeighborPoolSize int `json:"neighbor_pool_size" koanf:"neighbor_pool_size"`

	// GroupActivityWindow is how far back co-member ratings are considered.
	// Default: 720h (30 days).
	GroupActivityWindow time.Duration `json:"group_activity_window" koanf:"group_activity_window"`

	// SourceTimeout bounds each candidate source.
	// Default: 5s.
	SourceTimeout time.Duration `json:"source_timeout" koanf:"source_timeout"`

	// UpstreamTimeout bounds each collaborator call.
	// Default: 3s.
	UpstreamTimeout time.Duration `json:"upstream_timeout" koanf:"upstream_timeout"`
}

// ScheduleConfig contains batch refresh cadences.
type ScheduleConfig struct {
	// FullSweepCron is the standard cron expression of the full sweep.
	// Default: "0 3 * * *".
	FullSweepCron string `json:"full_sweep_cron" koanf:"full_sweep_cron"`

	// ActiveSweepCron is the standard cron expression of the active-user sweep.
	// Default: "0 * * * *".
	ActiveSweepCron string `json:"active_sweep_cron" koanf:"active_sweep_cron"`

	// ActiveLookbackHours selects users active within this many hours.
	// Default: 24.
	ActiveLookbackHours int `json:"active_lookback_hours" koanf:"active_lookback_hours"`

	// PageSize is the keyset page size of user listings.
	// Default: 500.
	PageSize int `json:"page_size" koanf:"page_size"`

	// Concurrency bounds users refreshed in parallel.
	// Default: 8.
	Concurrency int `json:"concurrency" koanf:"concurrency"`

	// CleanupInterval is the purge cadence.
	// Default: 1h.
	CleanupInterval time.Duration `json:"cleanup_interval" koanf:"cleanup_interval"`

	// CleanupGrace keeps expired rows this long before purge.
	// Default: 24h.
	CleanupGrace time.Duration `json:"cleanup_grace" koanf:"cleanup_grace"`

	// CheckpointTTL is how long a refreshed user is skipped by a restarted
	// full sweep.
	// Default: 20h.
	CheckpointTTL time.Duration `json:"checkpoint_ttl" koanf:"checkpoint_ttl"`
}

// ActiveLookback returns ActiveLookbackHours as a duration.
func (s ScheduleConfig) ActiveLookback() time.Duration {
	return time.Duration(s.ActiveLookbackHours) * time.Hour
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: ScoringWeights{
			Genre:    0.4,
			Platform: 0.2,
			Era:      0.2,
			Rating:   0.2,
		},
		Thresholds: ThresholdConfig{
			MinConfidence:                     0.3,
			MinInteractionsForRecommendations: 5,
			MinInteractionsForHighConfidence:  50,
			MinRelevanceScore:                 0.1,
			MinCompatibility:                  0.6,
		},
		Expiry: ExpiryConfig{
			Content: 14 * 24 * time.Hour,
			Group:   30 * 24 * time.Hour,
		},
		Balance: BalanceConfig{
			DiversityFactor:        0.3,
			ExplorationFactor:      0.1,
			PersonalizationBalance: 0.5,
		},
		Profile: ProfileConfig{
			DecayBase:     0.95,
			DecayPeriod:   7 * 24 * time.Hour,
			RecencyWindow: 14 * 24 * time.Hour,
			RecencyBoost:  0.25,
			StaleAfter:    30 * 24 * time.Hour,
			LearningRate:  0.05,
		},
		Limits: LimitsConfig{
			MaxSameTypeRecommendations: 5,
			MaxRecommendationsPerUser:  100,
			DefaultPageSize:            20,
			MaxPageSize:                100,
			GenerationLimit:            50,
			CandidatePoolSize:          200,
			NeighborPoolSize:           50,
			GroupActivityWindow:        30 * 24 * time.Hour,
			SourceTimeout:              5 * time.Second,
			UpstreamTimeout:            3 * time.Second,
		},
		Schedule: ScheduleConfig{
			FullSweepCron:       "0 3 * * *",
			ActiveSweepCron:     "0 * * * *",
			ActiveLookbackHours: 24,
			PageSize:            500,
			Concurrency:         8,
			CleanupInterval:     time.Hour,
			CleanupGrace:        24 * time.Hour,
			CheckpointTTL:       20 * time.Hour,
		},
		FilterSeenContent: true,
	}
}

// Validate checks the configuration for errors. Cron expressions are parsed
// by the scheduler.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	w := c.Weights
	if w.Genre < 0 || w.Platform < 0 || w.Era < 0 || w.Rating < 0 {
		return fmt.Errorf("weights must be non-negative, got %+v", w)
	}
	if math.Abs(w.Sum()-1.0) > weightSumTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %f", w.Sum())
	}

	t := c.Thresholds
	if err := unitInterval("thresholds.min_confidence", t.MinConfidence); err != nil {
		return err
	}
	if err := unitInterval("thresholds.min_relevance_score", t.MinRelevanceScore); err != nil {
		return err
	}
	if err := unitInterval("thresholds.min_compatibility", t.MinCompatibility); err != nil {
		return err
	}
	if t.MinInteractionsForRecommendations < 1 {
		return fmt.Errorf("thresholds.min_interactions_for_recommendations must be positive, got %d", t.MinInteractionsForRecommendations)
	}
	if t.MinInteractionsForHighConfidence < t.MinInteractionsForRecommendations {
		return fmt.Errorf("thresholds.min_interactions_for_high_confidence must be >= min_interactions_for_recommendations, got %d < %d",
			t.MinInteractionsForHighConfidence, t.MinInteractionsForRecommendations)
	}

	if c.Expiry.Content <= 0 {
		return fmt.Errorf("expiry.content must be positive, got %v", c.Expiry.Content)
	}
	if c.Expiry.Group <= 0 {
		return fmt.Errorf("expiry.group must be positive, got %v", c.Expiry.Group)
	}

	if err := unitInterval("balance.diversity_factor", c.Balance.DiversityFactor); err != nil {
		return err
	}
	if err := unitInterval("balance.exploration_factor", c.Balance.ExplorationFactor); err != nil {
		return err
	}
	if err := unitInterval("balance.personalization_balance", c.Balance.PersonalizationBalance); err != nil {
		return err
	}

	p := c.Profile
	if p.DecayBase <= 0 || p.DecayBase > 1 {
		return fmt.Errorf("profile.decay_base must be in (0, 1], got %f", p.DecayBase)
	}
	if p.DecayPeriod <= 0 {
		return fmt.Errorf("profile.decay_period must be positive, got %v", p.DecayPeriod)
	}
	if p.RecencyWindow < 0 || p.RecencyBoost < 0 {
		return fmt.Errorf("profile.recency_window and profile.recency_boost must be non-negative")
	}
	if p.StaleAfter <= 0 {
		return fmt.Errorf("profile.stale_after must be positive, got %v", p.StaleAfter)
	}
	if err := unitInterval("profile.learning_rate", p.LearningRate); err != nil {
		return err
	}

	l := c.Limits
	if l.MaxSameTypeRecommendations < 1 {
		return fmt.Errorf("limits.max_same_type_recommendations must be positive, got %d", l.MaxSameTypeRecommendations)
	}
	if l.MaxRecommendationsPerUser < 1 {
		return fmt.Errorf("limits.max_recommendations_per_user must be positive, got %d", l.MaxRecommendationsPerUser)
	}
	if l.DefaultPageSize < 1 {
		return fmt.Errorf("limits.default_page_size must be positive, got %d", l.DefaultPageSize)
	}
	if l.MaxPageSize < l.DefaultPageSize {
		return fmt.Errorf("limits.max_page_size must be >= limits.default_page_size, got %d < %d", l.MaxPageSize, l.DefaultPageSize)
	}
	if l.GenerationLimit < 1 || l.CandidatePoolSize < l.GenerationLimit {
		return fmt.Errorf("limits.candidate_pool_size must be >= limits.generation_limit >= 1, got %d and %d", l.CandidatePoolSize, l.GenerationLimit)
	}
	if l.NeighborPoolSize < 1 {
		return fmt.Errorf("limits.neighbor_pool_size must be positive, got %d", l.NeighborPoolSize)
	}
	if l.SourceTimeout <= 0 || l.UpstreamTimeout <= 0 {
		return fmt.Errorf("limits.source_timeout and limits.upstream_timeout must be positive")
	}

	s := c.Schedule
	if s.FullSweepCron == "" || s.ActiveSweepCron == "" {
		return fmt.Errorf("schedule cron expressions must not be empty")
	}
	if s.ActiveLookbackHours < 1 {
		return fmt.Errorf("schedule.active_lookback_hours must be positive, got %d", s.ActiveLookbackHours)
	}
	if s.PageSize < 1 {
		return fmt.Errorf("schedule.page_size must be positive, got %d", s.PageSize)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("schedule.concurrency must be positive, got %d", s.Concurrency)
	}
	if s.CleanupInterval <= 0 {
		return fmt.Errorf("schedule.cleanup_interval must be positive, got %v", s.CleanupInterval)
	}
	if s.CleanupGrace < 0 {
		return fmt.Errorf("schedule.cleanup_grace must be non-negative, got %v", s.CleanupGrace)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	out := *c
	return &out
}

func unitInterval(name string, v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return fmt.Errorf("%s must be in [0, 1], got %f", name, v)
	}
	return nil
}
