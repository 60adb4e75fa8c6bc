// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package recommend

import (
	"context"
	"time"
)

// InteractionSource supplies user media history.
type InteractionSource interface {
	// History returns the user's interactions ordered by timestamp ascending.
	History(ctx context.Context, userID int64) ([]Interaction, error)

	// ListUsers returns up to limit user ids greater than afterID, ascending.
	ListUsers(ctx context.Context, afterID int64, limit int) ([]int64, error)

	// ListActiveUsers is ListUsers restricted to users with an interaction
	// at or after since.
	ListActiveUsers(ctx context.Context, since time.Time, afterID int64, limit int) ([]int64, error)
}

// Catalog supplies media metadata and population signals.
type Catalog interface {
	// Metadata returns metadata keyed by media id. Unknown ids are omitted.
	Metadata(ctx context.Context, ids []int64) (map[int64]*MediaMetadata, error)

	// Discover returns media matching any of the query categories, most
	// popular first.
	Discover(ctx context.Context, q DiscoverQuery) ([]*MediaMetadata, error)

	// Trending returns population-wide trending items, scores in [0,1].
	Trending(ctx context.Context, limit int) ([]TrendingItem, error)
}

// GroupDirectory supplies group membership.
type GroupDirectory interface {
	ActiveMembers(ctx context.Context, groupID int64) ([]GroupMember, error)
	UserGroups(ctx context.Context, userID int64) ([]Group, error)
	DiscoverGroups(ctx context.Context, limit int) ([]Group, error)
}

// UpsertOutcome reports what UpsertRecommendation did.
type UpsertOutcome int

const (
	// UpsertInserted means a new row was created.
	UpsertInserted UpsertOutcome = iota
	// UpsertReplaced means an expired row was overwritten in place.
	UpsertReplaced
	// UpsertExtended means an active row had its ExpiresAt extended.
	UpsertExtended
	// UpsertUnchanged means the existing row was left untouched.
	UpsertUnchanged
)

// String implements fmt.Stringer.
func (o UpsertOutcome) String() string {
	switch o {
	case UpsertInserted:
		return "inserted"
	case UpsertReplaced:
		return "replaced"
	case UpsertExtended:
		return "extended"
	default:
		return "unchanged"
	}
}

// ListQuery selects actionable recommendations.
type ListQuery struct {
	UserID int64
	Kind   Kind
	// GroupID nil selects personal rows; non-nil selects that group's rows.
	GroupID *int64
	Now     time.Time
	Offset  int
	Limit   int
}

// ProfileStore persists preference profiles.
type ProfileStore interface {
	// GetProfile returns ErrNotFound when the user has no stored profile.
	GetProfile(ctx context.Context, userID int64) (*PreferenceProfile, error)
	SaveProfile(ctx context.Context, p *PreferenceProfile) error

	// ProfilesByTopGenre returns profiles of other users whose genre map
	// contains genre, highest weight first.
	ProfilesByTopGenre(ctx context.Context, genre string, excludeUserID int64, limit int) ([]*PreferenceProfile, error)
}

// RecommendationStore persists recommendations.
type RecommendationStore interface {
	// UpsertRecommendation inserts rec or resolves it against the existing
	// row for the same key:
	//   - no row: insert
	//   - expired row: replace in place
	//   - active row: ExpiresAt = max(old, new), score refreshed
	//   - dismissed unexpired row: untouched
	// A concurrent insert for the same key returns ErrConflict.
	UpsertRecommendation(ctx context.Context, rec *Recommendation, now time.Time) (*Recommendation, UpsertOutcome, error)

	// GetRecommendation returns ErrNotFound for unknown ids.
	GetRecommendation(ctx context.Context, id string) (*Recommendation, error)

	// UpdateRecommendationStatus persists the flag, feedback and UpdatedAt
	// fields of rec.
	UpdateRecommendationStatus(ctx context.Context, rec *Recommendation) error

	// ListActionable returns actionable rows ordered by score descending.
	ListActionable(ctx context.Context, q ListQuery) ([]*Recommendation, error)

	// TrimRecommendations keeps at most keep expired or actionable rows for
	// the user and kind, deleting expired rows first, then the lowest scores.
	// Unexpired dismissed and acted-upon rows are never trimmed.
	TrimRecommendations(ctx context.Context, userID int64, kind Kind, keep int, now time.Time) (int, error)

	// DeleteExpired purges rows whose ExpiresAt is before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)

	// ConversionRates returns the positive feedback share per reason code
	// for feedback created at or after since.
	ConversionRates(ctx context.Context, since time.Time) (map[ReasonCode]float64, error)
}

// FeedbackStore persists the append-only feedback log.
type FeedbackStore interface {
	AppendFeedback(ctx context.Context, rec *FeedbackRecord) error
	ListFeedback(ctx context.Context, userID int64, since time.Time) ([]*FeedbackRecord, error)
}

// Store combines all persistence operations.
type Store interface {
	ProfileStore
	RecommendationStore
	FeedbackStore
}

// Mode identifies the generation entry point a source is called for.
type Mode int

const (
	ModePersonal Mode = iota
	ModeGroupContent
	ModeGroupDiscovery
	ModeTrending
	ModeRealtime
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModePersonal:
		return "personal"
	case ModeGroupContent:
		return "group_content"
	case ModeGroupDiscovery:
		return "group_discovery"
	case ModeTrending:
		return "trending"
	case ModeRealtime:
		return "realtime"
	default:
		return "unknown"
	}
}

// Kind returns the recommendation kind produced in this mode.
func (m Mode) Kind() Kind {
	if m == ModeGroupDiscovery {
		return KindGroup
	}
	return KindContent
}

// SourceRequest is the input shared by all candidate sources of one run.
// Sources must treat it as read-only.
type SourceRequest struct {
	Mode    Mode
	UserID  int64
	GroupID int64

	// Profile is the user's profile; nil for unpersonalized trending.
	Profile *PreferenceProfile

	// GroupProfile is the aggregated member profile in group content mode.
	GroupProfile *PreferenceProfile

	// History is the user's interaction history.
	History []Interaction

	// HistoryMeta holds catalog metadata for History.
	HistoryMeta map[int64]*MediaMetadata

	// Seen holds media ids already in the history.
	Seen map[int64]struct{}

	// CurrentMediaID is the media being viewed in realtime mode.
	CurrentMediaID int64

	// Limit is the number of candidates the source should return at most.
	Limit int

	Now time.Time
}

// TargetProfile returns the profile the candidates should match: the group
// profile in group content mode, the user profile otherwise.
func (r *SourceRequest) TargetProfile() *PreferenceProfile {
	if r.Mode == ModeGroupContent && r.GroupProfile != nil {
		return r.GroupProfile
	}
	return r.Profile
}

// CandidateSource produces scored candidates for a generation run.
type CandidateSource interface {
	// Name identifies the source in logs and score breakdowns.
	Name() string

	// Supports reports whether the source participates in mode.
	Supports(mode Mode) bool

	// Candidates returns scored candidates, scores in [0,1].
	Candidates(ctx context.Context, req *SourceRequest) ([]Candidate, error)
}

// Reranker reorders a ranked list, returning at most k candidates.
type Reranker interface {
	Name() string
	Rerank(ctx context.Context, candidates []Candidate, k int) []Candidate
}

// ProfileAggregator combines member profiles into one group profile.
type ProfileAggregator interface {
	Aggregate(members []*PreferenceProfile) *PreferenceProfile
}
