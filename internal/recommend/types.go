// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Kind discriminates content recommendations from group recommendations.
type Kind string

const (
	// KindContent recommends a media item (movie, series or book).
	KindContent Kind = "CONTENT"
	// KindGroup recommends a group to join.
	KindGroup Kind = "GROUP"
)

// ParseKind parses a kind case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindContent:
		return KindContent, nil
	case KindGroup:
		return KindGroup, nil
	default:
		return "", fmt.Errorf("%w: unknown recommendation kind %q", ErrInvalidArgument, s)
	}
}

// ReasonCode explains why a candidate was recommended.
type ReasonCode string

const (
	ReasonGenreMatch         ReasonCode = "GENRE_MATCH"
	ReasonPlatformMatch      ReasonCode = "PLATFORM_MATCH"
	ReasonEraMatch           ReasonCode = "ERA_MATCH"
	ReasonSimilarContent     ReasonCode = "SIMILAR_CONTENT"
	ReasonTrending           ReasonCode = "TRENDING"
	ReasonSimilarUsers       ReasonCode = "SIMILAR_USERS"
	ReasonGroupActivity      ReasonCode = "GROUP_ACTIVITY"
	ReasonGroupCompatibility ReasonCode = "GROUP_COMPATIBILITY"
	ReasonExploration        ReasonCode = "EXPLORATION"
)

// ReasonCodes lists every valid reason code in a stable order.
var ReasonCodes = []ReasonCode{
	ReasonGenreMatch,
	ReasonPlatformMatch,
	ReasonEraMatch,
	ReasonSimilarContent,
	ReasonTrending,
	ReasonSimilarUsers,
	ReasonGroupActivity,
	ReasonGroupCompatibility,
	ReasonExploration,
}

// Valid reports whether r is one of the closed set of reason codes.
func (r ReasonCode) Valid() bool {
	for _, rc := range ReasonCodes {
		if rc == r {
			return true
		}
	}
	return false
}

// ParseReasonCode parses a reason code, rejecting unknown values.
func ParseReasonCode(s string) (ReasonCode, error) {
	rc := ReasonCode(strings.ToUpper(strings.TrimSpace(s)))
	if !rc.Valid() {
		return "", fmt.Errorf("%w: unknown reason code %q", ErrInvalidArgument, s)
	}
	return rc, nil
}

// Personality is a behavioral classification derived from interaction
// patterns. The zero value means not yet determined.
type Personality string

const (
	PersonalityCasual        Personality = "CASUAL"
	PersonalityCritic        Personality = "CRITIC"
	PersonalityBingeWatcher  Personality = "BINGE_WATCHER"
	PersonalityExplorer      Personality = "EXPLORER"
	PersonalityCompletionist Personality = "COMPLETIONIST"
	PersonalityEnthusiast    Personality = "ENTHUSIAST"
)

// InteractionStatus is the consumption state reported by the interaction
// history collaborator.
type InteractionStatus string

const (
	StatusPlanned    InteractionStatus = "PLANNED"
	StatusInProgress InteractionStatus = "IN_PROGRESS"
	StatusCompleted  InteractionStatus = "COMPLETED"
	StatusDropped    InteractionStatus = "DROPPED"
)

// Interaction is one entry of a user's media history.
type Interaction struct {
	// UserID owns the interaction.
	UserID int64 `json:"user_id"`

	// MediaID references the catalog item.
	MediaID int64 `json:"media_id"`

	// Rating is the user's star rating in [1,5], nil when unrated.
	Rating *float64 `json:"rating,omitempty"`

	// Status is the consumption state.
	Status InteractionStatus `json:"status"`

	// Favorite marks an explicit favorite.
	Favorite bool `json:"favorite"`

	// Timestamp is when the interaction last changed.
	Timestamp time.Time `json:"timestamp"`
}

// Rated reports whether the interaction carries a rating.
func (i *Interaction) Rated() bool {
	return i.Rating != nil
}

// MediaType is the catalog item type.
type MediaType string

const (
	MediaMovie MediaType = "MOVIE"
	MediaTV    MediaType = "TV"
	MediaBook  MediaType = "BOOK"
)

// MediaMetadata is the descriptive metadata supplied by the catalog.
type MediaMetadata struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Type        MediaType `json:"type"`
	Genres      []string  `json:"genres"`
	Platform    string    `json:"platform"`
	ReleaseYear int       `json:"release_year"`
}

// Era returns the release decade label, e.g. "1990s". Empty when the year
// is unknown.
func (m *MediaMetadata) Era() string {
	return EraLabel(m.ReleaseYear)
}

// EraLabel maps a release year to its decade label.
func EraLabel(year int) string {
	if year <= 0 {
		return ""
	}
	return fmt.Sprintf("%ds", year/10*10)
}

// NormalizeCategory canonicalizes an open-vocabulary category label.
func NormalizeCategory(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Group is a collaboration group as seen by the group directory.
type Group struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}

// GroupMember is an active member of a group.
type GroupMember struct {
	GroupID  int64     `json:"group_id"`
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// TrendingItem is a population-wide popularity signal from the catalog.
type TrendingItem struct {
	MediaID int64   `json:"media_id"`
	Score   float64 `json:"score"`
}

// DiscoverQuery selects catalog candidates by category.
type DiscoverQuery struct {
	Genres        []string `json:"genres,omitempty"`
	Platforms     []string `json:"platforms,omitempty"`
	Eras          []string `json:"eras,omitempty"`
	ExcludeGenres []string `json:"exclude_genres,omitempty"`
	Limit         int      `json:"limit"`
}

// Dimension names one of the category maps of a profile.
type Dimension string

const (
	DimensionGenre    Dimension = "genre"
	DimensionPlatform Dimension = "platform"
	DimensionEra      Dimension = "era"
	DimensionRating   Dimension = "rating"
)

// CategoryWeights maps an open-vocabulary category label to a weight in [0,1].
type CategoryWeights map[string]float64

// Get returns the weight of label, zero when absent.
func (w CategoryWeights) Get(label string) float64 {
	return w[NormalizeCategory(label)]
}

// Top returns the highest weighted label. Ties resolve to the
// lexicographically smallest label.
func (w CategoryWeights) Top() (string, float64) {
	var best string
	bestWeight := -1.0
	for label, weight := range w {
		if weight > bestWeight || (weight == bestWeight && label < best) {
			best, bestWeight = label, weight
		}
	}
	if bestWeight < 0 {
		return "", 0
	}
	return best, bestWeight
}

// TopN returns up to n labels ordered by weight descending.
func (w CategoryWeights) TopN(n int) []string {
	labels := make([]string, 0, len(w))
	for label, weight := range w {
		if weight > 0 {
			labels = append(labels, label)
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		if w[labels[i]] != w[labels[j]] {
			return w[labels[i]] > w[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if n > 0 && len(labels) > n {
		labels = labels[:n]
	}
	return labels
}

// Clone returns a deep copy.
func (w CategoryWeights) Clone() CategoryWeights {
	out := make(CategoryWeights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// PreferenceProfile is the derived taste summary of one user.
type PreferenceProfile struct {
	// UserID is the owning user and the unique key.
	UserID int64 `json:"user_id"`

	// GenreWeights, PlatformWeights and EraWeights hold weights in [0,1].
	GenreWeights    CategoryWeights `json:"genre_weights"`
	PlatformWeights CategoryWeights `json:"platform_weights"`
	EraWeights      CategoryWeights `json:"era_weights"`

	// AverageRating and RatingVariance describe the user's own ratings.
	AverageRating  float64 `json:"average_rating"`
	RatingVariance float64 `json:"rating_variance"`

	TotalInteractions int     `json:"total_interactions"`
	TotalCompleted    int     `json:"total_completed"`
	CompletionRate    float64 `json:"completion_rate"`

	// ViewingPersonality is empty until enough interactions are known.
	ViewingPersonality Personality `json:"viewing_personality,omitempty"`

	// ConfidenceScore is the reliability of the profile in [0,1].
	ConfidenceScore float64 `json:"confidence_score"`

	// LastCalculatedAt marks staleness; LastInteractionAt is the newest
	// interaction seen during calculation.
	LastCalculatedAt  time.Time `json:"last_calculated_at"`
	LastInteractionAt time.Time `json:"last_interaction_at,omitempty"`
}

// NewDefaultProfile returns the zero-confidence profile used for users
// without history.
func NewDefaultProfile(userID int64, now time.Time) *PreferenceProfile {
	return &PreferenceProfile{
		UserID:           userID,
		GenreWeights:     CategoryWeights{},
		PlatformWeights:  CategoryWeights{},
		EraWeights:       CategoryWeights{},
		LastCalculatedAt: now,
	}
}

// Weights returns the category map of a dimension. Rating has no map.
func (p *PreferenceProfile) Weights(d Dimension) CategoryWeights {
	switch d {
	case DimensionGenre:
		return p.GenreWeights
	case DimensionPlatform:
		return p.PlatformWeights
	case DimensionEra:
		return p.EraWeights
	default:
		return nil
	}
}

// TopCategory returns the strongest label of a category dimension.
func (p *PreferenceProfile) TopCategory(d Dimension) (string, float64) {
	if p == nil {
		return "", 0
	}
	return p.Weights(d).Top()
}

// EffectiveConfidence discounts the stored confidence when the profile has
// not been recalculated within staleAfter. The discount halves the
// confidence for every further staleAfter elapsed.
func (p *PreferenceProfile) EffectiveConfidence(now time.Time, staleAfter time.Duration) float64 {
	if p == nil || p.TotalInteractions == 0 {
		return 0
	}
	age := now.Sub(p.LastCalculatedAt)
	if staleAfter <= 0 || age <= staleAfter {
		return p.ConfidenceScore
	}
	periods := float64(age-staleAfter) / float64(staleAfter)
	return p.ConfidenceScore * math.Exp2(-periods)
}

// Clone returns a deep copy.
func (p *PreferenceProfile) Clone() *PreferenceProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.GenreWeights = p.GenreWeights.Clone()
	out.PlatformWeights = p.PlatformWeights.Clone()
	out.EraWeights = p.EraWeights.Clone()
	return &out
}

// Recommendation is one suggestion with a validity window. Rows are never
// edited except for status flags, feedback and ExpiresAt extension.
type Recommendation struct {
	ID          string     `json:"id"`
	UserID      int64      `json:"user_id"`
	CandidateID int64      `json:"candidate_id"`
	Kind        Kind       `json:"kind"`
	Score       float64    `json:"score"`
	ReasonCode  ReasonCode `json:"reason_code"`
	Explanation string     `json:"explanation"`

	// Context of the recommendation.
	SourceMediaID *int64 `json:"source_media_id,omitempty"`
	SourceGroupID *int64 `json:"source_group_id,omitempty"`
	SourceUserID  *int64 `json:"source_user_id,omitempty"`

	// GroupID is set only for group-scoped content recommendations.
	GroupID *int64 `json:"group_id,omitempty"`

	Viewed    bool `json:"viewed"`
	Dismissed bool `json:"dismissed"`
	ActedUpon bool `json:"acted_upon"`

	// UserFeedback is the latest explicit rating in [1,5].
	UserFeedback *int `json:"user_feedback,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key identifies the uniqueness scope of a recommendation.
type Key struct {
	UserID      int64
	Kind        Kind
	CandidateID int64
	GroupID     int64
}

// Key returns the uniqueness key. Personal rows use GroupID 0.
func (r *Recommendation) Key() Key {
	k := Key{UserID: r.UserID, Kind: r.Kind, CandidateID: r.CandidateID}
	if r.GroupID != nil {
		k.GroupID = *r.GroupID
	}
	return k
}

// Clone returns a deep copy.
func (r *Recommendation) Clone() *Recommendation {
	out := *r
	out.SourceMediaID = cloneInt64(r.SourceMediaID)
	out.SourceGroupID = cloneInt64(r.SourceGroupID)
	out.SourceUserID = cloneInt64(r.SourceUserID)
	out.GroupID = cloneInt64(r.GroupID)
	if r.UserFeedback != nil {
		v := *r.UserFeedback
		out.UserFeedback = &v
	}
	return &out
}

// Classification is the polarity of a feedback signal.
type Classification string

const (
	FeedbackPositive Classification = "POSITIVE"
	FeedbackNegative Classification = "NEGATIVE"
	FeedbackNeutral  Classification = "NEUTRAL"
)

// Sign maps the classification to +1, -1 or 0.
func (c Classification) Sign() float64 {
	switch c {
	case FeedbackPositive:
		return 1
	case FeedbackNegative:
		return -1
	default:
		return 0
	}
}

// ClassifyRating maps a star rating to a classification.
func ClassifyRating(rating int) Classification {
	switch {
	case rating >= 4:
		return FeedbackPositive
	case rating <= 2:
		return FeedbackNegative
	default:
		return FeedbackNeutral
	}
}

// FeedbackAction is what the user did.
type FeedbackAction string

const (
	ActionRated     FeedbackAction = "RATED"
	ActionDismissed FeedbackAction = "DISMISSED"
	ActionActedUpon FeedbackAction = "ACTED_UPON"
)

// FeedbackRecord is an append-only log entry. It outlives the
// recommendation it references.
type FeedbackRecord struct {
	ID               string         `json:"id"`
	RecommendationID string         `json:"recommendation_id"`
	UserID           int64          `json:"user_id"`
	Kind             Kind           `json:"kind"`
	CandidateID      int64          `json:"candidate_id"`
	ReasonCode       ReasonCode     `json:"reason_code"`
	Classification   Classification `json:"classification"`
	Rating           *int           `json:"rating,omitempty"`
	Comment          string         `json:"comment,omitempty"`
	Action           FeedbackAction `json:"action"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Candidate is a scored suggestion before persistence.
type Candidate struct {
	CandidateID int64      `json:"candidate_id"`
	Kind        Kind       `json:"kind"`
	Score       float64    `json:"score"`
	Reason      ReasonCode `json:"reason_code"`

	// Title is the display name of the candidate itself.
	Title string `json:"title,omitempty"`

	// Genres feed the diversity reranker; empty for groups.
	Genres []string `json:"genres,omitempty"`

	SourceMediaID *int64 `json:"source_media_id,omitempty"`
	SourceGroupID *int64 `json:"source_group_id,omitempty"`
	SourceUserID  *int64 `json:"source_user_id,omitempty"`

	// SourceName is substituted into the explanation template.
	SourceName string `json:"source_name,omitempty"`

	// SourceAt is the recency of the source signal, used for tie-breaks.
	SourceAt time.Time `json:"source_at"`

	// Scores is the per-source breakdown.
	Scores map[string]float64 `json:"scores,omitempty"`
}

// Explanation renders the candidate's explanation.
func (c *Candidate) Explanation() string {
	return Explain(c.Reason, c.SourceName)
}

// Page selects a window of a ranked list. Number starts at 0.
type Page struct {
	Number int `json:"page" validate:"min=0,max=10000"`
	Size   int `json:"page_size" validate:"min=1,max=100"`
}

// Offset returns the row offset of the page.
func (p Page) Offset() int {
	return p.Number * p.Size
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
