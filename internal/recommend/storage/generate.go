// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package storage

import (
	"fmt"
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/tomtom215/tastegraph/internal/recommend"
)

var (
	fixtureGenres = []string{
		"action", "adventure", "animation", "comedy", "crime", "documentary",
		"drama", "fantasy", "horror", "mystery", "romance", "sci-fi", "thriller",
	}
	fixturePlatforms = []string{"netflix", "hulu", "prime", "hbo", "disney", "library"}
	fixtureTypes     = []recommend.MediaType{recommend.MediaMovie, recommend.MediaTV, recommend.MediaBook}
	fixtureStatuses  = []recommend.InteractionStatus{
		recommend.StatusCompleted, recommend.StatusCompleted, recommend.StatusInProgress,
		recommend.StatusPlanned, recommend.StatusDropped,
	}
)

// GenerateOptions controls synthetic fixture generation.
type GenerateOptions struct {
	// Seed makes the output reproducible. Zero picks a random seed.
	Seed uint64

	Users  int
	Media  int
	Groups int

	// InteractionsPerUser is the upper bound of history entries per user.
	// Default: 30.
	InteractionsPerUser int

	// Window is how far back interaction timestamps reach from Now.
	// Default: 180 days.
	Window time.Duration

	// Now anchors timestamps. Default: time.Now().UTC().
	Now time.Time
}

// DefaultGenerateOptions returns a small but non-trivial dataset shape.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Users:               50,
		Media:               400,
		Groups:              8,
		InteractionsPerUser: 30,
		Window:              180 * 24 * time.Hour,
	}
}

// Validate checks the generation bounds.
func (o *GenerateOptions) Validate() error {
	switch {
	case o.Users < 1:
		return fmt.Errorf("users must be at least 1, got %d", o.Users)
	case o.Media < 1:
		return fmt.Errorf("media must be at least 1, got %d", o.Media)
	case o.Groups < 0:
		return fmt.Errorf("groups must not be negative, got %d", o.Groups)
	case o.InteractionsPerUser < 0:
		return fmt.Errorf("interactions per user must not be negative, got %d", o.InteractionsPerUser)
	}
	return nil
}

// GenerateFixture builds a synthetic collaborator dataset. Every user leans
// toward two or three favorite genres so that profiles, similarity and group
// compatibility have structure to find. User, media and group ids start at 1.
func GenerateFixture(opts GenerateOptions) (*FixtureData, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.InteractionsPerUser == 0 {
		opts.InteractionsPerUser = 30
	}
	if opts.Window <= 0 {
		opts.Window = 180 * 24 * time.Hour
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}

	faker := gofakeit.New(opts.Seed)
	doc := &FixtureData{}

	byGenre := make(map[string][]int64, len(fixtureGenres))
	for id := int64(1); id <= int64(opts.Media); id++ {
		m := generateMedia(faker, id)
		doc.Media = append(doc.Media, m)
		for _, g := range m.Genres {
			byGenre[g] = append(byGenre[g], id)
		}
	}

	since := opts.Now.Add(-opts.Window)
	popularity := make(map[int64]int)
	for user := int64(1); user <= int64(opts.Users); user++ {
		favorites := pickGenres(faker, faker.IntRange(2, 3))
		n := faker.IntRange(1, opts.InteractionsPerUser)
		seen := make(map[int64]struct{}, n)

		for range n {
			var mediaID int64
			// Mostly from favorite genres, sometimes anything.
			if pool := byGenre[favorites[faker.IntRange(0, len(favorites)-1)]]; len(pool) > 0 && faker.IntRange(1, 10) <= 8 {
				mediaID = pool[faker.IntRange(0, len(pool)-1)]
			} else {
				mediaID = int64(faker.IntRange(1, opts.Media))
			}
			if _, dup := seen[mediaID]; dup {
				continue
			}
			seen[mediaID] = struct{}{}
			popularity[mediaID]++

			in := recommend.Interaction{
				UserID:    user,
				MediaID:   mediaID,
				Status:    fixtureStatuses[faker.IntRange(0, len(fixtureStatuses)-1)],
				Timestamp: faker.DateRange(since, opts.Now).UTC().Truncate(time.Second),
			}
			if in.Status != recommend.StatusPlanned && faker.IntRange(1, 10) <= 7 {
				rating := generateRating(faker, doc.Media[mediaID-1], favorites)
				in.Rating = &rating
				in.Favorite = rating >= 5
			}
			doc.Interactions = append(doc.Interactions, in)
		}
	}

	for gid := int64(1); gid <= int64(opts.Groups); gid++ {
		doc.Groups = append(doc.Groups, recommend.Group{
			ID:   gid,
			Name: fmt.Sprintf("%s %s club", faker.Adjective(), faker.Noun()),
		})
		size := faker.IntRange(2, max(2, min(12, opts.Users)))
		members := make(map[int64]struct{}, size)
		for len(members) < size && len(members) < opts.Users {
			members[int64(faker.IntRange(1, opts.Users))] = struct{}{}
		}
		ids := make([]int64, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for i, uid := range ids {
			role := "member"
			if i == 0 {
				role = "owner"
			}
			doc.Members = append(doc.Members, recommend.GroupMember{
				GroupID:  gid,
				UserID:   uid,
				Role:     role,
				JoinedAt: faker.DateRange(since, opts.Now).UTC().Truncate(time.Second),
			})
		}
		doc.Groups[gid-1].MemberCount = len(ids)
	}

	doc.Trending = trendingFrom(popularity, 50)
	return doc, nil
}

func generateMedia(faker *gofakeit.Faker, id int64) *recommend.MediaMetadata {
	kind := fixtureTypes[faker.IntRange(0, len(fixtureTypes)-1)]
	title := faker.MovieName()
	platform := fixturePlatforms[faker.IntRange(0, len(fixturePlatforms)-2)]
	if kind == recommend.MediaBook {
		title = faker.BookTitle()
		platform = "library"
	}
	return &recommend.MediaMetadata{
		ID:          id,
		Title:       title,
		Type:        kind,
		Genres:      pickGenres(faker, faker.IntRange(1, 3)),
		Platform:    platform,
		ReleaseYear: faker.IntRange(1960, 2025),
	}
}

// pickGenres returns n distinct genres.
func pickGenres(faker *gofakeit.Faker, n int) []string {
	out := make([]string, 0, n)
	picked := make(map[string]struct{}, n)
	for len(out) < n {
		g := fixtureGenres[faker.IntRange(0, len(fixtureGenres)-1)]
		if _, ok := picked[g]; ok {
			continue
		}
		picked[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// generateRating favors high ratings for media sharing a favorite genre.
func generateRating(faker *gofakeit.Faker, m *recommend.MediaMetadata, favorites []string) float64 {
	for _, g := range m.Genres {
		for _, f := range favorites {
			if g == f {
				return float64(faker.IntRange(4, 5))
			}
		}
	}
	return float64(faker.IntRange(1, 4))
}

func trendingFrom(popularity map[int64]int, limit int) []recommend.TrendingItem {
	out := make([]recommend.TrendingItem, 0, len(popularity))
	peak := 0
	for _, n := range popularity {
		peak = max(peak, n)
	}
	for id, n := range popularity {
		out = append(out, recommend.TrendingItem{MediaID: id, Score: float64(n) / float64(peak)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].MediaID < out[j].MediaID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
