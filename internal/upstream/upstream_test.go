// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tastegraph/internal/recommend"
	"github.com/tomtom215/tastegraph/internal/recommend/storage"
)

func testConfig(baseURL string) *Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeHTTP
	cfg.InteractionsURL = baseURL
	cfg.CatalogURL = baseURL
	cfg.GroupsURL = baseURL
	cfg.RateLimit = 1000
	cfg.RateBurst = 100
	cfg.Timeout = 2 * time.Second
	return &cfg
}

func writeData(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"data": data}); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"fixture defaults", func(*Config) {}, false},
		{"http complete", func(c *Config) { *c = *testConfig("http://localhost:9000") }, false},
		{"http missing url", func(c *Config) { *c = *testConfig("http://localhost:9000"); c.CatalogURL = "" }, true},
		{"unknown mode", func(c *Config) { c.Mode = "grpc" }, true},
		{"zero timeout", func(c *Config) { *c = *testConfig("http://x"); c.Timeout = 0 }, true},
		{"zero rate", func(c *Config) { *c = *testConfig("http://x"); c.RateLimit = 0 }, true},
		{"zero breaker", func(c *Config) { *c = *testConfig("http://x"); c.BreakerFailures = 0 }, true},
		{"zero batch", func(c *Config) { *c = *testConfig("http://x"); c.MetadataBatchSize = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInteractionsClient_History(t *testing.T) {
	r5, r3 := 5.0, 3.0
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		switch r.URL.Path {
		case "/users/7/interactions":
			writeData(t, w, []recommend.Interaction{
				{UserID: 7, MediaID: 2, Rating: &r3, Status: recommend.StatusCompleted, Timestamp: t0.Add(time.Hour)},
				{UserID: 7, MediaID: 1, Rating: &r5, Status: recommend.StatusCompleted, Timestamp: t0},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.APIKey = "secret"
	c := NewInteractionsClient(cfg, zerolog.Nop())

	got, err := c.History(context.Background(), 7)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(got) != 2 || got[0].MediaID != 1 || got[1].MediaID != 2 {
		t.Errorf("History() = %+v, want ascending by timestamp", got)
	}
	if got[0].Rating == nil || *got[0].Rating != 5 {
		t.Errorf("Rating = %v", got[0].Rating)
	}

	unknown, err := c.History(context.Background(), 99)
	if err != nil || len(unknown) != 0 {
		t.Errorf("History(unknown) = %v, %v; want empty, nil", unknown, err)
	}
}

func TestInteractionsClient_ListUsers(t *testing.T) {
	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/users":
			if q.Get("after") != "10" || q.Get("limit") != "3" {
				t.Errorf("query = %v", q)
			}
			writeData(t, w, []int64{13, 11, 12})
		case "/users/active":
			if q.Get("since") != "2026-03-01T12:00:00Z" || q.Get("after") != "0" {
				t.Errorf("query = %v", q)
			}
			writeData(t, w, []int64{4})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := NewInteractionsClient(testConfig(srv.URL), zerolog.Nop())

	ids, err := c.ListUsers(context.Background(), 10, 3)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(ids) != 3 || ids[0] != 11 || ids[2] != 13 {
		t.Errorf("ListUsers() = %v, want ascending", ids)
	}

	active, err := c.ListActiveUsers(context.Background(), since, 0, 5)
	if err != nil || len(active) != 1 || active[0] != 4 {
		t.Errorf("ListActiveUsers() = %v, %v", active, err)
	}
}

func TestCatalogClient_MetadataCachesAndBatches(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []string
	)
	catalog := map[string][]*recommend.MediaMetadata{
		"1,2": {
			{ID: 1, Title: "Heat", Type: recommend.MediaMovie, Genres: []string{"action"}, ReleaseYear: 1995},
			{ID: 2, Title: "Ronin", Type: recommend.MediaMovie, Genres: []string{"action"}, ReleaseYear: 1998},
		},
		"3": {},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query().Get("ids")
		mu.Lock()
		requests = append(requests, ids)
		mu.Unlock()
		writeData(t, w, catalog[ids])
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MetadataBatchSize = 2
	c := NewCatalogClient(cfg, zerolog.Nop())

	got, err := c.Metadata(context.Background(), []int64{1, 2, 3, 1})
	if err != nil {
		t.Fatalf("Metadata() error = %v", err)
	}
	if len(got) != 2 || got[1].Title != "Heat" || got[2].Title != "Ronin" {
		t.Errorf("Metadata() = %v", got)
	}
	if _, ok := got[3]; ok {
		t.Error("unknown id 3 should be omitted")
	}
	if len(requests) != 2 || requests[0] != "1,2" || requests[1] != "3" {
		t.Errorf("requests = %v, want [1,2 3]", requests)
	}

	again, err := c.Metadata(context.Background(), []int64{2, 1})
	if err != nil || len(again) != 2 {
		t.Fatalf("cached Metadata() = %v, %v", again, err)
	}
	if len(requests) != 2 {
		t.Errorf("cached lookup issued requests: %v", requests)
	}
	if hits, _, size := c.CacheStats(); hits < 2 || size != 2 {
		t.Errorf("CacheStats() hits=%d size=%d", hits, size)
	}
}

func TestCatalogClient_DiscoverAndTrending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/media/discover":
			if q.Get("genres") != "action,drama" || q.Get("exclude_genres") != "horror" || q.Get("limit") != "5" {
				t.Errorf("discover query = %v", q)
			}
			if q.Has("platforms") {
				t.Errorf("empty platforms should be omitted: %v", q)
			}
			writeData(t, w, []*recommend.MediaMetadata{{ID: 9, Title: "Collateral"}})
		case "/media/trending":
			writeData(t, w, []recommend.TrendingItem{{MediaID: 9, Score: 0.8}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := NewCatalogClient(testConfig(srv.URL), zerolog.Nop())

	found, err := c.Discover(context.Background(), recommend.DiscoverQuery{
		Genres:        []string{"action", "drama"},
		ExcludeGenres: []string{"horror"},
		Limit:         5,
	})
	if err != nil || len(found) != 1 || found[0].ID != 9 {
		t.Fatalf("Discover() = %v, %v", found, err)
	}

	trending, err := c.Trending(context.Background(), 10)
	if err != nil || len(trending) != 1 || trending[0].Score != 0.8 {
		t.Errorf("Trending() = %v, %v", trending, err)
	}
}

func TestRESTClient_ServerErrorsOpenBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = time.Minute
	c := NewCatalogClient(cfg, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := c.Trending(context.Background(), 5)
		if !errors.Is(err, recommend.ErrUnavailable) {
			t.Fatalf("call %d error = %v, want ErrUnavailable", i, err)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2 (third call rejected by open breaker)", got)
	}
}

func TestRESTClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BreakerFailures = 1
	c := NewGroupsClient(cfg, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if _, err := c.DiscoverGroups(context.Background(), 5); !errors.Is(err, recommend.ErrUnavailable) {
			t.Fatalf("call %d error = %v, want ErrUnavailable", i, err)
		}
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("server hits = %d, want 3", got)
	}
}

func TestRESTClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, []recommend.Group{})
	}))
	defer srv.Close()
	c := NewGroupsClient(testConfig(srv.URL), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.UserGroups(ctx, 1); !errors.Is(err, recommend.ErrUnavailable) {
		t.Errorf("UserGroups() error = %v, want ErrUnavailable", err)
	}
}

func TestGroupsClient(t *testing.T) {
	joined := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/groups/7/members":
			writeData(t, w, []recommend.GroupMember{{GroupID: 7, UserID: 1, Role: "owner", JoinedAt: joined}})
		case "/users/1/groups":
			writeData(t, w, []recommend.Group{{ID: 7, Name: "cinema", MemberCount: 2}})
		case "/groups/discover":
			writeData(t, w, []recommend.Group{{ID: 8, Name: "books"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := NewGroupsClient(testConfig(srv.URL), zerolog.Nop())
	ctx := context.Background()

	members, err := c.ActiveMembers(ctx, 7)
	if err != nil || len(members) != 1 || !members[0].JoinedAt.Equal(joined) {
		t.Errorf("ActiveMembers() = %v, %v", members, err)
	}
	if _, err := c.ActiveMembers(ctx, 99); !errors.Is(err, recommend.ErrInvalidArgument) {
		t.Errorf("ActiveMembers(unknown) error = %v, want ErrInvalidArgument", err)
	}
	groups, err := c.UserGroups(ctx, 1)
	if err != nil || len(groups) != 1 || groups[0].Name != "cinema" {
		t.Errorf("UserGroups() = %v, %v", groups, err)
	}
	none, err := c.UserGroups(ctx, 2)
	if err != nil || len(none) != 0 {
		t.Errorf("UserGroups(unknown) = %v, %v", none, err)
	}
	discovered, err := c.DiscoverGroups(ctx, 3)
	if err != nil || len(discovered) != 1 || discovered[0].ID != 8 {
		t.Errorf("DiscoverGroups() = %v, %v", discovered, err)
	}
}

func TestNew(t *testing.T) {
	t.Run("empty fixture", func(t *testing.T) {
		cfg := DefaultConfig()
		c, err := New(&cfg, zerolog.Nop())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if _, ok := c.Catalog.(*storage.Fixture); !ok {
			t.Errorf("Catalog = %T, want *storage.Fixture", c.Catalog)
		}
	})

	t.Run("fixture file", func(t *testing.T) {
		doc := storage.FixtureData{
			Media:   []*recommend.MediaMetadata{{ID: 1, Title: "Heat", Genres: []string{"Action"}}},
			Groups:  []recommend.Group{{ID: 7, Name: "cinema"}},
			Members: []recommend.GroupMember{{GroupID: 7, UserID: 1}},
		}
		data, err := json.Marshal(doc)
		if err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(t.TempDir(), "fixture.json")
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}

		cfg := DefaultConfig()
		cfg.FixturePath = path
		c, err := New(&cfg, zerolog.Nop())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		meta, err := c.Catalog.Metadata(context.Background(), []int64{1})
		if err != nil || meta[1] == nil {
			t.Fatalf("Metadata() = %v, %v", meta, err)
		}
		groups, err := c.Groups.UserGroups(context.Background(), 1)
		if err != nil || len(groups) != 1 {
			t.Errorf("UserGroups() = %v, %v", groups, err)
		}
	})

	t.Run("missing fixture", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.FixturePath = filepath.Join(t.TempDir(), "missing.json")
		if _, err := New(&cfg, zerolog.Nop()); err == nil {
			t.Error("New() should fail for a missing fixture")
		}
	})

	t.Run("http", func(t *testing.T) {
		c, err := New(testConfig("http://localhost:9000"), zerolog.Nop())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if _, ok := c.Interactions.(*InteractionsClient); !ok {
			t.Errorf("Interactions = %T", c.Interactions)
		}
	})
}
