// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cinematch/internal/catalog"
	"github.com/tomtom215/cinematch/internal/config"
	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/neighbor"
	"github.com/tomtom215/cinematch/internal/recommend"
)

type fakeRecommender struct {
	mu      sync.Mutex
	records []recommend.Record
	err     error
	cached  bool
	calls   []recommend.Request
}

func (f *fakeRecommender) Recommend(ctx context.Context, req recommend.Request) ([]recommend.Record, error) {
	records, _, err := f.RecommendCached(ctx, req)
	return records, err
}

func (f *fakeRecommender) RecommendCached(_ context.Context, req recommend.Request) ([]recommend.Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.records, f.cached, f.err
}

func (f *fakeRecommender) lastCall(t *testing.T) recommend.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("recommender was not called")
	}
	return f.calls[len(f.calls)-1]
}

// plainRecommender hides RecommendCached.
type plainRecommender struct{ next *fakeRecommender }

func (p plainRecommender) Recommend(ctx context.Context, req recommend.Request) ([]recommend.Record, error) {
	return p.next.Recommend(ctx, req)
}

type fakeIndexStatus struct{ state string }

func (f fakeIndexStatus) Backend() string      { return "memory" }
func (f fakeIndexStatus) BreakerState() string { return f.state }

type fakeProbe struct {
	ok  bool
	at  time.Time
	err error
}

func (f fakeProbe) LastProbe() (bool, time.Time, error) { return f.ok, f.at, f.err }

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]catalog.Entry{
		{MovieID: 1, Title: "Toy Story", Genres: []string{"Animation", "Comedy"}, ExternalRefID: "114709"},
		{MovieID: 2, Title: "Jumanji", Genres: []string{"Adventure", "Fantasy"}, ExternalRefID: "113497"},
		{MovieID: 3, Title: "Grumpier Old Men", Genres: []string{"Comedy", "Romance"}, ExternalRefID: "113228"},
	})
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	return cat
}

func testRecommendConfig() config.RecommendConfig {
	return config.RecommendConfig{DefaultCount: 5, MaxCount: 50}
}

func do(t *testing.T, h http.HandlerFunc, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, env
}

func TestRecommendations_Success(t *testing.T) {
	rec := &fakeRecommender{records: []recommend.Record{{
		MovieID: 2, MovieName: "Jumanji", MovieGenre: "Adventure Fantasy", ExternalRefID: "113497", Score: 0.91,
	}}}
	h := NewHandler(testCatalog(t), rec, testRecommendConfig())

	w, env := do(t, h.Recommendations, "/api/v1/recommendations?title=Toy+Story&count=1")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if env.Status != models.StatusSuccess {
		t.Errorf("status field = %q", env.Status)
	}
	var data recommendationsResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Title != "Toy Story" || data.Count != 1 {
		t.Errorf("data = %+v", data)
	}
	if len(data.Results) != 1 || data.Results[0].MovieName != "Jumanji" || data.Results[0].MovieGenre != "Adventure Fantasy" {
		t.Errorf("Results = %+v", data.Results)
	}
	if data.Genres == nil {
		t.Error("Genres should encode as [] rather than null")
	}
	if env.Metadata.Count == nil || *env.Metadata.Count != 1 {
		t.Errorf("Metadata.Count = %v", env.Metadata.Count)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestRecommendations_TitlePassedVerbatim(t *testing.T) {
	rec := &fakeRecommender{records: []recommend.Record{}}
	h := NewHandler(testCatalog(t), rec, testRecommendConfig())

	w, _ := do(t, h.Recommendations, "/api/v1/recommendations?title=%20Toy%20Story%20")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got := rec.lastCall(t).Title; got != " Toy Story " {
		t.Errorf("Title = %q, want exact query value %q", got, " Toy Story ")
	}
}

func TestRecommendations_DefaultCountAndGenres(t *testing.T) {
	rec := &fakeRecommender{records: []recommend.Record{}}
	h := NewHandler(testCatalog(t), rec, testRecommendConfig())

	w, _ := do(t, h.Recommendations, "/api/v1/recommendations?title=Toy%20Story&genre=comedy&genre=SCI-FI&genres=Comedy,%20drama")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	got := rec.lastCall(t)
	if got.Count != 5 {
		t.Errorf("Count = %d, want default 5", got.Count)
	}
	want := []string{"Comedy", "Sci-Fi", "Drama"}
	if len(got.Genres) != len(want) {
		t.Fatalf("Genres = %v, want %v", got.Genres, want)
	}
	for i := range want {
		if got.Genres[i] != want[i] {
			t.Errorf("Genres[%d] = %q, want %q", i, got.Genres[i], want[i])
		}
	}
}

func TestRecommendations_CachedFlag(t *testing.T) {
	rec := &fakeRecommender{records: []recommend.Record{}, cached: true}

	_, env := do(t, NewHandler(testCatalog(t), rec, testRecommendConfig()).Recommendations,
		"/api/v1/recommendations?title=Toy+Story")
	if !env.Metadata.Cached {
		t.Error("Metadata.Cached should be true for a cache hit")
	}

	_, env = do(t, NewHandler(testCatalog(t), plainRecommender{rec}, testRecommendConfig()).Recommendations,
		"/api/v1/recommendations?title=Toy+Story")
	if env.Metadata.Cached {
		t.Error("Metadata.Cached should be false without a cache")
	}
}

func TestRecommendations_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
		field  string
	}{
		{"missing title", "/api/v1/recommendations?count=3", "title"},
		{"count not integer", "/api/v1/recommendations?title=Toy+Story&count=many", ""},
		{"count zero", "/api/v1/recommendations?title=Toy+Story&count=0", "count"},
		{"count above max", "/api/v1/recommendations?title=Toy+Story&count=51", ""},
		{"unknown genre", "/api/v1/recommendations?title=Toy+Story&genre=Polka", "genres[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &fakeRecommender{}
			h := NewHandler(testCatalog(t), rec, testRecommendConfig())
			w, env := do(t, h.Recommendations, tt.target)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if env.Error == nil || env.Error.Code != models.ErrCodeValidation {
				t.Fatalf("error = %+v", env.Error)
			}
			if tt.field != "" && env.Error.Details["field"] != tt.field {
				t.Errorf("field = %v, want %q", env.Error.Details["field"], tt.field)
			}
			if len(rec.calls) != 0 {
				t.Error("recommender should not be called for invalid input")
			}
		})
	}
}

func TestRecommendations_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown title",
			err:        &catalog.NotFoundError{Kind: "title", Key: "Nope"},
			wantStatus: http.StatusNotFound,
			wantCode:   models.ErrCodeMovieNotFound,
		},
		{
			name:       "index down",
			err:        &neighbor.ServiceError{Backend: "pinecone", Op: "query", StatusCode: 502, Err: errors.New("bad gateway")},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   models.ErrCodeIndexUnavailable,
		},
		{
			name: "catalog inconsistent",
			err: &recommend.ConsistencyError{
				QueryMovieID: 1, NeighborMovieID: 77,
				Err: &catalog.NotFoundError{Kind: "id", Key: "77"},
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   models.ErrCodeCatalogInconsistent,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   models.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(testCatalog(t), &fakeRecommender{err: tt.err}, testRecommendConfig())
			w, env := do(t, h.Recommendations, "/api/v1/recommendations?title=Nope")

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Fatalf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
			if env.Data != nil && string(env.Data) != "null" {
				t.Errorf("data = %s, want null", env.Data)
			}
		})
	}
}

func TestRecommendations_RetryAfterOnServiceError(t *testing.T) {
	err := &neighbor.ServiceError{Backend: "pinecone", Op: "query", Err: context.DeadlineExceeded}
	h := NewHandler(testCatalog(t), &fakeRecommender{err: err}, testRecommendConfig())
	w, _ := do(t, h.Recommendations, "/api/v1/recommendations?title=Toy+Story")
	if got := w.Header().Get("Retry-After"); got != "5" {
		t.Errorf("Retry-After = %q, want 5", got)
	}
}

func TestRecommendations_CanceledServiceErrorIsNotUnavailable(t *testing.T) {
	err := &neighbor.ServiceError{Backend: "pinecone", Op: "query", Err: context.Canceled}
	h := NewHandler(testCatalog(t), &fakeRecommender{err: err}, testRecommendConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations?title=Toy+Story", nil)
	w := httptest.NewRecorder()
	h.Recommendations(w, req)

	if w.Code == http.StatusServiceUnavailable || w.Header().Get("Retry-After") != "" {
		t.Errorf("canceled request answered as unavailable: status %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want nothing written", w.Body.String())
	}
}

func TestRecommendations_NotFoundMessageNamesTitle(t *testing.T) {
	h := NewHandler(testCatalog(t), &fakeRecommender{err: &catalog.NotFoundError{Kind: "title", Key: "Heat"}}, testRecommendConfig())
	_, env := do(t, h.Recommendations, "/api/v1/recommendations?title=Heat")
	if env.Error == nil || env.Error.Message != `No movie titled "Heat"` {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestMovies(t *testing.T) {
	h := NewHandler(testCatalog(t), &fakeRecommender{}, testRecommendConfig())

	t.Run("search", func(t *testing.T) {
		w, env := do(t, h.Movies, "/api/v1/movies?search=toy")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var movies []catalog.Entry
		if err := json.Unmarshal(env.Data, &movies); err != nil {
			t.Fatal(err)
		}
		if len(movies) != 1 || movies[0].MovieID != 1 {
			t.Errorf("movies = %+v", movies)
		}
	})

	t.Run("limit", func(t *testing.T) {
		_, env := do(t, h.Movies, "/api/v1/movies?limit=2")
		if env.Metadata.Count == nil || *env.Metadata.Count != 2 {
			t.Errorf("Count = %v, want 2", env.Metadata.Count)
		}
	})

	t.Run("limit out of range", func(t *testing.T) {
		for _, target := range []string{"/api/v1/movies?limit=0", "/api/v1/movies?limit=101", "/api/v1/movies?limit=x"} {
			w, _ := do(t, h.Movies, target)
			if w.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", target, w.Code)
			}
		}
	})
}

func TestGenres(t *testing.T) {
	h := NewHandler(testCatalog(t), &fakeRecommender{}, testRecommendConfig())
	_, env := do(t, h.Genres, "/api/v1/genres")

	var genres []string
	if err := json.Unmarshal(env.Data, &genres); err != nil {
		t.Fatal(err)
	}
	if len(genres) != len(catalog.GenreVocabulary) {
		t.Errorf("got %d genres, want %d", len(genres), len(catalog.GenreVocabulary))
	}
}

func TestHealthLive(t *testing.T) {
	h := NewHandler(testCatalog(t), &fakeRecommender{}, testRecommendConfig())
	w, _ := do(t, h.HealthLive, "/health/live")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHealthReady(t *testing.T) {
	empty, err := catalog.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()

	tests := []struct {
		name       string
		cat        *catalog.Catalog
		opts       []HandlerOption
		wantStatus int
		check      string
		wantCheck  string
	}{
		{
			name:       "ready",
			opts:       []HandlerOption{WithIndexStatus(fakeIndexStatus{"closed"}), WithProbeStatus(fakeProbe{ok: true, at: now})},
			wantStatus: http.StatusOK,
			check:      "index_probe",
			wantCheck:  "ok",
		},
		{
			name:       "probe pending is ready",
			opts:       []HandlerOption{WithProbeStatus(fakeProbe{})},
			wantStatus: http.StatusOK,
			check:      "index_probe",
			wantCheck:  "pending",
		},
		{
			name:       "empty catalog",
			cat:        empty,
			wantStatus: http.StatusServiceUnavailable,
			check:      "catalog",
			wantCheck:  "empty",
		},
		{
			name:       "breaker open",
			opts:       []HandlerOption{WithIndexStatus(fakeIndexStatus{"open"})},
			wantStatus: http.StatusServiceUnavailable,
			check:      "index_breaker",
			wantCheck:  "open",
		},
		{
			name:       "probe failed",
			opts:       []HandlerOption{WithProbeStatus(fakeProbe{at: now, err: errors.New("timeout")})},
			wantStatus: http.StatusServiceUnavailable,
			check:      "index_probe",
			wantCheck:  "failed: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := tt.cat
			if cat == nil {
				cat = testCatalog(t)
			}
			h := NewHandler(cat, &fakeRecommender{}, testRecommendConfig(), tt.opts...)
			w, env := do(t, h.HealthReady, "/health/ready")

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var hs models.HealthStatus
			if err := json.Unmarshal(env.Data, &hs); err != nil {
				t.Fatal(err)
			}
			if hs.Checks[tt.check] != tt.wantCheck {
				t.Errorf("Checks[%q] = %q, want %q", tt.check, hs.Checks[tt.check], tt.wantCheck)
			}
			if hs.CatalogSize != cat.Len() {
				t.Errorf("CatalogSize = %d, want %d", hs.CatalogSize, cat.Len())
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}

func TestParseCommaSeparated(t *testing.T) {
	got := parseCommaSeparated(" Comedy, ,Drama,")
	if len(got) != 2 || got[0] != "Comedy" || got[1] != "Drama" {
		t.Errorf("parseCommaSeparated = %v", got)
	}
	if parseCommaSeparated("") != nil {
		t.Error("empty input should yield nil")
	}
}
