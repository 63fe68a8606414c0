// Cinematch - Movie Similarity Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/cinematch/internal/models"
	"github.com/tomtom215/cinematch/internal/recommend"
)

func testRouter(t *testing.T, mwCfg *ChiMiddlewareConfig) http.Handler {
	t.Helper()
	rec := &fakeRecommender{records: []recommend.Record{{MovieID: 2, MovieName: "Jumanji", MovieGenre: "Adventure Fantasy"}}}
	h := NewHandler(testCatalog(t), rec, testRecommendConfig())
	return NewRouter(h, NewChiMiddleware(mwCfg)).SetupChi()
}

func openMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"https://app.example"},
		CORSAllowedMethods: []string{http.MethodGet, http.MethodOptions},
		CORSAllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		RateLimitDisabled:  true,
	}
}

func TestRouter_Routes(t *testing.T) {
	router := testRouter(t, openMiddlewareConfig())

	tests := []struct {
		target     string
		wantStatus int
	}{
		{"/api/v1/recommendations?title=Toy+Story&count=1", http.StatusOK},
		{"/api/v1/movies?search=jum", http.StatusOK},
		{"/api/v1/movies/2", http.StatusOK},
		{"/api/v1/movies/999", http.StatusNotFound},
		{"/api/v1/movies/abc", http.StatusBadRequest},
		{"/api/v1/genres", http.StatusOK},
		{"/health/live", http.StatusOK},
		{"/health/ready", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/v1/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	router := testRouter(t, openMiddlewareConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/genres", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", w.Code)
	}
	if !strings.Contains(w.Body.String(), models.ErrCodeMethodNotAllowed) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRouter_RequestIDEchoed(t *testing.T) {
	router := testRouter(t, openMiddlewareConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/genres", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q", got)
	}
	if !strings.Contains(w.Body.String(), `"request_id":"abc-123"`) {
		t.Errorf("body missing request id: %s", w.Body.String())
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := testRouter(t, openMiddlewareConfig())
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := openMiddlewareConfig()
	cfg.RateLimitDisabled = false
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	cfg.RateLimitKeyFunc = func(*http.Request) (string, error) { return "client", nil }
	router := testRouter(t, cfg)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		router.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/api/v1/genres", nil))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last.Code)
	}
	if !strings.Contains(last.Body.String(), models.ErrCodeRateLimited) {
		t.Errorf("body = %s", last.Body.String())
	}

	// Probes are outside the limited group.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/health/live status = %d, want 200", w.Code)
	}
}
