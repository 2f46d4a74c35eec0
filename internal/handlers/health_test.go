package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"

	"media-pipeline/internal/metrics"
)

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		statsErr   error
		wantCode   int
		wantStatus string
	}{
		{"ready", true, nil, http.StatusOK, statusHealthy},
		{"starting", false, nil, http.StatusServiceUnavailable, statusStarting},
		{"database down", true, errors.New("closed"), http.StatusServiceUnavailable, statusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(0)
			f.h.SetReady(tt.ready)
			f.store.stats = metrics.Stats{PendingPosts: 2, UnprocessedImages: 1, Videos: 4}
			f.store.statsErr = tt.statsErr

			w := f.do(httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			resp := decodeBody[HealthResponse](t, w)
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Ready != tt.ready {
				t.Errorf("ready = %t, want %t", resp.Ready, tt.ready)
			}
			if resp.GoVersion != runtime.Version() {
				t.Errorf("goVersion = %q", resp.GoVersion)
			}
			if tt.statsErr == nil && (resp.PendingPosts != 2 || resp.UnprocessedImages != 1 || resp.StoredVideos != 4) {
				t.Errorf("backlog = %+v", resp)
			}
			if tt.statsErr != nil && resp.Error == "" {
				t.Error("expected error field when stats fail")
			}
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	f := newFixture(0)

	w := f.do(httptest.NewRequest(http.MethodGet, "/livez", http.NoBody))
	if w.Code != http.StatusOK {
		t.Errorf("GET status = %d", w.Code)
	}
	if body := decodeBody[map[string]string](t, w); body["status"] != "alive" {
		t.Errorf("body = %v", body)
	}

	w = f.do(httptest.NewRequest(http.MethodHead, "/livez", http.NoBody))
	if w.Code != http.StatusOK {
		t.Errorf("HEAD status = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("HEAD body = %q, want empty", w.Body.String())
	}
}

func TestReadinessCheck(t *testing.T) {
	f := newFixture(0)

	w := f.do(httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("before ready: status = %d, want 503", w.Code)
	}

	f.h.SetReady(true)
	w = f.do(httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	if w.Code != http.StatusOK {
		t.Errorf("after ready: status = %d, want 200", w.Code)
	}
	if body := decodeBody[map[string]string](t, w); body["status"] != "ready" {
		t.Errorf("body = %v", body)
	}
}

func TestMetricsHandler(t *testing.T) {
	metrics.InitializeMetrics()
	h := &Handlers{}

	w := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "media_pipeline_uploads_rejected_total") {
		t.Error("metrics output missing upload rejection counter")
	}
}
