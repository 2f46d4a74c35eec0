package main

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"media-pipeline/internal/database"
	"media-pipeline/internal/handlers"
	"media-pipeline/internal/media"
	"media-pipeline/internal/metrics"
)

type stubStore struct{}

func (stubStore) GetImageByIdentifier(context.Context, string) (*database.Image, error) {
	return nil, database.ErrNotFound
}

func (stubStore) PipelineStats(context.Context) (metrics.Stats, error) {
	return metrics.Stats{}, nil
}

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, media.Upload, int64, bool) (media.Handle, error) {
	return media.Handle{}, nil
}

type stubIngester struct{}

func (stubIngester) Ingest(context.Context, []byte, int64) (media.Handle, error) {
	return media.Handle{}, nil
}

func captureAccessLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestNewHandlerRoutes(t *testing.T) {
	h := handlers.New(stubGenerator{}, stubIngester{}, stubStore{})
	router, handler := newHandler(h, 1<<20, false)
	if router == nil || handler == nil {
		t.Fatal("newHandler returned nil")
	}

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/livez", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/media/unknown", http.StatusNotFound},
		{http.MethodPost, "/api/media", http.StatusUnauthorized},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, http.NoBody))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestNewHandlerAccessLog(t *testing.T) {
	buf := captureAccessLog(t)

	h := handlers.New(stubGenerator{}, stubIngester{}, stubStore{})
	_, handler := newHandler(h, 1<<20, false)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/media/abc", http.NoBody))
	if !strings.Contains(buf.String(), "/api/media/abc") {
		t.Errorf("access log missing request line: %q", buf.String())
	}

	buf.Reset()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", http.NoBody))
	if strings.Contains(buf.String(), "/livez") {
		t.Errorf("health probe should not be logged: %q", buf.String())
	}
}
