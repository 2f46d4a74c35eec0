package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"media-pipeline/internal/middleware"
)

// RegisterRoutes attaches the probe and API routes to r. Upload bodies are
// capped at maxUpload bytes when it is positive.
func (h *Handlers) RegisterRoutes(r *mux.Router, maxUpload int64) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	api.HandleFunc("/media/{identifier}", h.GetImageStatus).Methods(http.MethodGet)

	uploads := api.NewRoute().Subrouter()
	if maxUpload > 0 {
		uploads.Use(middleware.MaxBody(maxUpload))
	}
	uploads.HandleFunc("/media", h.UploadImage).Methods(http.MethodPost)
	uploads.HandleFunc("/videos", h.UploadVideo).Methods(http.MethodPost)
}
