package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-pipeline/internal/database"
	"media-pipeline/internal/logging"
	"media-pipeline/internal/media"
	"media-pipeline/internal/metrics"
	"media-pipeline/internal/middleware"
	"media-pipeline/internal/workers"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before parts spill to temporary files.
const multipartMemory = 32 << 20

var errMissingPart = errors.New("missing form part")

// UploadResponse is returned by the upload endpoints.
type UploadResponse struct {
	media.Handle
	Processed bool `json:"processed"`
}

// UploadImage accepts a multipart upload with an "original" part, an optional
// "cropped" part and an optional "background" flag.
func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireUser(w, r)
	if !ok {
		return
	}
	if !h.parseForm(w, r, "image") {
		return
	}
	defer cleanupForm(r)

	original, err := readPart(r, "original", true)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cropped, err := readPart(r, "cropped", false)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	background := false
	if v := r.FormValue("background"); v != "" {
		background, err = strconv.ParseBool(v)
		if err != nil {
			writeJSONError(w, "invalid background flag", http.StatusBadRequest)
			return
		}
	}

	handle, err := h.images.Generate(r.Context(), media.Upload{Original: original, Cropped: cropped}, owner, background)
	if err != nil {
		writeGenerationError(w, "image", err)
		return
	}

	logging.Debug("Image %s uploaded by user %d (background=%t)", handle.Identifier, owner, background)
	writeJSONStatusCode(w, http.StatusCreated, UploadResponse{Handle: handle, Processed: !background})
}

// UploadVideo accepts a multipart upload with a "video" part.
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireUser(w, r)
	if !ok {
		return
	}
	if !h.parseForm(w, r, "video") {
		return
	}
	defer cleanupForm(r)

	data, err := readPart(r, "video", true)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	handle, err := h.videos.Ingest(r.Context(), data, owner)
	if err != nil {
		writeGenerationError(w, "video", err)
		return
	}

	logging.Debug("Video %s uploaded by user %d", handle.Identifier, owner)
	writeJSONStatusCode(w, http.StatusCreated, UploadResponse{Handle: handle, Processed: true})
}

// GetImageStatus reports whether an image's derivatives are complete.
func (h *Handlers) GetImageStatus(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]
	img, err := h.store.GetImageByIdentifier(r.Context(), identifier)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "image not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logging.Error("Failed to look up image %s: %v", identifier, err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatusCode(w, http.StatusOK, img)
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.Header.Get(middleware.UserIDHeader)
	if raw == "" {
		writeJSONError(w, "authentication required", http.StatusUnauthorized)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handlers) parseForm(w http.ResponseWriter, r *http.Request, kind string) bool {
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		metrics.UploadsRejectedTotal.WithLabelValues(kind, "too_large").Inc()
		writeJSONError(w, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return false
	}
	writeJSONError(w, "expected multipart form upload", http.StatusBadRequest)
	return false
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm == nil {
		return
	}
	if err := r.MultipartForm.RemoveAll(); err != nil {
		logging.Warn("Failed to remove multipart temp files: %v", err)
	}
}

// readPart returns the bytes of the named file part, or nil when the part is
// absent and not required.
func readPart(r *http.Request, name string, required bool) ([]byte, error) {
	f, _, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, fmt.Errorf("%w: %s", errMissingPart, name)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Warn("Failed to close form part %s: %v", name, cerr)
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func writeGenerationError(w http.ResponseWriter, kind string, err error) {
	switch {
	case errors.Is(err, media.ErrInvalidMedia):
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, media.ErrUnknownOwner):
		writeJSONError(w, "unknown user", http.StatusForbidden)
	case errors.Is(err, workers.ErrPoolClosed):
		writeJSONError(w, "server is shutting down", http.StatusServiceUnavailable)
	default:
		logging.Error("Failed to process %s upload: %v", kind, err)
		writeJSONError(w, "internal error", http.StatusInternalServerError)
	}
}
