package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// maxUploadBytes caps a single card image.
const maxUploadBytes = 10 << 20 // 10 MiB

var allowedImageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".webp": true, ".svg": true,
}

// MediaHandler stores and serves card images.
type MediaHandler struct {
	dir string
}

// NewMediaHandler creates a handler rooted at the media directory.
func NewMediaHandler(dir string) *MediaHandler {
	return &MediaHandler{dir: dir}
}

// safeName validates that the filename is a plain name (no path
// separators, no traversal) and returns the absolute path under the
// media dir.
func (h *MediaHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.dir, cleaned)
	if !strings.HasPrefix(abs, h.dir+string(os.PathSeparator)) && abs != h.dir {
		return "", fmt.Errorf("path escapes media directory")
	}
	return abs, nil
}

// imageExt picks the stored extension from the upload's content type,
// falling back to the original filename.
func imageExt(contentType, original string) (string, error) {
	if exts, err := mime.ExtensionsByType(contentType); err == nil {
		for _, e := range exts {
			if allowedImageExts[e] {
				return e, nil
			}
		}
	}
	ext := strings.ToLower(filepath.Ext(original))
	if allowedImageExts[ext] {
		return ext, nil
	}
	return "", fmt.Errorf("unsupported image type %q", contentType)
}

// ServeFile handles GET /media/{filename}.
func (h *MediaHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/media (multipart/form-data, field "file").
// The stored filename is generated, never the client's.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	ext, err := imageExt(header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	name, err := gonanoid.New()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to generate filename"))
		return
	}
	abs, err := h.safeName(name + ext)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create media dir"))
		return
	}

	dst, err := os.Create(abs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	writeJSON(w, http.StatusCreated, MediaUploadResponse{
		Filename: name + ext,
		Size:     written,
		URL:      "/media/" + name + ext,
	})
}
