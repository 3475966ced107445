package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ImageHandler serves student portraits from a flat asset directory.
type ImageHandler struct {
	dir string
}

// NewImageHandler creates a handler rooted at the image directory.
func NewImageHandler(dir string) *ImageHandler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &ImageHandler{dir: filepath.Clean(dir)}
}

// safeName validates that the filename is a plain name (no path separators,
// no traversal) and returns the absolute path under the image dir.
func (h *ImageHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	abs := filepath.Join(h.dir, cleaned)
	if !strings.HasPrefix(abs, h.dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes image directory")
	}
	return abs, nil
}

// ServeFile handles GET /images/{filename}.
func (h *ImageHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	info, statErr := os.Stat(abs)
	if statErr != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
