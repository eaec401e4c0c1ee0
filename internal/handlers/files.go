package handlers

import (
	"net/http"
	"path/filepath"
	"regexp"

	"github.com/go-chi/chi/v5"
)

// Stored names are generated server-side (ULID prefix plus sanitized
// original). Anything else is rejected before touching the filesystem.
var storedNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,150}$`)

// ServeFile serves a previously uploaded file or thumbnail.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !storedNameRegex.MatchString(name) {
		h.Error(w, http.StatusBadRequest, "invalid file name")
		return
	}
	http.ServeFile(w, r, filepath.Join(h.uploads.Dir, name))
}
