package handlers

import (
	"net/http"

	"github.com/caremypark/api/internal/storage"
	pkghttp "github.com/caremypark/api/pkg/http"
	"github.com/go-chi/chi/v5"
)

// UploadHandler serves stored report photos
type UploadHandler struct {
	store *storage.PhotoStore
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(store *storage.PhotoStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// ServeFile streams a stored photo by filename
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	path, err := h.store.FilePath(filename)
	if err != nil {
		pkghttp.WriteNotFound(w, "File not found")
		return
	}

	http.ServeFile(w, r, path)
}
