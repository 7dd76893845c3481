package api

import (
	"net/http"

	"github.com/carid/carid/internal/files"
)

// FilesHandler serves uploaded documents from local storage. Everything under
// /files/ sits behind authentication, the store rejects path traversal.
type FilesHandler struct {
	Files *files.Store
}

// Serve handles GET /files/{path...}.
func (h *FilesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	path, err := h.Files.Resolve(r.URL.Path)
	if err != nil {
		jsonError(w, http.StatusNotFound, "file not found")
		return
	}
	http.ServeFile(w, r, path)
}
