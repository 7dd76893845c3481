package api

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/carid/carid/internal/store"
)

// ProfileHandler handles the caller's own profile.
type ProfileHandler struct {
	DB *sql.DB
}

type profileRequest struct {
	Phone          string `json:"phone"`
	DocumentNumber string `json:"document_number"`
	City           string `json:"city"`
}

type profileResponse struct {
	Phone          string `json:"phone"`
	DocumentNumber string `json:"document_number"`
	City           string `json:"city"`
	Complete       bool   `json:"complete"`
}

// Get handles GET /api/profile. An account with no saved profile yet gets an
// empty, incomplete one rather than a 404.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	profile, err := store.GetProfileByUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}

	resp := profileResponse{Complete: profile.Complete()}
	if profile != nil {
		resp.Phone = profile.Phone
		resp.DocumentNumber = profile.DocumentNumber
		resp.City = profile.City
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Update handles PUT /api/profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.DocumentNumber = strings.TrimSpace(req.DocumentNumber)
	req.City = strings.TrimSpace(req.City)

	profile, err := store.UpsertProfile(r.Context(), h.DB, claims.UserID, req.Phone, req.DocumentNumber, req.City)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	jsonResponse(w, http.StatusOK, profileResponse{
		Phone:          profile.Phone,
		DocumentNumber: profile.DocumentNumber,
		City:           profile.City,
		Complete:       profile.Complete(),
	})
}
