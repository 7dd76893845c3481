package api

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/carid/carid/internal/model"
	"github.com/carid/carid/internal/transfer"
)

// DocumentsHandler handles transfer document endpoints.
type DocumentsHandler struct {
	DB      *sql.DB
	Service *transfer.Service
}

type verifyDocumentRequest struct {
	Verified bool `json:"verified"`
}

// Upload handles POST /api/transfers/{id}/documents, a multipart form with a
// "file" part and a "type" field.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, transfer.MaxDocumentSize+4096)
	if err := r.ParseMultipartForm(transfer.MaxDocumentSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	documentType := r.FormValue("type")
	if documentType == "" {
		jsonError(w, http.StatusBadRequest, "type field required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	doc, err := h.Service.UploadDocument(r.Context(), actor(r), id, documentType, header.Filename, data)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("document uploaded", "user", GetClaims(r.Context()).Email,
		"transfer", id, "type", doc.DocumentType)
	jsonResponse(w, http.StatusCreated, doc)
}

// List handles GET /api/transfers/{id}/documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	docs, err := h.Service.ListDocuments(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []model.TransferDocument{}
	}
	jsonResponse(w, http.StatusOK, docs)
}

// Verify handles PUT /api/transfers/{id}/documents/{docID}/verification.
func (h *DocumentsHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}
	docID, err := strconv.ParseInt(r.PathValue("docID"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	var req verifyDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := h.Service.VerifyDocument(r.Context(), actor(r), id, docID, req.Verified)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("document verification", "user", GetClaims(r.Context()).Email,
		"transfer", id, "document", docID, "verified", req.Verified)
	jsonResponse(w, http.StatusOK, doc)
}
