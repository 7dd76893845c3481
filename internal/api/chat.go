package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/carid/carid/internal/model"
	"github.com/carid/carid/internal/store"
)

// ChatHandler handles the per-transfer message thread. Clients poll with the
// last seen message id as the cursor.
type ChatHandler struct {
	DB *sql.DB
}

const maxMessageLength = 2000

type postMessageRequest struct {
	Body string `json:"body"`
}

// Post handles POST /api/transfers/{id}/messages.
func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.loadThread(w, r)
	if !ok {
		return
	}

	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		jsonError(w, http.StatusBadRequest, "message body required")
		return
	}
	if len(req.Body) > maxMessageLength {
		jsonError(w, http.StatusBadRequest, "message too long")
		return
	}

	msg, err := store.CreateMessage(r.Context(), h.DB, tr.ID, actor(r).ID, req.Body)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to post message")
		return
	}
	jsonResponse(w, http.StatusCreated, msg)
}

// List handles GET /api/transfers/{id}/messages?after=N, returning messages
// newer than the cursor in send order.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.loadThread(w, r)
	if !ok {
		return
	}

	var after int64
	if v := r.URL.Query().Get("after"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid after cursor")
			return
		}
		after = id
	}

	messages, err := store.ListMessages(r.Context(), h.DB, tr.ID, after)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}
	jsonResponse(w, http.StatusOK, messages)
}

// loadThread resolves the transfer and checks the caller may use its thread:
// the two parties and admins.
func (h *ChatHandler) loadThread(w http.ResponseWriter, r *http.Request) (*model.Transfer, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return nil, false
	}

	tr, err := store.GetTransfer(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get transfer")
		return nil, false
	}
	if tr == nil {
		jsonError(w, http.StatusNotFound, "transfer not found")
		return nil, false
	}

	a := actor(r)
	if !a.IsAdmin() && !tr.Party(a.ID) {
		jsonError(w, http.StatusForbidden, "not a party to this transfer")
		return nil, false
	}
	return tr, true
}
