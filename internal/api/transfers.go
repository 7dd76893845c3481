package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/carid/carid/internal/model"
	"github.com/carid/carid/internal/store"
	"github.com/carid/carid/internal/transfer"
)

// TransfersHandler handles ownership transfer endpoints.
type TransfersHandler struct {
	DB      *sql.DB
	Service *transfer.Service
}

type createTransferRequest struct {
	CarID      int64  `json:"car_id"`
	BuyerEmail string `json:"buyer_email"`
	SalePrice  string `json:"sale_price"`
	Notes      string `json:"notes"`
}

type transferActionRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

// Create handles POST /api/transfers.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CarID <= 0 || req.BuyerEmail == "" || req.SalePrice == "" {
		jsonError(w, http.StatusBadRequest, "car_id, buyer_email, and sale_price required")
		return
	}

	price, err := decimal.NewFromString(req.SalePrice)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid sale_price")
		return
	}

	tr, err := h.Service.Initiate(r.Context(), actor(r), req.CarID, req.BuyerEmail, price, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("transfer initiated", "user", GetClaims(r.Context()).Email,
		"transfer", tr.ID, "car", tr.CarPlate, "buyer", tr.BuyerEmail)
	jsonResponse(w, http.StatusCreated, tr)
}

// List handles GET /api/transfers. Admins see every transfer, everyone else
// only transfers they are a party to.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !model.ValidStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	a := actor(r)
	userID := a.ID
	if a.IsAdmin() {
		userID = 0
	}

	transfers, err := store.ListTransfers(r.Context(), h.DB, userID, status)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list transfers")
		return
	}
	if transfers == nil {
		transfers = []model.Transfer{}
	}
	jsonResponse(w, http.StatusOK, transfers)
}

// Get handles GET /api/transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.loadVisible(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, tr)
}

// Action handles POST /api/transfers/{id}/actions. Who may perform which
// action is decided by the transition rules, not here.
func (h *TransfersHandler) Action(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid transfer id")
		return
	}

	var req transferActionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tr, err := h.Service.RecordAction(r.Context(), actor(r), id, req.Action, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("transfer action", "user", GetClaims(r.Context()).Email,
		"transfer", tr.ID, "action", req.Action, "status", tr.Status)
	jsonResponse(w, http.StatusOK, tr)
}

// loadVisible loads the transfer from the path and enforces read access:
// parties and admins only. Errors are written to the response.
func (h *TransfersHandler) loadVisible(w http.ResponseWriter, r *http.Request) (*model.Transfer, bool) {
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
