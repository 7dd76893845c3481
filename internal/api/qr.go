package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/carid/carid/internal/qr"
	"github.com/carid/carid/internal/store"
)

// QRHandler serves car QR codes and resolves scanned payloads.
type QRHandler struct {
	DB *sql.DB
}

type resolveQRRequest struct {
	Payload string `json:"payload"`
}

// Image handles GET /api/cars/{id}/qr, returning a PNG encoding the car's
// payload for windshield stickers and service paperwork.
func (h *QRHandler) Image(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid car id")
		return
	}

	car, err := store.GetCar(r.Context(), h.DB, id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get car")
		return
	}
	if car == nil || car.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "car not found")
		return
	}
	if !canViewCar(actor(r), car) {
		jsonError(w, http.StatusForbidden, "not your car")
		return
	}

	png, err := qr.PNG(car.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Resolve handles POST /api/qr/resolve, mapping a scanned payload back to a
// car. Mechanics use this to pull up the vehicle they are servicing.
func (h *QRHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveQRRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	carID, err := qr.ParsePayload(req.Payload)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "unrecognized QR payload")
		return
	}

	car, err := store.GetCar(r.Context(), h.DB, carID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get car")
		return
	}
	if car == nil || car.DeletedAt != nil || !canViewCar(actor(r), car) {
		jsonError(w, http.StatusNotFound, "car not found")
		return
	}
	jsonResponse(w, http.StatusOK, car)
}
