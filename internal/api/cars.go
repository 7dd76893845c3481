package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carid/carid/internal/model"
	"github.com/carid/carid/internal/store"
)

// CarsHandler handles car CRUD endpoints.
type CarsHandler struct {
	DB *sql.DB
}

type createCarRequest struct {
	VIN     string `json:"vin"`
	Plate   string `json:"plate"`
	Make    string `json:"make"`
	Model   string `json:"model"`
	Year    int    `json:"year"`
	Color   string `json:"color"`
	OwnerID int64  `json:"owner_id"` // admin only, defaults to the caller
}

type updateCarRequest struct {
	Plate string `json:"plate"`
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Color string `json:"color"`
}

// canViewCar reports whether the caller may read the car. Mechanics and
// admins may look up any vehicle, owners only their own.
func canViewCar(a model.Actor, car *model.Car) bool {
	return a.Role == model.RoleAdmin || a.Role == model.RoleMechanic || car.OwnerID == a.ID
}

// Create handles POST /api/cars.
func (h *CarsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCarRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.VIN = strings.ToUpper(strings.TrimSpace(req.VIN))
	req.Plate = strings.ToUpper(strings.TrimSpace(req.Plate))
	if req.VIN == "" || req.Plate == "" || req.Make == "" || req.Model == "" {
		jsonError(w, http.StatusBadRequest, "vin, plate, make, and model required")
		return
	}
	if req.Year != 0 && (req.Year < 1900 || req.Year > time.Now().Year()+1) {
		jsonError(w, http.StatusBadRequest, "invalid year")
		return
	}

	a := actor(r)
	ownerID := a.ID
	if req.OwnerID > 0 && req.OwnerID != a.ID {
		if !a.IsAdmin() {
			jsonError(w, http.StatusForbidden, "only admins can register a car for another owner")
			return
		}
		ownerID = req.OwnerID
	}

	car, err := store.CreateCar(r.Context(), h.DB, ownerID, req.VIN, req.Plate, req.Make, req.Model, req.Year, req.Color)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to register car, vin may already exist")
		return
	}

	slog.Info("car registered", "user", GetClaims(r.Context()).Email, "plate", car.Plate)
	jsonResponse(w, http.StatusCreated, car)
}

// List handles GET /api/cars. Admins see the full registry, everyone else
// their own cars.
func (h *CarsHandler) List(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	ownerID := a.ID
	if a.IsAdmin() {
		ownerID = 0
	}

	cars, err := store.ListCars(r.Context(), h.DB, ownerID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list cars")
		return
	}
	if cars == nil {
		cars = []model.Car{}
	}
	jsonResponse(w, http.StatusOK, cars)
}

// Find handles GET /api/cars/lookup?q=, matching a plate or VIN exactly.
func (h *CarsHandler) Find(w http.ResponseWriter, r *http.Request) {
	q := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("q")))
	if q == "" {
		jsonError(w, http.StatusBadRequest, "q query parameter required")
		return
	}

	car, err := store.FindCar(r.Context(), h.DB, q)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to look up car")
		return
	}
	if car == nil || !canViewCar(actor(r), car) {
		jsonError(w, http.StatusNotFound, "car not found")
		return
	}
	jsonResponse(w, http.StatusOK, car)
}

// Get handles GET /api/cars/{id}.
func (h *CarsHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	jsonResponse(w, http.StatusOK, car)
}

// Update handles PUT /api/cars/{id}. Ownership never changes here, only a
// completed transfer reassigns a car.
func (h *CarsHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	a := actor(r)
	if !a.IsAdmin() && car.OwnerID != a.ID {
		jsonError(w, http.StatusForbidden, "not your car")
		return
	}

	var req updateCarRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Plate = strings.ToUpper(strings.TrimSpace(req.Plate))
	if req.Plate == "" || req.Make == "" || req.Model == "" {
		jsonError(w, http.StatusBadRequest, "plate, make, and model required")
		return
	}

	if err := store.UpdateCar(r.Context(), h.DB, id, req.Plate, req.Make, req.Model, req.Year, req.Color); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update car")
		return
	}

	updated, err := store.GetCar(r.Context(), h.DB, id)
	if err != nil || updated == nil {
		jsonError(w, http.StatusInternalServerError, "failed to get car")
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/cars/{id}.
func (h *CarsHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	a := actor(r)
	if !a.IsAdmin() && car.OwnerID != a.ID {
		jsonError(w, http.StatusForbidden, "not your car")
		return
	}

	if err := store.DeleteCar(r.Context(), h.DB, id); err != nil {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}

	slog.Info("car deleted", "user", GetClaims(r.Context()).Email, "plate", car.Plate)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "car deleted"})
}
