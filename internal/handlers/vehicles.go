package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/validation"
)

type VehicleHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

func NewVehicleHandler(db *gorm.DB, rec *audit.Recorder) *VehicleHandler {
	return &VehicleHandler{DB: db, Audit: rec}
}

// List: GET /vehicles-equipment?siteId=N
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	siteID, err := queryUint(r, "siteId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	q := h.DB.Order("vehicle_id")
	if siteID != nil {
		q = q.Where("site_id = ?", *siteID)
	}
	var vehicles []models.Vehicle
	if err := q.Find(&vehicles).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"vehicles": vehicles})
}

// Get: GET /vehicles-equipment/{id}
func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var vehicle models.Vehicle
	if err := h.DB.First(&vehicle, "vehicle_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Vehicle not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"vehicle": vehicle})
}

// Create: POST /vehicles-equipment
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var vehicle models.Vehicle
	if err := decodeJSON(r, &vehicle); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.Required("vehicle_number", vehicle.VehicleNumber, v)
	validation.Required("type", vehicle.Type, v)
	if vehicle.DailyLimitLiters < 0 {
		v["daily_limit_liters"] = "must_be_positive"
	}
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.DB.Create(&vehicle).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableVehicles, &vehicle.VehicleID, models.AuditActionCreate, nil, vehicle)
	httpx.Success(w, http.StatusCreated, map[string]any{"vehicle": vehicle})
}

// Update: PUT /vehicles-equipment/{id}
func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	updates := updatableFields(body, "vehicle_number", "type", "model", "plate_number", "machine_id", "daily_limit_liters", "site_id")
	if len(updates) == 0 {
		httpx.Error(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}
	var vehicle models.Vehicle
	if err := h.DB.First(&vehicle, "vehicle_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Vehicle not found")
		return
	}
	if err := h.DB.Model(&vehicle).Updates(updates).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableVehicles, &vehicle.VehicleID, models.AuditActionUpdate, vehicle, updates)
	httpx.Success(w, http.StatusOK, map[string]any{"vehicle": vehicle})
}

// Delete: DELETE /vehicles-equipment/{id}
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var vehicle models.Vehicle
	if err := h.DB.First(&vehicle, "vehicle_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Vehicle not found")
		return
	}
	if err := h.DB.Delete(&vehicle).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableVehicles, &vehicle.VehicleID, models.AuditActionDelete, vehicle, nil)
	httpx.Success(w, http.StatusOK, nil)
}
