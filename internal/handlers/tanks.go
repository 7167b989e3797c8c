package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/validation"
)

type TankHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

func NewTankHandler(db *gorm.DB, rec *audit.Recorder) *TankHandler {
	return &TankHandler{DB: db, Audit: rec}
}

// List: GET /tanks?siteId=N
func (h *TankHandler) List(w http.ResponseWriter, r *http.Request) {
	siteID, err := queryUint(r, "siteId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	q := h.DB.Preload("Site").Order("tank_id")
	if siteID != nil {
		q = q.Where("site_id = ?", *siteID)
	}
	var tanks []models.Tank
	if err := q.Find(&tanks).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"tanks": tanks})
}

// Get: GET /tanks/{id}
func (h *TankHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var tank models.Tank
	if err := h.DB.Preload("Site").First(&tank, "tank_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Tank not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"tank": tank})
}

// Create: POST /tanks
func (h *TankHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var tank models.Tank
	if err := decodeJSON(r, &tank); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.Required("tank_name", tank.TankName, v)
	validation.RequiredID("site_id", tank.SiteID, v)
	validation.PositiveFloat("capacity_liters", tank.CapacityLiters, v)
	if tank.CapacityLiters > 0 {
		validation.RangeFloat("current_level_liters", tank.CurrentLevelLiters, 0, tank.CapacityLiters, v)
	}
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var site models.Site
	if err := h.DB.First(&site, "site_id = ?", tank.SiteID).Error; err != nil {
		httpx.Error(w, http.StatusBadRequest, "unknown site")
		return
	}
	if err := h.DB.Create(&tank).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableTanks, &tank.TankID, models.AuditActionCreate, nil, tank)
	httpx.Success(w, http.StatusCreated, map[string]any{"tank": tank})
}

// Update: PUT /tanks/{id}
func (h *TankHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	updates := updatableFields(body, "tank_name", "capacity_liters", "current_level_liters", "site_id")
	if len(updates) == 0 {
		httpx.Error(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}
	var tank models.Tank
	if err := h.DB.First(&tank, "tank_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Tank not found")
		return
	}
	if err := h.DB.Model(&tank).Updates(updates).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableTanks, &tank.TankID, models.AuditActionUpdate, tank, updates)
	httpx.Success(w, http.StatusOK, map[string]any{"tank": tank})
}

// Delete: DELETE /tanks/{id}
func (h *TankHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var tank models.Tank
	if err := h.DB.First(&tank, "tank_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Tank not found")
		return
	}
	if err := h.DB.Delete(&tank).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableTanks, &tank.TankID, models.AuditActionDelete, tank, nil)
	httpx.Success(w, http.StatusOK, nil)
}
