package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/validation"
)

type SiteHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

func NewSiteHandler(db *gorm.DB, rec *audit.Recorder) *SiteHandler {
	return &SiteHandler{DB: db, Audit: rec}
}

// ListSites: GET /sites
func (h *SiteHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	var sites []models.Site
	if err := h.DB.Preload("Tanks").Order("site_id").Find(&sites).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"sites": sites})
}

// GetSite: GET /sites/{id}
func (h *SiteHandler) GetSite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var site models.Site
	if err := h.DB.Preload("Tanks").First(&site, "site_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Site not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"site": site})
}

// CreateSite: POST /sites
func (h *SiteHandler) CreateSite(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var site models.Site
	if err := decodeJSON(r, &site); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.Required("site_name", site.SiteName, v)
	validation.Required("location", site.Location, v)
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.DB.Create(&site).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableSites, &site.SiteID, models.AuditActionCreate, nil, site)
	httpx.Success(w, http.StatusCreated, map[string]any{"site": site})
}

// UpdateSite: PUT /sites/{id}
func (h *SiteHandler) UpdateSite(w http.ResponseWriter, r *http.Request) {
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
	updates := updatableFields(body, "site_name", "location", "division_id")
	if len(updates) == 0 {
		httpx.Error(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}
	var site models.Site
	if err := h.DB.First(&site, "site_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Site not found")
		return
	}
	if err := h.DB.Model(&site).Updates(updates).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableSites, &site.SiteID, models.AuditActionUpdate, site, updates)
	httpx.Success(w, http.StatusOK, map[string]any{"site": site})
}

// DeleteSite: DELETE /sites/{id}
func (h *SiteHandler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var site models.Site
	if err := h.DB.First(&site, "site_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Site not found")
		return
	}
	if err := h.DB.Delete(&site).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableSites, &site.SiteID, models.AuditActionDelete, site, nil)
	httpx.Success(w, http.StatusOK, nil)
}

// ListDivisions: GET /divisions
func (h *SiteHandler) ListDivisions(w http.ResponseWriter, r *http.Request) {
	var divisions []models.Division
	if err := h.DB.Order("division_id").Find(&divisions).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"divisions": divisions})
}

// CreateDivision: POST /divisions
func (h *SiteHandler) CreateDivision(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var division models.Division
	if err := decodeJSON(r, &division); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.Required("division_name", division.DivisionName, v)
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.DB.Create(&division).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableDivisions, &division.DivisionID, models.AuditActionCreate, nil, division)
	httpx.Success(w, http.StatusCreated, map[string]any{"division": division})
}

// GetDivision: GET /divisions/{id}
func (h *SiteHandler) GetDivision(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var division models.Division
	if err := h.DB.First(&division, "division_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Division not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"division": division})
}

// UpdateDivision: PUT /divisions/{id}
func (h *SiteHandler) UpdateDivision(w http.ResponseWriter, r *http.Request) {
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
	updates := updatableFields(body, "division_name", "description")
	if len(updates) == 0 {
		httpx.Error(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}
	var division models.Division
	if err := h.DB.First(&division, "division_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Division not found")
		return
	}
	if err := h.DB.Model(&division).Updates(updates).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableDivisions, &division.DivisionID, models.AuditActionUpdate, division, updates)
	httpx.Success(w, http.StatusOK, map[string]any{"division": division})
}

// DeleteDivision: DELETE /divisions/{id}
func (h *SiteHandler) DeleteDivision(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var division models.Division
	if err := h.DB.First(&division, "division_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Division not found")
		return
	}
	if err := h.DB.Delete(&division).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableDivisions, &division.DivisionID, models.AuditActionDelete, division, nil)
	httpx.Success(w, http.StatusOK, nil)
}
