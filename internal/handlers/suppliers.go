package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/validation"
)

type SupplierHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

func NewSupplierHandler(db *gorm.DB, rec *audit.Recorder) *SupplierHandler {
	return &SupplierHandler{DB: db, Audit: rec}
}

// ListSuppliers: GET /suppliers
func (h *SupplierHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	var suppliers []models.Supplier
	if err := h.DB.Order("supplier_id").Find(&suppliers).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"suppliers": suppliers})
}

// CreateSupplier: POST /suppliers
func (h *SupplierHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var supplier models.Supplier
	if err := decodeJSON(r, &supplier); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.Required("supplier_name", supplier.SupplierName, v)
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.DB.Create(&supplier).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableSuppliers, &supplier.SupplierID, models.AuditActionCreate, nil, supplier)
	httpx.Success(w, http.StatusCreated, map[string]any{"supplier": supplier})
}

// GetSupplier: GET /suppliers/{id}
func (h *SupplierHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var supplier models.Supplier
	if err := h.DB.First(&supplier, "supplier_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Supplier not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"supplier": supplier})
}

// UpdateSupplier: PUT /suppliers/{id}
func (h *SupplierHandler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
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
	updates := updatableFields(body, "supplier_name", "contact_number", "address")
	if len(updates) == 0 {
		httpx.Error(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}
	var supplier models.Supplier
	if err := h.DB.First(&supplier, "supplier_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Supplier not found")
		return
	}
	if err := h.DB.Model(&supplier).Updates(updates).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableSuppliers, &supplier.SupplierID, models.AuditActionUpdate, supplier, updates)
	httpx.Success(w, http.StatusOK, map[string]any{"supplier": supplier})
}

// DeleteSupplier: DELETE /suppliers/{id}
func (h *SupplierHandler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var supplier models.Supplier
	if err := h.DB.First(&supplier, "supplier_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Supplier not found")
		return
	}
	if err := h.DB.Delete(&supplier).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableSuppliers, &supplier.SupplierID, models.AuditActionDelete, supplier, nil)
	httpx.Success(w, http.StatusOK, nil)
}

// ListJobs: GET /jobs-projects?siteId=N
func (h *SupplierHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	siteID, err := queryUint(r, "siteId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	q := h.DB.Order("job_id")
	if siteID != nil {
		q = q.Where("site_id = ?", *siteID)
	}
	var jobs []models.JobProject
	if err := q.Find(&jobs).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// CreateJob: POST /jobs-projects
func (h *SupplierHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var job models.JobProject
	if err := decodeJSON(r, &job); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.Required("job_name", job.JobName, v)
	validation.RequiredID("site_id", job.SiteID, v)
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.DB.Create(&job).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableJobsProjects, &job.JobID, models.AuditActionCreate, nil, job)
	httpx.Success(w, http.StatusCreated, map[string]any{"job": job})
}

// GetJob: GET /jobs-projects/{id}
func (h *SupplierHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var job models.JobProject
	if err := h.DB.First(&job, "job_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Job not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"job": job})
}

// UpdateJob: PUT /jobs-projects/{id}
func (h *SupplierHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
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
	updates := updatableFields(body, "job_name", "description", "site_id")
	if len(updates) == 0 {
		httpx.Error(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}
	var job models.JobProject
	if err := h.DB.First(&job, "job_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Job not found")
		return
	}
	if err := h.DB.Model(&job).Updates(updates).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableJobsProjects, &job.JobID, models.AuditActionUpdate, job, updates)
	httpx.Success(w, http.StatusOK, map[string]any{"job": job})
}

// DeleteJob: DELETE /jobs-projects/{id}
func (h *SupplierHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var job models.JobProject
	if err := h.DB.First(&job, "job_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Job not found")
		return
	}
	if err := h.DB.Delete(&job).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableJobsProjects, &job.JobID, models.AuditActionDelete, job, nil)
	httpx.Success(w, http.StatusOK, nil)
}
