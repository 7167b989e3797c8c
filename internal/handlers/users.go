package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/validation"
)

type UserHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

func NewUserHandler(db *gorm.DB, rec *audit.Recorder) *UserHandler {
	return &UserHandler{DB: db, Audit: rec}
}

// List: GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.DB.Preload("Role").Order("employee_id").Find(&users).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"users": users})
}

// Get: GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var user models.User
	if err := h.DB.Preload("Role").First(&user, "employee_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "User not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"user": user})
}

// Update: PUT /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	updates := updatableFields(body, "employee_name", "qatar_id_number", "profession", "mobile_number", "role_id", "site_id", "division_id")
	if len(updates) == 0 {
		httpx.Error(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}
	var user models.User
	if err := h.DB.First(&user, "employee_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "User not found")
		return
	}
	if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableUsers, &user.EmployeeID, models.AuditActionUpdate, user, updates)
	httpx.Success(w, http.StatusOK, map[string]any{"user": user})
}

// Delete: DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var user models.User
	if err := h.DB.First(&user, "employee_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "User not found")
		return
	}
	if err := h.DB.Delete(&user).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableUsers, &user.EmployeeID, models.AuditActionDelete, user, nil)
	httpx.Success(w, http.StatusOK, nil)
}

// Roles: GET /roles
func (h *UserHandler) Roles(w http.ResponseWriter, r *http.Request) {
	var roles []models.Role
	if err := h.DB.Order("role_id").Find(&roles).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"roles": roles})
}

// GetRole: GET /roles/{id}
func (h *UserHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var role models.Role
	if err := h.DB.First(&role, "role_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Role not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"role": role})
}

// CreateRole: POST /roles
func (h *UserHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var role models.Role
	if err := decodeJSON(r, &role); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.Required("role_name", role.RoleName, v)
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	if err := h.DB.Create(&role).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableRoles, &role.RoleID, models.AuditActionCreate, nil, role)
	httpx.Success(w, http.StatusCreated, map[string]any{"role": role})
}

// UpdateRole: PUT /roles/{id}
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
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
	updates := updatableFields(body, "role_name", "description")
	if len(updates) == 0 {
		httpx.Error(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}
	var role models.Role
	if err := h.DB.First(&role, "role_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Role not found")
		return
	}
	if err := h.DB.Model(&role).Updates(updates).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableRoles, &role.RoleID, models.AuditActionUpdate, role, updates)
	httpx.Success(w, http.StatusOK, map[string]any{"role": role})
}

// DeleteRole: DELETE /roles/{id}
func (h *UserHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var role models.Role
	if err := h.DB.First(&role, "role_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Role not found")
		return
	}
	var assigned int64
	h.DB.Model(&models.User{}).Where("role_id = ?", role.RoleID).Count(&assigned)
	if assigned > 0 {
		httpx.Error(w, http.StatusBadRequest, "Role is still assigned to users")
		return
	}
	if err := h.DB.Delete(&role).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableRoles, &role.RoleID, models.AuditActionDelete, role, nil)
	httpx.Success(w, http.StatusOK, nil)
}
