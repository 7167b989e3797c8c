package handlers

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/auth"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/validation"
)

type AuthHandler struct {
	DB    *gorm.DB
	Auth  *auth.Manager
	Audit *audit.Recorder
}

func NewAuthHandler(db *gorm.DB, mgr *auth.Manager, rec *audit.Recorder) *AuthHandler {
	return &AuthHandler{DB: db, Auth: mgr, Audit: rec}
}

// Login: POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeNumber string `json:"employee_number"`
		Password       string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.EmployeeNumber == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "Please provide employee number and password")
		return
	}
	var user models.User
	if err := h.DB.Preload("Role").Where("employee_number = ?", req.EmployeeNumber).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.Error(w, http.StatusUnauthorized, "Incorrect employee number or password")
			return
		}
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		httpx.Error(w, http.StatusUnauthorized, "Incorrect employee number or password")
		return
	}
	token, err := h.Auth.Sign(user.EmployeeID, user.Role.RoleName)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"token":  token,
		"data":   map[string]any{"user": user},
	})
}

// Register: POST /auth/register (admin only, wired behind the role guard)
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		EmployeeNumber string `json:"employee_number"`
		EmployeeName   string `json:"employee_name"`
		QatarIDNumber  string `json:"qatar_id_number"`
		Profession     string `json:"profession"`
		MobileNumber   string `json:"mobile_number"`
		Password       string `json:"password"`
		Role           string `json:"role"`
		SiteID         *uint  `json:"site_id"`
		DivisionID     *uint  `json:"division_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.Required("employee_number", req.EmployeeNumber, v)
	validation.Required("employee_name", req.EmployeeName, v)
	validation.Required("role", req.Role, v)
	validation.MinLength("password", req.Password, 6, v)
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var role models.Role
	if err := h.DB.Where("role_name = ?", req.Role).First(&role).Error; err != nil {
		httpx.Error(w, http.StatusBadRequest, "unknown role")
		return
	}
	var existing int64
	h.DB.Model(&models.User{}).Where("employee_number = ?", req.EmployeeNumber).Count(&existing)
	if existing > 0 {
		httpx.Error(w, http.StatusBadRequest, "User already exists with this employee number")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	user := models.User{
		EmployeeNumber: req.EmployeeNumber,
		EmployeeName:   req.EmployeeName,
		QatarIDNumber:  req.QatarIDNumber,
		Profession:     req.Profession,
		MobileNumber:   req.MobileNumber,
		PasswordHash:   string(hash),
		RoleID:         role.RoleID,
		SiteID:         req.SiteID,
		DivisionID:     req.DivisionID,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableUsers, &user.EmployeeID, models.AuditActionCreate, nil, user)
	httpx.Success(w, http.StatusCreated, map[string]any{"user": user})
}
