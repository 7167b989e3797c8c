package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/datatypes"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/validation"
)

type AuditLogHandler struct {
	Query *audit.QueryService
}

func NewAuditLogHandler(q *audit.QueryService) *AuditLogHandler {
	return &AuditLogHandler{Query: q}
}

// List: GET /audit-log?actionType=&userId=&tableName=&dateFrom=&dateTo=&page=&limit=
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	var f audit.Filters
	if raw := r.URL.Query().Get("actionType"); raw != "" {
		canonical, ok := models.ValidAuditAction(raw)
		if !ok {
			httpx.Error(w, http.StatusBadRequest, "invalid actionType")
			return
		}
		f.ActionType = canonical
	}
	userID, err := queryUint(r, "userId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	f.UserID = userID
	f.TableName = r.URL.Query().Get("tableName")
	if f.DateFrom, err = queryDate(r, "dateFrom"); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.DateTo, err = queryDate(r, "dateTo"); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	page, limit := pageParams(r)
	entries, pagination, err := h.Query.List(f, page, limit)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{
		"auditLogs":  entries,
		"pagination": pagination,
	})
}

// Get: GET /audit-log/{id}
func (h *AuditLogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	entry, err := h.Query.Get(id)
	if err != nil {
		notFoundOr500(w, err, "Audit log entry not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"auditLog": entry})
}

// Create: POST /audit-log
//
// Manual entry path for administrative corrections. The actor becomes the
// recorded user regardless of the request body.
func (h *AuditLogHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		TableName  string          `json:"table_name"`
		RecordID   *uint           `json:"record_id"`
		ActionType string          `json:"action_type"`
		OldValue   json.RawMessage `json:"old_value"`
		NewValue   json.RawMessage `json:"new_value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.Required("table_name", req.TableName, v)
	validation.Required("action_type", req.ActionType, v)
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	entry := models.AuditLog{
		Table:           req.TableName,
		RecordID:        req.RecordID,
		ActionType:      req.ActionType,
		OldValue:        datatypes.JSON(req.OldValue),
		NewValue:        datatypes.JSON(req.NewValue),
		ChangedByUserID: actor.UserID,
	}
	if err := h.Query.Create(&entry); err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	httpx.Success(w, http.StatusCreated, map[string]any{"auditLog": entry})
}

// CleanupDuplicates: POST /audit-log/cleanup-duplicates
func (h *AuditLogHandler) CleanupDuplicates(w http.ResponseWriter, r *http.Request) {
	groups, deleted, err := h.Query.CleanupDuplicates()
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{
		"duplicate_groups": groups,
		"deleted_entries":  deleted,
	})
}
