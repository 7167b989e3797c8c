package handlers

import (
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/services"
)

type ReportHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
	Fuel  *services.FuelService
}

func NewReportHandler(db *gorm.DB, rec *audit.Recorder, fuel *services.FuelService) *ReportHandler {
	return &ReportHandler{DB: db, Audit: rec, Fuel: fuel}
}

// FuelSummary: GET /reports/fuel-summary?siteId=N&from=...&to=...
//
// Report generation leaves a VIEW entry in the audit trail.
func (h *ReportHandler) FuelSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	siteID, err := queryUint(r, "siteId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := queryDate(r, "startDate")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryDate(r, "endDate")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.Fuel.SiteFuelSummary(siteID, from, to)
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.RecordView(actor.UserID, models.TableReports)
	httpx.Success(w, http.StatusOK, map[string]any{"summary": summary})
}

// DashboardStats: GET /dashboard/stats
func (h *ReportHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var sites, tanks, vehicles int64
	if err := h.DB.Model(&models.Site{}).Count(&sites).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	if err := h.DB.Model(&models.Tank{}).Count(&tanks).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	if err := h.DB.Model(&models.Vehicle{}).Count(&vehicles).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}

	var receivedThisMonth, consumedThisMonth, totalStock, totalCapacity float64
	if err := h.DB.Model(&models.DieselReceiving{}).
		Where("received_at >= ?", monthStart).
		Select("COALESCE(SUM(quantity_liters), 0)").
		Scan(&receivedThisMonth).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	if err := h.DB.Model(&models.DieselConsumption{}).
		Where("consumed_at >= ?", monthStart).
		Select("COALESCE(SUM(quantity_liters), 0)").
		Scan(&consumedThisMonth).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	if err := h.DB.Model(&models.Tank{}).
		Select("COALESCE(SUM(current_level_liters), 0)").
		Scan(&totalStock).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	if err := h.DB.Model(&models.Tank{}).
		Select("COALESCE(SUM(capacity_liters), 0)").
		Scan(&totalCapacity).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}

	httpx.Success(w, http.StatusOK, map[string]any{
		"sites":                      sites,
		"tanks":                      tanks,
		"vehicles":                   vehicles,
		"received_this_month_liters": receivedThisMonth,
		"consumed_this_month_liters": consumedThisMonth,
		"total_stock_liters":         totalStock,
		"total_capacity_liters":      totalCapacity,
	})
}
