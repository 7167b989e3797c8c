package handlers

import (
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/services"
	"github.com/fleetops/fueltrack/internal/validation"
)

type ConsumptionHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
	Fuel  *services.FuelService
}

func NewConsumptionHandler(db *gorm.DB, rec *audit.Recorder, fuel *services.FuelService) *ConsumptionHandler {
	return &ConsumptionHandler{DB: db, Audit: rec, Fuel: fuel}
}

// List: GET /diesel-consumption?siteId=N&vehicleId=N&from=...&to=...
func (h *ConsumptionHandler) List(w http.ResponseWriter, r *http.Request) {
	siteID, err := queryUint(r, "siteId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	vehicleID, err := queryUint(r, "vehicleId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := queryDate(r, "from")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	q := h.DB.Preload("Site").Preload("Tank").Preload("Vehicle").Order("consumed_at DESC, consumption_id DESC")
	if siteID != nil {
		q = q.Where("site_id = ?", *siteID)
	}
	if vehicleID != nil {
		q = q.Where("vehicle_id = ?", *vehicleID)
	}
	if from != nil {
		q = q.Where("consumed_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("consumed_at <= ?", *to)
	}
	var records []models.DieselConsumption
	if err := q.Find(&records).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"consumptions": records})
}

// Get: GET /diesel-consumption/{id}
func (h *ConsumptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var record models.DieselConsumption
	if err := h.DB.Preload("Site").Preload("Tank").Preload("Vehicle").First(&record, "consumption_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Consumption record not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"consumption": record})
}

// Create: POST /diesel-consumption
func (h *ConsumptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		QuantityLiters  float64    `json:"quantity_liters"`
		Shift           string     `json:"shift"`
		JobNumber       string     `json:"job_number"`
		OdometerKmHours float64    `json:"odometer_km_hours"`
		SiteID          uint       `json:"site_id"`
		TankID          uint       `json:"tank_id"`
		VehicleID       uint       `json:"vehicle_id"`
		OperatorID      *uint      `json:"operator_id"`
		ConsumedAt      *time.Time `json:"consumed_at"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.PositiveFloat("quantity_liters", req.QuantityLiters, v)
	validation.RequiredID("site_id", req.SiteID, v)
	validation.RequiredID("tank_id", req.TankID, v)
	validation.RequiredID("vehicle_id", req.VehicleID, v)
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	operatorID := actor.UserID
	if req.OperatorID != nil {
		operatorID = *req.OperatorID
	}
	consumedAt := time.Now()
	if req.ConsumedAt != nil {
		consumedAt = *req.ConsumedAt
	}

	var record models.DieselConsumption
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var tank models.Tank
		if err := tx.First(&tank, "tank_id = ? AND site_id = ?", req.TankID, req.SiteID).Error; err != nil {
			return err
		}
		if err := h.Fuel.CheckIssueStock(&tank, req.QuantityLiters); err != nil {
			return err
		}
		var vehicle models.Vehicle
		if err := tx.First(&vehicle, "vehicle_id = ?", req.VehicleID).Error; err != nil {
			return err
		}
		if err := h.Fuel.CheckDailyLimit(&vehicle, req.QuantityLiters); err != nil {
			return err
		}
		record = models.DieselConsumption{
			QuantityLiters:  req.QuantityLiters,
			Shift:           req.Shift,
			JobNumber:       req.JobNumber,
			OdometerKmHours: req.OdometerKmHours,
			SiteID:          req.SiteID,
			TankID:          req.TankID,
			VehicleID:       req.VehicleID,
			OperatorID:      operatorID,
			ConsumedAt:      consumedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		return tx.Model(&tank).
			Update("current_level_liters", gorm.Expr("current_level_liters - ?", req.QuantityLiters)).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			httpx.Error(w, http.StatusBadRequest, "Tank or vehicle not found")
		case errors.Is(err, services.ErrInsufficientDiesel):
			httpx.Error(w, http.StatusBadRequest, "Insufficient diesel in tank")
		case errors.Is(err, services.ErrDailyLimitExceeded):
			httpx.Error(w, http.StatusBadRequest, "Daily consumption limit exceeded for this vehicle")
		default:
			httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		}
		return
	}

	h.Audit.Record(actor.UserID, models.TableDieselConsumption, &record.ConsumptionID, models.AuditActionCreate, nil, record)
	httpx.Success(w, http.StatusCreated, map[string]any{"consumption": record})
}

// Update: PUT /diesel-consumption/{id}
func (h *ConsumptionHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	updates := updatableFields(body, "quantity_liters", "shift", "job_number", "odometer_km_hours")
	if len(updates) == 0 {
		httpx.Error(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}
	if raw, ok := updates["quantity_liters"]; ok {
		qty, isNum := raw.(float64)
		v := validation.Violations{}
		if !isNum {
			v["quantity_liters"] = "must_be_positive"
		} else {
			validation.PositiveFloat("quantity_liters", qty, v)
		}
		if !v.Empty() {
			httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
	}
	var record models.DieselConsumption
	if err := h.DB.First(&record, "consumption_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Consumption record not found")
		return
	}
	oldRecord := record

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if raw, ok := updates["quantity_liters"]; ok {
			delta := raw.(float64) - record.QuantityLiters
			var tank models.Tank
			if err := tx.First(&tank, "tank_id = ?", record.TankID).Error; err != nil {
				return err
			}
			if delta > 0 {
				if err := h.Fuel.CheckIssueStock(&tank, delta); err != nil {
					return err
				}
			}
			if err := tx.Model(&tank).
				Update("current_level_liters", gorm.Expr("current_level_liters - ?", delta)).Error; err != nil {
				return err
			}
		}
		return tx.Model(&record).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, services.ErrInsufficientDiesel) {
			httpx.Error(w, http.StatusBadRequest, "Insufficient diesel in tank")
		} else {
			httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		}
		return
	}

	h.Audit.Record(actor.UserID, models.TableDieselConsumption, &record.ConsumptionID, models.AuditActionUpdate, oldRecord, updates)
	httpx.Success(w, http.StatusOK, map[string]any{"consumption": record})
}

// Delete: DELETE /diesel-consumption/{id}
func (h *ConsumptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var record models.DieselConsumption
	if err := h.DB.First(&record, "consumption_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Consumption record not found")
		return
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Tank{}).Where("tank_id = ?", record.TankID).
			Update("current_level_liters", gorm.Expr("current_level_liters + ?", record.QuantityLiters)).Error; err != nil {
			return err
		}
		return tx.Delete(&record).Error
	})
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableDieselConsumption, &record.ConsumptionID, models.AuditActionDelete, record, nil)
	httpx.Success(w, http.StatusOK, nil)
}
