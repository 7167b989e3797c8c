package handlers

import (
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/sequence"
	"github.com/fleetops/fueltrack/internal/services"
	"github.com/fleetops/fueltrack/internal/validation"
)

type ReceivingHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
	Fuel  *services.FuelService
}

func NewReceivingHandler(db *gorm.DB, rec *audit.Recorder, fuel *services.FuelService) *ReceivingHandler {
	return &ReceivingHandler{DB: db, Audit: rec, Fuel: fuel}
}

// List: GET /diesel-receiving?siteId=N&from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ReceivingHandler) List(w http.ResponseWriter, r *http.Request) {
	siteID, err := queryUint(r, "siteId")
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
	q := h.DB.Preload("Site").Preload("Tank").Preload("Supplier").Order("received_at DESC, receiving_id DESC")
	if siteID != nil {
		q = q.Where("site_id = ?", *siteID)
	}
	if from != nil {
		q = q.Where("received_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("received_at <= ?", *to)
	}
	var records []models.DieselReceiving
	if err := q.Find(&records).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"receivings": records})
}

// Get: GET /diesel-receiving/{id}
func (h *ReceivingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var record models.DieselReceiving
	if err := h.DB.Preload("Site").Preload("Tank").Preload("Supplier").First(&record, "receiving_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Receiving record not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"receiving": record})
}

// NextReceiptNumber: GET /diesel-receiving/next-receipt-number
//
// Preview only. The number is not reserved; creation regenerates under the
// unique index, so two clients previewing the same number is harmless.
func (h *ReceivingHandler) NextReceiptNumber(w http.ResponseWriter, r *http.Request) {
	num, err := sequence.Next(h.DB, sequence.Receipt, time.Now().Year())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"receiptNumber": num})
}

// Create: POST /diesel-receiving
func (h *ReceivingHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		ReceiptNumber  string     `json:"receipt_number"`
		QuantityLiters float64    `json:"quantity_liters"`
		PlateNo        string     `json:"plate_no"`
		SupplierID     *uint      `json:"supplier_id"`
		SiteID         uint       `json:"site_id"`
		TankID         uint       `json:"tank_id"`
		ReceivedAt     *time.Time `json:"received_at"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.PositiveFloat("quantity_liters", req.QuantityLiters, v)
	validation.RequiredID("site_id", req.SiteID, v)
	validation.RequiredID("tank_id", req.TankID, v)
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	receivedAt := time.Now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	var record models.DieselReceiving
	insert := func(number string) error {
		return h.DB.Transaction(func(tx *gorm.DB) error {
			var tank models.Tank
			if err := tx.First(&tank, "tank_id = ? AND site_id = ?", req.TankID, req.SiteID).Error; err != nil {
				return err
			}
			if err := h.Fuel.CheckReceiveCapacity(&tank, req.QuantityLiters); err != nil {
				return err
			}
			record = models.DieselReceiving{
				ReceiptNumber:    number,
				QuantityLiters:   req.QuantityLiters,
				PlateNo:          req.PlateNo,
				SupplierID:       req.SupplierID,
				SiteID:           req.SiteID,
				TankID:           req.TankID,
				ReceivedByUserID: actor.UserID,
				ReceivedAt:       receivedAt,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			return tx.Model(&tank).
				Update("current_level_liters", gorm.Expr("current_level_liters + ?", req.QuantityLiters)).Error
		})
	}

	var err error
	clientNumber := req.ReceiptNumber != ""
	if clientNumber {
		// Client-supplied numbers are honored but never regenerated on conflict.
		err = insert(req.ReceiptNumber)
	} else {
		_, err = sequence.InsertWithRetry(h.DB, sequence.Receipt, receivedAt.Year(), insert)
	}
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			httpx.Error(w, http.StatusBadRequest, "Tank not found at this site")
		case errors.Is(err, services.ErrTankCapacityExceeded):
			httpx.Error(w, http.StatusBadRequest, "Received quantity exceeds tank capacity")
		case clientNumber && sequence.IsDuplicate(err):
			httpx.Error(w, http.StatusBadRequest, "Receipt number already exists")
		default:
			httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		}
		return
	}

	h.Audit.Record(actor.UserID, models.TableDieselReceiving, &record.ReceivingID, models.AuditActionCreate, nil, record)
	httpx.Success(w, http.StatusCreated, map[string]any{"receiving": record})
}

// Update: PUT /diesel-receiving/{id}
//
// Quantity corrections adjust the tank level by the delta so the balance
// stays consistent with the receipt history.
func (h *ReceivingHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	updates := updatableFields(body, "quantity_liters", "plate_no", "supplier_id")
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
	var record models.DieselReceiving
	if err := h.DB.First(&record, "receiving_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Receiving record not found")
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
				if err := h.Fuel.CheckReceiveCapacity(&tank, delta); err != nil {
					return err
				}
			}
			if err := tx.Model(&tank).
				Update("current_level_liters", gorm.Expr("current_level_liters + ?", delta)).Error; err != nil {
				return err
			}
		}
		return tx.Model(&record).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, services.ErrTankCapacityExceeded) {
			httpx.Error(w, http.StatusBadRequest, "Corrected quantity exceeds tank capacity")
		} else {
			httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		}
		return
	}

	h.Audit.Record(actor.UserID, models.TableDieselReceiving, &record.ReceivingID, models.AuditActionUpdate, oldRecord, updates)
	httpx.Success(w, http.StatusOK, map[string]any{"receiving": record})
}

// Delete: DELETE /diesel-receiving/{id}
func (h *ReceivingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var record models.DieselReceiving
	if err := h.DB.First(&record, "receiving_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Receiving record not found")
		return
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Tank{}).Where("tank_id = ?", record.TankID).
			Update("current_level_liters", gorm.Expr("current_level_liters - ?", record.QuantityLiters)).Error; err != nil {
			return err
		}
		return tx.Delete(&record).Error
	})
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableDieselReceiving, &record.ReceivingID, models.AuditActionDelete, record, nil)
	httpx.Success(w, http.StatusOK, nil)
}
