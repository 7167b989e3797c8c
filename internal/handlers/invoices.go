package handlers

import (
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/httpx"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/sequence"
	"github.com/fleetops/fueltrack/internal/validation"
)

type InvoiceHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

func NewInvoiceHandler(db *gorm.DB, rec *audit.Recorder) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Audit: rec}
}

// List: GET /invoices?siteId=N
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	siteID, err := queryUint(r, "siteId")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	q := h.DB.Preload("Site").Preload("Items").Order("invoice_id DESC")
	if siteID != nil {
		q = q.Where("site_id = ?", *siteID)
	}
	var invoices []models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"invoices": invoices})
}

// Get: GET /invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var invoice models.Invoice
	if err := h.DB.Preload("Site").Preload("Items").First(&invoice, "invoice_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Invoice not found")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"invoice": invoice})
}

// Create: POST /invoices
//
// The invoice number is always generated server side; item amounts are
// recomputed from quantity and unit price so the stored total is consistent.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		InvoiceDate *time.Time `json:"invoice_date"`
		StartDate   time.Time  `json:"start_date"`
		EndDate     time.Time  `json:"end_date"`
		SiteID      uint       `json:"site_id"`
		Items       []struct {
			Description string  `json:"description"`
			Quantity    float64 `json:"quantity"`
			UnitPrice   float64 `json:"unit_price"`
		} `json:"items"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v := validation.Violations{}
	validation.RequiredID("site_id", req.SiteID, v)
	if len(req.Items) == 0 {
		v["items"] = "required"
	}
	for i, it := range req.Items {
		validation.Required(fmt.Sprintf("items[%d].description", i), it.Description, v)
		validation.PositiveFloat(fmt.Sprintf("items[%d].quantity", i), it.Quantity, v)
		if it.UnitPrice < 0 {
			v[fmt.Sprintf("items[%d].unit_price", i)] = "must_be_positive"
		}
	}
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	invoiceDate := time.Now()
	if req.InvoiceDate != nil {
		invoiceDate = *req.InvoiceDate
	}

	var invoice models.Invoice
	_, err := sequence.InsertWithRetry(h.DB, sequence.Invoice, invoiceDate.Year(), func(number string) error {
		return h.DB.Transaction(func(tx *gorm.DB) error {
			items := make([]models.InvoiceItem, 0, len(req.Items))
			total := 0.0
			for _, it := range req.Items {
				amount := it.Quantity * it.UnitPrice
				total += amount
				items = append(items, models.InvoiceItem{
					Description: it.Description,
					Quantity:    it.Quantity,
					UnitPrice:   it.UnitPrice,
					Amount:      amount,
				})
			}
			invoice = models.Invoice{
				InvoiceNumber:     number,
				InvoiceDate:       invoiceDate,
				StartDate:         req.StartDate,
				EndDate:           req.EndDate,
				SiteID:            req.SiteID,
				TotalAmount:       total,
				GeneratedByUserID: actor.UserID,
				Items:             items,
			}
			return tx.Create(&invoice).Error
		})
	})
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}

	h.Audit.Record(actor.UserID, models.TableInvoices, &invoice.InvoiceID, models.AuditActionCreate, nil, invoice)
	httpx.Success(w, http.StatusCreated, map[string]any{"invoice": invoice})
}

// Update: PUT /invoices/{id}
//
// Date/site corrections plus full item replacement. The invoice number is
// immutable; totals are recomputed whenever items change.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		InvoiceDate *time.Time `json:"invoice_date"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
		SiteID      *uint      `json:"site_id"`
		Items       *[]struct {
			Description string  `json:"description"`
			Quantity    float64 `json:"quantity"`
			UnitPrice   float64 `json:"unit_price"`
		} `json:"items"`
	}
	if err := decodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updates := map[string]any{}
	if req.InvoiceDate != nil {
		updates["invoice_date"] = *req.InvoiceDate
	}
	if req.StartDate != nil {
		updates["start_date"] = *req.StartDate
	}
	if req.EndDate != nil {
		updates["end_date"] = *req.EndDate
	}
	if req.SiteID != nil {
		updates["site_id"] = *req.SiteID
	}
	if len(updates) == 0 && req.Items == nil {
		httpx.Error(w, http.StatusBadRequest, "no updatable fields supplied")
		return
	}

	v := validation.Violations{}
	if req.SiteID != nil {
		validation.RequiredID("site_id", *req.SiteID, v)
	}
	var newItems []models.InvoiceItem
	if req.Items != nil {
		if len(*req.Items) == 0 {
			v["items"] = "required"
		}
		total := 0.0
		for i, it := range *req.Items {
			validation.Required(fmt.Sprintf("items[%d].description", i), it.Description, v)
			validation.PositiveFloat(fmt.Sprintf("items[%d].quantity", i), it.Quantity, v)
			if it.UnitPrice < 0 {
				v[fmt.Sprintf("items[%d].unit_price", i)] = "must_be_positive"
			}
			amount := it.Quantity * it.UnitPrice
			total += amount
			newItems = append(newItems, models.InvoiceItem{
				InvoiceID:   id,
				Description: it.Description,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				Amount:      amount,
			})
		}
		updates["total_amount"] = total
	}
	if !v.Empty() {
		httpx.ErrorDetails(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var invoice models.Invoice
	if err := h.DB.Preload("Items").First(&invoice, "invoice_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Invoice not found")
		return
	}
	oldInvoice := invoice

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if req.Items != nil {
			if err := tx.Where("invoice_id = ?", invoice.InvoiceID).Delete(&models.InvoiceItem{}).Error; err != nil {
				return err
			}
			if err := tx.Create(&newItems).Error; err != nil {
				return err
			}
		}
		return tx.Model(&invoice).Updates(updates).Error
	})
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	if err := h.DB.Preload("Items").First(&invoice, "invoice_id = ?", id).Error; err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}

	h.Audit.Record(actor.UserID, models.TableInvoices, &invoice.InvoiceID, models.AuditActionUpdate, oldInvoice, updates)
	httpx.Success(w, http.StatusOK, map[string]any{"invoice": invoice})
}

// NextInvoiceNumber: GET /invoices/next-invoice-number
func (h *InvoiceHandler) NextInvoiceNumber(w http.ResponseWriter, r *http.Request) {
	num, err := sequence.Next(h.DB, sequence.Invoice, time.Now().Year())
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	httpx.Success(w, http.StatusOK, map[string]any{"invoiceNumber": num})
}

// Delete: DELETE /invoices/{id}
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustIdentity(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var invoice models.Invoice
	if err := h.DB.Preload("Items").First(&invoice, "invoice_id = ?", id).Error; err != nil {
		notFoundOr500(w, err, "Invoice not found")
		return
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.InvoiceID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&invoice).Error
	})
	if err != nil {
		httpx.Error(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	h.Audit.Record(actor.UserID, models.TableInvoices, &invoice.InvoiceID, models.AuditActionDelete, invoice, nil)
	httpx.Success(w, http.StatusOK, nil)
}
