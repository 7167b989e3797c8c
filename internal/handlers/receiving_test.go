package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/services"
)

func receivingRouter(e *testEnv) *mux.Router {
	h := NewReceivingHandler(e.db, e.rec, e.fuel)
	r := mux.NewRouter()
	r.Handle("/diesel-receiving/next-receipt-number", authed(e.actor, http.HandlerFunc(h.NextReceiptNumber))).Methods(http.MethodGet)
	r.Handle("/diesel-receiving", authed(e.actor, http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	r.Handle("/diesel-receiving", authed(e.actor, http.HandlerFunc(h.List))).Methods(http.MethodGet)
	r.Handle("/diesel-receiving/{id:[0-9]+}", authed(e.actor, http.HandlerFunc(h.Get))).Methods(http.MethodGet)
	r.Handle("/diesel-receiving/{id:[0-9]+}", authed(e.actor, http.HandlerFunc(h.Update))).Methods(http.MethodPut)
	r.Handle("/diesel-receiving/{id:[0-9]+}", authed(e.actor, http.HandlerFunc(h.Delete))).Methods(http.MethodDelete)
	return r
}

func TestCreateReceivingAssignsReceiptNumberAndFillsTank(t *testing.T) {
	e := newEnv(t)
	site, tank := e.seedSiteTank(t, 10000, 1000)
	r := receivingRouter(e)

	w := e.do(t, r, http.MethodPost, "/diesel-receiving", map[string]any{
		"quantity_liters": 3000.0,
		"site_id":         site.SiteID,
		"tank_id":         tank.TankID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rec models.DieselReceiving
	if err := json.Unmarshal(decodeData(t, w)["receiving"], &rec); err != nil {
		t.Fatalf("decode receiving: %v", err)
	}
	want := fmt.Sprintf("RCP-%d-000001", time.Now().Year())
	if rec.ReceiptNumber != want {
		t.Fatalf("expected receipt %s, got %s", want, rec.ReceiptNumber)
	}
	if rec.ReceivedByUserID != e.actor.UserID {
		t.Fatalf("receiver should be the caller, got %d", rec.ReceivedByUserID)
	}

	var updated models.Tank
	if err := e.db.First(&updated, "tank_id = ?", tank.TankID).Error; err != nil {
		t.Fatalf("reload tank: %v", err)
	}
	if updated.CurrentLevelLiters != 4000 {
		t.Fatalf("tank level should be 4000, got %v", updated.CurrentLevelLiters)
	}

	e.rec.Flush()
	var entry models.AuditLog
	if err := e.db.First(&entry, "table_name = ? AND action_type = ?", models.TableDieselReceiving, models.AuditActionCreate).Error; err != nil {
		t.Fatalf("audit entry missing: %v", err)
	}
	if entry.RecordID == nil || *entry.RecordID != rec.ReceivingID {
		t.Fatalf("audit entry points at wrong record: %+v", entry)
	}
	if len(entry.OldValue) != 0 {
		t.Fatalf("create entry must have no old value")
	}
}

func TestCreateReceivingReportsFieldViolations(t *testing.T) {
	e := newEnv(t)
	r := receivingRouter(e)

	w := e.do(t, r, http.MethodPost, "/diesel-receiving", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var env struct {
		Status  string            `json:"status"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Status != "fail" || env.Message != "validation_failed" {
		t.Fatalf("unexpected envelope: %s", w.Body.String())
	}
	if env.Details["quantity_liters"] != "must_be_positive" {
		t.Fatalf("quantity violation missing: %+v", env.Details)
	}
	if env.Details["site_id"] != "required" || env.Details["tank_id"] != "required" {
		t.Fatalf("id violations missing: %+v", env.Details)
	}
}

func TestUpdateReceivingRejectsBadQuantity(t *testing.T) {
	e := newEnv(t)
	site, tank := e.seedSiteTank(t, 1000, 0)
	r := receivingRouter(e)

	w := e.do(t, r, http.MethodPost, "/diesel-receiving", map[string]any{
		"quantity_liters": 500.0,
		"site_id":         site.SiteID,
		"tank_id":         tank.TankID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var rec models.DieselReceiving
	if err := json.Unmarshal(decodeData(t, w)["receiving"], &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	path := fmt.Sprintf("/diesel-receiving/%d", rec.ReceivingID)

	// non-numeric quantity is a validation failure, not an internal error
	w = e.do(t, r, http.MethodPut, path, map[string]any{"quantity_liters": "lots"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var env struct {
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Message != "validation_failed" || env.Details["quantity_liters"] != "must_be_positive" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	// correction past capacity gets the mapped message
	w = e.do(t, r, http.MethodPut, path, map[string]any{"quantity_liters": 2000.0})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var capEnv struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &capEnv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if capEnv.Message != "Corrected quantity exceeds tank capacity" {
		t.Fatalf("unexpected message %q", capEnv.Message)
	}
}

func TestCreateReceivingRejectsOverfill(t *testing.T) {
	e := newEnv(t)
	site, tank := e.seedSiteTank(t, 1000, 900)
	r := receivingRouter(e)

	w := e.do(t, r, http.MethodPost, "/diesel-receiving", map[string]any{
		"quantity_liters": 200.0,
		"site_id":         site.SiteID,
		"tank_id":         tank.TankID,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	e.db.Model(&models.DieselReceiving{}).Count(&count)
	if count != 0 {
		t.Fatalf("no receiving row should exist, found %d", count)
	}
	var updated models.Tank
	e.db.First(&updated, "tank_id = ?", tank.TankID)
	if updated.CurrentLevelLiters != 900 {
		t.Fatalf("tank level must be unchanged, got %v", updated.CurrentLevelLiters)
	}
}

func TestNextReceiptNumberPreview(t *testing.T) {
	e := newEnv(t)
	site, tank := e.seedSiteTank(t, 10000, 0)
	r := receivingRouter(e)

	year := time.Now().Year()
	w := e.do(t, r, http.MethodGet, "/diesel-receiving/next-receipt-number", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var num string
	if err := json.Unmarshal(decodeData(t, w)["receiptNumber"], &num); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if num != fmt.Sprintf("RCP-%d-000001", year) {
		t.Fatalf("unexpected preview number %s", num)
	}

	// Previewing does not reserve: creating still issues the same number.
	w = e.do(t, r, http.MethodPost, "/diesel-receiving", map[string]any{
		"quantity_liters": 100.0,
		"site_id":         site.SiteID,
		"tank_id":         tank.TankID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rec models.DieselReceiving
	if err := json.Unmarshal(decodeData(t, w)["receiving"], &rec); err != nil {
		t.Fatalf("decode receiving: %v", err)
	}
	if rec.ReceiptNumber != num {
		t.Fatalf("expected created receipt %s, got %s", num, rec.ReceiptNumber)
	}
}

func TestCreateReceivingHonorsClientNumberOnce(t *testing.T) {
	e := newEnv(t)
	site, tank := e.seedSiteTank(t, 10000, 0)
	r := receivingRouter(e)

	body := map[string]any{
		"receipt_number":  "RCP-2024-000099",
		"quantity_liters": 100.0,
		"site_id":         site.SiteID,
		"tank_id":         tank.TankID,
	}
	w := e.do(t, r, http.MethodPost, "/diesel-receiving", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var rec models.DieselReceiving
	if err := json.Unmarshal(decodeData(t, w)["receiving"], &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.ReceiptNumber != "RCP-2024-000099" {
		t.Fatalf("client number not honored: %s", rec.ReceiptNumber)
	}

	// same number again: rejected, never silently regenerated
	w = e.do(t, r, http.MethodPost, "/diesel-receiving", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate client number should be 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDeleteReceivingRestoresTankLevel(t *testing.T) {
	e := newEnv(t)
	site, tank := e.seedSiteTank(t, 10000, 0)
	r := receivingRouter(e)

	w := e.do(t, r, http.MethodPost, "/diesel-receiving", map[string]any{
		"quantity_liters": 500.0,
		"site_id":         site.SiteID,
		"tank_id":         tank.TankID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var rec models.DieselReceiving
	if err := json.Unmarshal(decodeData(t, w)["receiving"], &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = e.do(t, r, http.MethodDelete, fmt.Sprintf("/diesel-receiving/%d", rec.ReceivingID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	var updated models.Tank
	e.db.First(&updated, "tank_id = ?", tank.TankID)
	if updated.CurrentLevelLiters != 0 {
		t.Fatalf("tank level should be back to 0, got %v", updated.CurrentLevelLiters)
	}

	e.rec.Flush()
	var count int64
	e.db.Model(&models.AuditLog{}).Where("action_type = ?", models.AuditActionDelete).Count(&count)
	if count != 1 {
		t.Fatalf("expected one DELETE audit entry, got %d", count)
	}
}

// The audit trail is best effort: a broken audit store must not block the
// business write.
func TestCreateReceivingSucceedsWhenAuditStorageFails(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// audit_log deliberately not migrated
	if err := db.AutoMigrate(&models.Site{}, &models.Tank{}, &models.DieselReceiving{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	site := models.Site{SiteName: "S", Location: "L"}
	if err := db.Create(&site).Error; err != nil {
		t.Fatalf("site: %v", err)
	}
	tank := models.Tank{TankName: "T1", CapacityLiters: 10000, SiteID: site.SiteID}
	if err := db.Create(&tank).Error; err != nil {
		t.Fatalf("tank: %v", err)
	}

	rec := audit.NewRecorder(db, 8)
	defer rec.Close()
	e := &testEnv{db: db, rec: rec, fuel: services.NewFuelService(db), actor: testActor()}
	r := receivingRouter(e)

	w := e.do(t, r, http.MethodPost, "/diesel-receiving", map[string]any{
		"quantity_liters": 100.0,
		"site_id":         site.SiteID,
		"tank_id":         tank.TankID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("business write must succeed despite audit failure, got %d: %s", w.Code, w.Body.String())
	}
	rec.Flush()
	var count int64
	db.Model(&models.DieselReceiving{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected the receiving row, got %d", count)
	}
}
