package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/audit"
	"github.com/fleetops/fueltrack/internal/auth"
	"github.com/fleetops/fueltrack/internal/models"
	"github.com/fleetops/fueltrack/internal/services"
)

type testEnv struct {
	db    *gorm.DB
	rec   *audit.Recorder
	fuel  *services.FuelService
	actor auth.Identity
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	migrate := []interface{}{
		&models.Role{}, &models.Division{}, &models.Site{}, &models.User{},
		&models.Tank{}, &models.Supplier{}, &models.Vehicle{}, &models.JobProject{},
		&models.DieselReceiving{}, &models.DieselConsumption{},
		&models.Invoice{}, &models.InvoiceItem{}, &models.AuditLog{},
	}
	if err := db.AutoMigrate(migrate...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	role := models.Role{RoleName: "admin"}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("role: %v", err)
	}
	user := models.User{EmployeeNumber: "EMP001", EmployeeName: "Admin", PasswordHash: "x", RoleID: role.RoleID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	rec := audit.NewRecorder(db, 64)
	t.Cleanup(rec.Close)
	return &testEnv{
		db:    db,
		rec:   rec,
		fuel:  services.NewFuelService(db),
		actor: auth.Identity{UserID: user.EmployeeID, Role: "admin"},
	}
}

func testActor() auth.Identity { return auth.Identity{UserID: 1, Role: "admin"} }

// authed injects the caller identity, standing in for the token middleware.
func authed(id auth.Identity, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func (e *testEnv) do(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var env struct {
		Status string                     `json:"status"`
		Data   map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	if env.Status != "success" {
		t.Fatalf("expected success envelope, got %q", w.Body.String())
	}
	return env.Data
}

func (e *testEnv) seedSiteTank(t *testing.T, capacity, level float64) (models.Site, models.Tank) {
	t.Helper()
	site := models.Site{SiteName: "SELIYA-" + t.Name(), Location: "SELIYA"}
	if err := e.db.Create(&site).Error; err != nil {
		t.Fatalf("site: %v", err)
	}
	tank := models.Tank{TankName: "T1", CapacityLiters: capacity, CurrentLevelLiters: level, SiteID: site.SiteID}
	if err := e.db.Create(&tank).Error; err != nil {
		t.Fatalf("tank: %v", err)
	}
	return site, tank
}
