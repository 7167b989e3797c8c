package audit

import (
	"strings"
	"testing"

	"gorm.io/datatypes"

	"github.com/fleetops/fueltrack/internal/models"
)

func entry(action, table string, oldV, newV string) models.AuditLog {
	e := models.AuditLog{ActionType: action, Table: table}
	if oldV != "" {
		e.OldValue = datatypes.JSON(oldV)
	}
	if newV != "" {
		e.NewValue = datatypes.JSON(newV)
	}
	return e
}

func TestSummarizeCreateReceiving(t *testing.T) {
	e := entry(models.AuditActionCreate, models.TableDieselReceiving, "",
		`{"receipt_number":"RCP-2025-000007","quantity_liters":500,"tank_id":3}`)
	got := Summarize(e)
	want := "Received 500 L of diesel (receipt RCP-2025-000007)"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestSummarizeUpdateDiff(t *testing.T) {
	e := entry(models.AuditActionUpdate, models.TableDieselConsumption,
		`{"quantity_liters":95,"odometer_km_hours":950,"shift":"day"}`,
		`{"quantity_liters":100,"odometer_km_hours":1000,"shift":"day"}`)
	got := Summarize(e)
	if !strings.Contains(got, "quantity_liters: 95 → 100") {
		t.Fatalf("missing quantity change in %q", got)
	}
	if !strings.Contains(got, "odometer_km_hours: 950 → 1000") {
		t.Fatalf("missing odometer change in %q", got)
	}
	if strings.Contains(got, "shift") {
		t.Fatalf("unchanged field rendered in %q", got)
	}
}

func TestSummarizeRedactsSensitiveFields(t *testing.T) {
	secret := "s3cr3t-hash-value"
	e := entry(models.AuditActionUpdate, models.TableUsers,
		`{"password_hash":"oldhash-`+secret+`","mobile_number":"111"}`,
		`{"password_hash":"newhash-`+secret+`","mobile_number":"222"}`)
	got := Summarize(e)
	if strings.Contains(got, secret) {
		t.Fatalf("sensitive value leaked into %q", got)
	}
	if !strings.Contains(got, "mobile_number: 111 → 222") {
		t.Fatalf("expected mobile_number change in %q", got)
	}

	// deletion listings are filtered the same way
	e = entry(models.AuditActionDelete, models.TableUsers,
		`{"employee_name":"Alice","password_hash":"`+secret+`","signature_image_path":"/x/y.png"}`, "")
	got = Summarize(e)
	if strings.Contains(got, secret) || strings.Contains(got, "/x/y.png") {
		t.Fatalf("sensitive value leaked into %q", got)
	}
	if !strings.Contains(got, "employee_name: Alice") {
		t.Fatalf("expected employee_name in %q", got)
	}
}

func TestSummarizeExcludesLongStrings(t *testing.T) {
	payload := strings.Repeat("A", 64)
	e := entry(models.AuditActionDelete, models.TableSuppliers,
		`{"supplier_name":"Al Wakra Fuel","notes":"`+payload+`"}`, "")
	got := Summarize(e)
	if strings.Contains(got, payload) {
		t.Fatalf("long payload leaked into %q", got)
	}
	if !strings.Contains(got, "supplier_name: Al Wakra Fuel") {
		t.Fatalf("expected supplier_name in %q", got)
	}
}

func TestSummarizeViewReport(t *testing.T) {
	e := entry(models.AuditActionView, models.TableReports, "", "")
	if got := Summarize(e); got != "Generated monthly fuel report" {
		t.Fatalf("got %q", got)
	}
}

func TestSummarizeUnknownTableFallsBack(t *testing.T) {
	e := entry(models.AuditActionCreate, "mystery_table", "", `{"a":1}`)
	if got := Summarize(e); got != "Created mystery_table record" {
		t.Fatalf("got %q", got)
	}
}

func TestSummarizeMalformedJSONDegrades(t *testing.T) {
	e := entry(models.AuditActionUpdate, models.TableTanks, `{not json`, `also not json`)
	if got := Summarize(e); got != "Updated tanks record" {
		t.Fatalf("got %q", got)
	}
}

func TestSummarizeDoubleEncodedSnapshot(t *testing.T) {
	e := entry(models.AuditActionUpdate, models.TableTanks,
		`"{\"capacity_liters\":5000}"`, `"{\"capacity_liters\":8000}"`)
	got := Summarize(e)
	if !strings.Contains(got, "capacity_liters: 5000 → 8000") {
		t.Fatalf("double-encoded snapshot not handled: %q", got)
	}
}
