package audit

import (
	"testing"
	"time"

	"github.com/fleetops/fueltrack/internal/models"
)

func TestListPagination(t *testing.T) {
	db := setupAuditDB(t)
	role := models.Role{RoleName: "admin"}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("role: %v", err)
	}
	user := models.User{EmployeeNumber: "EMP9", EmployeeName: "Pager", PasswordHash: "x", RoleID: role.RoleID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		rid := uint(i + 1)
		l := models.AuditLog{
			Table:           models.TableDieselReceiving,
			RecordID:        &rid,
			ActionType:      models.AuditActionCreate,
			ChangedByUserID: user.EmployeeID,
			ChangeTimestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&l).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	svc := NewQueryService(db)
	entries, pg, err := svc.List(Filters{}, 2, 50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if pg.Total != 120 || pg.Pages != 3 || pg.Page != 2 || pg.Limit != 50 {
		t.Fatalf("unexpected pagination: %+v", pg)
	}
	if len(entries) != 50 {
		t.Fatalf("expected 50 entries got %d", len(entries))
	}
	// newest first: page 2 starts at the 51st newest, i.e. record 70
	if entries[0].RecordID == nil || *entries[0].RecordID != 70 {
		t.Fatalf("expected record 70 first on page 2, got %+v", entries[0].RecordID)
	}
	if entries[49].RecordID == nil || *entries[49].RecordID != 21 {
		t.Fatalf("expected record 21 last on page 2, got %+v", entries[49].RecordID)
	}
	if entries[0].ChangedBy != "Pager" {
		t.Fatalf("actor name not joined: %q", entries[0].ChangedBy)
	}
	wantTS := base.Add(69 * time.Minute).Format("2006-01-02 15:04:05")
	if entries[0].ChangeTimestamp != wantTS {
		t.Fatalf("timestamp format: got %q want %q", entries[0].ChangeTimestamp, wantTS)
	}
}

func TestListFilters(t *testing.T) {
	db := setupAuditDB(t)
	now := time.Now()
	mk := func(table, action string, user uint, ts time.Time) {
		t.Helper()
		l := models.AuditLog{Table: table, ActionType: action, ChangedByUserID: user, ChangeTimestamp: ts}
		if err := db.Create(&l).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	mk(models.TableTanks, models.AuditActionCreate, 1, now.Add(-3*time.Hour))
	mk(models.TableTanks, models.AuditActionUpdate, 1, now.Add(-2*time.Hour))
	mk(models.TableUsers, models.AuditActionUpdate, 2, now.Add(-1*time.Hour))

	svc := NewQueryService(db)

	uid := uint(1)
	entries, _, err := svc.List(Filters{ActionType: models.AuditActionUpdate, UserID: &uid}, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].TableName != models.TableTanks {
		t.Fatalf("unexpected filter result: %+v", entries)
	}

	from := now.Add(-90 * time.Minute)
	entries, _, err = svc.List(Filters{DateFrom: &from}, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].TableName != models.TableUsers {
		t.Fatalf("unexpected date filter result: %+v", entries)
	}
}

func TestCleanupDuplicates(t *testing.T) {
	db := setupAuditDB(t)
	rid := uint(5)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		l := models.AuditLog{
			Table:           models.TableVehicles,
			RecordID:        &rid,
			ActionType:      models.AuditActionUpdate,
			ChangedByUserID: 1,
			ChangeTimestamp: base.Add(time.Duration(i) * time.Hour),
		}
		if err := db.Create(&l).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	// unrelated entry must survive
	other := models.AuditLog{Table: models.TableSites, ActionType: models.AuditActionCreate, ChangedByUserID: 1, ChangeTimestamp: base}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed other: %v", err)
	}

	svc := NewQueryService(db)
	groups, deleted, err := svc.CleanupDuplicates()
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if groups != 1 || deleted != 2 {
		t.Fatalf("expected 1 group / 2 deleted, got %d / %d", groups, deleted)
	}

	var remaining []models.AuditLog
	if err := db.Where("table_name = ?", models.TableVehicles).Find(&remaining).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 surviving entry got %d", len(remaining))
	}
	if !remaining[0].ChangeTimestamp.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("survivor is not the most recent: %v", remaining[0].ChangeTimestamp)
	}

	// idempotent
	groups, deleted, err = svc.CleanupDuplicates()
	if err != nil {
		t.Fatalf("second cleanup: %v", err)
	}
	if groups != 0 || deleted != 0 {
		t.Fatalf("expected no-op second run, got %d / %d", groups, deleted)
	}
}

func TestCreateValidatesAction(t *testing.T) {
	db := setupAuditDB(t)
	svc := NewQueryService(db)
	err := svc.Create(&models.AuditLog{Table: models.TableSites, ActionType: "nonsense", ChangedByUserID: 1})
	if err == nil {
		t.Fatal("expected invalid action error")
	}
	if err := svc.Create(&models.AuditLog{Table: models.TableSites, ActionType: "create", ChangedByUserID: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	var l models.AuditLog
	if err := db.First(&l).Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	if l.ActionType != models.AuditActionCreate {
		t.Fatalf("action not canonicalized: %q", l.ActionType)
	}
	if l.ChangeTimestamp.IsZero() {
		t.Fatal("timestamp not defaulted")
	}
}
