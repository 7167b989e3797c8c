package sequence

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/models"
)

func setupSequenceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.DieselReceiving{}, &models.Invoice{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func insertReceipt(t *testing.T, db *gorm.DB, number string) {
	t.Helper()
	rec := models.DieselReceiving{ReceiptNumber: number, QuantityLiters: 100, SiteID: 1, TankID: 1, ReceivedByUserID: 1, ReceivedAt: time.Now()}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("insert receipt %s: %v", number, err)
	}
}

func TestNextStartsAtOne(t *testing.T) {
	db := setupSequenceDB(t)
	got, err := Next(db, Receipt, 2025)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got != "RCP-2025-000001" {
		t.Fatalf("expected RCP-2025-000001 got %s", got)
	}
}

func TestNextIncrementsAndPads(t *testing.T) {
	db := setupSequenceDB(t)
	insertReceipt(t, db, "RCP-2025-000041")
	got, err := Next(db, Receipt, 2025)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got != "RCP-2025-000042" {
		t.Fatalf("expected RCP-2025-000042 got %s", got)
	}

	// invoice series is independent and 3 wide
	inv, err := Next(db, Invoice, 2025)
	if err != nil {
		t.Fatalf("next invoice: %v", err)
	}
	if inv != "INV-2025-001" {
		t.Fatalf("expected INV-2025-001 got %s", inv)
	}
}

func TestYearRollover(t *testing.T) {
	db := setupSequenceDB(t)
	insertReceipt(t, db, "RCP-2025-009999")
	got, err := Next(db, Receipt, 2026)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got != "RCP-2026-000001" {
		t.Fatalf("expected RCP-2026-000001 got %s", got)
	}
}

func TestNextErrorsOnMalformedStoredNumber(t *testing.T) {
	db := setupSequenceDB(t)
	insertReceipt(t, db, "RCP-2025-XYZ")
	if _, err := Next(db, Receipt, 2025); err == nil {
		t.Fatal("expected error for malformed stored number")
	}
}

func TestSequenceMonotonicity(t *testing.T) {
	db := setupSequenceDB(t)
	seen := map[string]bool{}
	prev := ""
	for i := 0; i < 25; i++ {
		num, err := InsertWithRetry(db, Receipt, 2025, func(number string) error {
			rec := models.DieselReceiving{ReceiptNumber: number, QuantityLiters: 1, SiteID: 1, TankID: 1, ReceivedByUserID: 1, ReceivedAt: time.Now()}
			return db.Create(&rec).Error
		})
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if seen[num] {
			t.Fatalf("duplicate number issued: %s", num)
		}
		seen[num] = true
		if prev != "" && num <= prev {
			t.Fatalf("numbers not strictly increasing: %s after %s", num, prev)
		}
		prev = num
	}
}

func TestInsertWithRetryRegeneratesOnConflict(t *testing.T) {
	db := setupSequenceDB(t)
	calls := 0
	num, err := InsertWithRetry(db, Receipt, 2025, func(number string) error {
		calls++
		if calls == 1 {
			// a concurrent writer grabbed the same number first
			insertReceipt(t, db, number)
			return gorm.ErrDuplicatedKey
		}
		rec := models.DieselReceiving{ReceiptNumber: number, QuantityLiters: 1, SiteID: 1, TankID: 1, ReceivedByUserID: 1, ReceivedAt: time.Now()}
		return db.Create(&rec).Error
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts got %d", calls)
	}
	if num != "RCP-2025-000002" {
		t.Fatalf("expected regenerated RCP-2025-000002 got %s", num)
	}
}

func TestInsertWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	db := setupSequenceDB(t)
	calls := 0
	_, err := InsertWithRetry(db, Receipt, 2025, func(string) error {
		calls++
		return gorm.ErrDuplicatedKey
	})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if calls != maxAttempts {
		t.Fatalf("expected %d attempts got %d", maxAttempts, calls)
	}
}

func TestUniqueIndexRejectsDuplicateReceipt(t *testing.T) {
	db := setupSequenceDB(t)
	insertReceipt(t, db, "RCP-2025-000001")
	rec := models.DieselReceiving{ReceiptNumber: "RCP-2025-000001", QuantityLiters: 1, SiteID: 1, TankID: 1, ReceivedByUserID: 1, ReceivedAt: time.Now()}
	err := db.Create(&rec).Error
	if !IsDuplicate(err) {
		t.Fatalf("expected duplicate-key error, got %v", err)
	}
}
