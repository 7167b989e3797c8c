// Package sequence issues year-scoped sequential document numbers such as
// RCP-2026-000014. Generation is read-then-insert and therefore not atomic:
// the unique index on the number column is the real correctness guard, and
// callers insert through InsertWithRetry so a losing racer regenerates.
package sequence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Spec describes one document-number series.
type Spec struct {
	Prefix string // e.g. "RCP"
	Width  int    // zero-padding of the numeric suffix
	Table  string // table holding issued numbers
	Column string // number column, must carry a unique index
	Order  string // primary key column; descending order = insertion order
}

var (
	Receipt = Spec{Prefix: "RCP", Width: 6, Table: "diesel_receiving", Column: "receipt_number", Order: "receiving_id"}
	Invoice = Spec{Prefix: "INV", Width: 3, Table: "invoices", Column: "invoice_number", Order: "invoice_id"}
)

// maxAttempts bounds regenerate-and-retry on duplicate-key conflicts.
const maxAttempts = 3

// Next derives the next number in the series for the given year: one past the
// most recently inserted number with that year's prefix, or 1 when none exists.
// A stored number whose suffix does not parse is data corruption and surfaces
// as an error rather than silently restarting the series.
func Next(db *gorm.DB, s Spec, year int) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", s.Prefix, year)
	var nums []string
	err := db.Table(s.Table).
		Where(s.Column+" LIKE ?", prefix+"%").
		Order(s.Order + " DESC").
		Limit(1).
		Pluck(s.Column, &nums).Error
	if err != nil {
		return "", fmt.Errorf("lookup last %s number: %w", s.Prefix, err)
	}
	n := 1
	if len(nums) > 0 {
		suffix := strings.TrimPrefix(nums[0], prefix)
		parsed, perr := strconv.Atoi(suffix)
		if perr != nil {
			return "", fmt.Errorf("stored document number %q does not match %s-YYYY-N", nums[0], s.Prefix)
		}
		n = parsed + 1
	}
	return fmt.Sprintf("%s%0*d", prefix, s.Width, n), nil
}

// InsertWithRetry generates a number and runs insert with it, regenerating on
// duplicate-key conflicts up to maxAttempts times. insert must persist a row
// carrying the number so the next generation round observes it.
func InsertWithRetry(db *gorm.DB, s Spec, year int, insert func(number string) error) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		num, err := Next(db, s, year)
		if err != nil {
			return "", err
		}
		if err := insert(num); err != nil {
			if IsDuplicate(err) {
				lastErr = err
				continue
			}
			return "", err
		}
		return num, nil
	}
	return "", fmt.Errorf("document number conflict after %d attempts: %w", maxAttempts, lastErr)
}

// IsDuplicate reports whether err is a unique-constraint violation. The
// substring checks cover drivers opened without TranslateError.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
