// Package audit implements the change-tracking subsystem: best-effort
// recording of before/after snapshots for business mutations, human-readable
// summaries for display, and filtered querying with duplicate cleanup.
package audit

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/models"
)

// Recorder persists audit entries decoupled from the business write: entries
// are queued after the mutation commits and drained by a single writer
// goroutine. Audit failures are logged, never surfaced to the caller; an entry
// queued but not yet written is lost on crash. Both are accepted trade-offs
// of a best-effort trail.
type Recorder struct {
	db      *gorm.DB
	queue   chan models.AuditLog
	done    chan struct{}
	pending sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewRecorder(db *gorm.DB, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	r := &Recorder{
		db:    db,
		queue: make(chan models.AuditLog, queueSize),
		done:  make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) run() {
	for e := range r.queue {
		if err := r.db.Create(&e).Error; err != nil {
			log.Printf("audit: write %s %s failed: %v", e.ActionType, e.Table, err)
		}
		r.pending.Done()
	}
	close(r.done)
}

// Record captures one change. oldValue must be nil for CREATE and newValue
// nil for DELETE; for UPDATE, newValue may be a partial echo of the request
// body rather than the full post-mutation row. Never returns an error:
// serialization failures and queue overflow are logged and the entry dropped.
func (r *Recorder) Record(userID uint, table string, recordID *uint, action string, oldValue, newValue any) {
	canonical, ok := models.ValidAuditAction(action)
	if !ok {
		log.Printf("audit: dropping entry with unknown action %q for %s", action, table)
		return
	}
	entry := models.AuditLog{
		Table:           table,
		RecordID:        recordID,
		ActionType:      canonical,
		ChangedByUserID: userID,
		ChangeTimestamp: time.Now(),
	}
	var serr error
	if entry.OldValue, serr = marshalSnapshot(oldValue); serr != nil {
		log.Printf("audit: serialize old value for %s %s: %v", canonical, table, serr)
		return
	}
	if entry.NewValue, serr = marshalSnapshot(newValue); serr != nil {
		log.Printf("audit: serialize new value for %s %s: %v", canonical, table, serr)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		log.Printf("audit: recorder closed, dropping %s %s entry", canonical, table)
		return
	}
	r.pending.Add(1)
	select {
	case r.queue <- entry:
	default:
		r.pending.Done()
		log.Printf("audit: queue full, dropping %s %s entry", canonical, table)
	}
}

// RecordView captures a synthetic read event (report generation and the like)
// with no backing record.
func (r *Recorder) RecordView(userID uint, table string) {
	r.Record(userID, table, nil, models.AuditActionView, nil, nil)
}

// Flush blocks until every queued entry has been attempted.
func (r *Recorder) Flush() { r.pending.Wait() }

// Close drains the queue and stops the writer. The recorder drops any Record
// calls made afterwards.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	close(r.queue)
	<-r.done
}

func marshalSnapshot(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
