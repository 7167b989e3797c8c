package audit

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/models"
)

const timestampFormat = "2006-01-02 15:04:05"

// Filters are AND-combined; zero values mean "no constraint". ActionType must
// already be canonical (see models.ValidAuditAction).
type Filters struct {
	ActionType string
	UserID     *uint
	TableName  string
	DateFrom   *time.Time
	DateTo     *time.Time
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Entry is the display form of an audit record: summarized details, the
// actor's display name and a second-precision timestamp.
type Entry struct {
	LogID           uint   `json:"log_id"`
	TableName       string `json:"table_name"`
	RecordID        *uint  `json:"record_id"`
	ActionType      string `json:"action_type"`
	Details         string `json:"details"`
	ChangedByUserID uint   `json:"changed_by_user_id"`
	ChangedBy       string `json:"changed_by"`
	ChangeTimestamp string `json:"change_timestamp"`
}

// QueryService is the read/maintenance side of the audit trail.
type QueryService struct {
	db *gorm.DB
}

func NewQueryService(db *gorm.DB) *QueryService { return &QueryService{db: db} }

func (s *QueryService) filtered(f Filters) *gorm.DB {
	q := s.db.Model(&models.AuditLog{})
	if f.ActionType != "" {
		q = q.Where("action_type = ?", f.ActionType)
	}
	if f.UserID != nil {
		q = q.Where("changed_by_user_id = ?", *f.UserID)
	}
	if f.TableName != "" {
		q = q.Where("table_name = ?", f.TableName)
	}
	if f.DateFrom != nil {
		q = q.Where("change_timestamp >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("change_timestamp <= ?", *f.DateTo)
	}
	return q
}

// List returns one page of matching entries, most recent first, deduplicated
// by log id as a safety net against duplicate rows from the persistence layer.
func (s *QueryService) List(f Filters, page, limit int) ([]Entry, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	var total int64
	if err := s.filtered(f).Count(&total).Error; err != nil {
		return nil, Pagination{}, fmt.Errorf("count audit entries: %w", err)
	}

	var logs []models.AuditLog
	err := s.filtered(f).
		Preload("ChangedBy").
		Order("change_timestamp DESC, log_id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&logs).Error
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list audit entries: %w", err)
	}

	seen := make(map[uint]bool, len(logs))
	entries := make([]Entry, 0, len(logs))
	for _, l := range logs {
		if seen[l.LogID] {
			continue
		}
		seen[l.LogID] = true
		entries = append(entries, toEntry(l))
	}

	pages := int((total + int64(limit) - 1) / int64(limit))
	return entries, Pagination{Page: page, Limit: limit, Total: total, Pages: pages}, nil
}

// Get returns one entry in display form.
func (s *QueryService) Get(id uint) (Entry, error) {
	var l models.AuditLog
	if err := s.db.Preload("ChangedBy").First(&l, "log_id = ?", id).Error; err != nil {
		return Entry{}, err
	}
	return toEntry(l), nil
}

// Create persists an entry directly; the administrative/manual path. Unlike
// Recorder writes this is synchronous and errors propagate.
func (s *QueryService) Create(l *models.AuditLog) error {
	canonical, ok := models.ValidAuditAction(l.ActionType)
	if !ok {
		return fmt.Errorf("invalid action type %q", l.ActionType)
	}
	l.ActionType = canonical
	if l.ChangedByUserID == 0 {
		return errors.New("changed_by_user_id is required")
	}
	if l.ChangeTimestamp.IsZero() {
		l.ChangeTimestamp = time.Now()
	}
	return s.db.Create(l).Error
}

// CleanupDuplicates groups entries by (table, record, action, user) and
// within each group keeps only the most recent, deleting the rest. Idempotent
// and destructive; operator-triggered maintenance only.
func (s *QueryService) CleanupDuplicates() (groups int, deleted int64, err error) {
	var logs []models.AuditLog
	if err := s.db.Order("change_timestamp DESC, log_id DESC").Find(&logs).Error; err != nil {
		return 0, 0, fmt.Errorf("load audit entries: %w", err)
	}

	type groupKey struct {
		table  string
		record uint
		hasRec bool
		action string
		user   uint
	}
	kept := map[groupKey]bool{}
	extra := map[groupKey]int{}
	var doomed []uint
	for _, l := range logs {
		k := groupKey{table: l.Table, action: l.ActionType, user: l.ChangedByUserID}
		if l.RecordID != nil {
			k.record = *l.RecordID
			k.hasRec = true
		}
		if kept[k] {
			extra[k]++
			doomed = append(doomed, l.LogID)
			continue
		}
		kept[k] = true
	}
	if len(doomed) == 0 {
		return 0, 0, nil
	}
	res := s.db.Where("log_id IN ?", doomed).Delete(&models.AuditLog{})
	if res.Error != nil {
		return 0, 0, fmt.Errorf("delete duplicate audit entries: %w", res.Error)
	}
	return len(extra), res.RowsAffected, nil
}

func toEntry(l models.AuditLog) Entry {
	name := ""
	if l.ChangedBy != nil {
		name = l.ChangedBy.EmployeeName
	}
	return Entry{
		LogID:           l.LogID,
		TableName:       l.Table,
		RecordID:        l.RecordID,
		ActionType:      l.ActionType,
		Details:         Summarize(l),
		ChangedByUserID: l.ChangedByUserID,
		ChangedBy:       name,
		ChangeTimestamp: l.ChangeTimestamp.Format(timestampFormat),
	}
}
