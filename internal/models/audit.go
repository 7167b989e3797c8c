package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Audit actions. Closed enumeration; anything else is rejected at write time.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
	AuditActionView   = "VIEW"
)

// Symbolic table names recorded in audit entries. These mirror the physical
// table names so operators can correlate entries with the schema directly.
const (
	TableUsers             = "users"
	TableRoles             = "roles"
	TableDivisions         = "divisions"
	TableSites             = "sites"
	TableTanks             = "tanks"
	TableSuppliers         = "suppliers"
	TableVehicles          = "vehicles_equipment"
	TableJobsProjects      = "jobs_projects"
	TableDieselReceiving   = "diesel_receiving"
	TableDieselConsumption = "diesel_consumption"
	TableInvoices          = "invoices"
	TableInvoiceItems      = "invoice_items"
	TableReports           = "reports"
)

// AuditLog is one immutable record per observed change. Entries are written
// once after the business mutation commits and are never updated; the only
// deletion path is the duplicate-cleanup maintenance operation.
type AuditLog struct {
	LogID           uint           `gorm:"column:log_id;primaryKey" json:"log_id"`
	Table           string         `gorm:"column:table_name;not null;index" json:"table_name"`
	RecordID        *uint          `gorm:"index" json:"record_id"` // nil for synthetic events such as report views
	ActionType      string         `gorm:"not null;index" json:"action_type"`
	OldValue        datatypes.JSON `json:"old_value,omitempty"` // absent for CREATE
	NewValue        datatypes.JSON `json:"new_value,omitempty"` // absent for DELETE
	ChangedByUserID uint           `gorm:"not null;index" json:"changed_by_user_id"`
	ChangedBy       *User          `gorm:"foreignKey:ChangedByUserID" json:"-"`
	ChangeTimestamp time.Time      `gorm:"index" json:"change_timestamp"`
}

func (AuditLog) TableName() string { return "audit_log" }

// ValidAuditAction reports whether s is one of the closed action enumeration,
// ignoring case.
func ValidAuditAction(s string) (string, bool) {
	for _, a := range []string{AuditActionCreate, AuditActionUpdate, AuditActionDelete, AuditActionView} {
		if strings.EqualFold(s, a) {
			return a, true
		}
	}
	return "", false
}
