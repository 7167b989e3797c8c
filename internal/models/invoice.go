package models

import "time"

// Invoicing models. Invoice numbers are year-scoped sequential (INV-YYYY-NNN).
type Invoice struct {
	InvoiceID         uint          `gorm:"column:invoice_id;primaryKey" json:"invoice_id"`
	InvoiceNumber     string        `gorm:"uniqueIndex;not null" json:"invoice_number"`
	InvoiceDate       time.Time     `gorm:"not null" json:"invoice_date"`
	StartDate         time.Time     `json:"start_date"`
	EndDate           time.Time     `json:"end_date"`
	SiteID            uint          `gorm:"not null;index" json:"site_id"`
	Site              *Site         `gorm:"foreignKey:SiteID" json:"site,omitempty"`
	TotalAmount       float64       `gorm:"not null" json:"total_amount"`
	GeneratedByUserID uint          `gorm:"not null" json:"generated_by_user_id"`
	GeneratedBy       *User         `gorm:"foreignKey:GeneratedByUserID" json:"generated_by,omitempty"`
	Items             []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

type InvoiceItem struct {
	ItemID      uint    `gorm:"column:item_id;primaryKey" json:"item_id"`
	InvoiceID   uint    `gorm:"not null;index" json:"invoice_id"`
	Description string  `gorm:"not null" json:"description"`
	Quantity    float64 `gorm:"not null" json:"quantity"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	Amount      float64 `gorm:"not null" json:"amount"`
}

// Physical table names follow the legacy schema (singular/odd plurals kept).
func (Invoice) TableName() string { return "invoices" }
func (InvoiceItem) TableName() string { return "invoice_items" }
