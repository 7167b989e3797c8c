package models

import "time"

// Fuel movement records. Receipt numbers are year-scoped sequential
// (RCP-YYYY-NNNNNN); the unique index is the correctness guard against
// concurrent number generation, see internal/sequence.
type DieselReceiving struct {
	ReceivingID      uint      `gorm:"column:receiving_id;primaryKey" json:"receiving_id"`
	ReceiptNumber    string    `gorm:"uniqueIndex;not null" json:"receipt_number"`
	QuantityLiters   float64   `gorm:"not null" json:"quantity_liters"`
	PlateNo          string    `json:"plate_no,omitempty"`
	SupplierID       *uint     `json:"supplier_id,omitempty"`
	Supplier         *Supplier `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	SiteID           uint      `gorm:"not null;index" json:"site_id"`
	Site             *Site     `gorm:"foreignKey:SiteID" json:"site,omitempty"`
	TankID           uint      `gorm:"not null;index" json:"tank_id"`
	Tank             *Tank     `gorm:"foreignKey:TankID" json:"tank,omitempty"`
	ReceivedByUserID uint      `gorm:"not null" json:"received_by_user_id"`
	ReceivedBy       *User     `gorm:"foreignKey:ReceivedByUserID" json:"received_by,omitempty"`
	ReceivedAt       time.Time `gorm:"index" json:"received_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type DieselConsumption struct {
	ConsumptionID   uint      `gorm:"column:consumption_id;primaryKey" json:"consumption_id"`
	QuantityLiters  float64   `gorm:"not null" json:"quantity_liters"`
	Shift           string    `json:"shift,omitempty"` // day / night
	JobNumber       string    `json:"job_number,omitempty"`
	OdometerKmHours float64   `json:"odometer_km_hours,omitempty"`
	SiteID          uint      `gorm:"not null;index" json:"site_id"`
	Site            *Site     `gorm:"foreignKey:SiteID" json:"site,omitempty"`
	TankID          uint      `gorm:"not null;index" json:"tank_id"`
	Tank            *Tank     `gorm:"foreignKey:TankID" json:"tank,omitempty"`
	VehicleID       uint      `gorm:"not null;index" json:"vehicle_id"`
	Vehicle         *Vehicle  `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	OperatorID      uint      `gorm:"not null" json:"operator_id"`
	Operator        *User     `gorm:"foreignKey:OperatorID" json:"operator,omitempty"`
	ConsumedAt      time.Time `gorm:"index" json:"consumed_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Physical table names follow the legacy schema (singular/odd plurals kept).
func (DieselReceiving) TableName() string { return "diesel_receiving" }
func (DieselConsumption) TableName() string { return "diesel_consumption" }
