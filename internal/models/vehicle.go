package models

import "time"

// Vehicle covers both road vehicles (plate number) and plant equipment
// (machine id); either identifier may be blank but vehicle_number is unique.
type Vehicle struct {
	VehicleID        uint      `gorm:"column:vehicle_id;primaryKey" json:"vehicle_id"`
	VehicleNumber    string    `gorm:"uniqueIndex;not null" json:"vehicle_number"`
	Type             string    `gorm:"not null" json:"type"` // e.g. excavator, trailer, pickup
	Model            string    `json:"model,omitempty"`
	PlateNumber      string    `json:"plate_number,omitempty"`
	MachineID        string    `json:"machine_id,omitempty"`
	DailyLimitLiters float64   `json:"daily_limit_liters,omitempty"` // 0 means no limit
	SiteID           *uint     `json:"site_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Physical table names follow the legacy schema (singular/odd plurals kept).
func (Vehicle) TableName() string { return "vehicles_equipment" }
