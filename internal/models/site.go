package models

import "time"

// Site, tank and supplier master data.
type Site struct {
	SiteID     uint      `gorm:"column:site_id;primaryKey" json:"site_id"`
	SiteName   string    `gorm:"uniqueIndex;not null" json:"site_name"`
	Location   string    `gorm:"not null" json:"location"`
	DivisionID *uint     `json:"division_id,omitempty"`
	Division   *Division `gorm:"foreignKey:DivisionID" json:"division,omitempty"`
	Tanks      []Tank    `gorm:"foreignKey:SiteID" json:"tanks,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Tank struct {
	TankID             uint      `gorm:"column:tank_id;primaryKey" json:"tank_id"`
	TankName           string    `gorm:"not null;index:idx_tank_site_name,unique" json:"tank_name"`
	CapacityLiters     float64   `gorm:"not null" json:"capacity_liters"`
	CurrentLevelLiters float64   `gorm:"not null;default:0" json:"current_level_liters"`
	SiteID             uint      `gorm:"not null;index:idx_tank_site_name,unique" json:"site_id"`
	Site               *Site     `gorm:"foreignKey:SiteID" json:"site,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Supplier struct {
	SupplierID    uint      `gorm:"column:supplier_id;primaryKey" json:"supplier_id"`
	SupplierName  string    `gorm:"uniqueIndex;not null" json:"supplier_name"`
	ContactNumber string    `json:"contact_number,omitempty"`
	Address       string    `json:"address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type JobProject struct {
	JobID       uint      `gorm:"column:job_id;primaryKey" json:"job_id"`
	JobName     string    `gorm:"not null;index" json:"job_name"`
	Description string    `json:"description,omitempty"`
	SiteID      uint      `gorm:"not null" json:"site_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Physical table names follow the legacy schema (singular/odd plurals kept).
func (Site) TableName() string { return "sites" }
func (Tank) TableName() string { return "tanks" }
func (Supplier) TableName() string { return "suppliers" }
func (JobProject) TableName() string { return "jobs_projects" }
