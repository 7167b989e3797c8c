package models

import "time"

// User & role models. Column naming follows the legacy fleet schema
// (employee_id primary key, employee_number as the login identifier).
type User struct {
	EmployeeID         uint      `gorm:"column:employee_id;primaryKey" json:"employee_id"`
	EmployeeNumber     string    `gorm:"uniqueIndex;not null" json:"employee_number"`
	EmployeeName       string    `gorm:"not null;index" json:"employee_name"`
	QatarIDNumber      string    `json:"qatar_id_number,omitempty"`
	Profession         string    `json:"profession,omitempty"`
	MobileNumber       string    `json:"mobile_number,omitempty"`
	PasswordHash       string    `gorm:"not null" json:"-"`
	SignatureImagePath string    `json:"-"`
	RoleID             uint      `gorm:"not null" json:"role_id"`
	Role               Role      `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	SiteID             *uint     `json:"site_id,omitempty"`
	DivisionID         *uint     `json:"division_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type Role struct {
	RoleID      uint      `gorm:"column:role_id;primaryKey" json:"role_id"`
	RoleName    string    `gorm:"uniqueIndex;not null" json:"role_name"` // admin, site-incharge, diesel-manager, operator, driver
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Division struct {
	DivisionID   uint      `gorm:"column:division_id;primaryKey" json:"division_id"`
	DivisionName string    `gorm:"uniqueIndex;not null" json:"division_name"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Physical table names follow the legacy schema (singular/odd plurals kept).
func (User) TableName() string { return "users" }
func (Role) TableName() string { return "roles" }
func (Division) TableName() string { return "divisions" }
