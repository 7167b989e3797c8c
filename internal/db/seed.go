package db

import (
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/models"
)

// Seed inserts baseline roles, divisions, sites and a default admin user.
// Idempotent: existing rows (matched by their natural key) are left untouched.
func Seed(db *gorm.DB) {
	baseRoles := []models.Role{
		{RoleName: "admin", Description: "Administrator"},
		{RoleName: "site-incharge", Description: "Site Incharge"},
		{RoleName: "diesel-manager", Description: "Diesel Manager"},
		{RoleName: "operator", Description: "Operator"},
		{RoleName: "driver", Description: "Driver"},
	}
	for _, r := range baseRoles {
		var existing models.Role
		if err := db.Where("role_name = ?", r.RoleName).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			db.Create(&r)
		}
	}

	baseDivisions := []models.Division{
		{DivisionName: "H4", Description: "H4 Division"},
		{DivisionName: "RD", Description: "RD Division"},
		{DivisionName: "HHG", Description: "HHG Division"},
		{DivisionName: "AP", Description: "AP Division"},
	}
	for _, d := range baseDivisions {
		var existing models.Division
		if err := db.Where("division_name = ?", d.DivisionName).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			db.Create(&d)
		}
	}

	baseSites := []models.Site{
		{SiteName: "GRAGE-43", Location: "GRAGE-43"},
		{SiteName: "SELIYA", Location: "SELIYA (MRJ-134)"},
		{SiteName: "UM SALAL", Location: "UM SALAL (MRJ-150)"},
	}
	for _, s := range baseSites {
		var existing models.Site
		if err := db.Where("site_name = ?", s.SiteName).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			db.Create(&s)
		}
	}

	var adminRole models.Role
	if err := db.Where("role_name = ?", "admin").First(&adminRole).Error; err != nil {
		log.Printf("seed: admin role missing: %v", err)
		return
	}
	var admin models.User
	if err := db.Where("employee_number = ?", "EMP001").First(&admin).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		hash, herr := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
		if herr != nil {
			log.Printf("seed: hash admin password: %v", herr)
			return
		}
		db.Create(&models.User{
			EmployeeNumber: "EMP001",
			EmployeeName:   "Default Admin",
			PasswordHash:   string(hash),
			RoleID:         adminRole.RoleID,
		})
	}
}
