package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fleetops/fueltrack/internal/models"
)

var (
	ErrTankCapacityExceeded = errors.New("tank capacity exceeded")
	ErrInsufficientDiesel   = errors.New("insufficient diesel in tank")
	ErrDailyLimitExceeded   = errors.New("daily consumption limit exceeded for this vehicle")
)

// FuelService holds fuel-balance arithmetic shared by the receiving,
// consumption and reporting handlers.
type FuelService struct {
	db *gorm.DB
}

func NewFuelService(db *gorm.DB) *FuelService { return &FuelService{db: db} }

// CheckReceiveCapacity rejects a delivery that would overfill the tank.
func (s *FuelService) CheckReceiveCapacity(tank *models.Tank, quantity float64) error {
	if tank.CurrentLevelLiters+quantity > tank.CapacityLiters {
		return ErrTankCapacityExceeded
	}
	return nil
}

// CheckIssueStock rejects an issue larger than the tank's current level.
func (s *FuelService) CheckIssueStock(tank *models.Tank, quantity float64) error {
	if tank.CurrentLevelLiters < quantity {
		return ErrInsufficientDiesel
	}
	return nil
}

// TodayConsumption sums a vehicle's consumption since local midnight.
func (s *FuelService) TodayConsumption(vehicleID uint) (float64, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var total float64
	err := s.db.Model(&models.DieselConsumption{}).
		Where("vehicle_id = ? AND consumed_at >= ?", vehicleID, midnight).
		Select("COALESCE(SUM(quantity_liters), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum today's consumption: %w", err)
	}
	return total, nil
}

// CheckDailyLimit enforces the vehicle's daily allowance, if one is set.
func (s *FuelService) CheckDailyLimit(vehicle *models.Vehicle, quantity float64) error {
	if vehicle.DailyLimitLiters <= 0 {
		return nil
	}
	used, err := s.TodayConsumption(vehicle.VehicleID)
	if err != nil {
		return err
	}
	if used+quantity > vehicle.DailyLimitLiters {
		return ErrDailyLimitExceeded
	}
	return nil
}

// TankLevel is one row of the fuel summary.
type TankLevel struct {
	TankID             uint    `json:"tank_id"`
	TankName           string  `json:"tank_name"`
	CapacityLiters     float64 `json:"capacity_liters"`
	CurrentLevelLiters float64 `json:"current_level_liters"`
	SiteName           string  `json:"site_name"`
}

// FuelSummary aggregates received vs consumed fuel plus tank levels.
type FuelSummary struct {
	TotalReceivedLiters float64     `json:"total_received_liters"`
	TotalConsumedLiters float64     `json:"total_consumed_liters"`
	TankLevels          []TankLevel `json:"tank_levels"`
}

// SiteFuelSummary computes the summary, optionally scoped to one site and an
// inclusive date range.
func (s *FuelService) SiteFuelSummary(siteID *uint, from, to *time.Time) (FuelSummary, error) {
	var out FuelSummary

	recv := s.db.Model(&models.DieselReceiving{})
	cons := s.db.Model(&models.DieselConsumption{})
	if siteID != nil {
		recv = recv.Where("site_id = ?", *siteID)
		cons = cons.Where("site_id = ?", *siteID)
	}
	if from != nil {
		recv = recv.Where("received_at >= ?", *from)
		cons = cons.Where("consumed_at >= ?", *from)
	}
	if to != nil {
		recv = recv.Where("received_at <= ?", *to)
		cons = cons.Where("consumed_at <= ?", *to)
	}
	if err := recv.Select("COALESCE(SUM(quantity_liters), 0)").Scan(&out.TotalReceivedLiters).Error; err != nil {
		return out, fmt.Errorf("sum received: %w", err)
	}
	if err := cons.Select("COALESCE(SUM(quantity_liters), 0)").Scan(&out.TotalConsumedLiters).Error; err != nil {
		return out, fmt.Errorf("sum consumed: %w", err)
	}

	tanks := s.db.Model(&models.Tank{}).
		Select("tanks.tank_id, tanks.tank_name, tanks.capacity_liters, tanks.current_level_liters, sites.site_name").
		Joins("JOIN sites ON sites.site_id = tanks.site_id")
	if siteID != nil {
		tanks = tanks.Where("tanks.site_id = ?", *siteID)
	}
	if err := tanks.Scan(&out.TankLevels).Error; err != nil {
		return out, fmt.Errorf("tank levels: %w", err)
	}
	return out, nil
}
