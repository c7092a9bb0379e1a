package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"carshare-backend/internal/model"
)

// ErrVehicleNotFound is returned when no vehicle with the given id exists.
var ErrVehicleNotFound = errors.New("vehicle not found")

// Store defines the vehicle-catalogue operations used by the API layer.
type Store interface {
	DB() *gorm.DB
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	GetVehicle(ctx context.Context, id int64) (*model.Vehicle, error)
	CreateVehicle(ctx context.Context, v *model.Vehicle) error
	UpdateVehicle(ctx context.Context, v *model.Vehicle) error
	DeleteVehicle(ctx context.Context, id int64) error
	SetVehicleAvailability(ctx context.Context, id int64, available bool) (*model.Vehicle, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// ListVehicles returns the whole fleet, ordered by id.
func (s *gormStore) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	return vehicles, nil
}

func (s *gormStore) GetVehicle(ctx context.Context, id int64) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to load vehicle %d: %w", id, err)
	}
	return &v, nil
}

func (s *gormStore) CreateVehicle(ctx context.Context, v *model.Vehicle) error {
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateVehicle(ctx context.Context, v *model.Vehicle) error {
	if err := s.db.WithContext(ctx).Save(v).Error; err != nil {
		return fmt.Errorf("failed to update vehicle %d: %w", v.ID, err)
	}
	return nil
}

// DeleteVehicle removes the vehicle row. Existing bookings keep their
// snapshots and stay displayable.
func (s *gormStore) DeleteVehicle(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.Vehicle{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete vehicle %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVehicleNotFound
	}
	return nil
}

// SetVehicleAvailability flips the administrative out-of-service flag. It
// does not touch existing bookings.
func (s *gormStore) SetVehicleAvailability(ctx context.Context, id int64, available bool) (*model.Vehicle, error) {
	v, err := s.GetVehicle(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Available = available
	if err := s.db.WithContext(ctx).Model(v).Update("available", available).Error; err != nil {
		return nil, fmt.Errorf("failed to set availability for vehicle %d: %w", id, err)
	}
	return v, nil
}
