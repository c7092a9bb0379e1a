package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"carshare-backend/internal/model"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(&model.Vehicle{}, &model.Booking{}, &model.PushSubscription{}))
	return NewGormStore(db)
}

func TestVehicleCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := &model.Vehicle{
		Name:           "City Runner",
		Category:       "compact",
		PricePerMinute: 0.30,
		Seats:          4,
		Available:      true,
		PickupAddress:  "1 Main St",
	}
	require.NoError(t, s.CreateVehicle(ctx, v))
	require.NotZero(t, v.ID)

	got, err := s.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "City Runner", got.Name)
	assert.True(t, got.Available)

	got.Name = "City Runner II"
	got.BatteryLevel = 80
	require.NoError(t, s.UpdateVehicle(ctx, got))

	updated, err := s.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "City Runner II", updated.Name)
	assert.Equal(t, 80, updated.BatteryLevel)

	require.NoError(t, s.DeleteVehicle(ctx, v.ID))
	_, err = s.GetVehicle(ctx, v.ID)
	assert.ErrorIs(t, err, ErrVehicleNotFound)
	assert.ErrorIs(t, s.DeleteVehicle(ctx, v.ID), ErrVehicleNotFound)
}

func TestListVehiclesOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, s.CreateVehicle(ctx, &model.Vehicle{
			Name: name, PricePerMinute: 0.25, Available: true,
		}))
	}

	vehicles, err := s.ListVehicles(ctx)
	require.NoError(t, err)
	require.Len(t, vehicles, 3)
	assert.Less(t, vehicles[0].ID, vehicles[1].ID)
	assert.Less(t, vehicles[1].ID, vehicles[2].ID)
}

func TestCreateVehicleKeepsOutOfServiceFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A vehicle registered while already out of service must stay that way;
	// a column default would swallow the false on insert.
	v := &model.Vehicle{Name: "Benched", PricePerMinute: 0.30, Available: false}
	require.NoError(t, s.CreateVehicle(ctx, v))

	got, err := s.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestSetVehicleAvailability(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := &model.Vehicle{Name: "Out of Service", PricePerMinute: 0.20, Available: true}
	require.NoError(t, s.CreateVehicle(ctx, v))

	got, err := s.SetVehicleAvailability(ctx, v.ID, false)
	require.NoError(t, err)
	assert.False(t, got.Available)

	reloaded, err := s.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Available)

	_, err = s.SetVehicleAvailability(ctx, 9999, false)
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}
