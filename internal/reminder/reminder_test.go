package reminder

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"carshare-backend/config"
	"carshare-backend/internal/model"
	"carshare-backend/internal/notification"
)

func newTestService(t *testing.T) (*Service, *notification.WorkerPool, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:reminder_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(&model.Booking{}))

	// Buffered pool without started workers so dispatched jobs stay
	// observable in the channel.
	pool := notification.NewWorkerPool(8, db, &webpush.Options{})

	cfg := &config.BookingConfig{
		RemindersEnabled: true,
		ReminderLead:     30 * time.Minute,
	}
	svc := NewService(cfg, db, pool)
	svc.now = func() time.Time {
		return time.Date(2025, 1, 10, 9, 45, 0, 0, time.UTC)
	}
	return svc, pool, db
}

func seedReminderBooking(t *testing.T, db *gorm.DB, id string, start time.Time, status model.BookingStatus, sent bool) {
	t.Helper()
	require.NoError(t, db.Create(&model.Booking{
		ID:           id,
		UserID:       "alice",
		VehicleID:    7,
		VehicleName:  "City Runner",
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		Status:       status,
		ReminderSent: sent,
	}).Error)
}

func TestSweepDispatchesDueReminders(t *testing.T) {
	svc, pool, db := newTestService(t)

	due := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	seedReminderBooking(t, db, "b-due", due, model.StatusConfirmed, false)
	// Outside the lead window, already started, wrong status, already sent:
	// none of these may be picked up.
	seedReminderBooking(t, db, "b-far", due.Add(2*time.Hour), model.StatusConfirmed, false)
	seedReminderBooking(t, db, "b-past", due.Add(-time.Hour), model.StatusConfirmed, false)
	seedReminderBooking(t, db, "b-cancelled", due, model.StatusCancelled, false)
	seedReminderBooking(t, db, "b-done", due.Add(10*time.Minute), model.StatusConfirmed, true)

	n, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	select {
	case job := <-pool.Jobs():
		assert.Equal(t, "b-due", job.BookingID)
		assert.Equal(t, notification.KindReminder, job.Kind)
	default:
		t.Fatal("expected a reminder job to be dispatched")
	}

	var b model.Booking
	require.NoError(t, db.First(&b, "id = ?", "b-due").Error)
	assert.True(t, b.ReminderSent)
}

func TestSweepIsIdempotent(t *testing.T) {
	svc, pool, db := newTestService(t)

	due := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	seedReminderBooking(t, db, "b-once", due, model.StatusConfirmed, false)

	n, err := svc.SweepOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	<-pool.Jobs()

	n, err = svc.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	select {
	case job := <-pool.Jobs():
		t.Fatalf("unexpected second reminder for booking %s", job.BookingID)
	default:
	}
}

func TestRunRespectsDisabledConfig(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.cfg.RemindersEnabled = false

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when reminders are disabled")
	}
}
