package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"carshare-backend/internal/model"
)

// liveStatuses are the booking statuses that occupy their time slot.
var liveStatuses = []model.BookingStatus{model.StatusConfirmed, model.StatusActive}

// Scheduler owns the no-double-booking invariant: for a fixed vehicle, the
// set of confirmed/active bookings is pairwise non-overlapping on
// [start_time, end_time).
//
// Reservations on the same vehicle are serialised by a per-vehicle mutex
// around a single transaction, so the availability check and the insert are
// indivisible with respect to other reservation attempts. On Postgres the
// store additionally enforces a range exclusion constraint (see internal/db)
// as a backstop when several instances share one database.
type Scheduler struct {
	db    *gorm.DB
	locks *vehicleLocks
	grace time.Duration
	now   func() time.Time
}

// NewScheduler creates a scheduler. grace is the tolerance for reservation
// start times that already lie slightly in the past.
func NewScheduler(db *gorm.DB, grace time.Duration) *Scheduler {
	return &Scheduler{
		db:    db,
		locks: newVehicleLocks(),
		grace: grace,
		now:   time.Now,
	}
}

// SetClock overrides the scheduler's time source. Used by tests.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// overlapQuery counts live bookings on the vehicle that intersect
// [start, end). excludeBookingID, when non-empty, leaves one booking out of
// the check (edit flows re-checking their own slot).
func overlapQuery(tx *gorm.DB, vehicleID int64, start, end time.Time, excludeBookingID string) (int64, error) {
	q := tx.Model(&model.Booking{}).
		Where("vehicle_id = ? AND status IN ?", vehicleID, liveStatuses).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeBookingID != "" {
		q = q.Where("id <> ?", excludeBookingID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count overlapping bookings for vehicle %d: %w", vehicleID, err)
	}
	return count, nil
}

// CheckAvailability reports whether [start, end) is free on the vehicle. It
// is a pure advisory read with no atomicity guarantee; Reserve re-validates
// authoritatively. Unavailability is a normal answer, not an error.
func (s *Scheduler) CheckAvailability(ctx context.Context, vehicleID int64, start, end time.Time, excludeBookingID string) (bool, error) {
	if !end.After(start) {
		return false, nil
	}
	count, err := overlapQuery(s.db.WithContext(ctx), vehicleID, start, end, excludeBookingID)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// ReserveInput is a candidate reservation. Price and vehicle snapshots are
// taken from the vehicle row inside the transaction.
type ReserveInput struct {
	UserID    string
	VehicleID int64
	StartTime time.Time
	EndTime   time.Time
}

// Reserve atomically creates a confirmed booking if the interval is free.
// Under concurrent overlapping attempts on the same vehicle exactly one
// caller succeeds; the rest get ErrSlotTaken.
func (s *Scheduler) Reserve(ctx context.Context, in ReserveInput) (*model.Booking, error) {
	if !ValidInterval(in.StartTime, in.EndTime, s.now(), s.grace) {
		return nil, ErrInvalidInterval
	}

	lock := s.locks.get(in.VehicleID)
	lock.Lock()
	defer lock.Unlock()

	var b *model.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vehicle model.Vehicle
		if err := tx.First(&vehicle, in.VehicleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVehicleUnavailable
			}
			return fmt.Errorf("load vehicle %d: %w", in.VehicleID, err)
		}
		if !vehicle.Available {
			return ErrVehicleUnavailable
		}

		count, err := overlapQuery(tx, in.VehicleID, in.StartTime, in.EndTime, "")
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotTaken
		}

		b = &model.Booking{
			ID:              uuid.NewString(),
			VehicleID:       vehicle.ID,
			UserID:          in.UserID,
			StartTime:       in.StartTime,
			EndTime:         in.EndTime,
			PricePerMinute:  vehicle.PricePerMinute,
			TotalPrice:      TotalPrice(in.StartTime, in.EndTime, vehicle.PricePerMinute),
			Status:          model.StatusConfirmed,
			PickupAddress:   vehicle.PickupAddress,
			VehicleName:     vehicle.Name,
			VehicleCategory: vehicle.Category,
		}
		if err := tx.Create(b).Error; err != nil {
			// The Postgres exclusion constraint fires when another instance
			// inserted a conflicting booking outside our mutex.
			if strings.Contains(err.Error(), "bookings_no_overlap") {
				return ErrSlotTaken
			}
			return fmt.Errorf("create booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Cancel voids a confirmed or active booking, immediately freeing its slot.
// Only the owner or an administrator may cancel.
func (s *Scheduler) Cancel(ctx context.Context, bookingID, userID string, admin bool) (*model.Booking, error) {
	return s.transition(ctx, bookingID, userID, admin, model.StatusCancelled)
}

// Pickup marks a confirmed booking active once the renter takes possession.
// Rejected before the booking's start time.
func (s *Scheduler) Pickup(ctx context.Context, bookingID, userID string) (*model.Booking, error) {
	return s.transition(ctx, bookingID, userID, false, model.StatusActive)
}

// Return completes an active booking and relocks the vehicle.
func (s *Scheduler) Return(ctx context.Context, bookingID, userID string) (*model.Booking, error) {
	return s.transition(ctx, bookingID, userID, false, model.StatusCompleted)
}

// transition loads the booking, enforces ownership and the status flow, and
// persists the change in one transaction. Ownership is checked first, so a
// non-owner learns nothing about the booking's timing or state. Activation is
// rejected before the booking's start time, and completion relocks the
// vehicle in the same write.
func (s *Scheduler) transition(ctx context.Context, bookingID, userID string, admin bool, to model.BookingStatus) (*model.Booking, error) {
	var b model.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load booking %s: %w", bookingID, err)
		}
		if b.UserID != userID && !admin {
			return ErrNotOwner
		}
		if to == model.StatusActive && s.now().Before(b.StartTime) {
			return ErrInvalidTransition
		}
		if err := b.ApplyTransition(to, s.now()); err != nil {
			return ErrInvalidTransition
		}
		if to == model.StatusCompleted {
			b.VehicleUnlocked = false
		}
		if err := tx.Save(&b).Error; err != nil {
			return fmt.Errorf("save booking %s: %w", bookingID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// SetUnlocked toggles the remote lock state of the booked vehicle. Unlocking
// needs an active booking, or a confirmed one whose start time has passed;
// locking works on any live booking.
func (s *Scheduler) SetUnlocked(ctx context.Context, bookingID, userID string, unlocked bool) (*model.Booking, error) {
	var b model.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&b, "id = ?", bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load booking %s: %w", bookingID, err)
		}
		if b.UserID != userID {
			return ErrNotOwner
		}
		if !b.Status.Live() {
			return ErrInvalidTransition
		}
		if unlocked && b.Status == model.StatusConfirmed && s.now().Before(b.StartTime) {
			return ErrInvalidTransition
		}
		b.VehicleUnlocked = unlocked
		if err := tx.Model(&b).Update("vehicle_unlocked", unlocked).Error; err != nil {
			return fmt.Errorf("update lock state for booking %s: %w", bookingID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBookings returns the vehicle's bookings that end at or after from,
// ordered by start time. All statuses are included so availability views can
// distinguish live slots from history.
func (s *Scheduler) ListBookings(ctx context.Context, vehicleID int64, from time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("vehicle_id = ? AND end_time >= ?", vehicleID, from).
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("list bookings for vehicle %d: %w", vehicleID, err)
	}
	return bookings, nil
}

// GetBooking fetches a single booking by id.
func (s *Scheduler) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}
	return &b, nil
}
