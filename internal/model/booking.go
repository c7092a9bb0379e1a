package model

import (
	"fmt"
	"time"
)

// BookingStatus is persisted as a string.
type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusActive    BookingStatus = "active"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// AllowedTransitions defines the legal booking status flow. Terminal states
// have no outgoing edges; transitions are never reverted.
var AllowedTransitions = map[BookingStatus][]BookingStatus{
	StatusConfirmed: {StatusActive, StatusCancelled},
	StatusActive:    {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to BookingStatus) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Booking represents a reserved time slot on a vehicle.
//
// Vehicle name, category, address and price are snapshotted at reservation
// time so past bookings keep displaying correctly after the vehicle is
// edited or deleted.
type Booking struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	VehicleID int64  `gorm:"index:idx_bookings_vehicle_status;not null" json:"vehicleId"`
	UserID    string `gorm:"index;size:64;not null" json:"userId"`

	StartTime time.Time `gorm:"not null" json:"startTime"`
	EndTime   time.Time `gorm:"not null" json:"endTime"`

	PricePerMinute float64 `gorm:"not null" json:"pricePerMinute"`
	TotalPrice     float64 `gorm:"not null" json:"totalPrice"`

	Status BookingStatus `gorm:"type:varchar(16);index:idx_bookings_vehicle_status;not null" json:"status"`

	PickupAddress   string `gorm:"size:255" json:"pickupAddress"`
	VehicleName     string `gorm:"size:128" json:"vehicleName"`
	VehicleCategory string `gorm:"size:64" json:"vehicleCategory"`

	VehicleUnlocked bool `gorm:"not null;default:false" json:"vehicleUnlocked"`
	ReminderSent    bool `gorm:"not null;default:false" json:"reminderSent"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
}

// ApplyTransition moves the booking to the target status and stamps the
// matching timestamp field. Call only after CanTransition.
func (b *Booking) ApplyTransition(to BookingStatus, now time.Time) error {
	if !CanTransition(b.Status, to) {
		return fmt.Errorf("invalid booking status transition: %s -> %s", b.Status, to)
	}
	b.Status = to
	t := now
	switch to {
	case StatusActive:
		if b.ActivatedAt == nil {
			b.ActivatedAt = &t
		}
	case StatusCompleted:
		if b.CompletedAt == nil {
			b.CompletedAt = &t
		}
	case StatusCancelled:
		if b.CancelledAt == nil {
			b.CancelledAt = &t
		}
	}
	return nil
}

// Live reports whether the booking occupies its time slot. Cancelled and
// completed bookings never conflict with new reservations.
func (s BookingStatus) Live() bool {
	return s == StatusConfirmed || s == StatusActive
}
