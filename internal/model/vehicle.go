package model

import "time"

// Vehicle represents a car in the shared fleet.
type Vehicle struct {
	ID             int64   `gorm:"primaryKey" json:"id"`
	Name           string  `gorm:"size:128;not null" json:"name"`
	Category       string  `gorm:"size:64;index" json:"category"`
	PricePerMinute float64 `gorm:"not null" json:"pricePerMinute"`
	Seats          int     `json:"seats"`
	RangeKM        int     `gorm:"column:range_km" json:"rangeKm"`
	BatteryLevel   int     `json:"batteryLevel"`
	// Available is the administrative out-of-service flag. It gates new
	// reservations but says nothing about booked time slots. No column
	// default: a gorm default tag would drop the zero value on insert and
	// silently put an out-of-service vehicle back in service.
	Available     bool      `gorm:"not null" json:"available"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	PickupAddress string    `gorm:"size:255" json:"pickupAddress"`
	ImageURL      string    `gorm:"size:512" json:"imageUrl"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
