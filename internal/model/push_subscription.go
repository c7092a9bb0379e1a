package model

import "time"

// PushSubscription holds a browser push subscription for a renter. A user may
// be subscribed from several devices; all of them receive booking updates.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	UserID    string    `gorm:"index;size:64;not null"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}
