package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"carshare-backend/internal/model"
)

// Kind distinguishes the push messages a booking can trigger.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindReminder     Kind = "reminder"
	KindCancellation Kind = "cancellation"
)

// Job asks the pool to notify the renter of a booking.
type Job struct {
	BookingID string
	Kind      Kind
}

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool manages a pool of workers for sending booking notifications.
// Dispatch is fire-and-forget: a failed push is logged, never surfaced to the
// reservation path.
type WorkerPool struct {
	size    int
	jobs    chan Job
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.notifyBooking(ctx, job)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(job Job) {
	wp.jobs <- job
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

// payload is the JSON body delivered to the push endpoint.
type payload struct {
	Kind      Kind   `json:"kind"`
	BookingID string `json:"bookingId"`
	Vehicle   string `json:"vehicle"`
	Message   string `json:"message"`
}

// notifyBooking fetches the booking and the renter's subscriptions and pushes
// to every registered device.
func (wp *WorkerPool) notifyBooking(ctx context.Context, job Job) {
	var b model.Booking
	if err := wp.db.WithContext(ctx).First(&b, "id = ?", job.BookingID).Error; err != nil {
		log.Printf("Error fetching booking %s for notification: %v", job.BookingID, err)
		return
	}

	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).
		Where("user_id = ?", b.UserID).
		Find(&subscriptions).Error; err != nil {
		log.Printf("Error fetching subscriptions for user %s: %v", b.UserID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	body, err := json.Marshal(payload{
		Kind:      job.Kind,
		BookingID: b.ID,
		Vehicle:   b.VehicleName,
		Message:   messageFor(job.Kind, &b),
	})
	if err != nil {
		log.Printf("Error encoding notification payload for booking %s: %v", b.ID, err)
		return
	}

	log.Printf("Sending %d %s notifications for booking %s", len(subscriptions), job.Kind, b.ID)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, body)
	}
}

func messageFor(kind Kind, b *model.Booking) string {
	switch kind {
	case KindReminder:
		return fmt.Sprintf("Your booking of %s starts at %s. Pickup: %s",
			b.VehicleName, b.StartTime.Format("15:04"), b.PickupAddress)
	case KindCancellation:
		return fmt.Sprintf("Your booking of %s has been cancelled.", b.VehicleName)
	default:
		return fmt.Sprintf("Booking confirmed: %s from %s to %s, total %.2f",
			b.VehicleName, b.StartTime.Format("Jan 2 15:04"), b.EndTime.Format("15:04"), b.TotalPrice)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, body []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(body, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
