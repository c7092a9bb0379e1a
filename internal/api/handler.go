package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"carshare-backend/internal/booking"
	"carshare-backend/internal/notification"
	"carshare-backend/internal/store"
	"carshare-backend/internal/ws"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	scheduler *booking.Scheduler
	notifier  *notification.WorkerPool
	hub       *ws.Hub
	webpush   *webpush.Options
}

// NewHandler creates a new API handler. notifier and hub may be nil in tests;
// both are optional side channels, never part of the booking contract.
func NewHandler(s store.Store, sched *booking.Scheduler, notifier *notification.WorkerPool, hub *ws.Hub, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:     s,
		scheduler: sched,
		notifier:  notifier,
		hub:       hub,
		webpush:   webpushOptions,
	}
}

// isAdmin reports whether the upstream auth proxy flagged this request as an
// administrator. Authentication itself is outside this service.
func isAdmin(header string) bool {
	return header == "true"
}
