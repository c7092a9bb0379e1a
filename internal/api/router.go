package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"carshare-backend/config"
	"carshare-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Vehicle catalogue. Only the plain reads are cacheable; the
		// availability check must always see current bookings.
		api.GET("/vehicles", caching, h.ListVehicles)
		api.GET("/vehicles/:vehicle_id", caching, h.GetVehicle)
		api.GET("/vehicles/:vehicle_id/availability", h.CheckAvailability)
		api.GET("/vehicles/:vehicle_id/bookings", h.ListVehicleBookings)

		// Admin fleet management.
		api.POST("/vehicles", h.CreateVehicle)
		api.PUT("/vehicles/:vehicle_id", h.UpdateVehicle)
		api.DELETE("/vehicles/:vehicle_id", h.DeleteVehicle)
		api.PATCH("/vehicles/:vehicle_id/availability", h.SetVehicleAvailability)

		// Booking lifecycle.
		api.POST("/bookings", h.Reserve)
		api.GET("/bookings/:booking_id", h.GetBooking)
		api.POST("/bookings/:booking_id/cancel", h.CancelBooking)
		api.POST("/bookings/:booking_id/pickup", h.PickupBooking)
		api.POST("/bookings/:booking_id/return", h.ReturnBooking)
		api.POST("/bookings/:booking_id/unlock", h.UnlockVehicle)
		api.POST("/bookings/:booking_id/lock", h.LockVehicle)

		// Push subscriptions.
		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	r.GET("/ws", h.ServeWS)

	return r
}
