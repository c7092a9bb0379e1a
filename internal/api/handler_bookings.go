package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carshare-backend/internal/booking"
	"carshare-backend/internal/model"
	"carshare-backend/internal/notification"
)

type reserveRequest struct {
	UserID    string    `json:"userId" binding:"required"`
	VehicleID int64     `json:"vehicleId" binding:"required"`
	StartTime time.Time `json:"startTime" binding:"required"`
	EndTime   time.Time `json:"endTime" binding:"required"`
}

// Reserve handles POST /api/bookings, the atomic reservation operation.
func (h *Handler) Reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.scheduler.Reserve(c.Request.Context(), booking.ReserveInput{
		UserID:    req.UserID,
		VehicleID: req.VehicleID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		h.bookingError(c, err)
		return
	}

	// Confirmation push and live update are fire-and-forget: their failure
	// must never make a successful reservation look failed.
	if h.notifier != nil {
		h.notifier.Dispatch(notification.Job{BookingID: b.ID, Kind: notification.KindConfirmation})
	}
	h.broadcast(b)

	c.JSON(http.StatusCreated, b)
}

// GetBooking handles GET /api/bookings/{booking_id}.
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.scheduler.GetBooking(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		h.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type actorRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// CancelBooking handles POST /api/bookings/{booking_id}/cancel.
func (h *Handler) CancelBooking(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin := isAdmin(c.GetHeader("X-Admin"))
	b, err := h.scheduler.Cancel(c.Request.Context(), c.Param("booking_id"), req.UserID, admin)
	if err != nil {
		h.bookingError(c, err)
		return
	}

	if h.notifier != nil {
		h.notifier.Dispatch(notification.Job{BookingID: b.ID, Kind: notification.KindCancellation})
	}
	h.broadcast(b)

	c.JSON(http.StatusOK, b)
}

// PickupBooking handles POST /api/bookings/{booking_id}/pickup
// (confirmed -> active, driven by the renter's possession evidence).
func (h *Handler) PickupBooking(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.scheduler.Pickup(c.Request.Context(), c.Param("booking_id"), req.UserID)
	if err != nil {
		h.bookingError(c, err)
		return
	}
	h.broadcast(b)
	c.JSON(http.StatusOK, b)
}

// ReturnBooking handles POST /api/bookings/{booking_id}/return
// (active -> completed).
func (h *Handler) ReturnBooking(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.scheduler.Return(c.Request.Context(), c.Param("booking_id"), req.UserID)
	if err != nil {
		h.bookingError(c, err)
		return
	}
	h.broadcast(b)
	c.JSON(http.StatusOK, b)
}

// UnlockVehicle handles POST /api/bookings/{booking_id}/unlock.
func (h *Handler) UnlockVehicle(c *gin.Context) {
	h.setLockState(c, true)
}

// LockVehicle handles POST /api/bookings/{booking_id}/lock.
func (h *Handler) LockVehicle(c *gin.Context) {
	h.setLockState(c, false)
}

func (h *Handler) setLockState(c *gin.Context, unlocked bool) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.scheduler.SetUnlocked(c.Request.Context(), c.Param("booking_id"), req.UserID, unlocked)
	if err != nil {
		h.bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": b.ID, "vehicleUnlocked": b.VehicleUnlocked})
}

func (h *Handler) broadcast(b *model.Booking) {
	if h.hub != nil {
		h.hub.BroadcastBookingUpdate(b)
	}
}

// bookingError maps scheduler errors onto HTTP statuses with stable error
// codes, so the client can show slot-specific messaging.
func (h *Handler) bookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidInterval):
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_INTERVAL", "error": err.Error()})
	case errors.Is(err, booking.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"code": "NOT_OWNER", "error": err.Error()})
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "error": err.Error()})
	case errors.Is(err, booking.ErrSlotTaken):
		c.JSON(http.StatusConflict, gin.H{"code": "SLOT_TAKEN", "error": err.Error()})
	case errors.Is(err, booking.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"code": "INVALID_TRANSITION", "error": err.Error()})
	case errors.Is(err, booking.ErrVehicleUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"code": "VEHICLE_UNAVAILABLE", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": "STORE_UNAVAILABLE", "error": "reservation store error"})
	}
}
