package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carshare-backend/internal/model"
	"carshare-backend/internal/store"
)

func vehicleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("vehicle_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid vehicle id"})
		return 0, false
	}
	return id, true
}

// ListVehicles handles GET /api/vehicles.
func (h *Handler) ListVehicles(c *gin.Context) {
	vehicles, err := h.store.ListVehicles(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve vehicles"})
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// GetVehicle handles GET /api/vehicles/{vehicle_id}.
func (h *Handler) GetVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	v, err := h.store.GetVehicle(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrVehicleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve vehicle"})
		}
		return
	}
	c.JSON(http.StatusOK, v)
}

type vehicleRequest struct {
	Name           string  `json:"name" binding:"required"`
	Category       string  `json:"category"`
	PricePerMinute float64 `json:"pricePerMinute" binding:"required,gt=0"`
	Seats          int     `json:"seats"`
	RangeKM        int     `json:"rangeKm"`
	BatteryLevel   int     `json:"batteryLevel"`
	Available      *bool   `json:"available"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	PickupAddress  string  `json:"pickupAddress"`
	ImageURL       string  `json:"imageUrl"`
}

func (r *vehicleRequest) apply(v *model.Vehicle) {
	v.Name = r.Name
	v.Category = r.Category
	v.PricePerMinute = r.PricePerMinute
	v.Seats = r.Seats
	v.RangeKM = r.RangeKM
	v.BatteryLevel = r.BatteryLevel
	v.Latitude = r.Latitude
	v.Longitude = r.Longitude
	v.PickupAddress = r.PickupAddress
	v.ImageURL = r.ImageURL
	if r.Available != nil {
		v.Available = *r.Available
	}
}

// CreateVehicle handles POST /api/vehicles.
func (h *Handler) CreateVehicle(c *gin.Context) {
	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v := model.Vehicle{Available: true}
	req.apply(&v)
	if err := h.store.CreateVehicle(c.Request.Context(), &v); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create vehicle"})
		return
	}
	c.JSON(http.StatusCreated, v)
}

// UpdateVehicle handles PUT /api/vehicles/{vehicle_id}.
func (h *Handler) UpdateVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.store.GetVehicle(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrVehicleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve vehicle"})
		}
		return
	}

	req.apply(v)
	if err := h.store.UpdateVehicle(c.Request.Context(), v); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update vehicle"})
		return
	}
	c.JSON(http.StatusOK, v)
}

// DeleteVehicle handles DELETE /api/vehicles/{vehicle_id}. Bookings keep
// their snapshots, so history stays intact.
func (h *Handler) DeleteVehicle(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteVehicle(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrVehicleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete vehicle"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}

type availabilityFlagRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetVehicleAvailability handles PATCH /api/vehicles/{vehicle_id}/availability,
// the administrative out-of-service toggle.
func (h *Handler) SetVehicleAvailability(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}
	var req availabilityFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v, err := h.store.SetVehicleAvailability(c.Request.Context(), id, *req.Available)
	if err != nil {
		if errors.Is(err, store.ErrVehicleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update availability"})
		}
		return
	}
	c.JSON(http.StatusOK, v)
}

// CheckAvailability handles
// GET /api/vehicles/{vehicle_id}/availability?start=...&end=...[&exclude_booking_id=...].
// Unavailability is a normal answer; only malformed input or store faults are
// errors.
func (h *Handler) CheckAvailability(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'start' timestamp. Use RFC3339."})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'end' timestamp. Use RFC3339."})
		return
	}

	available, err := h.scheduler.CheckAvailability(c.Request.Context(), id, start, end, c.Query("exclude_booking_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "availability check failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

// bookingSlotResponse is the trimmed booking view for availability displays.
type bookingSlotResponse struct {
	ID        string              `json:"id"`
	StartTime time.Time           `json:"startTime"`
	EndTime   time.Time           `json:"endTime"`
	Status    model.BookingStatus `json:"status"`
}

// ListVehicleBookings handles GET /api/vehicles/{vehicle_id}/bookings?from=RFC3339.
func (h *Handler) ListVehicleBookings(c *gin.Context) {
	id, ok := vehicleID(c)
	if !ok {
		return
	}

	from := time.Now().UTC()
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' timestamp. Use RFC3339."})
			return
		}
		from = parsed
	}

	bookings, err := h.scheduler.ListBookings(c.Request.Context(), id, from)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list bookings"})
		return
	}

	response := make([]bookingSlotResponse, 0, len(bookings))
	for _, b := range bookings {
		response = append(response, bookingSlotResponse{
			ID:        b.ID,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Status:    b.Status,
		})
	}
	c.JSON(http.StatusOK, response)
}
