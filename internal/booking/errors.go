package booking

import "errors"

// Sentinel errors returned by the scheduler. Callers match them with
// errors.Is to drive slot-specific UI messaging; anything else is a store
// fault and safe to retry with backoff.
var (
	// ErrInvalidInterval means end <= start, or the start lies in the past
	// beyond the configured grace. Rejected before any store access.
	ErrInvalidInterval = errors.New("invalid booking interval")

	// ErrVehicleUnavailable means the vehicle is unknown or administratively
	// flagged out of service, regardless of the requested interval.
	ErrVehicleUnavailable = errors.New("vehicle not available")

	// ErrSlotTaken means the authoritative check found an overlapping
	// confirmed or active booking. Expected and recoverable.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrNotOwner means the requester neither owns the booking nor is an
	// administrator.
	ErrNotOwner = errors.New("booking does not belong to requester")

	// ErrInvalidTransition means the requested status change is not legal
	// from the booking's current status.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrNotFound means no booking or vehicle with the given id exists.
	ErrNotFound = errors.New("not found")
)
