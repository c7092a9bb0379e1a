package booking

import "sync"

// vehicleLocks hands out one mutex per vehicle id so that conflicting
// reservation attempts on the same vehicle are serialised in-process, while
// attempts on different vehicles proceed independently.
type vehicleLocks struct {
	mu    sync.RWMutex
	locks map[int64]*sync.Mutex
}

func newVehicleLocks() *vehicleLocks {
	return &vehicleLocks{locks: make(map[int64]*sync.Mutex)}
}

func (v *vehicleLocks) add(vehicleID int64) *sync.Mutex {
	v.mu.Lock()
	defer v.mu.Unlock()

	if l, ok := v.locks[vehicleID]; ok {
		return l
	}
	l := &sync.Mutex{}
	v.locks[vehicleID] = l
	return l
}

// get returns the mutex for a vehicle, creating it on first use.
func (v *vehicleLocks) get(vehicleID int64) *sync.Mutex {
	v.mu.RLock()
	l, ok := v.locks[vehicleID]
	v.mu.RUnlock()

	if !ok {
		return v.add(vehicleID)
	}
	return l
}
