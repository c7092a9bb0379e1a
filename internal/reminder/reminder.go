package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"carshare-backend/config"
	"carshare-backend/internal/model"
	"carshare-backend/internal/notification"
)

// Service periodically looks for confirmed bookings that start soon and have
// not been reminded yet, and dispatches a push for each. The reminder_sent
// flag is flipped in the same update that selects the row, so a booking is
// reminded at most once even across restarts.
type Service struct {
	cfg  *config.BookingConfig
	db   *gorm.DB
	pool *notification.WorkerPool
	now  func() time.Time
}

// NewService creates the reminder service.
func NewService(cfg *config.BookingConfig, db *gorm.DB, pool *notification.WorkerPool) *Service {
	return &Service{cfg: cfg, db: db, pool: pool, now: time.Now}
}

// Run starts the sweep loop. It returns when ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.RemindersEnabled {
		log.Println("Booking reminders are disabled. Not starting.")
		return
	}
	log.Println("Starting booking reminder service...")

	ticker := time.NewTicker(s.cfg.ReminderSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := s.SweepOnce(ctx); err != nil {
				log.Printf("Reminder sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("Dispatched %d booking reminders", n)
			}
		case <-ctx.Done():
			log.Println("Reminder service shutting down")
			return
		}
	}
}

// SweepOnce runs a single sweep and returns how many reminders it dispatched.
func (s *Service) SweepOnce(ctx context.Context) (int, error) {
	now := s.now()
	horizon := now.Add(s.cfg.ReminderLead)

	var due []model.Booking
	err := s.db.WithContext(ctx).
		Where("status = ? AND reminder_sent = ? AND start_time > ? AND start_time <= ?",
			model.StatusConfirmed, false, now, horizon).
		Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("query due bookings: %w", err)
	}

	sent := 0
	for _, b := range due {
		// Claim the row before dispatching; zero rows affected means another
		// sweep got there first.
		res := s.db.WithContext(ctx).
			Model(&model.Booking{}).
			Where("id = ? AND reminder_sent = ?", b.ID, false).
			Update("reminder_sent", true)
		if res.Error != nil {
			return sent, fmt.Errorf("mark reminder for booking %s: %w", b.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		s.pool.Dispatch(notification.Job{BookingID: b.ID, Kind: notification.KindReminder})
		sent++
	}
	return sent, nil
}
