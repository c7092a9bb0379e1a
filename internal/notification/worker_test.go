package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockSender is a mock implementation of the Sender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

func expectBookingQuery(mock sqlmock.Sqlmock, bookingID string) {
	mock.ExpectQuery(`SELECT .* FROM "bookings" WHERE id = \$1`).
		WithArgs(bookingID, 1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "vehicle_id", "vehicle_name", "pickup_address",
			"price_per_minute", "total_price", "start_time", "end_time", "status",
		}).AddRow(
			bookingID, "alice", 7, "City Runner", "1 Main St",
			0.30, 9.00,
			time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 10, 10, 30, 0, 0, time.UTC),
			"confirmed",
		))
}

func expectSubscriptionQuery(mock sqlmock.Sqlmock, endpoint string) {
	mock.ExpectQuery(`SELECT .* FROM "push_subscriptions" WHERE user_id = \$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "user_id", "p256dh", "auth", "created_at"}).
			AddRow(endpoint, "alice", "test_p256dh", "test_auth", time.Now()))
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	wp.Dispatch(Job{BookingID: "b-1", Kind: KindConfirmation})

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, "b-1", job.BookingID)
		assert.Equal(t, KindConfirmation, job.Kind)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends confirmation to each subscribed device", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Contains(t, string(payload), `"kind":"confirmation"`)
				assert.Contains(t, string(payload), "City Runner")
				assert.Contains(t, string(payload), "9.00")
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		expectBookingQuery(mock, "b-confirm")
		expectSubscriptionQuery(mock, "https://example.com/push")

		wp.Dispatch(Job{BookingID: "b-confirm", Kind: KindConfirmation})
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reminder names the pickup address", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Contains(t, string(payload), `"kind":"reminder"`)
				assert.Contains(t, string(payload), "1 Main St")
				wg.Done()
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		expectBookingQuery(mock, "b-remind")
		expectSubscriptionQuery(mock, "https://example.com/push")

		wp.Dispatch(Job{BookingID: "b-remind", Kind: KindReminder})
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		expectBookingQuery(mock, "b-expired")
		expectSubscriptionQuery(mock, "https://example.com/expired")

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		wp.Dispatch(Job{BookingID: "b-expired", Kind: KindCancellation})

		// A short sleep to allow the worker to process the job
		time.Sleep(100 * time.Millisecond)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips sending when the user has no devices", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Error("no notification should be sent without subscriptions")
				return nil, nil
			},
		}

		expectBookingQuery(mock, "b-nosub")
		mock.ExpectQuery(`SELECT .* FROM "push_subscriptions" WHERE user_id = \$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "user_id", "p256dh", "auth", "created_at"}))

		wp.Dispatch(Job{BookingID: "b-nosub", Kind: KindConfirmation})

		time.Sleep(100 * time.Millisecond)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
