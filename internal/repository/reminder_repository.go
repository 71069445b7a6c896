package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/medtrack/medtrack-api/internal/models"
)

// ReminderRepository holds the delivery ledger for reminder notifications.
// A claim is an atomic SET NX on the reminder's identity; whichever poller
// wins the claim owns delivery, so overlapping ticks and multiple workers
// never notify twice for the same occurrence.
type ReminderRepository struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewReminderRepository constructs a ReminderRepository. Claims expire after
// ttl, which must comfortably exceed the polling window.
func NewReminderRepository(client *redis.Client, logger *zap.Logger, ttl time.Duration) *ReminderRepository {
	return &ReminderRepository{client: client, logger: logger, ttl: ttl}
}

func reminderClaimKey(key models.ReminderKey) string {
	return fmt.Sprintf("reminder:%d:%d:%d:%d", key.PatientID, key.MedicationID, key.ScheduledSlot, key.Notification.Unix())
}

// Claim attempts to take ownership of a reminder. It returns false when
// another worker already holds or has completed it.
func (r *ReminderRepository) Claim(ctx context.Context, key models.ReminderKey) (bool, error) {
	if r.client == nil {
		// without a ledger every poller would deliver; refuse instead
		return false, fmt.Errorf("reminder claim: no redis client configured")
	}

	ok, err := r.client.SetNX(ctx, reminderClaimKey(key), time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reminder claim: %w", err)
	}
	return ok, nil
}

// Release gives a claim back after a failed delivery so the next poll can
// retry the notification.
func (r *ReminderRepository) Release(ctx context.Context, key models.ReminderKey) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, reminderClaimKey(key)).Err(); err != nil {
		r.logger.Warn("failed to release reminder claim", zap.String("key", reminderClaimKey(key)), zap.Error(err))
		return fmt.Errorf("reminder release: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *ReminderRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
