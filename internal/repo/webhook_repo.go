// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for processed
// webhook-event markers, the dedup guard behind payment webhook redelivery.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/xandme/xandme-backend/internal/domain"
)

// ErrDuplicateEvent indicates the webhook event id was already recorded.
var ErrDuplicateEvent = errors.New("webhook event already processed")

// RecordWebhookEvent inserts a processed-event marker and returns
// ErrDuplicateEvent when the event id was seen before. The primary key on
// event_id makes the check-and-insert a single statement.
func RecordWebhookEvent(ctx context.Context, db *gorm.DB, eventID, eventType string) error {
	rec := &domain.WebhookEvent{
		EventID:    eventID,
		Type:       eventType,
		ReceivedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") ||
			strings.Contains(low, "duplicate key") {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

// DeleteWebhookEvent removes a processed-event marker, releasing the dedup
// guard when processing failed and the delivery should be retried.
func DeleteWebhookEvent(ctx context.Context, db *gorm.DB, eventID string) error {
	return db.WithContext(ctx).Where("event_id = ?", eventID).Delete(&domain.WebhookEvent{}).Error
}
