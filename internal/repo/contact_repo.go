// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ContactRequest model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xandme/xandme-backend/internal/domain"
)

// CreateContactRequest inserts a new contact request with status "pending".
// Validation (non-empty reason, callback phone, resolvable expert id) is the
// service layer's responsibility; the whole submit is this single insert.
func CreateContactRequest(ctx context.Context, db *gorm.DB, cr *domain.ContactRequest) error {
	if cr.Status == "" {
		cr.Status = domain.ContactRequestStatusPending
	}
	if cr.CreatedAt.IsZero() {
		cr.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(cr).Error
}

// ListContactRequests returns the authenticated user's contact requests,
// most recent first.
func ListContactRequests(ctx context.Context, db *gorm.DB, userID string) ([]domain.ContactRequest, error) {
	var out []domain.ContactRequest
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetContactRequest fetches one contact request owned by userID, or
// ErrNotFound. Used to replay idempotent submissions.
func GetContactRequest(ctx context.Context, db *gorm.DB, id int64, userID string) (*domain.ContactRequest, error) {
	var cr domain.ContactRequest
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&cr).Error
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

// CountContactRequestsForExpert returns how many requests target the given
// expert (administrative reporting).
func CountContactRequestsForExpert(ctx context.Context, db *gorm.DB, expertID int64) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ContactRequest{}).
		Where("expert_id = ?", expertID).
		Count(&total).Error
	return total, err
}
