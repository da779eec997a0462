// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model, including the credit ledger.
//
// Credit balance changes are single conditional UPDATE statements rather
// than read-modify-write round trips, so concurrent debits (wizard runs)
// and credits (payment webhooks) for the same user cannot lose updates and
// the balance never drops below zero.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xandme/xandme-backend/internal/domain"
)

// GetProfile fetches the profile row for an identity-provider user id.
// Returns ErrNotFound when the user has no profile yet.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfileByEmail fetches a profile by stored email address. Used by the
// payment webhook when the event carries no user reference beyond the buyer
// email. Returns ErrNotFound when no profile matches.
func GetProfileByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).Where("email = ?", email).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile creates the profile row for userID if it does not exist, or
// updates email/phone on the existing row. Credits are initialized to zero
// on create and never touched by this function. Empty email/phone arguments
// leave the stored values alone.
func UpsertProfile(ctx context.Context, db *gorm.DB, userID, email, phone string) (*domain.Profile, error) {
	now := time.Now().UTC()
	p := &domain.Profile{
		UserID:    userID,
		Email:     email,
		Phone:     phone,
		Credits:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	assigns := map[string]any{"updated_at": now}
	if email != "" {
		assigns["email"] = email
	}
	if phone != "" {
		assigns["phone"] = phone
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(assigns),
	}).Create(p).Error
	if err != nil {
		return nil, err
	}
	return GetProfile(ctx, db, userID)
}

// SavePhone stores a phone number on the user's profile, creating the row
// if needed. Used as a best-effort side step of the contact-request flow.
func SavePhone(ctx context.Context, db *gorm.DB, userID, phone string) error {
	_, err := UpsertProfile(ctx, db, userID, "", phone)
	return err
}

// DeleteProfile removes the profile row for userID (identity-provider
// user.deleted webhook). Deleting a missing profile is not an error.
func DeleteProfile(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Profile{}).Error
}

// DebitCredit atomically decrements the user's credit balance by one,
// but only when at least one credit is available. It returns true when the
// debit happened and false when the balance was already zero (or the
// profile does not exist).
func DebitCredit(ctx context.Context, db *gorm.DB, userID string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ? AND credits >= 1", userID).
		Updates(map[string]any{
			"credits":    gorm.Expr("credits - 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddCredit atomically increments the user's credit balance by one.
// Returns ErrNotFound when the profile row does not exist; callers that may
// race profile creation should UpsertProfile first.
func AddCredit(ctx context.Context, db *gorm.DB, userID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"credits":    gorm.Expr("credits + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
