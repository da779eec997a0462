// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for uploaded
// document metadata.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xandme/xandme-backend/internal/domain"
)

// CreateDocument inserts the metadata row for an accepted upload.
func CreateDocument(ctx context.Context, db *gorm.DB, doc *domain.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(doc).Error
}

// GetDocument fetches one document owned by userID, or ErrNotFound.
func GetDocument(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Document, error) {
	var d domain.Document
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDocuments returns the user's uploads, most recent first.
func ListDocuments(ctx context.Context, db *gorm.DB, userID string) ([]domain.Document, error) {
	var out []domain.Document
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

