// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ExpertApplication model. Applications are insert-only from the API's
// perspective; review and approval happen out of band.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/xandme/xandme-backend/internal/domain"
)

// CreateApplication inserts a new expert application row.
func CreateApplication(ctx context.Context, db *gorm.DB, app *domain.ExpertApplication) error {
	if app.CreatedAt.IsZero() {
		app.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(app).Error
}

// ListApplications returns all applications, most recent first
// (administrative review path).
func ListApplications(ctx context.Context, db *gorm.DB) ([]domain.ExpertApplication, error) {
	var out []domain.ExpertApplication
	err := db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}
