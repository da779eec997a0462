// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Expert
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Search matching and ranking live in
// internal/search; the repository only loads candidate rows.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/xandme/xandme-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound for convenience and consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListExperts returns all experts ordered by creation time descending.
// The directory is small enough (hundreds of rows) that matching and
// ranking happen in process, over this full load.
func ListExperts(ctx context.Context, db *gorm.DB) ([]domain.Expert, error) {
	var out []domain.Expert
	err := db.WithContext(ctx).Order("created_at desc, id desc").Find(&out).Error
	return out, err
}

// GetExpertByPublicID fetches a single expert by its opaque public
// identifier (the id_expert column used in profile URLs). Returns
// ErrNotFound when missing.
func GetExpertByPublicID(ctx context.Context, db *gorm.DB, idExpert string) (*domain.Expert, error) {
	var e domain.Expert
	err := db.WithContext(ctx).Where("id_expert = ?", idExpert).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetExpertByID fetches a single expert by its numeric surrogate key.
func GetExpertByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Expert, error) {
	var e domain.Expert
	err := db.WithContext(ctx).Where("id = ?", id).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateExpert inserts a new expert row. Only the administrative ingestion
// path uses this; the public API never creates experts.
func CreateExpert(ctx context.Context, db *gorm.DB, e *domain.Expert) error {
	return db.WithContext(ctx).Create(e).Error
}

// UpdateExpertServices replaces the raw services JSON of an expert
// (administrative service-management path). Returns ErrNotFound when no row
// was touched.
func UpdateExpertServices(ctx context.Context, db *gorm.DB, idExpert, servicesJSON string) error {
	res := db.WithContext(ctx).
		Model(&domain.Expert{}).
		Where("id_expert = ?", idExpert).
		Update("services", servicesJSON)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountExperts returns the total number of experts.
func CountExperts(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Expert{}).Count(&total).Error
	return total, err
}

// IsNotFound reports whether err is the repository's not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
