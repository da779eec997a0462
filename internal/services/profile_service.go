// Package services – ProfileService
//
// Credit balance reads for the authenticated user. Profiles are lazily
// created, so a first-time caller simply sees a zero balance.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/repo"
)

// ProfileService exposes the caller's profile and credit balance.
type ProfileService struct {
	DB *gorm.DB
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

// Credits returns the caller's balance, lazily creating the profile row at
// zero when none exists yet.
func (s *ProfileService) Credits(ctx context.Context, userID string) (int, error) {
	p, err := s.get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return p.Credits, nil
}

// Me returns the caller's profile, lazily created when absent.
func (s *ProfileService) Me(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.get(ctx, userID)
}

func (s *ProfileService) get(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if err == nil {
		return p, nil
	}
	if !repo.IsNotFound(err) {
		return nil, err
	}
	return repo.UpsertProfile(ctx, s.DB, userID, "", "")
}
