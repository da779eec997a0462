// Package services – ApplicationService
//
// This file implements the ApplicationService, which validates and stores
// expert onboarding applications. Applications are insert-only; review and
// approval happen out of band.
package services

import (
	"context"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"

	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/repo"
)

// emailRE is a deliberately permissive local@domain shape check. Real
// deliverability is the reviewer's problem, not the form's.
var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// nonDigitRE strips everything but digits from the national phone part.
var nonDigitRE = regexp.MustCompile(`\D`)

// ApplicationInput is the submitted application form. CountryCode is the
// dialing prefix selected alongside the phone field (e.g. "+33").
type ApplicationInput struct {
	Prenom      string
	Nom         string
	Email       string
	CountryCode string
	Telephone   string
	Expertises  []string
	Message     string
	Ville       string
	Pays        string
}

// ApplicationService validates and persists expert applications.
type ApplicationService struct {
	DB *gorm.DB
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(db *gorm.DB) *ApplicationService {
	return &ApplicationService{DB: db}
}

// Submit validates the form and inserts the application. Required: prenom,
// nom, a plausibly shaped email, and at least one non-blank expertise. The
// phone is normalized to countryCode+digits when present.
func (s *ApplicationService) Submit(ctx context.Context, in ApplicationInput) (*domain.ExpertApplication, error) {
	tr := otel.Tracer("services/ApplicationService")
	ctx, span := tr.Start(ctx, "Submit")
	defer span.End()

	prenom := strings.TrimSpace(in.Prenom)
	nom := strings.TrimSpace(in.Nom)
	if prenom == "" || nom == "" {
		return nil, ErrMissingFields
	}

	email := strings.TrimSpace(in.Email)
	if !emailRE.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	tags := make([]string, 0, len(in.Expertises))
	for _, t := range in.Expertises {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil, ErrMissingFields
	}

	app := &domain.ExpertApplication{
		Prenom:     prenom,
		Nom:        nom,
		Email:      email,
		Telephone:  NormalizePhone(in.CountryCode, in.Telephone),
		Expertises: strings.Join(tags, "; "),
		Message:    strings.TrimSpace(in.Message),
		Ville:      strings.TrimSpace(in.Ville),
		Pays:       strings.TrimSpace(in.Pays),
	}
	if err := repo.CreateApplication(ctx, s.DB, app); err != nil {
		return nil, err
	}
	return app, nil
}

// NormalizePhone joins the dialing prefix with the digits of the national
// number ("+33" + "06 12-34" → "+33061234"). Either part may be blank.
func NormalizePhone(countryCode, phone string) string {
	digits := nonDigitRE.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}
	cc := strings.TrimSpace(countryCode)
	if cc != "" && !strings.HasPrefix(cc, "+") {
		cc = "+" + cc
	}
	return cc + digits
}
