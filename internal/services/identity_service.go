// Package services – IdentityService
//
// This file implements the identity-provider webhook: lifecycle events about
// user accounts (created, updated, deleted) that keep the local profile table
// in sync. Payloads are authenticated with the provider's three-header
// signature scheme (svix-id / svix-timestamp / svix-signature).
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xandme/xandme-backend/internal/repo"
)

// WebhookVerifier authenticates a webhook payload against its headers.
// Implemented by svix.Webhook; faked in tests.
type WebhookVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

// identityEvent is the provider's event envelope. Email and phone arrive as
// lists; the first entry is the primary.
type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
		PhoneNumbers []struct {
			PhoneNumber string `json:"phone_number"`
		} `json:"phone_numbers"`
	} `json:"data"`
}

// IdentityService applies identity-provider lifecycle events to profiles.
type IdentityService struct {
	DB       *gorm.DB
	Verifier WebhookVerifier
	Log      zerolog.Logger
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(db *gorm.DB, v WebhookVerifier, log zerolog.Logger) *IdentityService {
	return &IdentityService{DB: db, Verifier: v, Log: log}
}

// HandleWebhook verifies and applies one identity event.
//
//   - Bad signature → ErrInvalidSignature, nothing written.
//   - user.created / user.updated → profile upsert with primary email/phone.
//   - user.deleted → profile removal (idempotent).
//   - Missing subject id → ErrMalformedEvent (422).
//   - Any other event type → acknowledged and logged.
func (s *IdentityService) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	tr := otel.Tracer("services/IdentityService")
	ctx, span := tr.Start(ctx, "HandleWebhook")
	defer span.End()

	if s.Verifier == nil {
		return ErrNotConfigured
	}
	if err := s.Verifier.Verify(payload, headers); err != nil {
		return ErrInvalidSignature
	}

	var evt identityEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return ErrMalformedEvent
	}
	span.SetAttributes(attribute.String("event.type", evt.Type))

	userID := strings.TrimSpace(evt.Data.ID)

	switch evt.Type {
	case "user.created", "user.updated":
		if userID == "" {
			return ErrMalformedEvent
		}
		var email, phone string
		if len(evt.Data.EmailAddresses) > 0 {
			email = strings.TrimSpace(evt.Data.EmailAddresses[0].EmailAddress)
		}
		if len(evt.Data.PhoneNumbers) > 0 {
			phone = strings.TrimSpace(evt.Data.PhoneNumbers[0].PhoneNumber)
		}
		_, err := repo.UpsertProfile(ctx, s.DB, userID, email, phone)
		return err
	case "user.deleted":
		if userID == "" {
			return ErrMalformedEvent
		}
		return repo.DeleteProfile(ctx, s.DB, userID)
	default:
		s.Log.Info().Str("event_type", evt.Type).Msg("identity event ignored")
		return nil
	}
}
