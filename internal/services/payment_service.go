// Package services – PaymentService
//
// This file implements the credit purchase flow: checkout session creation
// against the payments provider and the signed webhook that lands the credit
// on the buyer's profile. Webhook deliveries are deduplicated by event id and
// the credit increment is a single atomic update, so redeliveries and
// concurrent deliveries can never double-credit.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v79"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xandme/xandme-backend/internal/repo"
)

// PaymentGateway is the outbound contract to the payments provider.
// Implemented by StripeGateway; faked in tests.
type PaymentGateway interface {
	// FindOrCreateCustomer returns the provider customer id for the email,
	// creating the customer when none exists.
	FindOrCreateCustomer(ctx context.Context, email string) (string, error)

	// CreateCheckoutSession opens a one-time checkout for the fixed credit
	// line item and returns the redirect URL. clientRef travels back on the
	// completed-checkout webhook.
	CreateCheckoutSession(ctx context.Context, customerID, clientRef string) (string, error)
}

// EventVerifier checks a webhook payload signature and decodes the event.
// Production wires stripe webhook.ConstructEvent here.
type EventVerifier func(payload []byte, sigHeader string) (stripe.Event, error)

// PaymentService owns checkout creation and webhook processing.
type PaymentService struct {
	DB      *gorm.DB
	Gateway PaymentGateway
	Verify  EventVerifier
	Log     zerolog.Logger
}

// NewPaymentService constructs a PaymentService. Gateway and verify may be
// nil when billing is not configured; the service then refuses checkout and
// webhook calls with ErrBillingUnavailable.
func NewPaymentService(db *gorm.DB, gw PaymentGateway, verify EventVerifier, log zerolog.Logger) *PaymentService {
	return &PaymentService{DB: db, Gateway: gw, Verify: verify, Log: log}
}

// Checkout finds or creates the provider customer for the caller's email and
// returns the checkout redirect URL. The user id rides along as the client
// reference so the webhook can attribute the purchase without relying on the
// email still matching.
func (s *PaymentService) Checkout(ctx context.Context, userID, email string) (string, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "Checkout",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if s.Gateway == nil {
		return "", ErrBillingUnavailable
	}
	email = strings.TrimSpace(email)
	if !emailRE.MatchString(email) {
		return "", ErrInvalidEmail
	}

	customerID, err := s.Gateway.FindOrCreateCustomer(ctx, email)
	if err != nil {
		return "", err
	}
	return s.Gateway.CreateCheckoutSession(ctx, customerID, userID)
}

// HandleWebhook verifies, deduplicates, and applies one webhook delivery.
//
//   - Bad signature → ErrInvalidSignature, nothing written.
//   - Duplicate event id → nil (acknowledged, no second credit).
//   - checkout.session.completed → buyer resolved from client_reference_id,
//     else the buyer email; profile upserted, then one atomic credit.
//   - Buyer email with no matching profile → ErrUnknownBuyer, so the
//     provider redelivers once the profile exists.
//   - Any other event type → acknowledged and logged.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "HandleWebhook")
	defer span.End()

	if s.Verify == nil {
		return ErrBillingUnavailable
	}
	event, err := s.Verify(payload, sigHeader)
	if err != nil {
		return ErrInvalidSignature
	}
	span.SetAttributes(
		attribute.String("event.id", event.ID),
		attribute.String("event.type", string(event.Type)),
	)

	if err := repo.RecordWebhookEvent(ctx, s.DB, event.ID, string(event.Type)); err != nil {
		if errors.Is(err, repo.ErrDuplicateEvent) {
			s.Log.Info().Str("event_id", event.ID).Msg("duplicate webhook delivery acknowledged")
			return nil
		}
		return err
	}

	if event.Type != "checkout.session.completed" {
		s.Log.Info().Str("event_type", string(event.Type)).Msg("webhook event ignored")
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return err
	}
	if err := s.credit(ctx, &session); err != nil {
		// Release the dedup marker so the provider's redelivery is not
		// mistaken for a duplicate of a successful run.
		if derr := repo.DeleteWebhookEvent(ctx, s.DB, event.ID); derr != nil {
			s.Log.Error().Err(derr).Str("event_id", event.ID).Msg("failed to release webhook dedup marker")
		}
		return err
	}
	return nil
}

func (s *PaymentService) credit(ctx context.Context, session *stripe.CheckoutSession) error {
	if userID := strings.TrimSpace(session.ClientReferenceID); userID != "" {
		if _, err := repo.UpsertProfile(ctx, s.DB, userID, buyerEmail(session), ""); err != nil {
			return err
		}
		return repo.AddCredit(ctx, s.DB, userID)
	}

	email := buyerEmail(session)
	if email == "" {
		return ErrNoBuyerRef
	}
	p, err := repo.GetProfileByEmail(ctx, s.DB, email)
	if err != nil {
		if repo.IsNotFound(err) {
			return ErrUnknownBuyer
		}
		return err
	}
	return repo.AddCredit(ctx, s.DB, p.UserID)
}

func buyerEmail(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return strings.TrimSpace(session.CustomerDetails.Email)
	}
	if session.CustomerEmail != "" {
		return strings.TrimSpace(session.CustomerEmail)
	}
	return ""
}
