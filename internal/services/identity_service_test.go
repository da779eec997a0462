package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/repo"
)

// fakeWebhookVerifier accepts or rejects every payload.
type fakeWebhookVerifier struct{ err error }

func (f fakeWebhookVerifier) Verify(payload []byte, headers http.Header) error { return f.err }

func newIdentityFixture(t *testing.T, verr error) *IdentityService {
	t.Helper()
	db := newServiceDB(t, &domain.Profile{})
	return NewIdentityService(db, fakeWebhookVerifier{err: verr}, zerolog.Nop())
}

func TestIdentityWebhook_BadSignature(t *testing.T) {
	s := newIdentityFixture(t, fmt.Errorf("bad sig"))

	err := s.HandleWebhook(context.Background(), []byte(`{"type":"user.created"}`), http.Header{})
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestIdentityWebhook_UserCreatedUpserts(t *testing.T) {
	s := newIdentityFixture(t, nil)

	payload := []byte(`{
		"type": "user.created",
		"data": {
			"id": "user_1",
			"email_addresses": [{"email_address": "claire@exemple.fr"}],
			"phone_numbers": [{"phone_number": "+33611223344"}]
		}
	}`)
	if err := s.HandleWebhook(context.Background(), payload, http.Header{}); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	p, err := repo.GetProfile(context.Background(), s.DB, "user_1")
	if err != nil {
		t.Fatalf("profile missing: %v", err)
	}
	if p.Email != "claire@exemple.fr" || p.Phone != "+33611223344" || p.Credits != 0 {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestIdentityWebhook_UserUpdatedKeepsCredits(t *testing.T) {
	s := newIdentityFixture(t, nil)
	if _, err := repo.UpsertProfile(context.Background(), s.DB, "user_1", "old@exemple.fr", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.DB.Model(&domain.Profile{}).Where("user_id = ?", "user_1").
		Update("credits", 2).Error; err != nil {
		t.Fatalf("seed credits: %v", err)
	}

	payload := []byte(`{
		"type": "user.updated",
		"data": {"id": "user_1", "email_addresses": [{"email_address": "new@exemple.fr"}]}
	}`)
	if err := s.HandleWebhook(context.Background(), payload, http.Header{}); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}

	p, _ := repo.GetProfile(context.Background(), s.DB, "user_1")
	if p.Email != "new@exemple.fr" || p.Credits != 2 {
		t.Fatalf("update must keep credits: %+v", p)
	}
}

func TestIdentityWebhook_UserDeleted(t *testing.T) {
	s := newIdentityFixture(t, nil)
	if _, err := repo.UpsertProfile(context.Background(), s.DB, "user_1", "", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}

	payload := []byte(`{"type": "user.deleted", "data": {"id": "user_1"}}`)
	if err := s.HandleWebhook(context.Background(), payload, http.Header{}); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if _, err := repo.GetProfile(context.Background(), s.DB, "user_1"); !repo.IsNotFound(err) {
		t.Fatalf("profile should be gone, got %v", err)
	}
}

func TestIdentityWebhook_MissingSubject(t *testing.T) {
	s := newIdentityFixture(t, nil)

	payload := []byte(`{"type": "user.created", "data": {}}`)
	if err := s.HandleWebhook(context.Background(), payload, http.Header{}); !errors.Is(err, ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
}

func TestIdentityWebhook_OtherTypesIgnored(t *testing.T) {
	s := newIdentityFixture(t, nil)

	payload := []byte(`{"type": "session.created", "data": {"id": "sess_1"}}`)
	if err := s.HandleWebhook(context.Background(), payload, http.Header{}); err != nil {
		t.Fatalf("other events must be acknowledged: %v", err)
	}
}
