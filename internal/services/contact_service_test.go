package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/xandme/xandme-backend/internal/domain"
)

func newContactFixture(t *testing.T) (*ContactService, *DirectoryService, domain.Expert) {
	t.Helper()
	db := newServiceDB(t, &domain.Expert{}, &domain.ContactRequest{}, &domain.Profile{})
	e := seedExpert(t, db, "ex1", "Claire", "Durand", "Finance", "Conseil", "Lyon", "France")
	dir := NewDirectoryService(db, nil)
	return NewContactService(db, dir, zerolog.Nop()), dir, e
}

func TestContactSubmit_HappyPathRevealsContact(t *testing.T) {
	s, _, e := newContactFixture(t)

	cr, reveal, err := s.Submit(context.Background(), "u1", ContactInput{
		ExpertRef: "claire-durand-ex1",
		Reason:    "Besoin d'un accompagnement",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if cr.ExpertID != e.ID || cr.Status != domain.ContactRequestStatusPending {
		t.Fatalf("unexpected row: %+v", cr)
	}
	if cr.RequestType != domain.RequestTypeConseil {
		t.Fatalf("request type should default to conseil, got %q", cr.RequestType)
	}
	if reveal.Email != e.Email || reveal.Telephone != e.Telephone {
		t.Fatalf("reveal mismatch: %+v", reveal)
	}
}

func TestContactSubmit_ValidationBeforeWrite(t *testing.T) {
	s, _, _ := newContactFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ContactInput
		want error
	}{
		{"empty reason", ContactInput{ExpertRef: "ex1"}, ErrEmptyReason},
		{"bad type", ContactInput{ExpertRef: "ex1", Reason: "r", RequestType: "autre"}, ErrInvalidRequestType},
		{"callback without phone", ContactInput{ExpertRef: "ex1", Reason: "r", WantCallback: true}, ErrCallbackPhoneRequired},
		{"unresolvable expert", ContactInput{ExpertRef: "rien-du-tout", Reason: "r"}, ErrInvalidExpertRef},
	}
	for _, tc := range cases {
		if _, _, err := s.Submit(ctx, "u1", tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// None of the failures may have written a row.
	var n int64
	if err := s.DB.Model(&domain.ContactRequest{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("validation failures must not write rows, found %d", n)
	}
}

func TestContactSubmit_NumericExpertRefCoerced(t *testing.T) {
	s, _, e := newContactFixture(t)

	cr, _, err := s.Submit(context.Background(), "u1", ContactInput{
		ExpertRef: fmt.Sprintf("%d", e.ID),
		Reason:    "r",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if cr.ExpertID != e.ID {
		t.Fatalf("surrogate key not stored: %+v", cr)
	}
}

func TestContactSubmit_CallbackUpsertsPhone(t *testing.T) {
	s, _, _ := newContactFixture(t)

	_, _, err := s.Submit(context.Background(), "u1", ContactInput{
		ExpertRef:    "ex1",
		Reason:       "r",
		WantCallback: true,
		PhoneNumber:  "+33611223344",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	var p domain.Profile
	if err := s.DB.Where("user_id = ?", "u1").First(&p).Error; err != nil {
		t.Fatalf("profile not upserted: %v", err)
	}
	if p.Phone != "+33611223344" {
		t.Fatalf("phone not stored: %+v", p)
	}
}

func TestContactSubmit_NoCallbackEmptyPhoneOK(t *testing.T) {
	s, _, _ := newContactFixture(t)

	if _, _, err := s.Submit(context.Background(), "u1", ContactInput{
		ExpertRef: "ex1",
		Reason:    "r",
	}); err != nil {
		t.Fatalf("empty phone without callback must be accepted: %v", err)
	}
}
