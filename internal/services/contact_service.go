// Package services – ContactService
//
// This file implements the ContactService, which owns the contact-request
// workflow: validation of the submitted form, the best-effort phone upsert
// for callback requests, expert reference coercion, the single pending-row
// insert, and the contact reveal returned to the caller.
package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/repo"
)

// ContactInput is the submitted contact form. ExpertRef may be the numeric
// surrogate key, the opaque public id, or a full profile slug.
type ContactInput struct {
	ExpertRef    string
	Reason       string
	RequestType  string
	WantCallback bool
	PhoneNumber  string
}

// ContactReveal is the expert's direct contact channels, disclosed only
// after a request row has been written.
type ContactReveal struct {
	Email     string `json:"email,omitempty"`
	Telephone string `json:"telephone,omitempty"`
	SiteWeb   string `json:"site_web,omitempty"`
}

// ExpertResolver resolves an expert reference to a stored expert. Implemented
// by DirectoryService.
type ExpertResolver interface {
	ResolveExpert(ctx context.Context, ref string) (*domain.Expert, error)
}

// ContactService validates and persists contact requests.
type ContactService struct {
	DB       *gorm.DB
	Resolver ExpertResolver
	Log      zerolog.Logger
}

// NewContactService constructs a ContactService.
func NewContactService(db *gorm.DB, resolver ExpertResolver, log zerolog.Logger) *ContactService {
	return &ContactService{DB: db, Resolver: resolver, Log: log}
}

// Submit validates in, resolves the expert, inserts the pending request, and
// returns the stored row alongside the expert's contact reveal. Validation
// failures happen before any write. The callback phone upsert onto the
// caller's profile is best-effort: a failure there is logged and swallowed so
// it never blocks the request itself.
func (s *ContactService) Submit(ctx context.Context, userID string, in ContactInput) (*domain.ContactRequest, *ContactReveal, error) {
	tr := otel.Tracer("services/ContactService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("expert.ref", in.ExpertRef),
		),
	)
	defer span.End()

	in.Reason = strings.TrimSpace(in.Reason)
	if in.Reason == "" {
		return nil, nil, ErrEmptyReason
	}

	reqType := strings.TrimSpace(in.RequestType)
	if reqType == "" {
		reqType = domain.RequestTypeConseil
	}
	switch reqType {
	case domain.RequestTypeUrgence, domain.RequestTypeConseil, domain.RequestTypeContact:
	default:
		return nil, nil, ErrInvalidRequestType
	}

	phone := strings.TrimSpace(in.PhoneNumber)
	if in.WantCallback && phone == "" {
		return nil, nil, ErrCallbackPhoneRequired
	}

	expert, err := s.Resolver.ResolveExpert(ctx, in.ExpertRef)
	if err != nil {
		return nil, nil, err
	}

	if in.WantCallback {
		if perr := repo.SavePhone(ctx, s.DB, userID, phone); perr != nil {
			s.Log.Warn().Err(perr).Str("user_id", userID).Msg("callback phone upsert failed")
		}
	}

	cr := &domain.ContactRequest{
		UserID:       userID,
		ExpertID:     expert.ID,
		Reason:       in.Reason,
		RequestType:  reqType,
		WantCallback: in.WantCallback,
		PhoneNumber:  phone,
	}
	if err := repo.CreateContactRequest(ctx, s.DB, cr); err != nil {
		return nil, nil, err
	}

	reveal := &ContactReveal{
		Email:     expert.Email,
		Telephone: expert.Telephone,
		SiteWeb:   expert.SiteWeb,
	}
	return cr, reveal, nil
}

// List returns the caller's contact requests, most recent first.
func (s *ContactService) List(ctx context.Context, userID string) ([]domain.ContactRequest, error) {
	return repo.ListContactRequests(ctx, s.DB, userID)
}
