// Contact request HTTP handlers.
//
// This file exposes the contact-request workflow:
//   - POST /experts/{idExpert}/contact  (submit, auth required, idempotent)
//   - GET  /contacts                    (the caller's past requests)
//
// The submit response reveals the expert's direct contact channels only after
// the request row has been written. An Idempotency-Key header makes retried
// submissions return the originally stored request instead of a second row.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xandme/xandme-backend/internal/domain"
	"github.com/xandme/xandme-backend/internal/repo"
	"github.com/xandme/xandme-backend/internal/services"
)

// ContactExpertRequest is the JSON payload for contacting an expert.
type ContactExpertRequest struct {
	// Reason is the free-text motivation. Required.
	Reason string `json:"reason" binding:"required" example:"Besoin d'un accompagnement comptable pour ma création d'entreprise"`
	// RequestType is one of urgence, conseil, contact. Defaults to conseil.
	RequestType string `json:"request_type" example:"conseil"`
	// WantCallback asks the expert to call back; requires PhoneNumber.
	WantCallback bool `json:"want_callback"`
	// PhoneNumber is required when WantCallback is set.
	PhoneNumber string `json:"phone_number" example:"+33612345678"`
}

// ContactExpertResponse returns the stored request and the contact reveal.
type ContactExpertResponse struct {
	Request *domain.ContactRequest  `json:"request"`
	Contact *services.ContactReveal `json:"contact"`
}

// contactIdemScope is the idempotency scope for contact submissions.
const contactIdemScope = "contact"

// ContactExpert godoc
// @ID          contactExpert
// @Summary     Contact an expert
// @Description Submits a contact request for the expert and reveals the expert's direct contact channels.
// @Tags        Contacts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "User ID"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"
// @Param       idExpert         path    string  true  "Expert public id, slug, or numeric id"
// @Param       body             body    handlers.ContactExpertRequest  true  "Contact payload"
//
// @Success     201  {object} handlers.ContactExpertResponse
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     422  {object} handlers.ErrorResponse "Unknown expert reference"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /experts/{idExpert}/contact [post]
func (h *Handlers) ContactExpert(c *gin.Context) {
	ctx := c.Request.Context()
	currentUser := userID(c)
	ref := c.Param("idExpert")

	var req ContactExpertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reason required")
		return
	}

	// Idempotency (replay path): a previously stored submission wins.
	idemKey, _ := middlewareGetIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.svc.Contacts.(*services.ContactService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, contactIdemScope, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if id, perr := strconv.ParseInt(rec.ResultID, 10, 64); perr == nil {
					if prev, gerr := repo.GetContactRequest(ctx, svc.DB, id, currentUser); gerr == nil {
						c.Header("Idempotency-Replayed", "true")
						ok(c, http.StatusOK, ContactExpertResponse{Request: prev})
						return
					}
				}
			}
		}
	}

	cr, reveal, err := h.svc.Contacts.Submit(ctx, currentUser, services.ContactInput{
		ExpertRef:    ref,
		Reason:       req.Reason,
		RequestType:  req.RequestType,
		WantCallback: req.WantCallback,
		PhoneNumber:  req.PhoneNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyReason),
			errors.Is(err, services.ErrInvalidRequestType),
			errors.Is(err, services.ErrCallbackPhoneRequired):
			fail(c, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		case errors.Is(err, services.ErrInvalidExpertRef):
			fail(c, http.StatusUnprocessableEntity, ErrCodeValidationFailed, "unknown expert reference")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.svc.Contacts.(*services.ContactService); okSvc && svc.DB != nil {
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, contactIdemScope, idemKey,
				strconv.FormatInt(cr.ID, 10), http.StatusCreated, 24*time.Hour)
		}
	}

	ok(c, http.StatusCreated, ContactExpertResponse{Request: cr, Contact: reveal})
}

// ListContacts godoc
// @ID          listContacts
// @Summary     List my contact requests
// @Tags        Contacts
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
//
// @Success     200  {array}  domain.ContactRequest
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /contacts [get]
func (h *Handlers) ListContacts(c *gin.Context) {
	out, err := h.svc.Contacts.List(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if out == nil {
		out = []domain.ContactRequest{}
	}
	ok(c, http.StatusOK, out)
}
