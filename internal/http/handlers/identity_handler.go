// Identity webhook HTTP handler.
//
//   - POST /webhooks/identity  (svix-signed identity provider events)
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xandme/xandme-backend/internal/services"
)

// IdentityWebhook godoc
// @ID          identityWebhook
// @Summary     Identity provider webhook
// @Description Verifies the svix signature headers and syncs profile rows: user.created/user.updated upsert email and phone, user.deleted removes the profile, anything else is acknowledged.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
//
// @Param       svix-id         header  string  true  "Svix message id"
// @Param       svix-timestamp  header  string  true  "Svix timestamp"
// @Param       svix-signature  header  string  true  "Svix signature"
//
// @Success     200  {object} map[string]string
// @Failure     400  {object} handlers.ErrorResponse "Invalid signature"
// @Failure     422  {object} handlers.ErrorResponse "Malformed event"
// @Failure     503  {object} handlers.ErrorResponse "Identity sync not configured"
// @Router      /webhooks/identity [post]
func (h *Handlers) IdentityWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable payload")
		return
	}

	err = h.svc.Identity.HandleWebhook(c.Request.Context(), payload, c.Request.Header)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSignature):
			fail(c, http.StatusBadRequest, ErrCodeBadSignature, "invalid webhook signature")
		case errors.Is(err, services.ErrMalformedEvent):
			fail(c, http.StatusUnprocessableEntity, ErrCodeValidationFailed, "event carries no subject id")
		case errors.Is(err, services.ErrNotConfigured):
			fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "identity sync is not configured")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "event processing failed")
		}
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "ok"})
}
