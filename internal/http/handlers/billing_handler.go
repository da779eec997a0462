// Billing HTTP handlers.
//
//   - POST /billing/checkout  (auth; returns the provider redirect URL)
//   - POST /webhooks/stripe   (signed payments webhook, raw body)
//
// The webhook reads the raw body before any JSON binding: signature
// verification covers the exact bytes the provider sent.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xandme/xandme-backend/internal/services"
)

// CheckoutRequest is the JSON payload for starting a credit purchase.
type CheckoutRequest struct {
	// Email is the buyer's account email, used for provider customer lookup.
	Email string `json:"email" binding:"required" example:"claire@exemple.fr"`
}

// CheckoutResponse carries the provider-hosted payment page URL.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// Checkout godoc
// @ID          checkout
// @Summary     Start a credit purchase
// @Description Finds or creates the payment-provider customer for the account email and returns the checkout redirect URL for one research credit.
// @Tags        Billing
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(user123)
// @Param       body       body    handlers.CheckoutRequest  true  "Checkout payload"
//
// @Success     200  {object} handlers.CheckoutResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid email"
// @Failure     503  {object} handlers.ErrorResponse "Billing not configured"
// @Router      /billing/checkout [post]
func (h *Handlers) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email required")
		return
	}

	url, err := h.svc.Payments.Checkout(c.Request.Context(), userID(c), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail):
			fail(c, http.StatusBadRequest, ErrCodeValidationFailed, "invalid email")
		case errors.Is(err, services.ErrBillingUnavailable):
			fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "billing is not configured")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, CheckoutResponse{URL: url})
}

// StripeWebhook godoc
// @ID          stripeWebhook
// @Summary     Payments provider webhook
// @Description Verifies the Stripe-Signature header over the raw payload and applies the event. Duplicate deliveries are acknowledged without a second credit; processing failures return 5xx so the provider redelivers.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
//
// @Param       Stripe-Signature  header  string  true  "Webhook signature header"
//
// @Success     200  {object} map[string]string
// @Failure     400  {object} handlers.ErrorResponse "Invalid signature"
// @Failure     422  {object} handlers.ErrorResponse "No buyer reference on the session"
// @Failure     500  {object} handlers.ErrorResponse "Processing failed (provider will redeliver)"
// @Router      /webhooks/stripe [post]
func (h *Handlers) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable payload")
		return
	}

	err = h.svc.Payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSignature):
			fail(c, http.StatusBadRequest, ErrCodeBadSignature, "invalid webhook signature")
		case errors.Is(err, services.ErrNoBuyerRef):
			fail(c, http.StatusUnprocessableEntity, ErrCodeValidationFailed, "no buyer reference on the session")
		case errors.Is(err, services.ErrBillingUnavailable):
			fail(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, "billing is not configured")
		default:
			// Includes ErrUnknownBuyer: 5xx makes the provider redeliver
			// after the profile shows up.
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "event processing failed")
		}
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "ok"})
}
