// Package services defines the business logic for the expert directory,
// contact requests, applications, chats, the research wizard, payments,
// identity webhooks, and uploads. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Chat and assistant errors.
var (
	// ErrChatNotFound indicates that the requested chat does not exist or is
	// not accessible to the current user.
	ErrChatNotFound = errors.New("chat not found")

	// ErrEmptyPrompt is returned when a request to create a message contains
	// an empty prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a request to create a message exceeds the
	// maximum configured length limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrAssistantFailed is returned when the reasoning backend could not
	// produce an answer. The user's message is kept, so resubmission is safe.
	ErrAssistantFailed = errors.New("assistant failed")
)

// Directory and contact errors.
var (
	// ErrExpertNotFound indicates that no expert matches the given public id.
	ErrExpertNotFound = errors.New("expert not found")

	// ErrInvalidExpertRef is returned when an expert reference cannot be
	// resolved to a stored expert (bad slug, unparsable id).
	ErrInvalidExpertRef = errors.New("invalid expert reference")

	// ErrEmptyReason is returned when a contact request carries no reason.
	ErrEmptyReason = errors.New("reason is required")

	// ErrInvalidRequestType is returned when request_type is outside
	// {urgence, conseil, contact}.
	ErrInvalidRequestType = errors.New("invalid request type")

	// ErrCallbackPhoneRequired is returned when want_callback is set without
	// a phone number.
	ErrCallbackPhoneRequired = errors.New("phone number required for callback")
)

// Application errors.
var (
	// ErrInvalidEmail is returned when an application email fails the
	// local@domain shape check.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrMissingFields is returned when a required application field is blank.
	ErrMissingFields = errors.New("missing required fields")
)

// Wizard and credit errors.
var (
	// ErrInsufficientCredits is returned when a research run is requested
	// with a zero balance. Handlers map it to 402 with an upsell payload.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidSelection is returned when a wizard selection is not part of
	// the fixed catalogs (or a subsector does not belong to its sector).
	ErrInvalidSelection = errors.New("invalid wizard selection")
)

// Payment and webhook errors.
var (
	// ErrInvalidSignature is returned when a webhook payload fails signature
	// verification. No state is changed.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrNoBuyerRef is returned when a completed checkout carries neither a
	// client reference nor a buyer email. Surfaced as 422.
	ErrNoBuyerRef = errors.New("checkout carries no buyer reference")

	// ErrUnknownBuyer is returned when a completed checkout cannot be
	// attributed to a user. Surfaced as 500 so the provider redelivers.
	ErrUnknownBuyer = errors.New("cannot determine buyer")

	// ErrBillingUnavailable is returned when the payments provider is not
	// configured for this deployment.
	ErrBillingUnavailable = errors.New("billing not configured")

	// ErrMalformedEvent is returned when a verified webhook payload is
	// missing required fields. Surfaced as 422.
	ErrMalformedEvent = errors.New("malformed webhook event")

	// ErrNotConfigured is returned when a handler's dependency (identity
	// verifier, object storage, assistant URL) was not configured. Surfaced
	// as 503.
	ErrNotConfigured = errors.New("feature not configured")
)

// Upload errors.
var (
	// ErrUnsupportedFileType is returned for MIME types outside the
	// allow-list.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge is returned when the upload exceeds the size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrCountryBlocked is returned when the request originates from a
	// blocked country per the geolocation header.
	ErrCountryBlocked = errors.New("uploads not accepted from this country")
)
