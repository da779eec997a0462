// Package services – Stripe gateway
//
// Concrete PaymentGateway over the Stripe SDK. Kept separate from
// PaymentService so tests can exercise the checkout and webhook logic with a
// fake gateway.
package services

import (
	"context"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeGateway implements PaymentGateway with the Stripe SDK.
type StripeGateway struct {
	// PriceID is the fixed one-credit line item.
	PriceID string
	// SuccessURL / CancelURL are the post-checkout redirects.
	SuccessURL string
	CancelURL  string
}

// NewStripeGateway sets the SDK key and returns a gateway for the fixed
// credit price.
func NewStripeGateway(apiKey, priceID, successURL, cancelURL string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{PriceID: priceID, SuccessURL: successURL, CancelURL: cancelURL}
}

// FindOrCreateCustomer returns the Stripe customer id for the email,
// creating one when none exists.
func (g *StripeGateway) FindOrCreateCustomer(ctx context.Context, email string) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)
	it := customer.List(listParams)
	for it.Next() {
		return it.Customer().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", err
	}

	createParams := &stripe.CustomerParams{Email: stripe.String(email)}
	createParams.Context = ctx
	c, err := customer.New(createParams)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// CreateCheckoutSession opens a one-time payment session for one credit and
// returns the hosted checkout URL.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, customerID, clientRef string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:          stripe.String(customerID),
		ClientReferenceID: stripe.String(clientRef),
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(g.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(g.SuccessURL),
		CancelURL:  stripe.String(g.CancelURL),
	}
	params.Context = ctx
	sess, err := session.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// StripeVerifier returns an EventVerifier bound to the webhook signing
// secret.
func StripeVerifier(signingSecret string) EventVerifier {
	return func(payload []byte, sigHeader string) (stripe.Event, error) {
		return webhook.ConstructEvent(payload, sigHeader, signingSecret)
	}
}
