package stripeinfra

import (
	"fmt"

	"github.com/claimease-api/internal/config"
	"github.com/claimease-api/internal/domain"
	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Client wraps the Stripe operations the billing service needs: creating and
// fetching Checkout Sessions and verifying webhook signatures.
type Client struct {
	webhookSecret string
	successURL    string
	cancelURL     string
	prices        map[domain.Tier]string
}

func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	stripe.Key = cfg.StripeSecretKey
	return &Client{
		webhookSecret: cfg.StripeWebhookSecret,
		successURL:    cfg.CheckoutSuccessURL,
		cancelURL:     cfg.CheckoutCancelURL,
		prices: map[domain.Tier]string{
			domain.TierStandard: cfg.StripePriceIDStandard,
			domain.TierPro:      cfg.StripePriceIDPro,
		},
	}, nil
}

// CreateCheckoutSession starts a one-time-payment Checkout Session for the
// given plan. The tier and account identity travel in session metadata so the
// webhook can reconcile without a second lookup source.
func (c *Client) CreateCheckoutSession(tier domain.Tier, email, userID string) (*stripe.CheckoutSession, error) {
	priceID, ok := c.prices[tier]
	if !ok || priceID == "" {
		return nil, fmt.Errorf("no price configured for tier %s: %w", tier, domain.ErrBadRequest)
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:       stripe.String(c.successURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:        stripe.String(c.cancelURL),
		CustomerEmail:    stripe.String(email),
		CustomerCreation: stripe.String(string(stripe.CheckoutSessionCustomerCreationAlways)),
		Metadata: map[string]string{
			"tier":    string(tier),
			"user_id": userID,
			"email":   email,
		},
	}
	return checkoutsession.New(params)
}

// GetCheckoutSession fetches a session by ID, used by the success page to
// confirm payment state without waiting for the webhook.
func (c *Client) GetCheckoutSession(sessionID string) (*stripe.CheckoutSession, error) {
	return checkoutsession.Get(sessionID, nil)
}

// VerifyWebhook checks the Stripe-Signature header against the raw payload.
// Unverified payloads must never be applied.
func (c *Client) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}
