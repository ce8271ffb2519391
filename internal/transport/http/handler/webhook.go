package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v79"

	"github.com/claimease-api/internal/application/billing"
	"github.com/claimease-api/internal/domain"
)

// maxWebhookBody caps the webhook payload read.
const maxWebhookBody = 64 << 10

// WebhookVerifier checks the Stripe-Signature header against the raw payload.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

// WebhookHandler receives Stripe events. Only checkout.session.completed is
// acted on; everything else is acknowledged and dropped. A non-2xx response
// makes Stripe retry, so reconciliation returns 500 only on storage faults.
type WebhookHandler struct {
	svc      billing.Service
	verifier WebhookVerifier
}

func NewWebhookHandler(svc billing.Service, verifier WebhookVerifier) *WebhookHandler {
	return &WebhookHandler{svc: svc, verifier: verifier}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read payload")
		return
	}

	event, err := h.verifier.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "signature verification failed")
		return
	}

	if event.Type != "checkout.session.completed" {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		writeError(w, http.StatusBadRequest, "malformed event payload")
		return
	}

	if err := h.svc.Reconcile(r.Context(), completedCheckout(&sess)); err != nil {
		slog.Error("checkout reconciliation failed", "session_id", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func completedCheckout(sess *stripe.CheckoutSession) billing.CompletedCheckout {
	cc := billing.CompletedCheckout{
		SessionID:   sess.ID,
		UserID:      sess.Metadata["user_id"],
		Email:       sess.Metadata["email"],
		AmountTotal: sess.AmountTotal,
		Currency:    string(sess.Currency),
		Tier:        domain.Tier(sess.Metadata["tier"]),
	}
	if cc.Email == "" && sess.CustomerDetails != nil {
		cc.Email = sess.CustomerDetails.Email
	}
	if cc.Email == "" {
		cc.Email = sess.CustomerEmail
	}
	if sess.Customer != nil {
		cc.StripeCustomerID = sess.Customer.ID
	}
	return cc
}
