package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claimease-api/internal/application/billing"
	"github.com/claimease-api/internal/domain"
	"github.com/claimease-api/internal/transport/http/middleware"
)

// CheckoutHandler starts checkouts and lets the success page confirm payment.
type CheckoutHandler struct {
	svc billing.Service
}

func NewCheckoutHandler(svc billing.Service) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req struct {
		Tier domain.Tier `json:"tier"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	url, err := h.svc.CreateCheckout(r.Context(), req.Tier, claims.Email, claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Verify reports whether the given checkout session has been paid. The
// entitlement itself is granted by the webhook, not here.
func (h *CheckoutHandler) Verify(w http.ResponseWriter, r *http.Request) {
	paid, tier, err := h.svc.VerifySession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"paid": paid, "tier": tier})
}
