package handler

import (
	"net/http"

	"github.com/claimease-api/internal/application/entitlement"
	"github.com/claimease-api/internal/transport/http/middleware"
)

// EntitlementHandler exposes the claim-start decision surface.
type EntitlementHandler struct {
	svc entitlement.Service
}

func NewEntitlementHandler(svc entitlement.Service) *EntitlementHandler {
	return &EntitlementHandler{svc: svc}
}

func (h *EntitlementHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	st, err := h.svc.Status(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
