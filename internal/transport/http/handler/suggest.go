package handler

import (
	"net/http"

	"github.com/claimease-api/internal/application/suggest"
	"github.com/claimease-api/internal/pkg/validate"
	"github.com/claimease-api/internal/transport/http/middleware"
)

// SuggestHandler exposes AI answer rewriting.
type SuggestHandler struct {
	svc suggest.Service
}

func NewSuggestHandler(svc suggest.Service) *SuggestHandler {
	return &SuggestHandler{svc: svc}
}

func (h *SuggestHandler) Rewrite(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req suggest.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Rewrite(r.Context(), claims.UserID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
