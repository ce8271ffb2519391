package handler

import (
	"net/http"

	"github.com/claimease-api/internal/application/user"
	"github.com/claimease-api/internal/domain"
	"github.com/claimease-api/internal/pkg/validate"
)

// AuthHandler handles password and Google sign-in. Magic-link sign-in lives
// in MagicLinkHandler.
type AuthHandler struct {
	svc     user.Service
	cookies SessionCookies
}

func NewAuthHandler(svc user.Service, cookies SessionCookies) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.cookies.set(w, res.Bearer)
	writeJSON(w, http.StatusCreated, AccountEnvelope{Account: toSafeAccount(res.Account)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.cookies.set(w, res.Bearer)
	writeJSON(w, http.StatusOK, AccountEnvelope{Account: toSafeAccount(res.Account)})
}

func (h *AuthHandler) LoginWithGoogle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := decodeJSON(r, &req); err != nil || req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "id_token is required")
		return
	}
	res, err := h.svc.LoginWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.cookies.set(w, res.Bearer)
	writeJSON(w, http.StatusOK, AccountEnvelope{Account: toSafeAccount(res.Account)})
}

// Logout clears the session cookie. Signed tokens stay valid until expiry;
// there is no server-side session store to revoke.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.clear(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "signed out"})
}
