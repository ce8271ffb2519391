package handler

import (
	"net/http"

	"github.com/claimease-api/internal/application/magiclink"
)

// MagicLinkHandler handles one-time sign-in link issue and verification.
type MagicLinkHandler struct {
	svc      magiclink.Service
	cookies  SessionCookies
	echoLink bool // outside production the link is echoed for local testing
}

func NewMagicLinkHandler(svc magiclink.Service, cookies SessionCookies, echoLink bool) *MagicLinkHandler {
	return &MagicLinkHandler{svc: svc, cookies: cookies, echoLink: echoLink}
}

type issueResponse struct {
	Message          string `json:"message"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
	Link             string `json:"link,omitempty"`
}

func (h *MagicLinkHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	res, err := h.svc.Issue(r.Context(), req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	resp := issueResponse{
		Message:          "sign-in link sent",
		ExpiresInMinutes: res.ExpiresInMinutes,
	}
	if h.echoLink {
		resp.Link = res.Link
	}
	writeJSON(w, http.StatusOK, resp)
}

// Verify accepts the token either as query parameters (link click) or as a
// JSON body (frontend exchange). Consumption is single-use: a replay of the
// same link gets 422.
func (h *MagicLinkHandler) Verify(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	email := r.URL.Query().Get("email")
	if tok == "" {
		var req struct {
			Token string `json:"token"`
			Email string `json:"email"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tok, email = req.Token, req.Email
	}
	if tok == "" || email == "" {
		writeError(w, http.StatusBadRequest, "token and email are required")
		return
	}

	res, err := h.svc.Verify(r.Context(), tok, email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.cookies.set(w, res.Bearer)
	writeJSON(w, http.StatusOK, AccountEnvelope{Account: toSafeAccount(res.Account)})
}
