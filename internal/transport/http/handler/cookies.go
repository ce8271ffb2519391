package handler

import (
	"net/http"

	"github.com/claimease-api/internal/transport/http/middleware"
)

// SessionCookies writes and clears the HttpOnly session cookie. The cookie
// lifetime matches the signed token's absolute expiry; there is no sliding
// renewal.
type SessionCookies struct {
	Secure bool
	MaxAge int // seconds
}

func (c SessionCookies) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   c.MaxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookies) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
