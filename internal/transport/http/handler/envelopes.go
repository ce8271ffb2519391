package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/claimease-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// AccountEnvelope wraps sign-in and account responses. Password hashes and
// storage internals never cross this boundary.
type AccountEnvelope struct {
	Account *SafeAccount `json:"account,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// SafeAccount is the client-facing view of an account.
type SafeAccount struct {
	ID              string      `json:"id"`
	Email           string      `json:"email"`
	Name            string      `json:"name,omitempty"`
	Tier            domain.Tier `json:"tier"`
	ClaimsUsed      int         `json:"claims_used"`
	ClaimsRemaining int         `json:"claims_remaining"`
	CanStartClaim   bool        `json:"can_start_claim"`
	PlanExpires     *time.Time  `json:"plan_expires,omitempty"`
}

func toSafeAccount(a *domain.Account) *SafeAccount {
	return &SafeAccount{
		ID:              a.UserID,
		Email:           a.Email,
		Name:            a.Name,
		Tier:            a.Tier,
		ClaimsUsed:      a.ClaimsUsed,
		ClaimsRemaining: a.ClaimsRemaining(),
		CanStartClaim:   a.CanStartClaim(),
		PlanExpires:     a.PlanExpiresAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// writeDomainError maps domain sentinel errors to HTTP status codes. Unknown
// errors become 500 with a generic message so internals do not leak.
func writeDomainError(w http.ResponseWriter, err error) {
	var rl *domain.RateLimitError
	if errors.As(err, &rl) {
		secs := int(time.Until(rl.ResetAt).Seconds())
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeError(w, http.StatusPaymentRequired, "claim quota reached; upgrade your plan to start another claim")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrAlreadyUsed),
		errors.Is(err, domain.ErrExpired),
		errors.Is(err, domain.ErrEmailMismatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many requests")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// ServiceUnavailable answers routes whose backing integration is not
// configured in this deployment.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusServiceUnavailable, "not configured")
}
