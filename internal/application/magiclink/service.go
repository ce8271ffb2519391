// Package magiclink implements the one-time sign-in link protocol: issue a
// random, time-boxed, single-use token bound to an email address; verify a
// presented (token, email) pair exactly once; then hand a session to the
// caller. Tokens are independent — several live links may exist for one
// email, each consumable once.
package magiclink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/claimease-api/internal/domain"
	"github.com/claimease-api/internal/infrastructure/smtp"
	"github.com/claimease-api/internal/pkg/id"
	"github.com/claimease-api/internal/pkg/token"
	"github.com/claimease-api/internal/pkg/validate"
	"github.com/claimease-api/internal/ratelimit"
)

// TokenStore is the magic-link token storage contract.
type TokenStore interface {
	Put(ctx context.Context, t *domain.MagicLinkToken) error
	Get(ctx context.Context, tok string) (*domain.MagicLinkToken, error)
	// Consume flips used=false to true atomically; exactly one concurrent
	// caller succeeds, the rest get domain.ErrAlreadyUsed.
	Consume(ctx context.Context, tok string) error
}

// AccountStore is the account storage contract this service needs.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
}

// SessionSigner mints the signed session credential on successful verification.
type SessionSigner interface {
	Sign(a *domain.Account, sessionID string) (string, error)
}

type IssueResult struct {
	Link             string // echoed to the caller only outside production
	ExpiresInMinutes int
}

type VerifyResult struct {
	Account   *domain.Account
	Bearer    string
	SessionID string
}

type Service interface {
	// Issue rate-limits per email, stores a fresh token and emails the link.
	Issue(ctx context.Context, email string) (*IssueResult, error)
	// Verify consumes the token exactly once and establishes the account
	// (created at the free tier on first sign-in).
	Verify(ctx context.Context, tok, email string) (*VerifyResult, error)
}

type service struct {
	tokens   TokenStore
	accounts AccountStore
	mailer   smtp.Mailer
	limiter  ratelimit.Limiter
	signer   SessionSigner
	ttl      time.Duration
	appURL   string
	now      func() time.Time
}

type ServiceDeps struct {
	Tokens   TokenStore
	Accounts AccountStore
	Mailer   smtp.Mailer
	Limiter  ratelimit.Limiter
	Signer   SessionSigner
	TokenTTL time.Duration
	AppURL   string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		tokens:   deps.Tokens,
		accounts: deps.Accounts,
		mailer:   deps.Mailer,
		limiter:  deps.Limiter,
		signer:   deps.Signer,
		ttl:      deps.TokenTTL,
		appURL:   deps.AppURL,
		now:      time.Now,
	}
}

func (s *service) Issue(ctx context.Context, email string) (*IssueResult, error) {
	// Malformed addresses are rejected before any counter or storage access.
	if err := validate.Email(email); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	allowed, resetAt, err := s.limiter.Allow(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		return nil, &domain.RateLimitError{ResetAt: resetAt}
	}

	tok, err := token.NewMagicLinkToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	rec := &domain.MagicLinkToken{
		Token:     tok,
		Email:     email,
		Used:      false,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	if err := s.tokens.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("store magic link token: %w", err)
	}

	minutes := int(s.ttl.Minutes())
	// Query-encode both parameters: a plus-addressed email pasted raw would
	// decode as a space on verify and never match the stored address.
	q := url.Values{}
	q.Set("token", tok)
	q.Set("email", email)
	link := fmt.Sprintf("%s/auth/verify?%s", s.appURL, q.Encode())
	if err := s.mailer.SendEmail(email, "Your ClaimEase sign-in link", smtp.MagicLinkBody(link, minutes)); err != nil {
		return nil, fmt.Errorf("send magic link email: %w", err)
	}

	return &IssueResult{Link: link, ExpiresInMinutes: minutes}, nil
}

func (s *service) Verify(ctx context.Context, tok, email string) (*VerifyResult, error) {
	rec, err := s.tokens.Get(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("magic link lookup: %w", err)
	}
	// Email is bound at issuance and compared exactly as stored.
	if rec.Email != email {
		return nil, fmt.Errorf("magic link bound to another address: %w", domain.ErrEmailMismatch)
	}
	if rec.Used {
		return nil, fmt.Errorf("magic link: %w", domain.ErrAlreadyUsed)
	}
	if s.now().Unix() > rec.ExpiresAt {
		return nil, fmt.Errorf("magic link: %w", domain.ErrExpired)
	}
	// The serialization point: of any number of concurrent verify calls for
	// the same token, exactly one passes this conditional flip.
	if err := s.tokens.Consume(ctx, tok); err != nil {
		return nil, err
	}

	acct, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		// First sign-in only. A transient lookup fault must not mint a
		// second account for an email that already owns one.
		acct, err = s.createAccount(ctx, email)
	}
	if err != nil {
		return nil, err
	}

	sessionID, err := token.NewSessionID()
	if err != nil {
		return nil, err
	}
	bearer, err := s.signer.Sign(acct, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &VerifyResult{Account: acct, Bearer: bearer, SessionID: sessionID}, nil
}

// createAccount provisions a first-sign-in account. New accounts start on
// the free tier with no claim allowance; the claim surface sends them to the
// upgrade path.
func (s *service) createAccount(ctx context.Context, email string) (*domain.Account, error) {
	now := s.now().UTC()
	acct := &domain.Account{
		UserID:       id.New(),
		Email:        email,
		Name:         email,
		Tier:         domain.TierFree,
		AuthProvider: "magic_link",
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Put(ctx, acct); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	slog.Info("account created via magic link", "user_id", acct.UserID)
	return acct, nil
}
