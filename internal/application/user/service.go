// Package user handles password and Google sign-in, account profile reads
// and credential updates. Sessions live entirely in the signed cookie; the
// only server-side state is the account record itself.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claimease-api/internal/domain"
	"github.com/claimease-api/internal/infrastructure/google"
	"github.com/claimease-api/internal/pkg/id"
	"github.com/claimease-api/internal/pkg/token"
	"github.com/claimease-api/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// AccountStore is the account storage contract this service needs.
type AccountStore interface {
	Get(ctx context.Context, userID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

// SessionSigner mints the signed session credential.
type SessionSigner interface {
	Sign(a *domain.Account, sessionID string) (string, error)
}

// GoogleVerifier validates Google ID tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

type AuthResult struct {
	Account   *domain.Account
	Bearer    string
	SessionID string
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req domain.LoginRequest) (*AuthResult, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*AuthResult, error)
	Get(ctx context.Context, userID string) (*domain.Account, error)
	UpdateEmail(ctx context.Context, userID string, req domain.UpdateEmailRequest) error
	UpdatePassword(ctx context.Context, userID string, req domain.UpdatePasswordRequest) error
	// Deactivate disables the account. The record is kept so the payment
	// ledger and claims stay attributable; login and claim access stop.
	Deactivate(ctx context.Context, userID string) error
}

type service struct {
	accounts AccountStore
	signer   SessionSigner
	verifier GoogleVerifier
}

func NewService(accounts AccountStore, signer SessionSigner, verifier GoogleVerifier) Service {
	return &service{accounts: accounts, signer: signer, verifier: verifier}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*AuthResult, error) {
	if err := validate.Password(req.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	if _, err := s.accounts.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("email lookup: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	acct := &domain.Account{
		UserID:       id.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Tier:         domain.TierFree,
		AuthProvider: "password",
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Put(ctx, acct); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return s.establishSession(acct)
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*AuthResult, error) {
	acct, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		// Same answer as a wrong password, so login cannot probe for accounts.
		return nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	if !acct.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)) != nil {
		return nil, fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	return s.establishSession(acct)
}

func (s *service) LoginWithGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	if s.verifier == nil {
		return nil, fmt.Errorf("google sign-in not configured: %w", domain.ErrBadRequest)
	}
	payload, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if !payload.EmailVerified {
		return nil, fmt.Errorf("google email not verified: %w", domain.ErrUnauthorized)
	}

	acct, err := s.accounts.GetByEmail(ctx, payload.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("email lookup: %w", err)
	}
	if err != nil {
		now := time.Now().UTC()
		acct = &domain.Account{
			UserID:       id.New(),
			Email:        payload.Email,
			Name:         payload.Name,
			Tier:         domain.TierFree,
			AuthProvider: "google",
			GoogleSub:    payload.Sub,
			Enable:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.accounts.Put(ctx, acct); err != nil {
			return nil, fmt.Errorf("create account: %w", err)
		}
	}
	return s.establishSession(acct)
}

func (s *service) Get(ctx context.Context, userID string) (*domain.Account, error) {
	return s.accounts.Get(ctx, userID)
}

func (s *service) UpdateEmail(ctx context.Context, userID string, req domain.UpdateEmailRequest) error {
	acct, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)) != nil {
		return fmt.Errorf("password incorrect: %w", domain.ErrUnauthorized)
	}
	if _, err := s.accounts.GetByEmail(ctx, req.NewEmail); err == nil {
		return fmt.Errorf("email already in use: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("email lookup: %w", err)
	}
	return s.accounts.Update(ctx, userID, map[string]interface{}{"email": req.NewEmail})
}

func (s *service) UpdatePassword(ctx context.Context, userID string, req domain.UpdatePasswordRequest) error {
	if err := validate.Password(req.NewPassword); err != nil {
		return fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	acct, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return fmt.Errorf("current password incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.accounts.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)})
}

func (s *service) Deactivate(ctx context.Context, userID string) error {
	if _, err := s.accounts.Get(ctx, userID); err != nil {
		return err
	}
	return s.accounts.SoftDelete(ctx, userID)
}

func (s *service) establishSession(acct *domain.Account) (*AuthResult, error) {
	sessionID, err := token.NewSessionID()
	if err != nil {
		return nil, err
	}
	bearer, err := s.signer.Sign(acct, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	return &AuthResult{Account: acct, Bearer: bearer, SessionID: sessionID}, nil
}
