// Package entitlement answers "may this account start another claim?" and
// advances the consumption counter when one is started. The decision is a
// pure function of the account record; the mutation is a single conditional
// storage update, so concurrent starts cannot both pass the quota check.
package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/claimease-api/internal/domain"
)

// AccountStore is the minimal account storage contract this service needs.
type AccountStore interface {
	Get(ctx context.Context, userID string) (*domain.Account, error)
	ConsumeClaim(ctx context.Context, userID string, quota int) error
	SetTier(ctx context.Context, userID string, tier domain.Tier, expiresAt *time.Time) error
}

// Status is the claim-start decision surface: allow/deny plus the remaining
// count for display. Remaining is domain.QuotaUnlimited for pro accounts.
type Status struct {
	Tier          domain.Tier `json:"tier"`
	CanStartClaim bool        `json:"can_start_claim"`
	ClaimsUsed    int         `json:"claims_used"`
	Remaining     int         `json:"claims_remaining"`
}

type Service interface {
	Status(ctx context.Context, userID string) (*Status, error)
	// StartClaim consumes one claim atomically. Returns
	// domain.ErrQuotaExceeded when the plan does not allow another claim,
	// including when a concurrent start won the last slot.
	StartClaim(ctx context.Context, userID string) (*domain.Account, error)
	SetTier(ctx context.Context, userID string, tier domain.Tier, expiresAt *time.Time) error
}

type service struct {
	accounts AccountStore
}

func NewService(accounts AccountStore) Service {
	return &service{accounts: accounts}
}

func (s *service) Status(ctx context.Context, userID string) (*Status, error) {
	a, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Status{
		Tier:          a.Tier,
		CanStartClaim: a.CanStartClaim(),
		ClaimsUsed:    a.ClaimsUsed,
		Remaining:     a.ClaimsRemaining(),
	}, nil
}

func (s *service) StartClaim(ctx context.Context, userID string) (*domain.Account, error) {
	a, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	// The quota read here only selects the condition; enforcement happens
	// inside ConsumeClaim's conditional update.
	if err := s.accounts.ConsumeClaim(ctx, userID, domain.Quota(a.Tier)); err != nil {
		return nil, err
	}
	a.ClaimsUsed++
	return a, nil
}

func (s *service) SetTier(ctx context.Context, userID string, tier domain.Tier, expiresAt *time.Time) error {
	if !domain.ValidTier(tier) {
		return fmt.Errorf("unknown tier %q: %w", tier, domain.ErrBadRequest)
	}
	return s.accounts.SetTier(ctx, userID, tier, expiresAt)
}
