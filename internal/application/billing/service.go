// Package billing creates Stripe Checkout Sessions and reconciles the
// asynchronous payment-completed events back into account tier state.
// Reconciliation is idempotent under at-least-once webhook delivery: the
// payment ledger row is written pending with a not-exists condition, the tier
// is applied, then the row flips to completed. A redelivered event consults
// the stored status — completed and failed rows short-circuit, a pending row
// means the earlier delivery died between the write and the tier apply, so
// the upgrade is re-applied rather than dropped.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claimease-api/internal/domain"
	"github.com/claimease-api/internal/infrastructure/sns"
	"github.com/stripe/stripe-go/v79"
)

// planValidity is how long a purchased plan stays active.
const planValidity = 30 * 24 * time.Hour

// AccountStore is the account storage contract this service needs.
type AccountStore interface {
	Get(ctx context.Context, userID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByStripeCustomer(ctx context.Context, customerID string) (*domain.Account, error)
	SetTier(ctx context.Context, userID string, tier domain.Tier, expiresAt *time.Time) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// PaymentLedger is the processed-transaction dedup store.
type PaymentLedger interface {
	PutIfAbsent(ctx context.Context, p *domain.Payment) error
	Get(ctx context.Context, sessionID string) (*domain.Payment, error)
	SetStatus(ctx context.Context, sessionID, status string) error
}

// CheckoutProvider wraps the Stripe calls, kept behind an interface so the
// reconciliation logic is testable without the vendor SDK.
type CheckoutProvider interface {
	CreateCheckoutSession(tier domain.Tier, email, userID string) (*stripe.CheckoutSession, error)
	GetCheckoutSession(sessionID string) (*stripe.CheckoutSession, error)
}

// CompletedCheckout is the reconciliation input extracted from a verified
// checkout.session.completed event.
type CompletedCheckout struct {
	SessionID        string
	UserID           string // from session metadata; may be empty
	Email            string
	StripeCustomerID string
	AmountTotal      int64
	Currency         string
	Tier             domain.Tier
}

type Service interface {
	CreateCheckout(ctx context.Context, tier domain.Tier, email, userID string) (url string, err error)
	// VerifySession reports whether a checkout session has been paid — used
	// by the success page without waiting for the webhook.
	VerifySession(ctx context.Context, sessionID string) (paid bool, tier domain.Tier, err error)
	// Reconcile applies a completed checkout to the owning account. Always
	// returns nil for events that must still be acknowledged (duplicates,
	// unresolvable accounts); only storage faults propagate.
	Reconcile(ctx context.Context, cc CompletedCheckout) error
}

type service struct {
	accounts AccountStore
	ledger   PaymentLedger
	checkout CheckoutProvider
	alerter  sns.OpsAlerter
	now      func() time.Time
}

type ServiceDeps struct {
	Accounts AccountStore
	Ledger   PaymentLedger
	Checkout CheckoutProvider
	Alerter  sns.OpsAlerter
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts: deps.Accounts,
		ledger:   deps.Ledger,
		checkout: deps.Checkout,
		alerter:  deps.Alerter,
		now:      time.Now,
	}
}

func (s *service) CreateCheckout(ctx context.Context, tier domain.Tier, email, userID string) (string, error) {
	if tier != domain.TierStandard && tier != domain.TierPro {
		return "", fmt.Errorf("plan must be standard or pro: %w", domain.ErrBadRequest)
	}
	sess, err := s.checkout.CreateCheckoutSession(tier, email, userID)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *service) VerifySession(ctx context.Context, sessionID string) (bool, domain.Tier, error) {
	sess, err := s.checkout.GetCheckoutSession(sessionID)
	if err != nil {
		return false, "", fmt.Errorf("fetch checkout session: %w", domain.ErrNotFound)
	}
	tier := domain.Tier(sess.Metadata["tier"])
	return sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, tier, nil
}

func (s *service) Reconcile(ctx context.Context, cc CompletedCheckout) error {
	acct, resolveErr := s.resolveAccount(ctx, cc)

	payment := &domain.Payment{
		SessionID:        cc.SessionID,
		Email:            cc.Email,
		StripeCustomerID: cc.StripeCustomerID,
		AmountTotal:      cc.AmountTotal,
		Currency:         cc.Currency,
		Tier:             cc.Tier,
		Status:           domain.PaymentStatusPending,
		CreatedAt:        s.now().UTC(),
	}
	if acct != nil {
		payment.UserID = acct.UserID
	}
	if resolveErr != nil {
		payment.Status = domain.PaymentStatusFailed
		payment.FailureReason = resolveErr.Error()
	}

	// Ledger write is the idempotency gate. A duplicate session ID sends the
	// redelivery to the stored row's status instead of blindly acking: a
	// pending row means the tier apply never landed and must be retried.
	if err := s.ledger.PutIfAbsent(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.reconcileRedelivery(ctx, cc, acct, resolveErr)
		}
		return fmt.Errorf("record payment: %w", err)
	}

	if resolveErr != nil {
		// Never drop the event silently: the failed ledger row plus an
		// operator alert makes it visible for manual follow-up, while the
		// webhook is still acknowledged to stop redelivery storms.
		slog.Error("checkout reconciliation failed", "session_id", cc.SessionID, "err", resolveErr)
		s.alertOps(ctx, cc, resolveErr)
		return nil
	}

	return s.applyUpgrade(ctx, cc, acct)
}

// applyUpgrade moves the account to the purchased tier and only then marks
// the ledger row completed. If either write faults the row stays pending and
// the error propagates, so the provider redelivers and the upgrade converges.
func (s *service) applyUpgrade(ctx context.Context, cc CompletedCheckout, acct *domain.Account) error {
	expiresAt := s.now().UTC().Add(planValidity)
	if err := s.accounts.SetTier(ctx, acct.UserID, cc.Tier, &expiresAt); err != nil {
		return fmt.Errorf("apply tier %s to %s: %w", cc.Tier, acct.UserID, err)
	}
	if cc.StripeCustomerID != "" && acct.StripeCustomerID != cc.StripeCustomerID {
		if err := s.accounts.Update(ctx, acct.UserID, map[string]interface{}{"stripe_customer_id": cc.StripeCustomerID}); err != nil {
			slog.Warn("could not store stripe customer id", "user_id", acct.UserID, "err", err)
		}
	}
	if err := s.ledger.SetStatus(ctx, cc.SessionID, domain.PaymentStatusCompleted); err != nil {
		return fmt.Errorf("mark payment completed: %w", err)
	}
	slog.Info("plan upgraded", "user_id", acct.UserID, "tier", cc.Tier, "session_id", cc.SessionID)
	return nil
}

// reconcileRedelivery handles a session ID the ledger has already seen.
// Completed and failed rows are genuine duplicates; a pending row is an
// earlier delivery that died before the tier apply, so finish the job now.
func (s *service) reconcileRedelivery(ctx context.Context, cc CompletedCheckout, acct *domain.Account, resolveErr error) error {
	existing, err := s.ledger.Get(ctx, cc.SessionID)
	if err != nil {
		return fmt.Errorf("load payment %s: %w", cc.SessionID, err)
	}
	if existing.Status != domain.PaymentStatusPending {
		slog.Info("duplicate checkout event ignored", "session_id", cc.SessionID, "status", existing.Status)
		return nil
	}
	if resolveErr != nil {
		slog.Error("checkout reconciliation failed on redelivery", "session_id", cc.SessionID, "err", resolveErr)
		s.alertOps(ctx, cc, resolveErr)
		if err := s.ledger.SetStatus(ctx, cc.SessionID, domain.PaymentStatusFailed); err != nil {
			slog.Warn("could not mark payment failed", "session_id", cc.SessionID, "err", err)
		}
		return nil
	}
	return s.applyUpgrade(ctx, cc, acct)
}

func (s *service) resolveAccount(ctx context.Context, cc CompletedCheckout) (*domain.Account, error) {
	if !domain.ValidTier(cc.Tier) || cc.Tier == domain.TierFree {
		return nil, fmt.Errorf("event carries unknown tier %q", cc.Tier)
	}
	if cc.UserID != "" {
		if a, err := s.accounts.Get(ctx, cc.UserID); err == nil {
			return a, nil
		}
	}
	if cc.Email != "" {
		if a, err := s.accounts.GetByEmail(ctx, cc.Email); err == nil {
			return a, nil
		}
	}
	// Returning customers may check out with a changed email; the stored
	// Stripe customer ID still identifies the account.
	if cc.StripeCustomerID != "" {
		if a, err := s.accounts.GetByStripeCustomer(ctx, cc.StripeCustomerID); err == nil {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no account for user_id=%q email=%q customer=%q", cc.UserID, cc.Email, cc.StripeCustomerID)
}

func (s *service) alertOps(ctx context.Context, cc CompletedCheckout, cause error) {
	if s.alerter == nil {
		return
	}
	msg := fmt.Sprintf("checkout session %s could not be reconciled: %v (email=%s, tier=%s)",
		cc.SessionID, cause, cc.Email, cc.Tier)
	if err := s.alerter.Alert(ctx, "ClaimEase reconciliation failure", msg); err != nil {
		slog.Warn("ops alert failed", "err", err)
	}
}
