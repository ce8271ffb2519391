package domain

import "time"

// Payment statuses.
const (
	// PaymentStatusPending is the row's initial state: the event is recorded
	// but the tier change has not landed yet. A redelivery that finds a
	// pending row re-applies the upgrade instead of treating it as done.
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	// PaymentStatusFailed marks an event whose account could not be resolved.
	// The row exists for operator follow-up; the webhook is still acknowledged.
	PaymentStatusFailed = "failed"
)

// Payment is one reconciled Stripe event. PK: session_id, which doubles as
// the idempotency ledger — a conditional put on this key short-circuits
// at-least-once webhook redelivery before any tier change is applied.
type Payment struct {
	SessionID        string    `json:"session_id" dynamodbav:"session_id"`
	UserID           string    `json:"user_id" dynamodbav:"user_id"`
	Email            string    `json:"email" dynamodbav:"email"`
	StripeCustomerID string    `json:"-" dynamodbav:"stripe_customer_id"`
	AmountTotal      int64     `json:"amount" dynamodbav:"amount_total"`
	Currency         string    `json:"currency" dynamodbav:"currency"`
	Tier             Tier      `json:"tier" dynamodbav:"tier"`
	Status           string    `json:"status" dynamodbav:"status"`
	FailureReason    string    `json:"failure_reason,omitempty" dynamodbav:"failure_reason"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
}
