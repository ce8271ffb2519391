package http

import (
	"github.com/claimease-api/internal/infrastructure/ai"
	"github.com/claimease-api/internal/infrastructure/dynamo"
	"github.com/claimease-api/internal/infrastructure/google"
	jwtinfra "github.com/claimease-api/internal/infrastructure/jwt"
	s3infra "github.com/claimease-api/internal/infrastructure/s3"
	"github.com/claimease-api/internal/infrastructure/smtp"
	"github.com/claimease-api/internal/infrastructure/sns"
	stripeinfra "github.com/claimease-api/internal/infrastructure/stripe"
	"github.com/claimease-api/internal/ratelimit"
)

// Deps holds all infrastructure dependencies for the router. Stripe, AI and
// Google are optional integrations: when nil, their routes answer 503 (or,
// for Google sign-in, a 400 from the service).
type Deps struct {
	AccountRepo   *dynamo.AccountRepo
	MagicLinkRepo *dynamo.MagicLinkRepo
	ClaimRepo     *dynamo.ClaimRepo
	PaymentRepo   *dynamo.PaymentRepo

	S3Store      *s3infra.Store
	Mailer       smtp.Mailer
	Alerter      sns.OpsAlerter
	JWTProvider  *jwtinfra.Provider
	EmailLimiter ratelimit.Limiter

	Stripe         *stripeinfra.Client
	AIClient       *ai.Client
	GoogleVerifier *google.Verifier
}
