package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/claimease-api/internal/application/billing"
	"github.com/claimease-api/internal/application/claim"
	"github.com/claimease-api/internal/application/entitlement"
	"github.com/claimease-api/internal/application/magiclink"
	"github.com/claimease-api/internal/application/suggest"
	"github.com/claimease-api/internal/application/user"
	"github.com/claimease-api/internal/config"
	"github.com/claimease-api/internal/transport/http/handler"
	appmiddleware "github.com/claimease-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	// The per-email issuance window is enforced separately in the magic-link
	// service.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	cookies := handler.SessionCookies{
		Secure: cfg.IsProduction(),
		MaxAge: int(cfg.SessionExpiry.Seconds()),
	}

	var googleVerifier user.GoogleVerifier
	if deps.GoogleVerifier != nil {
		googleVerifier = deps.GoogleVerifier
	}

	entSvc := entitlement.NewService(deps.AccountRepo)
	userSvc := user.NewService(deps.AccountRepo, deps.JWTProvider, googleVerifier)
	claimSvc := claim.NewService(deps.ClaimRepo, entSvc, deps.S3Store)
	linkSvc := magiclink.NewService(magiclink.ServiceDeps{
		Tokens:   deps.MagicLinkRepo,
		Accounts: deps.AccountRepo,
		Mailer:   deps.Mailer,
		Limiter:  deps.EmailLimiter,
		Signer:   deps.JWTProvider,
		TokenTTL: cfg.MagicLinkTTL,
		AppURL:   cfg.AppURL,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(userSvc, cookies)
	linkH := handler.NewMagicLinkHandler(linkSvc, cookies, !cfg.IsProduction())
	userH := handler.NewUserHandler(userSvc, cookies)
	entH := handler.NewEntitlementHandler(entSvc)
	claimH := handler.NewClaimHandler(claimSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/google", authH.LoginWithGoogle)
		r.With(sensitiveRL.Limit).Post("/auth/magic-link", linkH.Issue)
		r.With(sensitiveRL.Limit).Post("/auth/magic-link/verify", linkH.Verify)
		r.With(sensitiveRL.Limit).Get("/auth/magic-link/verify", linkH.Verify)

		if deps.Stripe != nil {
			billingSvc := billing.NewService(billing.ServiceDeps{
				Accounts: deps.AccountRepo,
				Ledger:   deps.PaymentRepo,
				Checkout: deps.Stripe,
				Alerter:  deps.Alerter,
			})
			checkoutH := handler.NewCheckoutHandler(billingSvc)
			webhookH := handler.NewWebhookHandler(billingSvc, deps.Stripe)

			r.Post("/webhooks/stripe", webhookH.Handle)
			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.Post("/billing/checkout", checkoutH.Create)
				r.Get("/billing/checkout/{id}", checkoutH.Verify)
			})
		} else {
			r.Post("/webhooks/stripe", handler.ServiceUnavailable)
			r.Post("/billing/checkout", handler.ServiceUnavailable)
			r.Get("/billing/checkout/{id}", handler.ServiceUnavailable)
		}

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/logout", authH.Logout)

			r.Get("/users/me", userH.Me)
			r.Put("/users/me/email", userH.UpdateEmail)
			r.Put("/users/me/password", userH.UpdatePassword)
			r.Delete("/users/me", userH.Deactivate)

			r.Get("/entitlement", entH.Status)

			r.Post("/claims", claimH.Create)
			r.Get("/claims", claimH.List)
			r.Get("/claims/{id}", claimH.Get)
			r.Put("/claims/{id}", claimH.Update)
			r.Delete("/claims/{id}", claimH.Delete)
			r.Post("/claims/{id}/documents", claimH.UploadDocument)
			r.Get("/claims/{id}/documents/{docID}", claimH.DocumentURL)
			r.Delete("/claims/{id}/documents/{docID}", claimH.DeleteDocument)

			if deps.AIClient != nil {
				suggestSvc := suggest.NewService(deps.AIClient, entSvc)
				suggestH := handler.NewSuggestHandler(suggestSvc)
				r.Post("/suggestions", suggestH.Rewrite)
			} else {
				r.Post("/suggestions", handler.ServiceUnavailable)
			}
		})
	})

	return r
}
