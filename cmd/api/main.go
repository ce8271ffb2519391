package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/claimease-api/internal/config"
	"github.com/claimease-api/internal/infrastructure/ai"
	"github.com/claimease-api/internal/infrastructure/dynamo"
	"github.com/claimease-api/internal/infrastructure/google"
	jwtinfra "github.com/claimease-api/internal/infrastructure/jwt"
	s3infra "github.com/claimease-api/internal/infrastructure/s3"
	"github.com/claimease-api/internal/infrastructure/smtp"
	"github.com/claimease-api/internal/infrastructure/sns"
	stripeinfra "github.com/claimease-api/internal/infrastructure/stripe"
	"github.com/claimease-api/internal/ratelimit"
	transporthttp "github.com/claimease-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Sessions are signed tokens; without a signing key nothing works.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// S3 store for claim supporting documents.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer delivers the sign-in links.
	mailer := smtp.NewMailer(cfg)

	// Per-email issuance limiter: in-memory by default, DynamoDB-backed
	// when the ceiling must hold across instances.
	window := time.Hour
	var emailLimiter ratelimit.Limiter
	if cfg.RateLimitBackend == "dynamo" {
		rlRepo := dynamo.NewRateLimitRepo(dynamoClient, cfg.DynamoTables.RateLimits)
		emailLimiter = ratelimit.NewDynamoLimiter(rlRepo, cfg.MagicLinkMaxPerHr, window)
	} else {
		mem := ratelimit.NewMemoryLimiter(cfg.MagicLinkMaxPerHr, window)
		go func() {
			for range time.Tick(10 * time.Minute) {
				mem.Sweep()
			}
		}()
		emailLimiter = mem
	}

	// Stripe checkout (optional — billing routes answer 503 without it).
	var stripeClient *stripeinfra.Client
	if c, err := stripeinfra.NewClient(cfg); err == nil {
		stripeClient = c
	} else {
		log.Printf("WARN: Stripe not available: %v", err)
	}

	// SNS ops alerter (optional — reconciliation failures are only logged).
	var alerter sns.OpsAlerter
	if a, err := sns.NewAlerter(cfg); err == nil {
		alerter = a
	} else {
		log.Printf("WARN: SNS alerter not available: %v", err)
	}

	// Completion client for answer rewriting (optional).
	var aiClient *ai.Client
	if c, err := ai.NewClient(cfg); err == nil {
		aiClient = c
	} else {
		log.Printf("WARN: completion client not available: %v", err)
	}

	// Google sign-in (optional).
	var googleVerifier *google.Verifier
	if cfg.GoogleClientID != "" {
		googleVerifier = google.NewVerifier(cfg.GoogleClientID)
	} else {
		log.Println("WARN: GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	deps := &transporthttp.Deps{
		AccountRepo:    dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Users),
		MagicLinkRepo:  dynamo.NewMagicLinkRepo(dynamoClient, cfg.DynamoTables.MagicLinkTokens),
		ClaimRepo:      dynamo.NewClaimRepo(dynamoClient, cfg.DynamoTables.Claims),
		PaymentRepo:    dynamo.NewPaymentRepo(dynamoClient, cfg.DynamoTables.Payments),
		S3Store:        s3Store,
		Mailer:         mailer,
		Alerter:        alerter,
		JWTProvider:    jwtProvider,
		EmailLimiter:   emailLimiter,
		Stripe:         stripeClient,
		AIClient:       aiClient,
		GoogleVerifier: googleVerifier,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
