package domain

import "time"

// Account is a ClaimEase user record. Email is the login identity and is
// stored case-sensitively; lookups must present it exactly as issued.
type Account struct {
	UserID           string     `json:"id" dynamodbav:"user_id"`
	Email            string     `json:"email" dynamodbav:"email"`
	Name             string     `json:"name" dynamodbav:"name"`
	PasswordHash     string     `json:"-" dynamodbav:"password_hash"`
	Tier             Tier       `json:"tier" dynamodbav:"tier"`
	ClaimsUsed       int        `json:"claims_used" dynamodbav:"claims_used"`
	PlanExpiresAt    *time.Time `json:"plan_expires_at,omitempty" dynamodbav:"plan_expires_at"`
	StripeCustomerID string     `json:"-" dynamodbav:"stripe_customer_id"`
	AuthProvider     string     `json:"auth_provider,omitempty" dynamodbav:"auth_provider"` // "password" | "magic_link" | "google"
	GoogleSub        string     `json:"-" dynamodbav:"google_sub"`
	Enable           bool       `json:"enable" dynamodbav:"enable"`
	CreatedAt        time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateEmailRequest struct {
	NewEmail string `json:"new_email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}
