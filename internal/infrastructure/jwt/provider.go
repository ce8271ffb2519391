package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/claimease-api/internal/config"
	"github.com/claimease-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session cookie payload. Everything a protected route needs
// is carried in the signed token, so no server-side session table exists.
type Claims struct {
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Tier      domain.Tier `json:"tier"`
	SessionID string      `json:"session_id"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 session tokens with a fixed absolute
// lifetime (30 days by default).
type Provider struct {
	secret []byte
	expiry time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return &Provider{secret: []byte(cfg.JWTSecret), expiry: cfg.SessionExpiry}, nil
}

func (p *Provider) Sign(a *domain.Account, sessionID string) (string, error) {
	claims := Claims{
		UserID:    a.UserID,
		Email:     a.Email,
		Name:      a.Name,
		Tier:      a.Tier,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Expiry is the absolute session lifetime, exposed so the cookie Max-Age
// matches the token's exp claim.
func (p *Provider) Expiry() time.Duration {
	return p.expiry
}
