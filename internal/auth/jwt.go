package auth

import (
	"errors"
	"fmt"
	"time"

	"devexchange-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity claims the service reads from a bearer token.
type Claims struct {
	Email string `json:"email,omitempty"`
	Admin bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 tokens.
type Authenticator struct {
	secret []byte
	now    func() time.Time
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for actor valid for ttl.
func (a *Authenticator) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	if actor.UserID == "" {
		return "", errors.New("issue token: user id is required")
	}
	now := a.now()
	claims := Claims{
		Email: actor.Email,
		Admin: actor.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns the actor it identifies. Every failure
// unwraps to domain.ErrUnauthorized.
func (a *Authenticator) Parse(raw string) (domain.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return domain.Actor{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthorized)
	}
	return domain.Actor{UserID: claims.Subject, Email: claims.Email, Admin: claims.Admin}, nil
}
