// Package auth issues and verifies the credentials LetterLove accepts
// besides session cookies: HS256 API tokens and OpenID Connect sign-in.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenDuration is the validity period for API tokens.
	TokenDuration = 24 * time.Hour

	tokenIssuer = "letterlove"
)

// ErrInvalidToken is returned when a token parses but carries no usable identity.
var ErrInvalidToken = errors.New("invalid token")

// Claims represents API token claims.
type Claims struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	Provider    string `json:"provider"`
	jwt.RegisteredClaims
}

// UserUUID parses the user id carried by the token.
func (c *Claims) UserUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: user id: %v", ErrInvalidToken, err)
	}
	return id, nil
}

// TokenIssuer signs and verifies API tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer. A zero ttl means TokenDuration.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = TokenDuration
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for a user.
func (ti *TokenIssuer) Issue(userID uuid.UUID, email, displayName, provider string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      userID.String(),
		Email:       email,
		DisplayName: displayName,
		Provider:    provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its claims. Expired tokens fail
// with an error matching jwt.ErrTokenExpired.
func (ti *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(t *jwt.Token) (any, error) {
			return ti.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, err
	}
	return claims, nil
}
