// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"letterlove/internal/auth"
	"letterlove/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the resolved identity.
	SessionKey contextKey = "session"
)

// SessionReader loads the session attached to a request, if any.
type SessionReader interface {
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
}

// TokenParser validates an API bearer token.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// LoadIdentity resolves the caller from an Authorization bearer token or,
// when no such header is present, from the session cookie, and stores it
// in the request context. A request that presents a bearer token is never
// also authenticated by cookie. This middleware does NOT enforce
// authentication.
func LoadIdentity(sessions SessionReader, tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := BearerToken(r); ok {
				claims, err := tokens.Parse(raw)
				if err != nil {
					slog.Debug("rejected bearer token", "error", err)
					next.ServeHTTP(w, r)
					return
				}
				id, _ := claims.UserUUID()
				data := &session.Data{
					UserID:      id,
					Email:       claims.Email,
					DisplayName: claims.DisplayName,
					Provider:    claims.Provider,
				}
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), SessionKey, data)))
				return
			}

			data, err := sessions.Get(r.Context(), r)
			if err != nil {
				// Treat as unauthenticated.
				slog.Warn("session lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if data != nil {
				r = r.WithContext(context.WithValue(r.Context(), SessionKey, data))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects anonymous callers with a 401 JSON error.
// Must be applied after LoadIdentity in the middleware chain.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromCtx(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromCtx extracts the identity from the request context.
// Returns nil if the caller is anonymous.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// WithSession returns a copy of ctx carrying the given identity.
func WithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
