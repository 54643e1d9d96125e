package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/osmacan/weather-api/internal/httpx"
	"github.com/osmacan/weather-api/internal/token"
	"github.com/osmacan/weather-api/internal/user"
)

type ctxKey int

const (
	claimsKey ctxKey = iota
	rawTokenKey
)

// ClaimsFrom returns the identity attached by RequireAuth/OptionalAuth.
func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*token.Claims)
	return claims, ok
}

// RawTokenFrom returns the bearer token string as presented, needed by
// logout to key the revocation entry.
func RawTokenFrom(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(rawTokenKey).(string)
	return raw, ok
}

// Middleware is the access gate: it composes the stateless token validator
// with the revocation registry and exposes the role check for privileged
// routes.
type Middleware struct {
	tokens    token.Service
	blacklist *token.Blacklist
	logger    *zap.Logger
}

func NewMiddleware(tokens token.Service, blacklist *token.Blacklist, logger *zap.Logger) *Middleware {
	return &Middleware{tokens: tokens, blacklist: blacklist, logger: logger}
}

// RequireAuth rejects the request unless it carries a valid, unexpired,
// unrevoked bearer token. On success the claims and raw token are attached
// to the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeUnauthorized(w, "access token required")
			return
		}

		claims, err := m.tokens.Validate(raw)
		if err != nil {
			if errors.Is(err, token.ErrTokenExpired) {
				writeUnauthorized(w, "token has expired")
				return
			}
			writeUnauthorized(w, "invalid token")
			return
		}

		if m.blacklist.IsRevoked(raw) {
			writeUnauthorized(w, "token has been invalidated")
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), claims, raw)))
	})
}

// OptionalAuth runs the same checks as RequireAuth but any failure proceeds
// anonymously instead of rejecting. For endpoints that behave differently
// for authenticated callers but never turn anonymous ones away.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokens.Validate(raw)
		if err != nil || m.blacklist.IsRevoked(raw) {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), claims, raw)))
	})
}

// RequireAdmin must be chained after RequireAuth; it never resolves identity
// itself.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			writeUnauthorized(w, "authentication required")
			return
		}
		if claims.Role != user.RoleAdmin {
			httpx.WriteError(w, http.StatusForbidden, httpx.ErrorResponse[any]{
				Code:    httpx.ErrForbidden,
				Message: "admin access required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withIdentity(ctx context.Context, claims *token.Claims, raw string) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	return context.WithValue(ctx, rawTokenKey, raw)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorResponse[any]{
		Code:    httpx.ErrUnauthorized,
		Message: message,
	})
}
