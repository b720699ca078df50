// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a type for context keys.
type ContextKey string

const (
	// TenantIDKey is the context key for the normalized tenant ID.
	TenantIDKey ContextKey = "tenant_id"
	// UserIDKey is the context key for user ID.
	UserIDKey ContextKey = "user_id"
	// CorrelationIDKey is the context key for correlation ID.
	CorrelationIDKey ContextKey = "correlation_id"
)

// DefaultTenant is used when no valid tenant identifier is supplied.
const DefaultTenant = "default"

var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// NormalizeTenant collapses anything outside the allow-listed character
// class to the default tenant.
func NormalizeTenant(id string) string {
	t := strings.TrimSpace(id)
	if t == "" || !tenantPattern.MatchString(t) {
		return DefaultTenant
	}
	return t
}

// tenantClaims carries the optional tenant claim of a bearer token.
type tenantClaims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
}

// Tenant resolves the tenant identifier for a request: JWT claim first,
// then X-Tenant-ID header, then the tenant query parameter. The resolved
// value is normalized and stored in the request context. Requests without
// a valid identifier fall back to the default tenant rather than failing.
func Tenant(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if jwtSecret != "" {
				if claim := tenantFromBearer(r, jwtSecret); claim != "" {
					id = claim
				}
			}
			if id == "" {
				id = r.Header.Get("X-Tenant-ID")
			}
			if id == "" {
				id = r.URL.Query().Get("tenant")
			}
			ctx := context.WithValue(r.Context(), TenantIDKey, NormalizeTenant(id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tenantFromBearer(r *http.Request, secret string) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	claims := &tenantClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	return claims.TenantID
}

// GetTenantID gets the normalized tenant ID from context.
func GetTenantID(ctx context.Context) string {
	if v := ctx.Value(TenantIDKey); v != nil {
		return v.(string)
	}
	return DefaultTenant
}

// GetUserID gets user ID from context.
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(UserIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetCorrelationID gets correlation ID from context.
func GetCorrelationID(ctx context.Context) string {
	if v := ctx.Value(CorrelationIDKey); v != nil {
		return v.(string)
	}
	return ""
}
