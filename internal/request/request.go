package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/nicunursekatie/adhd-planner/internal/models"
)

type contextKey string

const ownerContextKey contextKey = "owner"

// OwnerContextKey returns the context key used for the owner. Exposed for
// tests that inject non-owner values.
func OwnerContextKey() contextKey { return ownerContextKey }

// ClientIP extracts the client IP from the request, respecting
// X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithOwner returns a context with the authenticated owner attached.
func WithOwner(ctx context.Context, owner *models.Owner) context.Context {
	return context.WithValue(ctx, ownerContextKey, owner)
}

// OwnerFromContext returns the owner from the request context, or nil if
// missing or wrong type.
func OwnerFromContext(r *http.Request) *models.Owner {
	o, _ := r.Context().Value(ownerContextKey).(*models.Owner)
	return o
}
