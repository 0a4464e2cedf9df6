package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformauth "github.com/prosektorweb/inbox-api/platform/auth"
	"github.com/prosektorweb/inbox-api/platform/httpapi"
	"github.com/prosektorweb/inbox-api/platform/logging"
	"github.com/prosektorweb/inbox-api/platform/persistence"
	"github.com/prosektorweb/inbox-api/platform/tenant"
)

// Resolver defines the minimal lookup capability required to populate a tenant Space.
// Implemented by the membership store.
type Resolver interface {
	ResolveMembership(ctx context.Context, userID string, tenantID uuid.UUID) (tenant.Space, error)
}

// Config controls middleware behavior.
type Config struct {
	// Optional small in-memory TTL cache to avoid store hits; zero disables caching.
	CacheTTL time.Duration
}

// WithMembership resolves the caller's tenant membership and attaches
// tenant.Space to the context. Fails closed: no credentials means
// UNAUTHENTICATED, no active membership means FORBIDDEN. A store failure is
// not a missing membership; it surfaces as INTERNAL and is logged.
func WithMembership(resolver Resolver, cfg Config) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant middleware: resolver is required")
	}

	var cache *membershipCache
	if cfg.CacheTTL > 0 {
		cache = newMembershipCache(cfg.CacheTTL)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, ok := platformauth.UserFromContext(r.Context())
			if !ok || creds == nil {
				httpapi.WriteError(w, r, &httpapi.Error{
					Code:    httpapi.CodeUnauthenticated,
					Message: "authentication required",
				})
				return
			}

			if creds.TenantID == nil || *creds.TenantID == "" {
				httpapi.WriteError(w, r, &httpapi.Error{
					Code:    httpapi.CodeForbidden,
					Message: "no tenant membership",
				})
				return
			}

			// The tenant claim is expected to be the tenant UUID.
			tid, err := uuid.Parse(*creds.TenantID)
			if err != nil {
				httpapi.WriteError(w, r, &httpapi.Error{
					Code:    httpapi.CodeForbidden,
					Message: "no tenant membership",
				})
				return
			}

			if cached := cache.get(creds.ID, tid); cached != nil {
				next.ServeHTTP(w, r.WithContext(tenant.WithSpace(r.Context(), *cached)))
				return
			}

			space, err := resolver.ResolveMembership(r.Context(), creds.ID, tid)
			if err != nil {
				if errors.Is(err, persistence.ErrMembershipNotFound) {
					httpapi.WriteError(w, r, &httpapi.Error{
						Code:    httpapi.CodeForbidden,
						Message: "no tenant membership",
					})
					return
				}

				logging.FromRequest(r, zap.NewNop()).Error("resolve tenant membership",
					zap.String("user_id", creds.ID),
					zap.String("tenant_id", tid.String()),
					zap.Error(err),
				)
				httpapi.WriteError(w, r, &httpapi.Error{
					Code:    httpapi.CodeInternal,
					Message: "internal error",
				})
				return
			}

			cache.put(creds.ID, space)

			next.ServeHTTP(w, r.WithContext(tenant.WithSpace(r.Context(), space)))
		})
	}
}

// RequireAdmin gates platform-admin surfaces on the resolved membership role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		space, ok := tenant.FromContext(r.Context())
		if !ok {
			httpapi.WriteError(w, r, &httpapi.Error{
				Code:    httpapi.CodeUnauthenticated,
				Message: "authentication required",
			})
			return
		}
		if !space.IsAdmin() {
			httpapi.WriteError(w, r, &httpapi.Error{
				Code:    httpapi.CodeForbidden,
				Message: "admin role required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type membershipCache struct {
	ttl time.Duration

	mu    sync.Mutex
	items map[string]cacheItem
}

type cacheItem struct {
	space     tenant.Space
	expiresAt time.Time
}

func newMembershipCache(ttl time.Duration) *membershipCache {
	return &membershipCache{ttl: ttl, items: make(map[string]cacheItem)}
}

func (c *membershipCache) get(userID string, tenantID uuid.UUID) *tenant.Space {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[userID]
	if !ok || time.Now().After(item.expiresAt) || item.space.TenantID != tenantID {
		return nil
	}
	return &item.space
}

func (c *membershipCache) put(userID string, space tenant.Space) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[userID] = cacheItem{space: space, expiresAt: time.Now().Add(c.ttl)}
}
