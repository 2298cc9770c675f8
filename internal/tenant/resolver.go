// Package tenant resolves the tenant that owns the current user's data.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"go.uber.org/zap"
)

// Authenticator returns the id of the authenticated user, or "" when there is none.
type Authenticator interface {
	CurrentUser(ctx context.Context) (string, error)
}

// ProfileLookup returns the tenant recorded on a user's profile.
// A nil tenant with a nil error means the profile carries none.
type ProfileLookup interface {
	TenantOf(ctx context.Context, userID string) (*string, error)
}

// ErrNoTenant is returned when the session has no user or the user's profile
// carries no tenant
var ErrNoTenant = errors.New("no tenant for session")

// Resolver memoizes the tenant of one session. A resolved tenant and a
// definite "no tenant" answer are cached until Invalidate is called; failed
// lookups are not cached and are retried on the next call.
type Resolver struct {
	auth     Authenticator
	profiles ProfileLookup
	log      *zap.Logger

	mu       sync.Mutex
	resolved bool
	tenantID string
}

// NewResolver creates a resolver for one session
func NewResolver(auth Authenticator, profiles ProfileLookup, log *zap.Logger) *Resolver {
	return &Resolver{auth: auth, profiles: profiles, log: logger.OrNop(log)}
}

// TenantID returns the session tenant and whether one is known. Failures
// report no tenant.
func (r *Resolver) TenantID(ctx context.Context) (string, bool) {
	tenantID, err := r.Resolve(ctx)
	return tenantID, err == nil
}

// Resolve returns the session tenant. It returns ErrNoTenant when the session
// definitely has none, and the lookup error when the answer is unknown.
// Concurrent first calls wait for a single lookup.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.resolved {
		tenantID, err := r.lookup(ctx)
		if err != nil {
			return "", err
		}
		r.tenantID = tenantID
		r.resolved = true
	}
	if r.tenantID == "" {
		return "", ErrNoTenant
	}
	return r.tenantID, nil
}

func (r *Resolver) lookup(ctx context.Context) (string, error) {
	userID, err := r.auth.CurrentUser(ctx)
	if err != nil {
		r.log.Warn("Failed to read authenticated user", zap.Error(err))
		prometheus.RecordTenantResolution("auth_error")
		return "", fmt.Errorf("read user: %w", err)
	}
	if userID == "" {
		prometheus.RecordTenantResolution("anonymous")
		return "", nil
	}

	tenantID, err := r.profiles.TenantOf(ctx, userID)
	if err != nil {
		r.log.Warn("Failed to resolve tenant", zap.String("user_id", userID), zap.Error(err))
		prometheus.RecordTenantResolution("lookup_error")
		return "", fmt.Errorf("lookup tenant: %w", err)
	}
	if tenantID == nil || *tenantID == "" {
		prometheus.RecordTenantResolution("no_tenant")
		return "", nil
	}

	r.log.Debug("Tenant resolved", zap.String("user_id", userID), zap.String("tenant_id", *tenantID))
	prometheus.RecordTenantResolution("resolved")
	return *tenantID, nil
}

// Invalidate forgets the cached tenant so the next call resolves again
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = false
	r.tenantID = ""
}
