// Package session keeps per-user state that lives from login to logout.
package session

import (
	"sync"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/tenant"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"

	"go.uber.org/zap"
)

type entry struct {
	resolver *tenant.Resolver
	lastUsed time.Time
}

// Registry hands out one tenant resolver per user. Resolvers unused for
// longer than the idle TTL are dropped; a zero TTL keeps them until logout.
type Registry struct {
	auth     tenant.Authenticator
	profiles tenant.ProfileLookup
	idleTTL  time.Duration
	log      *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	resolvers map[string]*entry
	lastSweep time.Time
}

// NewRegistry creates a registry whose resolvers use auth and profiles
func NewRegistry(auth tenant.Authenticator, profiles tenant.ProfileLookup, idleTTL time.Duration, log *zap.Logger) *Registry {
	return &Registry{
		auth:      auth,
		profiles:  profiles,
		idleTTL:   idleTTL,
		log:       logger.OrNop(log),
		now:       time.Now,
		resolvers: make(map[string]*entry),
	}
}

// Resolver returns the session resolver of userID, creating it on first use
func (r *Registry) Resolver(userID string) *tenant.Resolver {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	e, ok := r.resolvers[userID]
	if !ok {
		e = &entry{resolver: tenant.NewResolver(r.auth, r.profiles, r.log.With(zap.String("user_id", userID)))}
		r.resolvers[userID] = e
	}
	e.lastUsed = now
	return e.resolver
}

// sweep drops idle sessions, at most once per half TTL. Callers hold mu.
func (r *Registry) sweep(now time.Time) {
	if r.idleTTL <= 0 || now.Sub(r.lastSweep) < r.idleTTL/2 {
		return
	}
	r.lastSweep = now

	for userID, e := range r.resolvers {
		if now.Sub(e.lastUsed) > r.idleTTL {
			delete(r.resolvers, userID)
			r.log.Debug("Idle session dropped", zap.String("user_id", userID))
		}
	}
}

// Invalidate ends the session of userID. The next request resolves the
// tenant again.
func (r *Registry) Invalidate(userID string) {
	r.mu.Lock()
	e, ok := r.resolvers[userID]
	delete(r.resolvers, userID)
	r.mu.Unlock()

	if ok {
		e.resolver.Invalidate()
		r.log.Debug("Session invalidated", zap.String("user_id", userID))
	}
}

// Len returns the number of open sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.resolvers)
}
