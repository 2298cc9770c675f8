package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/tenant"

	"github.com/stretchr/testify/assert"
)

type lookup struct {
	calls atomic.Int32
}

func (l *lookup) TenantOf(_ context.Context, userID string) (*string, error) {
	l.calls.Add(1)
	id := "tenant-of-" + userID
	return &id, nil
}

func TestResolverPerUser(t *testing.T) {
	profiles := &lookup{}
	reg := NewRegistry(tenant.ContextAuthenticator{}, profiles, 0, nil)

	a := reg.Resolver("a")
	assert.Same(t, a, reg.Resolver("a"))
	assert.NotSame(t, a, reg.Resolver("b"))
	assert.Equal(t, 2, reg.Len())

	ctx := tenant.WithUser(context.Background(), "a")
	id, ok := a.TenantID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "tenant-of-a", id)
	a.TenantID(ctx)
	assert.Equal(t, int32(1), profiles.calls.Load())
}

func TestInvalidate(t *testing.T) {
	profiles := &lookup{}
	reg := NewRegistry(tenant.ContextAuthenticator{}, profiles, 0, nil)
	ctx := tenant.WithUser(context.Background(), "a")

	reg.Resolver("a").TenantID(ctx)
	reg.Invalidate("a")
	reg.Invalidate("nobody")
	assert.Equal(t, 0, reg.Len())

	reg.Resolver("a").TenantID(ctx)
	assert.Equal(t, int32(2), profiles.calls.Load())
}

func TestIdleSessionsAreDropped(t *testing.T) {
	profiles := &lookup{}
	reg := NewRegistry(tenant.ContextAuthenticator{}, profiles, 10*time.Minute, nil)
	clock := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return clock }

	a := reg.Resolver("a")
	reg.Resolver("b")
	assert.Equal(t, 2, reg.Len())

	clock = clock.Add(6 * time.Minute)
	assert.Same(t, a, reg.Resolver("a"))

	clock = clock.Add(6 * time.Minute)
	reg.Resolver("c")
	assert.Equal(t, 2, reg.Len())
	assert.Same(t, a, reg.Resolver("a"))

	clock = clock.Add(11 * time.Minute)
	fresh := reg.Resolver("a")
	assert.NotSame(t, a, fresh)
	assert.Equal(t, 1, reg.Len())
}
