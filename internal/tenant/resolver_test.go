package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuth struct {
	userID string
	err    error
}

func (a staticAuth) CurrentUser(context.Context) (string, error) { return a.userID, a.err }

type countingLookup struct {
	calls    atomic.Int32
	tenantID *string
	err      error
}

func (l *countingLookup) TenantOf(context.Context, string) (*string, error) {
	l.calls.Add(1)
	return l.tenantID, l.err
}

func ptr(s string) *string { return &s }

func TestTenantIDIsMemoized(t *testing.T) {
	lookup := &countingLookup{tenantID: ptr("tenant-a")}
	r := NewResolver(staticAuth{userID: "u1"}, lookup, nil)

	for i := 0; i < 5; i++ {
		id, ok := r.TenantID(context.Background())
		assert.True(t, ok)
		assert.Equal(t, "tenant-a", id)
	}
	assert.Equal(t, int32(1), lookup.calls.Load())
}

func TestLookupFailureIsRetried(t *testing.T) {
	lookup := &countingLookup{err: errors.New("network down")}
	r := NewResolver(staticAuth{userID: "u1"}, lookup, nil)

	for i := 0; i < 3; i++ {
		id, ok := r.TenantID(context.Background())
		assert.False(t, ok)
		assert.Empty(t, id)
	}
	assert.Equal(t, int32(3), lookup.calls.Load())

	_, err := r.Resolve(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoTenant)

	lookup.err = nil
	lookup.tenantID = ptr("tenant-b")
	id, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tenant-b", id)
}

func TestNoTenantIsCached(t *testing.T) {
	lookup := &countingLookup{}
	r := NewResolver(staticAuth{userID: "u1"}, lookup, nil)

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background())
		assert.ErrorIs(t, err, ErrNoTenant)
	}
	assert.Equal(t, int32(1), lookup.calls.Load())
}

func TestAnonymousUserSkipsLookup(t *testing.T) {
	lookup := &countingLookup{tenantID: ptr("tenant-a")}
	r := NewResolver(staticAuth{}, lookup, nil)

	_, ok := r.TenantID(context.Background())
	assert.False(t, ok)
	assert.Equal(t, int32(0), lookup.calls.Load())

	_, err := r.Resolve(context.Background())
	assert.ErrorIs(t, err, ErrNoTenant)

	r = NewResolver(staticAuth{err: errors.New("session expired")}, lookup, nil)
	_, ok = r.TenantID(context.Background())
	assert.False(t, ok)
	_, err = r.Resolve(context.Background())
	assert.NotErrorIs(t, err, ErrNoTenant)
	assert.Equal(t, int32(0), lookup.calls.Load())
}

func TestProfileWithoutTenant(t *testing.T) {
	r := NewResolver(staticAuth{userID: "u1"}, &countingLookup{}, nil)
	_, ok := r.TenantID(context.Background())
	assert.False(t, ok)
}

func TestConcurrentFirstCallsLookupOnce(t *testing.T) {
	lookup := &countingLookup{tenantID: ptr("tenant-a")}
	r := NewResolver(staticAuth{userID: "u1"}, lookup, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := r.TenantID(context.Background())
			assert.Equal(t, "tenant-a", id)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), lookup.calls.Load())
}

func TestInvalidateForcesNewLookup(t *testing.T) {
	lookup := &countingLookup{tenantID: ptr("tenant-a")}
	r := NewResolver(staticAuth{userID: "u1"}, lookup, nil)

	r.TenantID(context.Background())
	r.Invalidate()
	lookup.tenantID = ptr("tenant-b")

	id, ok := r.TenantID(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "tenant-b", id)
	assert.Equal(t, int32(2), lookup.calls.Load())
}

func TestContextAuthenticator(t *testing.T) {
	ctx := WithUser(context.Background(), "u9")
	id, err := ContextAuthenticator{}.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u9", id)

	id, err = ContextAuthenticator{}.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestGormProfileLookup(t *testing.T) {
	db, mock := testutil.NewGormMock(t)
	lookup := NewGormProfileLookup(db)

	mock.ExpectQuery(`SELECT .* FROM "profiles" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}).AddRow("u1", "tenant-a"))
	mock.ExpectQuery(`FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}))

	tid, err := lookup.TenantOf(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, tid)
	assert.Equal(t, "tenant-a", *tid)

	tid, err = lookup.TenantOf(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, tid)
	assert.NoError(t, mock.ExpectationsWereMet())
}
