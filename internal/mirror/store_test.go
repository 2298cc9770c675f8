package mirror

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	missing, err := store.Load(ctx, "mock:escargotieres")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Save(ctx, "mock:escargotieres", []byte(`[{"id":"e1"}]`)))

	got, err := store.Load(ctx, "mock:escargotieres")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"e1"}]`, string(got))

	raw, err := s.Get("mock:escargotieres")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"e1"}]`, raw)
}

func TestRedisStoreUnreachable(t *testing.T) {
	_, err := NewRedisStore("redis://127.0.0.1:1")
	assert.Error(t, err)

	_, err = NewRedisStore("://bad")
	assert.Error(t, err)
}

func TestRedisStoreLoadAfterServerStops(t *testing.T) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	require.NoError(t, err)
	defer store.Close()

	s.Close()
	_, err = store.Load(context.Background(), "mock:poulaillers")
	assert.Error(t, err)
}

func TestMemoryStoreCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	payload := []byte(`[]`)
	require.NoError(t, store.Save(ctx, "k", payload))
	payload[0] = 'x'

	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}
