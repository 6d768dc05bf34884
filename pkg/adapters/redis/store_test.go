package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/leadflow/pkg/adapters/redis"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(id string) *domain.State {
	return domain.NewState(id, domain.Variant{
		Name:     "quote",
		LeadType: domain.LeadTypeQuote,
		Steps:    []domain.Step{{Title: "Details", Fields: []string{"name", "phone"}}},
	})
}

func TestRedisStore_Contract(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client)
	ports.RunStateStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	sessionID := "session-ttl"

	err = store.Save(ctx, sessionID, newState(sessionID))
	assert.NoError(t, err)

	sessions, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, sessions, sessionID)

	// Key expiration is driven by miniredis' clock.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Index pruning is driven by time.Now(), so wait past the score.
	time.Sleep(1200 * time.Millisecond)

	sessions, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()
	sessionID := "my-session"

	err = store.Save(ctx, sessionID, newState(sessionID))
	assert.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:my-session"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, list, sessionID)

	assert.NoError(t, store.Ping(ctx))
}

func TestRedisStore_ResetAfterRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store := redis.NewFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	state := newState("s1")
	state = domain.Reduce(state, domain.SetField("name", "Rahul Sharma"))
	require.NoError(t, store.Save(ctx, "s1", state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)

	reset := domain.Reduce(loaded, domain.Action{Type: domain.ActionReset})
	assert.Equal(t, newState("s1").Fields, reset.Fields)
}

func TestRedisStore_MsgpackCodec(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	codec, err := redis.CodecByName("msgpack")
	require.NoError(t, err)

	store := redis.NewFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}), redis.WithCodec(codec))
	ports.RunStateStoreContract(t, store)

	ctx := context.Background()
	state := domain.Reduce(newState("s1"), domain.SetField("phone", "98765"))
	require.NoError(t, store.Save(ctx, "s1", state))

	raw, err := mr.Get(redis.DefaultPrefix + "s1")
	require.NoError(t, err)
	assert.NotEqual(t, byte('{'), raw[0], "msgpack values are not JSON")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "98765", loaded.Field("phone"))
	assert.Equal(t, domain.LeadTypeQuote, loaded.LeadType)
}

func TestCodecByName_Unknown(t *testing.T) {
	_, err := redis.CodecByName("gob")
	assert.Error(t, err)
}
