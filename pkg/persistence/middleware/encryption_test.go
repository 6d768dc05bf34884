package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/persistence/middleware"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func secure(t *testing.T, next ports.StateStore, cfg middleware.EncryptionConfig) ports.StateStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	require.NoError(t, err)
	return middleware.Chain(next, mw)
}

func quoteState(t *testing.T, id string) *domain.State {
	t.Helper()
	v, err := wizard.MustDefaultRegistry().Get(wizard.VariantQuote)
	require.NoError(t, err)
	return domain.NewState(id, v)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := secure(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunStateStoreContract(t, store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ctx := context.Background()

	state := quoteState(t, "s1")
	state.Fields[domain.FieldPhone] = "+919876543210"
	state.CurrentStep = 2
	require.NoError(t, store.Save(ctx, "s1", state))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, raw.Fields, 1)
	assert.Contains(t, raw.Fields, middleware.EnvelopeField)
	assert.NotContains(t, raw.Fields[middleware.EnvelopeField], "9876543210")
	assert.Equal(t, 2, raw.CurrentStep, "navigation state stays readable")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", loaded.Field(domain.FieldPhone))
	assert.Equal(t, state.Fields, loaded.Fields)

	// The caller's state is untouched by sealing.
	assert.Equal(t, "+919876543210", state.Field(domain.FieldPhone))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: oldKey})
	state := quoteState(t, "rot")
	state.Fields[domain.FieldName] = "sealed with old key"
	require.NoError(t, oldStore.Save(ctx, "rot", state))

	newStore := secure(t, underlying, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := newStore.Load(ctx, "rot")
	require.NoError(t, err)
	assert.Equal(t, "sealed with old key", loaded.Field(domain.FieldName))

	loaded.Fields[domain.FieldName] = "sealed with new key"
	require.NoError(t, newStore.Save(ctx, "rot", loaded))

	_, err = oldStore.Load(ctx, "rot")
	assert.Error(t, err, "old key alone cannot open a state sealed with the new key")
}

func TestEncryptionMiddleware_PlainStateRejected(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", quoteState(t, "plain")))

	store := secure(t, underlying, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	_, err := store.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrMissingEnvelope)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	assert.Error(t, err)
}

func TestDecodeKeys(t *testing.T) {
	active := base64.StdEncoding.EncodeToString(generateKey(t))
	old := base64.StdEncoding.EncodeToString(generateKey(t))

	cfg, err := middleware.DecodeKeys(active, old)
	require.NoError(t, err)
	assert.Len(t, cfg.ActiveKey, middleware.KeySize)
	assert.Len(t, cfg.FallbackKeys, 1)

	_, err = middleware.DecodeKeys("not base64!")
	assert.Error(t, err)

	_, err = middleware.DecodeKeys(base64.StdEncoding.EncodeToString([]byte("too short")))
	assert.Error(t, err)
}

type pingStore struct {
	ports.StateStore
	err error
}

func (p pingStore) Ping(context.Context) error { return p.err }

func TestEncryptionMiddleware_ForwardsPing(t *testing.T) {
	down := errors.New("down")
	store := secure(t, pingStore{StateStore: memory.NewStore(), err: down}, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	p, ok := store.(interface{ Ping(context.Context) error })
	require.True(t, ok)
	assert.ErrorIs(t, p.Ping(context.Background()), down)
}
