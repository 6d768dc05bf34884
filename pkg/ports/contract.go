package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractVariant() domain.Variant {
	return domain.Variant{
		Name:     "contract",
		LeadType: domain.LeadTypeQuote,
		Steps: []domain.Step{
			{Title: "Details", Fields: []string{domain.FieldName, domain.FieldPhone}},
			{Title: "Schedule", Fields: []string{domain.FieldPreferredDate}},
		},
	}
}

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(sessionID, contractVariant())
		state.Fields[domain.FieldName] = "Rahul Sharma"
		state.CurrentStep = 2
		state.Submitting = true

		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "contract", loaded.Variant)
		assert.Equal(t, domain.LeadTypeQuote, loaded.LeadType)
		assert.Equal(t, 2, loaded.CurrentStep)
		assert.Equal(t, 2, loaded.TotalSteps)
		assert.True(t, loaded.Submitting)
		assert.Equal(t, "Rahul Sharma", loaded.Field(domain.FieldName))
		assert.Contains(t, loaded.Fields, domain.FieldPreferredDate)
	})

	t.Run("Isolation", func(t *testing.T) {
		state := domain.NewState(sessionID, contractVariant())
		require.NoError(t, store.Save(ctx, sessionID, state))

		// Mutating the caller's copy after Save must not leak into the store.
		state.Fields[domain.FieldPhone] = "mutated"

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Field(domain.FieldPhone))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewState(sessionID, contractVariant()))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(id1, contractVariant()))
		_ = store.Save(ctx, id2, domain.NewState(id2, contractVariant()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
