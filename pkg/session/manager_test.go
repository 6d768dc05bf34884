package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/aretw0/leadflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.State
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.State)
	}
	s.data[sessionID] = state.Snapshot()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if state, ok := s.data[sessionID]; ok {
		return state.Snapshot(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func testVariant() domain.Variant {
	return domain.Variant{
		Name:     "quote",
		LeadType: domain.LeadTypeQuote,
		Steps: []domain.Step{
			{Title: "Details", Fields: []string{"name", "phone"}},
			{Title: "Project", Fields: []string{"projectType"}},
			{Title: "Preferences", Fields: []string{"preferences"}},
		},
	}
}

func TestManager_UpdateSerializesReadModifyWrite(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	_, err := manager.Start(ctx, id, testVariant())
	require.NoError(t, err)

	var wg sync.WaitGroup
	writers := 10

	// Each writer appends one character; a lost update would shorten the result.
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(s *domain.State) (*domain.State, error) {
				return domain.Reduce(s, domain.SetField("message", s.Field("message")+"x")), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.Field("message"), writers)
}

func TestManager_StartReplacesExisting(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Start(ctx, "s1", testVariant())
	require.NoError(t, err)
	_, err = manager.Update(ctx, "s1", func(s *domain.State) (*domain.State, error) {
		return domain.Reduce(s, domain.Action{Type: domain.ActionAdvance}), nil
	})
	require.NoError(t, err)

	state, err := manager.Start(ctx, "s1", testVariant())
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentStep)

	loaded, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.CurrentStep)
}

func TestManager_UpdateErrorDoesNotSave(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	_, err := manager.Start(ctx, "s1", testVariant())
	require.NoError(t, err)

	boom := errors.New("boom")
	state, err := manager.Update(ctx, "s1", func(s *domain.State) (*domain.State, error) {
		s.Fields["name"] = "should not persist"
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, state)

	loaded, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Field("name"))
}

func TestManager_UpdateMissingSession(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	_, err := manager.Update(context.Background(), "ghost", func(s *domain.State) (*domain.State, error) {
		return s, nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(ctx context.Context) error {
		l.mu.Lock()
		l.unlocked++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker))
	ctx := context.Background()

	_, err := manager.Start(ctx, "s1", testVariant())
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "s1"))

	assert.Equal(t, []string{"s1", "s1"}, locker.locked)
	assert.Equal(t, 2, locker.unlocked)
}
