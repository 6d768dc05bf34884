package wizard_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/notify"
	"github.com/aretw0/leadflow/pkg/session"
	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient records payloads and returns err. When gate is set, calls block on it.
type fakeClient struct {
	mu       sync.Mutex
	payloads []domain.LeadPayload
	calls    atomic.Int32
	err      error
	started  chan struct{}
	gate     chan struct{}
}

func (c *fakeClient) CreateLead(ctx context.Context, lead domain.LeadPayload) error {
	c.calls.Add(1)
	c.mu.Lock()
	c.payloads = append(c.payloads, lead)
	c.mu.Unlock()
	if c.started != nil {
		c.started <- struct{}{}
	}
	if c.gate != nil {
		<-c.gate
	}
	return c.err
}

type fixture struct {
	sessions  *session.Manager
	client    *fakeClient
	recorder  *notify.Recorder
	submitter *wizard.Submitter
	results   []*domain.SubmitEvent
}

func newFixture(t *testing.T, client *fakeClient) *fixture {
	t.Helper()
	f := &fixture{
		sessions: session.NewManager(memory.NewStore()),
		client:   client,
		recorder: &notify.Recorder{},
	}
	hooks := domain.LifecycleHooks{
		OnSubmitResult: func(ctx context.Context, e *domain.SubmitEvent) {
			f.results = append(f.results, e)
		},
	}
	f.submitter = wizard.NewSubmitter(f.sessions, wizard.MustDefaultRegistry(), client,
		wizard.WithNotifier(f.recorder),
		wizard.WithHooks(hooks),
	)
	return f
}

func (f *fixture) open(t *testing.T, variant string, fields map[string]string) {
	t.Helper()
	v, err := wizard.MustDefaultRegistry().Get(variant)
	require.NoError(t, err)
	_, err = f.sessions.Start(context.Background(), "s1", v)
	require.NoError(t, err)
	_, err = f.sessions.Update(context.Background(), "s1", func(s *domain.State) (*domain.State, error) {
		for k, val := range fields {
			s = domain.Reduce(s, domain.SetField(k, val))
		}
		for s.CurrentStep < s.TotalSteps {
			s = domain.Reduce(s, domain.Action{Type: domain.ActionAdvance})
		}
		return s, nil
	})
	require.NoError(t, err)
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture(t, &fakeClient{})
	f.open(t, wizard.VariantQuote, map[string]string{"name": "Rahul Sharma", "phone": "+919876543210"})

	res, err := f.submitter.Submit(context.Background(), "s1")
	require.NoError(t, err)

	assert.EqualValues(t, 1, f.client.calls.Load())
	payload := f.client.payloads[0]
	assert.Nil(t, payload.Email)
	assert.Nil(t, payload.City)
	assert.Equal(t, "Product Type:  | Preferences: ", payload.Preferences)

	// Reset to the freshly opened state.
	assert.Equal(t, 1, res.State.CurrentStep)
	assert.False(t, res.State.Submitting)
	for k, v := range res.State.Fields {
		assert.Empty(t, v, "field %s should be reset", k)
	}
	assert.True(t, res.CloseDialog, "quote dialog closes after success")

	stored, err := f.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, res.State.Fields, stored.Fields)
	assert.False(t, stored.Submitting)

	last, ok := f.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, domain.NotifySuccess, last.Kind)

	require.Len(t, f.results, 1)
	assert.True(t, f.results[0].Success)
}

func TestSubmit_ContactPageStaysOpen(t *testing.T) {
	f := newFixture(t, &fakeClient{})
	f.open(t, wizard.VariantContact, map[string]string{"name": "Priya", "phone": "98765"})

	res, err := f.submitter.Submit(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, res.CloseDialog)
	assert.Equal(t, domain.LeadTypeSiteVisit, f.client.payloads[0].LeadType)
}

func TestSubmit_ValidationBlocksNetwork(t *testing.T) {
	f := newFixture(t, &fakeClient{})
	f.open(t, wizard.VariantQuote, map[string]string{"name": "Rahul Sharma", "city": "Pune"})

	res, err := f.submitter.Submit(context.Background(), "s1")

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"phone"}, verr.Missing)
	assert.EqualValues(t, 0, f.client.calls.Load())

	require.NotNil(t, res.Notification)
	assert.Equal(t, domain.NotifyValidation, res.Notification.Kind)

	stored, err := f.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Pune", stored.Field("city"))
	assert.Equal(t, 3, stored.CurrentStep)
	assert.False(t, stored.Submitting)
}

func TestSubmit_FailurePreservesFields(t *testing.T) {
	f := newFixture(t, &fakeClient{err: errors.New("connection refused")})
	f.open(t, wizard.VariantQuote, map[string]string{
		"name":        "Rahul Sharma",
		"phone":       "+919876543210",
		"productType": "casement",
	})

	res, err := f.submitter.Submit(context.Background(), "s1")

	var serr *domain.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.EqualValues(t, 1, f.client.calls.Load())

	assert.False(t, res.State.Submitting)
	assert.Equal(t, "Rahul Sharma", res.State.Field("name"))
	assert.Equal(t, "casement", res.State.Field("productType"))
	assert.Equal(t, 3, res.State.CurrentStep)
	assert.False(t, res.CloseDialog)

	stored, err := f.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, stored.Submitting)
	assert.Equal(t, "+919876543210", stored.Field("phone"))

	last, _ := f.recorder.Last()
	assert.Equal(t, domain.NotifyFailure, last.Kind)

	// The user can retry without re-entering data.
	f.client.err = nil
	_, err = f.submitter.Submit(context.Background(), "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.client.calls.Load())
}

func TestSubmit_DuplicateClickWhileInFlight(t *testing.T) {
	client := &fakeClient{started: make(chan struct{}, 1), gate: make(chan struct{})}
	f := newFixture(t, client)
	f.open(t, wizard.VariantQuote, map[string]string{"name": "Rahul Sharma", "phone": "+919876543210"})

	done := make(chan error, 1)
	go func() {
		_, err := f.submitter.Submit(context.Background(), "s1")
		done <- err
	}()

	select {
	case <-client.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first submit never reached the client")
	}

	inFlight, err := f.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, inFlight.Submitting)

	res, err := f.submitter.Submit(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)
	assert.True(t, res.State.Submitting)
	assert.Nil(t, res.Notification)

	close(client.gate)
	require.NoError(t, <-done)

	assert.EqualValues(t, 1, client.calls.Load())
}

func TestSubmit_CallerCancellationDoesNotAbort(t *testing.T) {
	client := &fakeClient{started: make(chan struct{}, 1), gate: make(chan struct{})}
	f := newFixture(t, client)
	f.open(t, wizard.VariantQuote, map[string]string{"name": "Rahul Sharma", "phone": "+919876543210"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.submitter.Submit(ctx, "s1")
		done <- err
	}()

	<-client.started
	cancel()
	close(client.gate)

	require.NoError(t, <-done)
	stored, err := f.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, stored.Submitting)
}

func TestSubmit_UnknownSession(t *testing.T) {
	f := newFixture(t, &fakeClient{})
	_, err := f.submitter.Submit(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.EqualValues(t, 0, f.client.calls.Load())
}

// flakyStore fails the next failUnlocks saves of an idle (non-submitting) state.
type flakyStore struct {
	*memory.Store
	failUnlocks atomic.Int32
}

func (s *flakyStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	if !state.Submitting && s.failUnlocks.Add(-1) >= 0 {
		return errors.New("redis: connection reset")
	}
	return s.Store.Save(ctx, sessionID, state)
}

func newFlakyFixture(t *testing.T, client *fakeClient, opts ...wizard.SubmitterOption) (*fixture, *flakyStore) {
	t.Helper()
	store := &flakyStore{Store: memory.NewStore()}
	f := &fixture{
		sessions: session.NewManager(store),
		client:   client,
		recorder: &notify.Recorder{},
	}
	hooks := domain.LifecycleHooks{
		OnSubmitResult: func(ctx context.Context, e *domain.SubmitEvent) {
			f.results = append(f.results, e)
		},
	}
	opts = append([]wizard.SubmitterOption{wizard.WithNotifier(f.recorder), wizard.WithHooks(hooks)}, opts...)
	f.submitter = wizard.NewSubmitter(f.sessions, wizard.MustDefaultRegistry(), client, opts...)
	return f, store
}

func TestSubmit_TransientStoreErrorStillUnlocks(t *testing.T) {
	f, store := newFlakyFixture(t, &fakeClient{err: errors.New("bad gateway")})
	f.open(t, wizard.VariantQuote, map[string]string{"name": "Rahul Sharma", "phone": "+919876543210"})
	store.failUnlocks.Store(1)

	res, err := f.submitter.Submit(context.Background(), "s1")
	var serr *domain.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.False(t, res.State.Submitting)

	stored, err := f.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, stored.Submitting)
	assert.Equal(t, "Rahul Sharma", stored.Field("name"))

	last, _ := f.recorder.Last()
	assert.Equal(t, domain.NotifyFailure, last.Kind)
	require.Len(t, f.results, 1)

	f.client.err = nil
	_, err = f.submitter.Submit(context.Background(), "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.client.calls.Load())
}

func TestSubmit_StuckFlagAgesOut(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	f, store := newFlakyFixture(t, &fakeClient{}, wizard.WithClock(clock), wizard.WithStaleSubmitAfter(time.Minute))
	f.open(t, wizard.VariantQuote, map[string]string{"name": "Rahul Sharma", "phone": "+919876543210"})
	store.failUnlocks.Store(100)

	// The lead went out, so the caller sees success even though the store is down.
	res, err := f.submitter.Submit(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, res.State.Submitting)
	last, _ := f.recorder.Last()
	assert.Equal(t, domain.NotifySuccess, last.Kind)
	require.Len(t, f.results, 1)

	stored, err := f.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.True(t, stored.Submitting)
	assert.Equal(t, now, stored.SubmitStartedAt)

	store.failUnlocks.Store(0)
	_, err = f.submitter.Submit(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight, "a fresh flag is still honoured")

	now = now.Add(2 * time.Minute)
	_, err = f.submitter.Submit(context.Background(), "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, f.client.calls.Load())

	stored, err = f.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, stored.Submitting)
}
