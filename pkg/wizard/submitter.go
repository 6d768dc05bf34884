package wizard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/aretw0/leadflow/pkg/session"
)

// DefaultStaleSubmitAfter bounds how long a persisted in-flight flag is trusted.
// Past it the flag is assumed to be left over from a crashed process.
const DefaultStaleSubmitAfter = 10 * time.Minute

// unlockAttempts is how many times the outcome write is tried before giving up.
const unlockAttempts = 3

var unlockRetryDelay = 50 * time.Millisecond

// SubmitResult is the outcome of one submit click.
type SubmitResult struct {
	State        *domain.State        `json:"state"`
	Notification *domain.Notification `json:"notification,omitempty"`
	// CloseDialog is set after a successful submit from a dialog variant.
	CloseDialog bool `json:"close_dialog"`
}

// Submitter performs the side-effecting lead submission for a wizard session.
type Submitter struct {
	sessions *session.Manager
	variants *Registry
	client   ports.LeadClient
	notifier ports.Notifier
	hooks    domain.LifecycleHooks
	logger   *slog.Logger

	staleAfter time.Duration
	now        func() time.Time
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithNotifier sets where success/failure/validation toasts are delivered.
func WithNotifier(n ports.Notifier) SubmitterOption {
	return func(s *Submitter) {
		s.notifier = n
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) SubmitterOption {
	return func(s *Submitter) {
		s.hooks = hooks
	}
}

// WithSubmitterLogger sets the structured logger.
func WithSubmitterLogger(logger *slog.Logger) SubmitterOption {
	return func(s *Submitter) {
		s.logger = logger
	}
}

// WithStaleSubmitAfter overrides DefaultStaleSubmitAfter. Zero trusts the flag forever.
func WithStaleSubmitAfter(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		s.staleAfter = d
	}
}

// WithClock sets the time source used to stamp and age submissions.
func WithClock(now func() time.Time) SubmitterOption {
	return func(s *Submitter) {
		s.now = now
	}
}

// NewSubmitter creates a Submitter.
func NewSubmitter(sessions *session.Manager, variants *Registry, client ports.LeadClient, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		sessions: sessions,
		variants: variants,
		client:   client,
		logger:   logging.NewNop(),

		staleAfter: DefaultStaleSubmitAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the session, posts its lead exactly once and applies the outcome.
//
// Errors:
//   - domain.ErrSubmissionInFlight: another submit is running; nothing happened.
//   - *domain.ValidationError: name or phone missing; no network call, state unchanged.
//   - *domain.SubmissionError: the call failed; fields are preserved for a retry.
func (s *Submitter) Submit(ctx context.Context, sessionID string) (*SubmitResult, error) {
	var (
		payload domain.LeadPayload
		variant domain.Variant
	)

	locked, err := s.sessions.Update(ctx, sessionID, func(cur *domain.State) (*domain.State, error) {
		if cur.Submitting {
			if !cur.SubmitStale(s.now(), s.staleAfter) {
				return nil, domain.ErrSubmissionInFlight
			}
			s.logger.Warn("Clearing stale in-flight submission", "session_id", sessionID, "started_at", cur.SubmitStartedAt)
		}
		if err := Validate(cur.Fields); err != nil {
			return nil, err
		}
		v, err := s.variants.Get(cur.Variant)
		if err != nil {
			return nil, err
		}
		variant = v
		payload = BuildPayload(v, cur.Fields)
		return domain.Reduce(cur, domain.SubmitStarted(s.now())), nil
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			n := domain.ValidationNotification(sessionID)
			s.notify(ctx, n)
			s.logger.Info("Submit blocked by validation", "session_id", sessionID, "missing", verr.Missing)
			return &SubmitResult{State: locked, Notification: &n}, err
		}
		if errors.Is(err, domain.ErrSubmissionInFlight) {
			s.logger.Debug("Duplicate submit ignored", "session_id", sessionID)
		}
		return &SubmitResult{State: locked}, err
	}

	return s.deliver(ctx, locked, variant, payload)
}

// deliver runs the single network call. The session stays locked (Submitting=true)
// between the two Updates, not the session mutex, so reads and edits remain served.
func (s *Submitter) deliver(ctx context.Context, locked *domain.State, variant domain.Variant, payload domain.LeadPayload) (result *SubmitResult, err error) {
	// Once started, a submission cannot be aborted by the caller going away.
	ctx = context.WithoutCancel(ctx)
	sessionID := locked.SessionID

	if s.hooks.OnSubmit != nil {
		s.hooks.OnSubmit(ctx, &domain.SubmitEvent{
			EventBase: domain.NewEventBase(domain.EventSubmit, locked),
			LeadType:  payload.LeadType,
		})
	}

	began := time.Now()
	callErr := errors.New("submission interrupted")

	defer func() {
		result, err = s.finish(ctx, locked, variant, callErr, time.Since(began))
	}()

	s.logger.Info("Submitting lead", "session_id", sessionID, "lead_type", payload.LeadType)
	callErr = s.client.CreateLead(ctx, payload)
	return
}

// finish always unlocks the session, resetting it on success and preserving it on failure.
func (s *Submitter) finish(ctx context.Context, locked *domain.State, variant domain.Variant, callErr error, took time.Duration) (*SubmitResult, error) {
	sessionID := locked.SessionID
	outcome := domain.ActionSubmitSucceeded
	if callErr != nil {
		outcome = domain.ActionSubmitFailed
	}

	final := s.unlock(ctx, locked, outcome)

	if s.hooks.OnSubmitResult != nil {
		s.hooks.OnSubmitResult(ctx, &domain.SubmitEvent{
			EventBase: domain.NewEventBase(domain.EventSubmitResult, locked),
			LeadType:  locked.LeadType,
			Success:   callErr == nil,
			Duration:  took,
			Err:       callErr,
		})
	}

	if callErr != nil {
		n := domain.FailureNotification(sessionID)
		s.notify(ctx, n)
		s.logger.Warn("Lead submission failed", "session_id", sessionID, "err", callErr, "duration", took)

		var serr *domain.SubmissionError
		if !errors.As(callErr, &serr) {
			serr = &domain.SubmissionError{Err: callErr}
		}
		return &SubmitResult{State: final, Notification: &n}, serr
	}

	n := domain.SuccessNotification(sessionID)
	s.notify(ctx, n)
	s.logger.Info("Lead submitted", "session_id", sessionID, "duration", took)
	return &SubmitResult{State: final, Notification: &n, CloseDialog: variant.Dialog}, nil
}

// unlock persists the outcome, retrying transient store errors. When every attempt
// fails the outcome is still reported; the stored flag then ages out as stale.
func (s *Submitter) unlock(ctx context.Context, locked *domain.State, outcome domain.ActionType) *domain.State {
	sessionID := locked.SessionID
	var err error
	for attempt := 1; attempt <= unlockAttempts; attempt++ {
		var final *domain.State
		final, err = s.sessions.Update(ctx, sessionID, func(cur *domain.State) (*domain.State, error) {
			return domain.Reduce(cur, domain.Action{Type: outcome}), nil
		})
		if err == nil {
			return final
		}
		if errors.Is(err, domain.ErrSessionNotFound) {
			// The dialog was closed mid-flight; the outcome is still reported.
			return domain.Reduce(locked, domain.Action{Type: outcome})
		}
		s.logger.Warn("Failed to record submission outcome", "session_id", sessionID, "attempt", attempt, "err", err)
		if attempt < unlockAttempts {
			time.Sleep(unlockRetryDelay)
		}
	}
	s.logger.Error("Wizard left locked after submit", "session_id", sessionID, "err", err)
	return domain.Reduce(locked, domain.Action{Type: outcome})
}

func (s *Submitter) notify(ctx context.Context, n domain.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, n)
	}
}
