package leadflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/aretw0/leadflow/pkg/session"
	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/google/uuid"
)

// View is a state plus the derived values a UI renders.
type View struct {
	State    *domain.State `json:"state"`
	Progress float64       `json:"progress"`
	Step     domain.Step   `json:"step"`
	// SubmitEnabled is false while a submission is in flight.
	SubmitEnabled bool `json:"submit_enabled"`
}

// Service is the high-level entry point for hosting wizards.
type Service struct {
	sessions  *session.Manager
	variants  *wizard.Registry
	submitter *wizard.Submitter

	store    ports.StateStore
	locker   ports.DistributedLocker
	client   ports.LeadClient
	notifier ports.Notifier
	custom   []domain.Variant
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	newID    func() string
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithStore sets the state store (default: in-memory).
func WithStore(store ports.StateStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLocker enables distributed session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithLeadClient sets the client used to deliver leads. Required.
func WithLeadClient(client ports.LeadClient) Option {
	return func(s *Service) {
		s.client = client
	}
}

// WithNotifier sets where submit toasts are delivered.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithVariants replaces the built-in variants.
func WithVariants(variants ...domain.Variant) Option {
	return func(s *Service) {
		s.custom = variants
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithIDGenerator overrides session ID generation (default: random UUID).
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

// New initializes a Service.
func New(opts ...Option) (*Service, error) {
	svc := &Service{}
	for _, opt := range opts {
		opt(svc)
	}

	if svc.client == nil {
		return nil, fmt.Errorf("a lead client is required")
	}
	if svc.store == nil {
		svc.store = memory.NewStore()
	}
	if svc.logger == nil {
		svc.logger = logging.NewNop()
	}
	if svc.newID == nil {
		svc.newID = uuid.NewString
	}

	variants := svc.custom
	if len(variants) == 0 {
		variants = wizard.DefaultVariants()
	}
	registry, err := wizard.NewRegistry(variants...)
	if err != nil {
		return nil, fmt.Errorf("invalid variants: %w", err)
	}
	svc.variants = registry

	managerOpts := []session.Option{session.WithLogger(svc.logger)}
	if svc.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(svc.locker))
	}
	svc.sessions = session.NewManager(svc.store, managerOpts...)

	svc.submitter = wizard.NewSubmitter(svc.sessions, svc.variants, svc.client,
		wizard.WithNotifier(svc.notifier),
		wizard.WithHooks(svc.hooks),
		wizard.WithSubmitterLogger(svc.logger),
	)

	return svc, nil
}

// Open creates a fresh wizard session for the named variant.
func (s *Service) Open(ctx context.Context, variantName string) (*View, error) {
	variant, err := s.variants.Get(variantName)
	if err != nil {
		return nil, err
	}
	id := s.newID()
	state, err := s.sessions.Start(ctx, id, variant)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Wizard opened", "session_id", id, "variant", variant.Name)
	return s.View(state), nil
}

// Get returns the current view of a session.
func (s *Service) Get(ctx context.Context, sessionID string) (*View, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.View(state), nil
}

// SetField overwrites one field. The value is sanitized but never validated.
func (s *Service) SetField(ctx context.Context, sessionID, name, value string) (*View, error) {
	clean, err := wizard.SanitizeInput(value)
	if err != nil {
		return nil, err
	}

	state, err := s.sessions.Update(ctx, sessionID, func(cur *domain.State) (*domain.State, error) {
		variant, err := s.variants.Get(cur.Variant)
		if err != nil {
			return nil, err
		}
		if !variant.HasField(name) {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownField, name)
		}
		return domain.Reduce(cur, domain.SetField(name, clean)), nil
	})
	if err != nil {
		return nil, err
	}
	return s.View(state), nil
}

// Advance moves to the next step. It is a no-op on the last step.
func (s *Service) Advance(ctx context.Context, sessionID string) (*View, error) {
	return s.move(ctx, sessionID, domain.ActionAdvance)
}

// Retreat moves to the previous step. It is a no-op on the first step.
func (s *Service) Retreat(ctx context.Context, sessionID string) (*View, error) {
	return s.move(ctx, sessionID, domain.ActionRetreat)
}

func (s *Service) move(ctx context.Context, sessionID string, action domain.ActionType) (*View, error) {
	var from int
	state, err := s.sessions.Update(ctx, sessionID, func(cur *domain.State) (*domain.State, error) {
		from = cur.CurrentStep
		return domain.Reduce(cur, domain.Action{Type: action}), nil
	})
	if err != nil {
		return nil, err
	}

	if state.CurrentStep != from && s.hooks.OnStepChange != nil {
		s.hooks.OnStepChange(ctx, &domain.StepEvent{
			EventBase: domain.NewEventBase(domain.EventStepChange, state),
			From:      from,
			To:        state.CurrentStep,
		})
	}
	return s.View(state), nil
}

// Submit posts the session's lead. See wizard.Submitter.Submit for the error contract.
func (s *Service) Submit(ctx context.Context, sessionID string) (*wizard.SubmitResult, error) {
	return s.submitter.Submit(ctx, sessionID)
}

// Close discards a session, e.g. when its dialog is dismissed.
func (s *Service) Close(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Sessions lists open session IDs.
func (s *Service) Sessions(ctx context.Context) ([]string, error) {
	return s.sessions.List(ctx)
}

// Variants lists the configured variants.
func (s *Service) Variants() []domain.Variant {
	return s.variants.List()
}

// Registry exposes the variant registry, e.g. for hot reload.
func (s *Service) Registry() *wizard.Registry {
	return s.variants
}

// Variant returns one variant by name.
func (s *Service) Variant(name string) (domain.Variant, error) {
	return s.variants.Get(name)
}

// Health checks the state store when it supports it.
func (s *Service) Health(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("state store unavailable: %w", err)
		}
	}
	return nil
}

// View builds the render view of a state.
func (s *Service) View(state *domain.State) *View {
	v := &View{
		State:         state,
		Progress:      state.Progress(),
		SubmitEnabled: !state.Submitting,
	}
	if variant, err := s.variants.Get(state.Variant); err == nil {
		v.Step, _ = variant.Step(state.CurrentStep)
	}
	return v
}
