package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepChange   EventType = "step_change"
	EventSubmit       EventType = "submit"
	EventSubmitResult EventType = "submit_result"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Variant   string    `json:"variant"`
}

// StepEvent represents a move between steps.
type StepEvent struct {
	EventBase
	From int `json:"from"`
	To   int `json:"to"`
}

// SubmitEvent represents a submission attempt and, for results, its outcome.
type SubmitEvent struct {
	EventBase
	LeadType LeadType      `json:"lead_type"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for wizard observability.
type LifecycleHooks struct {
	OnStepChange   func(context.Context, *StepEvent)
	OnSubmit       func(context.Context, *SubmitEvent)
	OnSubmitResult func(context.Context, *SubmitEvent)
}

// NewEventBase stamps an event for the given state.
func NewEventBase(t EventType, s *State) EventBase {
	return EventBase{
		Timestamp: time.Now(),
		Type:      t,
		SessionID: s.SessionID,
		Variant:   s.Variant,
	}
}
