package domain

import "time"

// State represents the current snapshot of one wizard instance.
type State struct {
	// SessionID identifies the dialog or page instance that owns this state.
	SessionID string `json:"session_id"`

	// Variant is the name of the step list the session was opened with.
	Variant string `json:"variant"`

	// LeadType is copied from the variant so the payload can be built without it.
	LeadType LeadType `json:"lead_type"`

	// CurrentStep is 1-indexed and always within [1, TotalSteps].
	CurrentStep int `json:"current_step"`

	// TotalSteps is the number of steps of the variant.
	TotalSteps int `json:"total_steps"`

	// Fields holds every collected value keyed by field name. Unset fields are "".
	Fields map[string]string `json:"fields"`

	// Submitting is true only while the lead submission call is in flight.
	Submitting bool `json:"submitting"`

	// SubmitStartedAt is when the in-flight submission began; zero when idle.
	SubmitStartedAt time.Time `json:"submit_started_at"`

	// knownFields remembers the blank field set so Reset can rebuild it.
	knownFields []string
}

// NewState creates a clean state at step 1 for the given variant.
func NewState(sessionID string, variant Variant) *State {
	names := variant.FieldNames()
	s := &State{
		SessionID:   sessionID,
		Variant:     variant.Name,
		LeadType:    variant.LeadType,
		CurrentStep: 1,
		TotalSteps:  len(variant.Steps),
		Fields:      make(map[string]string, len(names)),
		knownFields: names,
	}
	if s.TotalSteps < 1 {
		s.TotalSteps = 1
	}
	for _, name := range names {
		s.Fields[name] = ""
	}
	return s
}

// Field returns the value of a field, or "" when it was never set.
func (s *State) Field(name string) string {
	if s == nil || s.Fields == nil {
		return ""
	}
	return s.Fields[name]
}

// Progress returns the completion percentage used to drive the progress bar.
func (s *State) Progress() float64 {
	if s == nil || s.TotalSteps <= 0 {
		return 0
	}
	return float64(s.CurrentStep) / float64(s.TotalSteps) * 100
}

// IsLastStep reports whether the wizard is showing its final step.
func (s *State) IsLastStep() bool {
	return s.CurrentStep >= s.TotalSteps
}

// SubmitStale reports whether an in-flight flag is older than maxAge and can no
// longer belong to a live request. A zero maxAge disables the check.
func (s *State) SubmitStale(now time.Time, maxAge time.Duration) bool {
	if !s.Submitting || maxAge <= 0 || s.SubmitStartedAt.IsZero() {
		return false
	}
	return now.Sub(s.SubmitStartedAt) > maxAge
}

// Snapshot creates a deep copy of the state.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	ret := *s
	ret.Fields = make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		ret.Fields[k] = v
	}
	if s.knownFields != nil {
		ret.knownFields = append([]string(nil), s.knownFields...)
	}
	return &ret
}

// blankFields returns the field set of a freshly opened wizard.
// States decoded from a store have no knownFields; their current keys are used instead.
func (s *State) blankFields() map[string]string {
	names := s.knownFields
	if names == nil {
		names = make([]string, 0, len(s.Fields))
		for k := range s.Fields {
			names = append(names, k)
		}
	}
	fields := make(map[string]string, len(names))
	for _, name := range names {
		fields[name] = ""
	}
	return fields
}
