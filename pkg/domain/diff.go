package domain

// StateDiff represents the changes between two wizard states.
// It is serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentStep *int     `json:"current_step,omitempty"`
	Progress    *float64 `json:"progress,omitempty"`
	Submitting  *bool    `json:"submitting,omitempty"`

	// Fields contains only changed, added or deleted keys.
	// Deleted keys are sent as "".
	Fields map[string]string `json:"fields,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{
		SessionID: newState.SessionID,
	}

	if oldState == nil || oldState.CurrentStep != newState.CurrentStep || oldState.TotalSteps != newState.TotalSteps {
		step := newState.CurrentStep
		progress := newState.Progress()
		diff.CurrentStep = &step
		diff.Progress = &progress
	}
	if oldState == nil || oldState.Submitting != newState.Submitting {
		submitting := newState.Submitting
		diff.Submitting = &submitting
	}

	diff.Fields = diffFields(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffFields(old *State, new *State) map[string]string {
	delta := make(map[string]string)

	if old == nil {
		for k, v := range new.Fields {
			delta[k] = v
		}
		return delta
	}

	for k, newVal := range new.Fields {
		if oldVal, exists := old.Fields[k]; !exists || oldVal != newVal {
			delta[k] = newVal
		}
	}
	for k := range old.Fields {
		if _, exists := new.Fields[k]; !exists {
			delta[k] = ""
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentStep == nil &&
		d.Progress == nil &&
		d.Submitting == nil &&
		len(d.Fields) == 0
}
