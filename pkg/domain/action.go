package domain

import "time"

// ActionType names a wizard transition.
type ActionType string

const (
	// ActionSetField overwrites one field. Values are never validated at write time.
	ActionSetField ActionType = "set_field"

	// ActionAdvance moves one step forward, without validating the current step.
	ActionAdvance ActionType = "advance"

	// ActionRetreat moves one step back.
	ActionRetreat ActionType = "retreat"

	// ActionReset restores the freshly opened state.
	ActionReset ActionType = "reset"

	// ActionSubmitStarted locks the wizard while the lead call is in flight.
	ActionSubmitStarted ActionType = "submit_started"

	// ActionSubmitSucceeded resets the wizard after an accepted lead.
	ActionSubmitSucceeded ActionType = "submit_succeeded"

	// ActionSubmitFailed unlocks the wizard and keeps the input for a retry.
	ActionSubmitFailed ActionType = "submit_failed"
)

// Action is an input to Reduce.
type Action struct {
	Type  ActionType
	Field string
	Value string
	// At stamps ActionSubmitStarted so a lock left behind by a crash can be aged out.
	At time.Time
}

// SubmitStarted builds an ActionSubmitStarted stamped with at.
func SubmitStarted(at time.Time) Action {
	return Action{Type: ActionSubmitStarted, At: at}
}

// SetField builds an ActionSetField.
func SetField(name, value string) Action {
	return Action{Type: ActionSetField, Field: name, Value: value}
}

// Reduce returns the state that results from applying a to s.
// s is never mutated; unknown action types return an unchanged copy.
func Reduce(s *State, a Action) *State {
	next := s.Snapshot()

	switch a.Type {
	case ActionSetField:
		if next.Fields == nil {
			next.Fields = make(map[string]string)
		}
		next.Fields[a.Field] = a.Value
	case ActionAdvance:
		if next.CurrentStep < next.TotalSteps {
			next.CurrentStep++
		}
	case ActionRetreat:
		if next.CurrentStep > 1 {
			next.CurrentStep--
		}
	case ActionReset, ActionSubmitSucceeded:
		next.CurrentStep = 1
		next.Fields = s.blankFields()
		next.Submitting = false
		next.SubmitStartedAt = time.Time{}
	case ActionSubmitStarted:
		next.Submitting = true
		next.SubmitStartedAt = a.At
	case ActionSubmitFailed:
		next.Submitting = false
		next.SubmitStartedAt = time.Time{}
	}

	return next
}
