package domain

// NotificationKind classifies a user-facing toast.
type NotificationKind string

const (
	NotifySuccess    NotificationKind = "success"
	NotifyFailure    NotificationKind = "failure"
	NotifyValidation NotificationKind = "validation"
)

// Notification is the terminal feedback of a submit attempt.
type Notification struct {
	SessionID string           `json:"session_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
}

// SuccessNotification is shown after the lead was accepted.
func SuccessNotification(sessionID string) Notification {
	return Notification{
		SessionID: sessionID,
		Kind:      NotifySuccess,
		Title:     "Request received",
		Message:   "Thank you! Our team will contact you shortly.",
	}
}

// FailureNotification is deliberately generic: status codes are not surfaced to the user.
func FailureNotification(sessionID string) Notification {
	return Notification{
		SessionID: sessionID,
		Kind:      NotifyFailure,
		Title:     "Submission failed",
		Message:   "Submission failed. Please try again or call us directly.",
	}
}

// ValidationNotification asks for the required contact details.
func ValidationNotification(sessionID string) Notification {
	return Notification{
		SessionID: sessionID,
		Kind:      NotifyValidation,
		Title:     "Missing details",
		Message:   "Please enter your name and phone number.",
	}
}
