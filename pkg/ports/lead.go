package ports

import (
	"context"

	"github.com/aretw0/leadflow/pkg/domain"
)

// LeadClient delivers a lead to the lead-management backend.
// Implementations make exactly one attempt; any error is a failed submission.
type LeadClient interface {
	CreateLead(ctx context.Context, lead domain.LeadPayload) error
}

// Notifier surfaces user-facing feedback (toasts) for a session.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}
