package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/leadflow/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug/info level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepChange: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("step_change",
				"session_id", e.SessionID,
				"variant", e.Variant,
				"from", e.From,
				"to", e.To,
			)
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			logger.Info("submit",
				"session_id", e.SessionID,
				"lead_type", e.LeadType,
			)
		},
		OnSubmitResult: func(ctx context.Context, e *domain.SubmitEvent) {
			logger.Info("submit_result",
				"session_id", e.SessionID,
				"success", e.Success,
				"duration", e.Duration,
			)
		},
	}
}

// Combine calls each set of hooks in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var combined domain.LifecycleHooks
	for _, h := range all {
		h := h
		if h.OnStepChange != nil {
			prev := combined.OnStepChange
			combined.OnStepChange = func(ctx context.Context, e *domain.StepEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnStepChange(ctx, e)
			}
		}
		if h.OnSubmit != nil {
			prev := combined.OnSubmit
			combined.OnSubmit = func(ctx context.Context, e *domain.SubmitEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnSubmit(ctx, e)
			}
		}
		if h.OnSubmitResult != nil {
			prev := combined.OnSubmitResult
			combined.OnSubmitResult = func(ctx context.Context, e *domain.SubmitEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnSubmitResult(ctx, e)
			}
		}
	}
	return combined
}
