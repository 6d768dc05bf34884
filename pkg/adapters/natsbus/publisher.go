// Package natsbus publishes wizard notifications and submit outcomes to NATS so other
// services (CRM sync, sales dashboards) can follow leads without polling.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject root. Notifications go to <root>.<kind>, submit
// outcomes to <root>.submit.
const DefaultSubject = "leadflow.notifications"

// SessionHeader carries the wizard session ID on every message.
const SessionHeader = "Leadflow-Session"

// Publisher implements ports.Notifier over a NATS connection.
type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

type Option func(*Publisher)

// WithSubject overrides DefaultSubject.
func WithSubject(subject string) Option {
	return func(p *Publisher) {
		if subject != "" {
			p.subject = subject
		}
	}
}

// WithLogger sets the logger for publish failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New wraps an existing connection.
func New(conn *nats.Conn, opts ...Option) *Publisher {
	p := &Publisher{
		conn:    conn,
		subject: DefaultSubject,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect dials url and returns a publisher owning the connection.
func Connect(url string, opts ...Option) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("leadflow"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return New(conn, opts...), nil
}

// Notify implements ports.Notifier. Publish errors are logged; a toast is never worth
// failing a submission over.
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) {
	p.publish(p.subject+"."+string(n.Kind), n.SessionID, n)
}

type submitMessage struct {
	SessionID string          `json:"session_id"`
	Variant   string          `json:"variant"`
	LeadType  domain.LeadType `json:"lead_type"`
	Success   bool            `json:"success"`
	Duration  float64         `json:"duration_seconds"`
	Error     string          `json:"error,omitempty"`
}

// Hooks publishes each submit outcome to <root>.submit.
func (p *Publisher) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSubmitResult: func(ctx context.Context, e *domain.SubmitEvent) {
			msg := submitMessage{
				SessionID: e.SessionID,
				Variant:   e.Variant,
				LeadType:  e.LeadType,
				Success:   e.Success,
				Duration:  e.Duration.Seconds(),
			}
			if e.Err != nil {
				msg.Error = e.Err.Error()
			}
			p.publish(p.subject+".submit", e.SessionID, msg)
		},
	}
}

func (p *Publisher) publish(subject, sessionID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Error("Failed to encode nats message", "subject", subject, "err", err)
		return
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(SessionHeader, sessionID)
	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.Warn("Failed to publish to nats", "subject", subject, "session_id", sessionID, "err", err)
	}
}

// Close drains the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
