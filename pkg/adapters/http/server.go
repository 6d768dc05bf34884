package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/wizard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Service is the wizard facade served over HTTP.
type Service interface {
	Open(ctx context.Context, variant string) (*leadflow.View, error)
	Get(ctx context.Context, sessionID string) (*leadflow.View, error)
	SetField(ctx context.Context, sessionID, name, value string) (*leadflow.View, error)
	Advance(ctx context.Context, sessionID string) (*leadflow.View, error)
	Retreat(ctx context.Context, sessionID string) (*leadflow.View, error)
	Submit(ctx context.Context, sessionID string) (*wizard.SubmitResult, error)
	Close(ctx context.Context, sessionID string) error
	Variants() []domain.Variant
	Health(ctx context.Context) error
}

// Server holds the handlers of the wizard API.
type Server struct {
	Service Service
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the handler built by NewHandler.
type Option func(*Server)

// WithStreams shares a StreamManager, typically the one also registered as the
// service notifier so toasts reach SSE subscribers.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for the wizard API.
func NewHandler(svc Service, opts ...Option) http.Handler {
	server := &Server{Service: svc}
	for _, opt := range opts {
		opt(server)
	}
	if server.logger == nil {
		server.logger = logging.NewNop()
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager(server.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/variants", server.ListVariants)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(specYAML)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}

	r.Route("/wizards", func(r chi.Router) {
		r.Post("/", server.OpenWizard)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetWizard)
			r.Delete("/", server.CloseWizard)
			r.Put("/fields/{name}", server.SetField)
			r.Post("/advance", server.Advance)
			r.Post("/retreat", server.Retreat)
			r.Post("/submit", server.Submit)
			r.Get("/events", server.SubscribeEvents)
			r.Get("/ws", server.SubscribeWebSocket)
		})
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Leadflow API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

type openRequest struct {
	Variant string `json:"variant"`
}

type fieldRequest struct {
	Value string `json:"value"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error        string               `json:"error"`
	Missing      []string             `json:"missing,omitempty"`
	Notification *domain.Notification `json:"notification,omitempty"`
	State        *domain.State        `json:"state,omitempty"`
}

// OpenWizard handles POST /wizards.
func (s *Server) OpenWizard(w http.ResponseWriter, r *http.Request) {
	var body openRequest
	// An empty body opens the default variant.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("OpenWizard: Invalid request body", "err", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if body.Variant == "" {
		body.Variant = wizard.VariantQuote
	}

	view, err := s.Service.Open(r.Context(), body.Variant)
	if err != nil {
		s.fail(w, "OpenWizard", err)
		return
	}
	s.broadcastDiff(nil, view.State)
	writeJSON(w, http.StatusCreated, view)
}

// GetWizard handles GET /wizards/{id}.
func (s *Server) GetWizard(w http.ResponseWriter, r *http.Request) {
	view, err := s.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetWizard", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CloseWizard handles DELETE /wizards/{id}.
func (s *Server) CloseWizard(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "CloseWizard", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetField handles PUT /wizards/{id}/fields/{name}.
func (s *Server) SetField(w http.ResponseWriter, r *http.Request) {
	var body fieldRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("SetField: Invalid request body", "err", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	id := chi.URLParam(r, "id")
	s.mutate(w, r, "SetField", id, func(ctx context.Context) (*leadflow.View, error) {
		return s.Service.SetField(ctx, id, chi.URLParam(r, "name"), body.Value)
	})
}

// Advance handles POST /wizards/{id}/advance.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mutate(w, r, "Advance", id, func(ctx context.Context) (*leadflow.View, error) {
		return s.Service.Advance(ctx, id)
	})
}

// Retreat handles POST /wizards/{id}/retreat.
func (s *Server) Retreat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mutate(w, r, "Retreat", id, func(ctx context.Context) (*leadflow.View, error) {
		return s.Service.Retreat(ctx, id)
	})
}

// Submit handles POST /wizards/{id}/submit.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	before := s.current(r.Context(), id)

	res, err := s.Service.Submit(r.Context(), id)
	if res != nil {
		s.broadcastDiff(before, res.State)
	}
	if err != nil {
		status := statusFor(err)
		resp := ErrorResponse{Error: err.Error()}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			resp.Missing = verr.Missing
		}
		if res != nil {
			resp.Notification = res.Notification
			resp.State = res.State
		}
		if status >= 500 {
			s.logger.Error("Submit failed", "session_id", id, "err", err)
		}
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListVariants handles GET /variants.
func (s *Server) ListVariants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Service.Variants())
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.Health(r.Context()); err != nil {
		s.logger.Error("Health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "leadflow-http",
		"version":     strings.TrimSpace(leadflow.Version),
		"api_version": apiVersion,
	})
}

// mutate runs op and broadcasts the resulting state diff to SSE subscribers.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, name, id string, op func(context.Context) (*leadflow.View, error)) {
	before := s.current(r.Context(), id)

	view, err := op(r.Context())
	if err != nil {
		s.fail(w, name, err)
		return
	}
	s.broadcastDiff(before, view.State)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) current(ctx context.Context, id string) *domain.State {
	view, err := s.Service.Get(ctx, id)
	if err != nil {
		return nil
	}
	return view.State
}

func (s *Server) broadcastDiff(before, after *domain.State) {
	diff := domain.Diff(before, after)
	if diff == nil {
		return
	}
	bytes, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("Failed to encode state diff", "err", err)
		return
	}
	s.Streams.Broadcast(diff.SessionID, Event{Name: EventDiff, Data: string(bytes)})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err, "status", status)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		verr *domain.ValidationError
		serr *domain.SubmissionError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &serr):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrUnknownVariant),
		errors.Is(err, wizard.ErrInputTooLarge),
		errors.Is(err, wizard.ErrInvalidUTF8):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}
