// ABOUTME: HTTP server routing Slack and ticketing webhooks to the connector
// ABOUTME: Handles startup, shutdown on context cancel and JSON error replies

package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/2389/slack-connector/internal/connector"
	"github.com/2389/slack-connector/internal/ticketing"
)

// maxBodyBytes caps webhook bodies.
const maxBodyBytes = 1 << 20

// SignatureHeader carries the ticketing webhook secret.
const SignatureHeader = "X-Hook-Signature"

// EventHandler processes one Slack webhook body.
type EventHandler interface {
	Handle(ctx context.Context, body []byte) (connector.Outcome, error)
}

// TicketResolver turns a closed-ticket webhook into a Slack reply.
type TicketResolver interface {
	ClosedTicket(ctx context.Context, body []byte) (*ticketing.Reply, error)
}

// TextSender posts plain text to a Slack channel.
type TextSender interface {
	SendText(ctx context.Context, channel, text string) error
}

// Config holds server settings.
type Config struct {
	Addr          string
	WebhookSecret string
}

// Deps are the collaborators behind the routes. Tickets may be nil, in
// which case the messenger route rejects every request.
type Deps struct {
	Events  EventHandler
	Tickets TicketResolver
	Slack   TextSender
}

// Server is the connector's HTTP front.
type Server struct {
	cfg        Config
	deps       Deps
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server. Nothing listens until Run is called.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /slack/events", s.handleSlackEvents)
	mux.HandleFunc("POST /messenger/events", s.handleMessengerEvents)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routing handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured address until ctx is canceled or the
// server fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	// ctx is already done here, so shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := s.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleSlackEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		sendJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	// Slack hangs up after three seconds; replies must still go out.
	ctx := context.WithoutCancel(r.Context())
	outcome, err := s.deps.Events.Handle(ctx, body)
	if err != nil {
		s.logger.Error("handling slack event", "error", err)
		sendJSONError(w, http.StatusOK, err.Error())
		return
	}

	if outcome.Kind == connector.Challenge {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(outcome.Challenge))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMessengerEvents(w http.ResponseWriter, r *http.Request) {
	if s.deps.Tickets == nil || !s.validSignature(r.Header.Get(SignatureHeader)) {
		sendJSONError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		sendJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	reply, err := s.deps.Tickets.ClosedTicket(ctx, body)
	switch {
	case errors.Is(err, ticketing.ErrInvalidEvent):
		sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ticketing.ErrUnknownUser), errors.Is(err, ticketing.ErrNotLinked):
		s.logger.Warn("ticket reply has no Slack recipient", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	case err != nil:
		s.logger.Error("resolving closed ticket", "error", err)
		sendJSONError(w, http.StatusOK, err.Error())
		return
	}

	if err := s.deps.Slack.SendText(ctx, reply.Channel, reply.Text); err != nil {
		s.logger.Error("posting ticket reply", "error", err, "channel", reply.Channel)
		sendJSONError(w, http.StatusOK, err.Error())
		return
	}
	s.logger.Info("ticket reply posted", "channel", reply.Channel, "user", reply.User)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) validSignature(got string) bool {
	want := s.cfg.WebhookSecret
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
