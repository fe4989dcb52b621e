package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gajahardware/gajabot/internal/models"
	"github.com/gajahardware/gajabot/internal/store"
	"github.com/gajahardware/gajabot/internal/util"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8080"

// DefaultTurnTimeout bounds the handling of one inbound message, covering the
// data lookups and every reply send of that turn.
const DefaultTurnTimeout = 60 * time.Second

// Handler consumes one normalized inbound message. *dialog.Engine satisfies it.
type Handler interface {
	HandleMessage(ctx context.Context, msg models.InboundMessage) error
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr        string
	VerifyToken string
	TurnTimeout time.Duration
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithVerifyToken sets the token expected in the webhook verification handshake.
func WithVerifyToken(token string) Option {
	return func(o *Opts) { o.VerifyToken = token }
}

// WithTurnTimeout overrides the per-message handling timeout.
func WithTurnTimeout(d time.Duration) Option {
	return func(o *Opts) { o.TurnTimeout = d }
}

// Server routes webhook traffic into the dialogue engine.
type Server struct {
	addr        string
	verifyToken string
	turnTimeout time.Duration
	handler     Handler
	dedup       store.DedupRepo
	httpServer  *http.Server
}

// NewServer wires the webhook server. The dedup repo screens transport
// redeliveries before they reach the handler.
func NewServer(handler Handler, dedup store.DedupRepo, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	return &Server{
		addr:        cfg.Addr,
		verifyToken: cfg.VerifyToken,
		turnTimeout: cfg.TurnTimeout,
		handler:     handler,
		dedup:       dedup,
	}
}

// Routes returns the server's handler tree, exposed for tests.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.webhookHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run starts the HTTP server and blocks until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("API server shutting down")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"state": "healthy"}))
}

func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.verifyHandler(w, r)
	case http.MethodPost:
		s.inboundHandler(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// verifyHandler answers the Meta webhook verification handshake.
func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "subscribe" && token != "" && token == s.verifyToken {
		slog.Info("Server.verifyHandler: webhook verified")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(challenge)); err != nil {
			slog.Error("Server.verifyHandler: failed to write challenge", "error", err)
		}
		return
	}
	slog.Warn("Server.verifyHandler: verification rejected", "mode", mode)
	w.WriteHeader(http.StatusForbidden)
}

// inboundHandler parses the Cloud API envelope and feeds each message to the
// dialogue engine. It always answers 200 so the transport does not retry
// messages the bot failed on; failures are logged instead.
func (s *Server) inboundHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var env webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		slog.Warn("Server.inboundHandler: failed to decode envelope", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, msg := range env.inboundMessages() {
		s.process(r.Context(), msg)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) process(ctx context.Context, msg models.InboundMessage) {
	seen, err := s.dedup.HasSeen(msg.MessageID)
	if err != nil {
		slog.Error("Server.process: dedup check failed", "error", err, "message_id", msg.MessageID)
		// Fail open: a duplicate reply beats a dropped message.
	}
	if seen {
		slog.Debug("Server.process: duplicate delivery skipped", "message_id", msg.MessageID)
		return
	}

	tctx, cancel := context.WithTimeout(ctx, s.turnTimeout)
	defer cancel()
	if err := s.handler.HandleMessage(tctx, msg); err != nil {
		slog.Error("Server.process: message handling failed",
			"from", util.MaskPhone(msg.From), "message_id", msg.MessageID, "error", err)
	}
}
