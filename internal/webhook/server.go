// Package webhook serves the inbound event endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"followup/internal/config"
	"followup/internal/followup"
	"followup/internal/service"
)

// maxBodyBytes caps an inbound event payload.
const maxBodyBytes = 1 << 20

// EventHandler processes one decoded event.
type EventHandler interface {
	Handle(ctx context.Context, ev service.Event) (followup.Result, error)
}

// Server is the HTTP server receiving webhook events.
type Server struct {
	cfg     *config.Config
	handler EventHandler
	logger  zerolog.Logger
	router  *gin.Engine
	server  *http.Server
	errCh   chan error

	mu   sync.RWMutex
	addr net.Addr
}

// NewServer creates a server that passes every event on cfg.WebhookPath to h.
func NewServer(cfg *config.Config, h EventHandler, logger zerolog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		cfg:     cfg,
		handler: h,
		logger:  logger,
		router:  router,
		errCh:   make(chan error, 1),
	}

	router.GET("/health", s.handleHealth)
	router.POST(routePath(cfg.WebhookPath), s.handleEvent)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Start binds cfg.ListenAddr and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info().Str("addr", ln.Addr().String()).Str("path", routePath(s.cfg.WebhookPath)).Msg("webhook server starting")

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("server error")
			s.errCh <- err
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Run starts the server and blocks until ctx is done or serving fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("webhook server stopping")
		return s.Stop()
	case err := <-s.errCh:
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleEvent acknowledges every well-formed event with 200, whatever the
// processing outcome. Only undecodable payloads are rejected.
func (s *Server) handleEvent(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		s.logger.Warn().Err(err).Msg("failed to read event body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable payload"})
		return
	}

	var ev service.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		s.logger.Warn().Err(err).Msg("rejected undecodable event")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	// One log record per line, whatever the sender's formatting.
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	s.logger.Info().RawJSON("event", compact.Bytes()).Msg("received event")

	res, err := s.handler.Handle(c.Request.Context(), ev)

	entry := s.logger.Info()
	if err != nil {
		entry = s.logger.Error().Err(err)
	} else if res.Outcome != followup.Submitted {
		entry = s.logger.Debug()
	}
	entry.
		Str("item_id", ev.Data.ID).
		Str("outcome", res.Outcome.String()).
		Str("reason", res.Reason).
		Msg("event processed")

	c.Status(http.StatusOK)
}

// routePath makes p usable as a gin route.
func routePath(p string) string {
	if p == "" {
		return config.DefaultWebhookPath
	}
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
