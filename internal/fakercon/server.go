// Package fakercon serves a minimal CRCON-compatible web API for local
// development and end-to-end tests.
package fakercon

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/rconapi"
)

const apiVersion = "fakercon"

// Failure makes one command fail. A non-zero HTTPStatus answers with that
// status; otherwise Message is reported inside a failed envelope.
type Failure struct {
	HTTPStatus int
	Message    string
}

// Server is an in-memory CRCON instance.
type Server struct {
	addr   string
	apiKey string
	logger *slog.Logger

	mu        sync.Mutex
	identity  model.ServerIdentity
	gameState model.GameState
	remaining time.Duration
	failures  map[string]Failure
	delay     time.Duration
	hits      map[string]int

	server *http.Server
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithAPIKey requires "Authorization: Bearer <key>" on every request.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server seeded with a plausible mid-match state.
func New(addr string, opts ...Option) *Server {
	if addr == "" {
		addr = "127.0.0.1:8010"
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:   addr,
		logger: slog.Default(),
		identity: model.ServerIdentity{
			Name:           "Fake Community Server #1",
			Map:            &model.MapInfo{PrettyName: "Foy"},
			CurrentPlayers: 42,
			MaxPlayers:     100,
			ShortName:      "FAKE1",
		},
		gameState: model.GameState{
			AlliedPlayers: 20,
			AxisPlayers:   22,
			AlliedScore:   3,
			AxisScore:     1,
		},
		remaining: 14*time.Minute + 32*time.Second,
		failures:  make(map[string]Failure),
		hits:      make(map[string]int),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	api := r.Group("/api", s.authorize)
	api.GET("/"+rconapi.CommandStatus, s.handleStatus)
	api.GET("/"+rconapi.CommandGameState, s.handleGameState)
	return r
}

// Start begins serving on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("fakercon: listen: %w", err)
	}
	s.addr = listener.Addr().String()
	go s.server.Serve(listener)
	s.logger.Info("fake crcon listening", "addr", s.addr)
	return nil
}

// Addr returns the listen address, resolved after Start.
func (s *Server) Addr() string { return s.addr }

// Stop shuts the server down.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// SetIdentity replaces the get_status result.
func (s *Server) SetIdentity(id model.ServerIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id.Clone()
}

// SetGameState replaces the get_gamestate result.
func (s *Server) SetGameState(gs model.GameState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameState = gs
	s.remaining = parseRemaining(gs.RawTimeRemaining)
}

// SetFailure makes command fail until cleared.
func (s *Server) SetFailure(command string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[command] = f
}

// ClearFailure removes an injected failure.
func (s *Server) ClearFailure(command string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, command)
}

// SetDelay holds every response for d before answering.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Hits returns how many requests command has received.
func (s *Server) Hits(command string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[command]
}

// Advance moves the simulated match forward by d: the clock runs down,
// players drift between teams, and occasionally a sector flips.
func (s *Server) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remaining -= d
	if s.remaining <= 0 {
		s.remaining = 90 * time.Minute
		s.gameState.AlliedScore, s.gameState.AxisScore = 2, 2
		return
	}
	step := int(s.remaining/time.Second) % 7
	switch step {
	case 0:
		if s.gameState.AlliedScore < 5 && s.gameState.AxisScore > 0 {
			s.gameState.AlliedScore++
			s.gameState.AxisScore--
		}
	case 3:
		if s.gameState.AxisScore < 5 && s.gameState.AlliedScore > 0 {
			s.gameState.AxisScore++
			s.gameState.AlliedScore--
		}
	case 1, 4:
		if s.identity.CurrentPlayers < s.identity.MaxPlayers {
			s.identity.CurrentPlayers++
			s.gameState.AlliedPlayers++
		}
	case 5:
		if s.identity.CurrentPlayers > 0 && s.gameState.AxisPlayers > 0 {
			s.identity.CurrentPlayers--
			s.gameState.AxisPlayers--
		}
	}
}

// Simulate calls Advance every interval until ctx is done.
func (s *Server) Simulate(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Advance(every)
		}
	}
}

func (s *Server) authorize(c *gin.Context) {
	if s.apiKey == "" {
		c.Next()
		return
	}
	got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if got != s.apiKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"result":  nil,
			"command": strings.TrimPrefix(c.Request.URL.Path, "/api/"),
			"failed":  true,
			"error":   "You must be logged in to use this",
			"version": apiVersion,
		})
		return
	}
	c.Next()
}

func (s *Server) handleStatus(c *gin.Context) {
	s.respond(c, rconapi.CommandStatus, func() any {
		return s.identity.Clone()
	})
}

func (s *Server) handleGameState(c *gin.Context) {
	s.respond(c, rconapi.CommandGameState, func() any {
		gs := s.gameState
		gs.RawTimeRemaining = formatRemaining(s.remaining)
		return gs
	})
}

// respond writes the envelope for command. result runs under s.mu.
func (s *Server) respond(c *gin.Context, command string, result func() any) {
	s.mu.Lock()
	s.hits[command]++
	delay := s.delay
	failure, failing := s.failures[command]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-c.Request.Context().Done():
			return
		}
	}

	if failing {
		status := http.StatusOK
		if failure.HTTPStatus != 0 {
			status = failure.HTTPStatus
		}
		c.JSON(status, rconapi.Envelope{
			Command: command,
			Failed:  true,
			Error:   failure.Message,
			Version: apiVersion,
		})
		return
	}

	s.mu.Lock()
	v := result()
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"result":  v,
		"command": command,
		"failed":  false,
		"error":   nil,
		"version": apiVersion,
	})
}

func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

func parseRemaining(s string) time.Duration {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
}
