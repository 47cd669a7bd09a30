package httpserver

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/poller"
	"github.com/tinytelemetry/hllstatus/internal/status"
)

// HealthSource is the narrow session contract required by the HTTP API.
type HealthSource interface {
	Active() bool
	Health() map[model.Domain]poller.DomainHealth
}

// Server provides an HTTP API for the latest published status. It is a
// publish.Sink: the poller hands it every merged view.
type Server struct {
	addr      string
	health    HealthSource
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time

	mu        sync.RWMutex
	view      status.View
	published int
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, health HealthSource) *Server {
	if addr == "" {
		addr = "127.0.0.1:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		health:    health,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// SetHealthSource binds the session whose health is reported.
func (s *Server) SetHealthSource(h HealthSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = h
}

// Render stores the latest view. It never blocks on request handling.
func (s *Server) Render(view status.View) {
	s.mu.Lock()
	s.view = view
	s.published++
	s.mu.Unlock()
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/status", s.handleStatus)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = listener.Addr().String()

	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Addr returns the listen address, resolved after Start.
func (s *Server) Addr() string { return s.addr }

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type domainHealth struct {
	OK                bool      `json:"ok"`
	InFlight          bool      `json:"in_flight"`
	Fetches           int       `json:"fetches"`
	Failures          int       `json:"failures"`
	SkippedTicks      int       `json:"skipped_ticks"`
	ConsecutiveErrors int       `json:"consecutive_errors"`
	LastSuccessAt     time.Time `json:"last_success_at"`
	LastError         string    `json:"last_error,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	s.mu.RLock()
	src := s.health
	s.mu.RUnlock()

	if src == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no poll session attached"})
		return
	}

	active := src.Active()
	domains := make(map[string]domainHealth, len(model.Domains))
	healthy := active
	for d, h := range src.Health() {
		if !h.OK() {
			healthy = false
		}
		domains[d.String()] = domainHealth{
			OK:                h.OK(),
			InFlight:          h.InFlight > 0,
			Fetches:           h.Fetches,
			Failures:          h.Failures,
			SkippedTicks:      h.SkippedTicks,
			ConsecutiveErrors: h.ConsecutiveErrors,
			LastSuccessAt:     h.LastSuccessAt,
			LastError:         h.LastError,
		}
	}

	state := "ok"
	if !healthy {
		state = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  state,
		"active":  active,
		"uptime":  time.Since(s.startTime).String(),
		"domains": domains,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.RLock()
	view := s.view
	published := s.published
	s.mu.RUnlock()

	if published == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no status received yet"})
		return
	}
	c.JSON(http.StatusOK, view.Snapshot())
}
