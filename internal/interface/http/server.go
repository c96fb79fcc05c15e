// Package http implements the REST API of the mentoria platform on top of the
// chi router. Handlers translate JSON requests into application commands and
// queries and map domain error kinds to status codes.
package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/alem-hub/mentoria-hub/internal/application/command"
	"github.com/alem-hub/mentoria-hub/internal/application/query"
	"github.com/alem-hub/mentoria-hub/internal/interface/http/handlers"
	"github.com/alem-hub/mentoria-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// RequestTimeout - deadline put on every request context.
	RequestTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// MaxBodyBytes - maximum size of request bodies.
	MaxBodyBytes int64
}

// DefaultConfig returns sensible defaults for the HTTP server.
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 10 * time.Second,
		MaxHeaderBytes: 1 << 20,
		MaxBodyBytes:   1 << 20,
	}
}

// Address returns the full address string.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains all dependencies needed by HTTP handlers.
// A nil handler makes its routes answer 501.
type Dependencies struct {
	// Commands
	RegisterUser   *command.RegisterUserHandler
	Login          *command.LoginHandler
	Slots          *command.SlotHandler
	RequestSession *command.RequestSessionHandler
	ApproveSession *command.ApproveSessionHandler
	ChangeStatus   *command.ChangeSessionStatusHandler
	SubmitFeedback *command.SubmitFeedbackHandler
	Goals          *command.GoalHandler

	// Queries
	GetSession       *query.GetSessionHandler
	ListSessions     *query.ListSessionsHandler
	ListSlots        *query.ListSlotsHandler
	GetStudyProgress *query.GetStudyProgressHandler
	CalendarFeed     *query.CalendarFeedHandler

	HealthChecker handlers.HealthChecker
	Logger        *zap.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP server for the REST API.
type Server struct {
	config     Config
	deps       Dependencies
	router     chi.Router
	httpServer *http.Server
	logger     *zap.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration.
func NewServer(config Config, deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		config: config,
		deps:   deps,
		router: chi.NewRouter(),
		logger: log.With(logger.Component("http")),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.router,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTES
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(handlers.SecureHeaders)
	if s.config.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	if s.config.MaxBodyBytes > 0 {
		s.router.Use(handlers.LimitBody(s.config.MaxBodyBytes, func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
		}))
	}
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(handlers.NoStore)

		r.Post("/users", s.handleRegisterUser)
		r.Post("/login", s.handleLogin)

		r.Route("/mentors/{mentorID}/slots", func(r chi.Router) {
			r.Get("/", s.handleListSlots)
			r.Post("/", s.handleAddSlot)
			r.Delete("/{slot}", s.handleRemoveSlot)
			r.Post("/import", s.handleImportSlots)
		})
		r.Get("/mentors/{mentorID}/calendar.ics", s.handleCalendarFeed)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleRequestSession)
			r.Get("/", s.handleListSessions)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Post("/approve", s.handleApproveSession)
				r.Post("/status", s.handleSetStatus)
				r.Post("/start", s.handleStartSession)
				r.Post("/finish", s.handleFinishSession)
				r.Post("/feedback", s.handleSubmitFeedback)
			})
		})

		r.Route("/mentees/{menteeID}/plan", func(r chi.Router) {
			r.Get("/", s.handleGetStudyProgress)
			r.Post("/goals", s.handleAddGoal)
			r.Patch("/goals/{goalID}", s.handleUpdateGoalStatus)
		})
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// loggingMiddleware logs all HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		requestID := middleware.GetReqID(r.Context())

		ctx := logger.WithContext(r.Context(), s.logger.With(logger.RequestID(requestID)))
		next.ServeHTTP(ww, r.WithContext(ctx))

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			logger.Latency(time.Since(start)),
			zap.String("ip", r.RemoteAddr),
			logger.RequestID(requestID),
		)
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", r.URL.Path),
					logger.RequestID(middleware.GetReqID(r.Context())),
				)
				writeJSONError(w, r, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", zap.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Address()
}
