// Package api serves the symptom intake operations over HTTP and WebSocket.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/history"
	"github.com/symptom-intake-server/internal/middleware"
	"github.com/symptom-intake-server/internal/service"
)

// Assessor is the service surface the handlers depend on.
type Assessor interface {
	ProcessSymptoms(ctx context.Context, text string) (*domain.AnalysisResult, error)
	GenerateWellnessPlan(ctx context.Context, analysis *domain.AnalysisResult, uctx *domain.UserContext) *domain.WellnessPlan
	Assess(ctx context.Context, text string, uctx *domain.UserContext) (*service.Assessment, error)
	RecentAssessments(ctx context.Context, limit int) ([]*history.Record, error)
	GetAssessment(ctx context.Context, id uuid.UUID) (*history.Record, error)
	Capabilities(ctx context.Context) service.Status
}

// Server represents the HTTP server
type Server struct {
	cfg    *domain.Config
	svc    Assessor
	logger *logrus.Logger
	router *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *domain.Config, svc Assessor, logger *logrus.Logger) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(logger.Out, "/health"))
	router.Use(middleware.SecurityHeaders(cfg.Server.HSTS))
	router.Use(middleware.CORS(cfg.API.CORSAllowedOrigins))

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
		router: router,
	}
	s.setupRoutes()

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/capabilities", s.handleCapabilities)
		v1.POST("/symptoms/analyze", s.handleAnalyze)
		v1.POST("/wellness-plan", s.handleWellnessPlan)
		v1.POST("/assessments", s.handleCreateAssessment)
		v1.GET("/assessments", s.handleListAssessments)
		v1.GET("/assessments/:id", s.handleGetAssessment)
		v1.GET("/assessments/:id/report", s.handleReport)
	}

	s.router.GET("/ws/assess", s.handleWebSocket)
}
