// Package httpapi exposes the interview service over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/catalog"
	"github.com/fyrsmithlabs/interviewd/internal/config"
	"github.com/fyrsmithlabs/interviewd/internal/interview"
	"github.com/fyrsmithlabs/interviewd/internal/persona"
)

// Server wraps an echo instance around the interview service.
type Server struct {
	echo    *echo.Echo
	service *interview.Service
	logger  *zap.Logger
	config  config.ServerConfig
	metrics *Metrics
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(cfg config.ServerConfig, svc *interview.Service, logger *zap.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("interview service is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		service: svc,
		logger:  logger,
		config:  cfg,
		metrics: NewMetrics(),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.metrics.Middleware())
	e.Use(s.requestLogger())

	s.registerRoutes()
	return s, nil
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			s.logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(
		promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	api := s.echo.Group("/api")
	api.POST("/start", s.handleStart)
	api.GET("/task", s.handleTask)
	api.GET("/theory", s.handleTheory)
	api.POST("/submit-code", s.handleSubmitCode)
	api.POST("/submit-theory", s.handleSubmitTheory)
	api.POST("/chat", s.handleChat)
	api.POST("/hint", s.handleHint)
	api.POST("/switch-agent", s.handleSwitchAgent)
	api.POST("/finish", s.handleFinish)
	api.GET("/status", s.handleStatus)
	api.GET("/agents", s.handleAgents)
	api.GET("/metrics-info", s.handleMetricsInfo)
	api.POST("/anticheat-violation", s.handleAnticheat)
}

// Start begins serving on the configured address, blocking until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("http server starting", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.echo.Shutdown(ctx)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// respondErr maps service errors onto HTTP statuses. A missing session is a
// client error (409), everything else a 500.
func (s *Server) respondErr(c echo.Context, err error) error {
	if errors.Is(err, interview.ErrNoSession) {
		return c.JSON(http.StatusConflict, errorResponse{Error: "no active interview session"})
	}
	s.logger.Error("handler failed",
		zap.String("path", c.Path()),
		zap.Error(err))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type startRequest struct {
	CandidateName string `json:"candidate_name"`
	Level         string `json:"level"`
}

func (s *Server) handleStart(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.CandidateName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "candidate_name is required")
	}
	level := catalog.Level(req.Level)
	if !catalog.ValidLevel(level) {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("unknown level %q", req.Level))
	}

	res, err := s.service.StartInterview(c.Request().Context(), req.CandidateName, level)
	if err != nil {
		return s.respondErr(c, err)
	}
	s.metrics.interviews.Inc()
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleTask(c echo.Context) error {
	res, err := s.service.CurrentTask(c.Request().Context())
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleTheory(c echo.Context) error {
	res, err := s.service.CurrentTheory(c.Request().Context())
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type submitCodeRequest struct {
	TaskID int64  `json:"task_id"`
	Code   string `json:"code"`
}

func (s *Server) handleSubmitCode(c echo.Context) error {
	var req submitCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	res, err := s.service.SubmitCode(c.Request().Context(), req.TaskID, req.Code)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type submitTheoryRequest struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

func (s *Server) handleSubmitTheory(c echo.Context) error {
	var req submitTheoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Answer == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "answer is required")
	}

	res, err := s.service.SubmitTheory(c.Request().Context(), req.QuestionID, req.Answer)
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	res, err := s.service.Chat(c.Request().Context(), req.Message)
	if err != nil {
		return s.respondErr(c, err)
	}
	s.metrics.chatTurns.Inc()
	if res.TimeoutPenalized {
		s.metrics.penalties.Inc()
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleHint(c echo.Context) error {
	res, err := s.service.Hint(c.Request().Context())
	if err != nil {
		return s.respondErr(c, err)
	}
	if res.PenaltyApplied {
		s.metrics.penalties.Inc()
	}
	return c.JSON(http.StatusOK, res)
}

type switchAgentRequest struct {
	Agent string `json:"agent"`
}

func (s *Server) handleSwitchAgent(c echo.Context) error {
	var req switchAgentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.service.SwitchPersona(c.Request().Context(), persona.Role(req.Agent))
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleFinish(c echo.Context) error {
	res, err := s.service.Finish(c.Request().Context())
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleStatus(c echo.Context) error {
	res, err := s.service.Status(c.Request().Context())
	if err != nil {
		return s.respondErr(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.Personas())
}

// handleMetricsInfo describes the evaluation signals and penalty weights so
// clients can explain scores to candidates.
func (s *Server) handleMetricsInfo(c echo.Context) error {
	kinds := []string{
		analysis.KindContextSwitching,
		analysis.KindPoorReadability,
		analysis.KindSlowFeedback,
		analysis.KindMultipleAttempts,
		analysis.KindHintUsed,
		analysis.KindPoorCommunication,
	}
	weights := make(map[string]map[string]float64, len(kinds))
	for _, kind := range kinds {
		weights[kind] = map[string]float64{
			string(catalog.Junior): analysis.PenaltyWeight(kind, catalog.Junior),
			string(catalog.Middle): analysis.PenaltyWeight(kind, catalog.Middle),
			string(catalog.Senior): analysis.PenaltyWeight(kind, catalog.Senior),
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"signals": []string{
			"answer_depth", "context_switching", "code_readability",
			"conflict_behavior", "learning_agility", "clarification_requests",
		},
		"penalty_weights":        weights,
		"default_penalty_weight": analysis.DefaultPenaltyWeight,
		"anticheat_weight":       analysis.DefaultAnticheatWeight,
	})
}

type anticheatRequest struct {
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

func (s *Server) handleAnticheat(c echo.Context) error {
	var req anticheatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Kind == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "kind is required")
	}

	res, err := s.service.ReportAnticheat(c.Request().Context(), req.Kind, req.Reason)
	if err != nil {
		return s.respondErr(c, err)
	}
	s.metrics.penalties.Inc()
	return c.JSON(http.StatusOK, res)
}
