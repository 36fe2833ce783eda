package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	httpHandlers "github.com/boardstack/core/internal/adapters/http"
	"github.com/boardstack/core/internal/adapters/mail"
	"github.com/boardstack/core/internal/adapters/repository"
	"github.com/boardstack/core/internal/application/services"
	"github.com/boardstack/core/internal/infrastructure/config"
	"github.com/boardstack/core/internal/infrastructure/database"
	"github.com/boardstack/core/internal/infrastructure/logger"

	_ "github.com/boardstack/core/docs"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	db     *database.DB
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize repositories over the shared document store
	store := repository.NewDocumentStore(db.DB)
	boardRepo := repository.NewBoardRepository(store)
	cardRepo := repository.NewCardRepository(store)
	taskRepo := repository.NewTaskRepository(store)
	inviteRepo := repository.NewInvitationRepository(store)
	userRepo := repository.NewUserRepository(store)
	uow := repository.NewUnitOfWork(db, store)

	// Initialize services
	access := services.NewAccessEvaluator(boardRepo, cfg.Board.UpdatePolicy)
	authService := services.NewAuthService(userRepo, mail.NewLogMailer(appLogger), cfg.JWT, cfg.Auth.CodeTTL, appLogger)
	boardService := services.NewBoardService(boardRepo, uow, access, appLogger)
	cardService := services.NewCardService(cardRepo, uow, access, appLogger)
	taskService := services.NewTaskService(taskRepo, cardRepo, uow, access, appLogger)
	inviteService := services.NewInviteService(inviteRepo, uow, access, appLogger)

	// Initialize handlers
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)
	boardHandler := httpHandlers.NewBoardHandler(boardService, appLogger)
	cardHandler := httpHandlers.NewCardHandler(cardService, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(taskService, appLogger)
	inviteHandler := httpHandlers.NewInviteHandler(inviteService, appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		db:     db,
	}

	server.setupMiddleware()
	server.setupRoutes(authHandler, boardHandler, cardHandler, taskHandler, inviteHandler, authService)

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(authHandler *httpHandlers.AuthHandler, boardHandler *httpHandlers.BoardHandler, cardHandler *httpHandlers.CardHandler, taskHandler *httpHandlers.TaskHandler, inviteHandler *httpHandlers.InviteHandler, authService *services.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Auth routes (public)
	authGroup := s.echo.Group("/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/signin", authHandler.Signin)

	// API v1 routes (authenticated)
	v1 := s.echo.Group("/api/v1", s.authMiddleware(authService))

	boardGroup := v1.Group("/boards")
	boardGroup.GET("", boardHandler.ListBoards)
	boardGroup.POST("", boardHandler.CreateBoard)
	boardGroup.GET("/:id", boardHandler.GetBoard)
	boardGroup.PUT("/:id", boardHandler.UpdateBoard)
	boardGroup.DELETE("/:id", boardHandler.DeleteBoard)
	boardGroup.POST("/:id/columns", boardHandler.AddColumn)
	boardGroup.POST("/:id/invite", inviteHandler.CreateInvite)

	cardGroup := v1.Group("/boards/:boardId/cards")
	cardGroup.GET("", cardHandler.ListCards)
	cardGroup.POST("", cardHandler.CreateCard)
	cardGroup.GET("/member/:userId", cardHandler.ListCardsByMember)
	cardGroup.GET("/:id", cardHandler.GetCard)
	cardGroup.PUT("/:id", cardHandler.UpdateCard)
	cardGroup.DELETE("/:id", cardHandler.DeleteCard)
	cardGroup.POST("/:cardId/invite/accept", inviteHandler.AcceptInvite)

	taskGroup := v1.Group("/boards/:boardId/cards/:cardId/tasks")
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask)
	taskGroup.GET("/:taskId", taskHandler.GetTask)
	taskGroup.PUT("/:taskId", taskHandler.UpdateTask)
	taskGroup.DELETE("/:taskId", taskHandler.DeleteTask)
	taskGroup.POST("/:taskId/assign", taskHandler.AssignTask)
	taskGroup.DELETE("/:taskId/assign", taskHandler.UnassignTask)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.HealthCheck(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = map[string]interface{}{"ok": false, "error": he.Message}
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if ve, ok := err.(validator.ValidationErrors); ok {
			code = http.StatusBadRequest
			msg = map[string]interface{}{"ok": false, "error": "validation failed", "details": ve.Error()}
		} else {
			msg = map[string]interface{}{"ok": false, "error": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Errorw("Error sending response", "error", err)
			}
		}
	}
}
