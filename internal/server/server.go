package server

import (
	"time"

	"aidesk/internal/cache"
	"aidesk/internal/config"
	"aidesk/internal/database"
	"aidesk/internal/handlers"
	"aidesk/internal/kb"
	"aidesk/internal/pipeline"
	"aidesk/internal/rag"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Deps are the constructed services the HTTP layer exposes
type Deps struct {
	DB        *sqlx.DB
	Processor *pipeline.Processor
	Generator *rag.Generator
	Ingester  *kb.Ingester
	Tickets   *database.TicketStore
	Chats     *database.ChatStore
	Logs      *database.EmailLogStore
}

// Server represents the application server
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	logger    zerolog.Logger
	deps      Deps
	responses *cache.ResponseCache
}

// New creates a new server instance
func New(cfg *config.Config, logger zerolog.Logger, deps Deps) *Server {
	return &Server{
		config:    cfg,
		logger:    logger,
		deps:      deps,
		responses: cache.New(5 * time.Minute),
	}
}

// zerologMiddleware creates a zerolog-based logging middleware for Echo
func (s *Server) zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			s.logger.Info().
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", res.Status).
				Int64("latency_ms", time.Since(start).Milliseconds()).
				Str("user_agent", req.UserAgent()).
				Msg("HTTP request")

			return err
		}
	}
}

// Initialize sets up the Echo framework with middleware and routes
func (s *Server) Initialize() {
	s.echo = echo.New()

	s.echo.Use(s.zerologMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())

	s.echo.HideBanner = true

	s.setupRoutes()
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// Health endpoints (keep at root level for monitoring)
	s.echo.GET("/healthz", handlers.HealthHandler(s.config.Version))
	s.echo.GET("/healthz/db", handlers.DBHealthHandler(s.deps.DB))

	api.GET("/", handlers.RootHandler(s.config.Version))

	api.POST("/email/inbound", handlers.InboundEmailHandler(s.deps.Processor))
	api.GET("/chats/:id", handlers.GetChatHandler(s.deps.Chats))
	api.POST("/chats/:id/send-draft", handlers.SendDraftHandler(s.deps.Processor))
	api.POST("/chats/:id/discard-draft", handlers.DiscardDraftHandler(s.deps.Chats))

	api.GET("/tickets/:id", handlers.GetTicketHandler(s.deps.Tickets))
	api.GET("/tickets/:id/logs", handlers.TicketLogsHandler(s.deps.Logs))

	api.POST("/kb/ingest", handlers.IngestHandler(s.deps.Ingester))
	api.POST("/kb/generate", handlers.GenerateHandler(s.deps.Generator, s.responses))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("port", s.config.Port).Msg("Server starting")
	return s.echo.Start(":" + s.config.Port)
}
