package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "collabforge/docs"
	"collabforge/internal/auth"
	"collabforge/internal/config"
	"collabforge/internal/handler"
	"collabforge/internal/middleware"
	"collabforge/internal/realtime"
	"collabforge/internal/repository"
	"collabforge/internal/service"
	"collabforge/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Engine *gin.Engine
	DB     *gorm.DB
	Store  *repository.Store
	Hub    *realtime.Hub
	Tokens *auth.TokenManager
	Config *config.Config

	limiter *middleware.RateLimiter
}

// GormLogLevel maps the application log level onto gorm's.
func GormLogLevel() gormlogger.LogLevel {
	if logger.Level() <= zerolog.DebugLevel {
		return gormlogger.Info
	}
	return gormlogger.Warn
}

// Init connects to the database, creates missing tables and builds the server.
func Init(cfg *config.Config) (*Server, error) {
	db, err := repository.Open(cfg.Database, GormLogLevel())
	if err != nil {
		return nil, err
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	if err := repository.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return New(cfg, db), nil
}

// New wires repositories, services and handlers over db.
func New(cfg *config.Config, db *gorm.DB) *Server {
	gin.SetMode(cfg.Server.Mode)

	store := repository.NewStore(db)
	hub := realtime.NewHub()
	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	taskService := service.NewTaskService(store)
	membershipService := service.NewMembershipService(store, cfg.Tasks.AutoStartOnApprove)
	chatService := service.NewChatService(store, hub)
	userService := service.NewUserService(store.Users)

	taskHandler := handler.NewTaskHandler(taskService)
	membershipHandler := handler.NewMembershipHandler(membershipService)
	chatHandler := handler.NewChatHandler(chatService)
	userHandler := handler.NewUserHandler(userService)
	socketHandler := handler.NewSocketHandler(chatService, tokens, cfg.CORS.AllowOrigins)

	r := gin.New()
	r.Use(logger.GinRecovery(), logger.GinLogger(), middleware.CORS(cfg.CORS.AllowOrigins))

	s := &Server{
		Engine:  r,
		DB:      db,
		Store:   store,
		Hub:     hub,
		Tokens:  tokens,
		Config:  cfg,
		limiter: limiter,
	}

	// Public routes
	r.GET("/health", s.health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws", socketHandler.Serve)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(limiter.Middleware(), middleware.JWTAuthMiddleware(tokens))
	{
		// User routes
		authorized.GET("/user/me", userHandler.Me)
		authorized.PUT("/user/me", userHandler.UpdateProfile)
		authorized.PUT("/user/contacts", userHandler.UpdateContacts)

		// Caller-scoped listings
		authorized.GET("/tasks/my-requests", membershipHandler.Incoming)
		authorized.GET("/tasks/user/requests", membershipHandler.Outgoing)
		authorized.GET("/tasks/user/memberships", membershipHandler.Memberships)

		// Task routes
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks", taskHandler.GetAll)
		authorized.GET("/tasks/:id", taskHandler.GetByID)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.PATCH("/tasks/:id/status", taskHandler.UpdateStatus)
		authorized.PATCH("/tasks/:id/progress", taskHandler.UpdateProgress)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)
		authorized.POST("/tasks/:id/accept", taskHandler.Accept)

		// Membership routes
		authorized.POST("/tasks/:id/request", membershipHandler.RequestJoin)
		authorized.POST("/tasks/:id/approve", membershipHandler.Approve)
		authorized.POST("/tasks/:id/reject", membershipHandler.Reject)
		authorized.GET("/tasks/:id/members", membershipHandler.Members)
		authorized.GET("/tasks/:id/team-contacts", membershipHandler.TeamContacts)

		// Chat routes
		authorized.GET("/tasks/:id/messages", chatHandler.History)
		authorized.POST("/tasks/:id/messages", chatHandler.Post)
	}

	return s
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.Addr(),
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.limiter.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info().Msg("server exited properly")
	return nil
}
