package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seminar_live/internal/broadcast"
	"seminar_live/internal/config"
	"seminar_live/internal/engine"
	"seminar_live/internal/handler"
	"seminar_live/internal/middleware"
	"seminar_live/internal/repository"
	"seminar_live/internal/service"
	"seminar_live/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	appLogger := logger.New(cfg.Log.Level)

	// Подключение к PostgreSQL
	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		appLogger.Fatal("Failed to ping database", "error", err)
	}
	appLogger.Info("Database connection established")

	// Подключение к Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}
	appLogger.Info("Redis connection established")

	// Инициализация репозиториев
	repos := repository.NewRepositories(dbPool, rdb, cfg.Engine, appLogger)

	// Раздача событий и движок комнат
	bcast := broadcast.New(cfg.Engine.SubscriberBuffer, appLogger)
	eng := engine.New(cfg.Engine, repos, bcast, appLogger)
	defer eng.Close()

	// Инициализация сервисов
	services := service.NewServices(repos, cfg, appLogger)

	// Инициализация middleware
	authMiddleware := middleware.NewAuthMiddleware(services.Auth, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, appLogger)

	// Инициализация handlers
	handlers := handler.NewHandlers(eng, services, bcast, cfg, appLogger)

	// Настройка роутера
	router := setupRouter(handlers, authMiddleware, rateLimitMiddleware, cfg, appLogger)

	// Запуск HTTP сервера
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		appLogger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server exited")
}

func setupRouter(
	handlers *handler.Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler())

	// Health check
	router.GET("/health", handlers.Health.Check)
	router.GET("/server-info", handlers.Health.ServerInfo)

	// API v1
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(authMiddleware.RequireAuth())
		{
			// Комнаты
			rooms := protected.Group("/rooms")
			{
				rooms.POST("", handlers.Room.Create)
				rooms.GET("", handlers.Room.List)
				rooms.GET("/:id", handlers.Room.GetByID)
				rooms.POST("/:id/start", handlers.Room.Start)
				rooms.POST("/:id/end", handlers.Room.End)
				rooms.PUT("/:id/layout", handlers.Room.UpdateLayout)

				// Присутствие
				rooms.POST("/:id/join", handlers.Participant.Join)
				rooms.POST("/:id/leave", handlers.Participant.Leave)
				rooms.POST("/:id/admit/:userId", handlers.Participant.Admit)
				rooms.GET("/:id/participants", handlers.Participant.Roster)
				rooms.GET("/:id/raised-hands", handlers.Participant.RaisedHands)
				rooms.POST("/:id/hand/raise", handlers.Participant.RaiseHand)
				rooms.POST("/:id/hand/lower", handlers.Participant.LowerHand)
				rooms.PUT("/:id/mute", handlers.Participant.SetMute)
				rooms.PUT("/:id/video", handlers.Participant.SetVideo)
				rooms.PUT("/:id/screen-share", handlers.Participant.SetScreenShare)

				// Очередь выступлений
				rooms.POST("/:id/queue/join", handlers.Queue.Join)
				rooms.POST("/:id/queue/leave", handlers.Queue.Leave)
				rooms.POST("/:id/queue/grant-next", handlers.Queue.GrantNext)
				rooms.POST("/:id/queue/finish", handlers.Queue.Finish)
				rooms.GET("/:id/queue", handlers.Queue.Get)
				rooms.GET("/:id/stats/speaking", handlers.Queue.Stats)

				// Breakout-комнаты
				rooms.POST("/:id/breakouts", handlers.Breakout.Create)
				rooms.GET("/:id/breakouts", handlers.Breakout.Statuses)
				rooms.POST("/:id/breakouts/assign", handlers.Breakout.Assign)
				rooms.POST("/:id/breakouts/:breakoutId/start", handlers.Breakout.Start)
				rooms.POST("/:id/breakouts/:breakoutId/end", handlers.Breakout.End)
				rooms.POST("/:id/breakouts/:breakoutId/broadcast", handlers.Breakout.Broadcast)

				// Чат и реакции
				rooms.GET("/:id/chat/messages", handlers.Chat.GetMessages)
				rooms.POST("/:id/chat/messages", rateLimitMiddleware.Limit(30, time.Minute), handlers.Chat.SendMessage)
				rooms.DELETE("/:id/chat/messages/:messageId", handlers.Chat.DeleteMessage)
				rooms.POST("/:id/reactions", rateLimitMiddleware.Limit(60, time.Minute), handlers.Chat.SendReaction)
				rooms.GET("/:id/reactions", handlers.Chat.GetReactions)

				// Медиа (LiveKit токены)
				rooms.POST("/:id/media/token", handlers.Media.GetToken)
			}

			// Поиск комнаты по учебной сессии
			protected.GET("/sessions/:sessionId/room", handlers.Room.GetBySession)
		}
	}

	// WebSocket endpoint для потока событий комнаты
	router.GET("/ws/rooms/:id", authMiddleware.RequireAuth(), handlers.WebSocket.HandleEvents)

	return router
}
