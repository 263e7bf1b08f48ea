package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatgrid/internal/bus"
	"chatgrid/internal/config"
	"chatgrid/internal/handler"
	"chatgrid/internal/middleware"
	"chatgrid/internal/observability"
	"chatgrid/internal/repository/postgres"
	"chatgrid/internal/service"
	"chatgrid/internal/suggest"
	"chatgrid/internal/token"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting chat server")

	connCtx, connCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connCancel()

	db, err := config.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(connCtx); err != nil {
		slog.Error("database ping failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("connected to postgresql")

	signals, err := bus.NewRedisBus(cfg.RedisURL)
	if err != nil {
		slog.Error("failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer signals.Close()
	slog.Info("connected to redis")

	userRepo := postgres.NewUserRepository(db)
	chatRepo := postgres.NewChatRepository(db)
	messageRepo := postgres.NewMessageRepository(db)
	onlineUserRepo := postgres.NewOnlineUserRepository(db)

	tokens := token.NewManager(cfg.JWTSecret)
	suggestor := suggest.NewOllamaClient(cfg.OllamaURL)

	authService := service.NewAuthService(userRepo, tokens)
	chatService := service.NewChatService(chatRepo, signals)

	authHandler := handler.NewAuthHandler(authService, cfg.Environment)
	chatHandler := handler.NewChatHandler(chatService)
	wsHandler := handler.NewWSHandler(chatService, signals, messageRepo, onlineUserRepo, suggestor)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.Domain)))
	r.Use(middleware.Metrics())

	// The prober hits /health directly, so it stays outside the LB guard.
	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(db, signals))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.LBAuth(cfg.LBSecret))

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.UserAuth(tokens, authService))

				r.Post("/logout", authHandler.Logout)
				r.Get("/whoami", authHandler.Whoami)
				r.Post("/chat", chatHandler.Create)
				r.Get("/chat", chatHandler.List)
				r.Get("/chat/{id}", chatHandler.Get)
				r.Get("/chat/name/{name}", chatHandler.FindByName)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.UserAuth(tokens, authService))

			r.Get("/ws/chat", wsHandler.Chat)
			r.Get("/ws/chat-list", wsHandler.ChatList)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("chat server listening", slog.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	slog.Info("server stopped gracefully")
}
