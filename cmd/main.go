package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/config"
	"github.com/knowway/knowway-backend/middleware"
	"github.com/knowway/knowway-backend/routes"
	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
	"github.com/knowway/knowway-backend/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		logger.Fatal("database init failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	roles := services.NewRoleResolver(db)

	hub := ws.NewHub(logger)
	var publisher services.ChatPublisher = hub
	if cfg.Redis.Addr != "" {
		bus, err := ws.NewRedisBus(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel, hub, logger)
		if err != nil {
			logger.Warn("redis unavailable, chat stays local to this instance", "error", err)
		} else if err := bus.Start(ctx); err != nil {
			logger.Warn("redis subscribe failed, chat stays local to this instance", "error", err)
			_ = bus.Close()
		} else {
			defer bus.Close()
			publisher = bus
			logger.Info("chat relay enabled", "channel", cfg.Redis.Channel)
		}
	}

	gemini, err := services.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		logger.Fatal("gemini client init failed", "error", err)
	}
	defer gemini.Close()
	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, AI chat disabled")
	}

	storage := utils.NewSupabaseStorage(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.Bucket)
	webhook := services.NewWebhookClient(cfg.Scraping.WebhookURL, cfg.Scraping.Secret, cfg.Scraping.Timeout)
	google := services.NewIDTokenVerifier(cfg.Google.ClientID)

	chat := services.NewChatService(db, publisher, logger)
	deps := routes.Deps{
		DB:          db,
		Tokens:      tokens,
		Roles:       roles,
		Log:         logger,
		Auth:        services.NewAuthService(db, tokens, google),
		Users:       services.NewUserService(db, roles),
		Categories:  services.NewCategoryService(db, roles),
		Courses:     services.NewCourseService(db, roles),
		Lessons:     services.NewLessonService(db, roles),
		Points:      services.NewPointsService(db),
		Progress:    services.NewProgressService(db),
		Quizzes:     services.NewQuizService(db, roles),
		Favorites:   services.NewFavoriteService(db),
		Chat:        chat,
		Uploads:     services.NewUploadService(storage),
		Scraping:    services.NewScrapingService(db, webhook, cfg.Scraping.Secret, logger),
		AI:          services.NewAIChatService(gemini, cfg.Gemini.Timeout, logger),
		SearchLogs:  services.NewSearchLogService(db, roles),
		Hub:         hub,
		ChatSockets: ws.NewChatHandler(hub, chat, tokens, cfg.Server.CORSOrigins, logger),
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.RequestID(), middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.SetupRouter(r, deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Server.Port, "db_driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
