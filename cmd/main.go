package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fyefbv/common-ground-api/internal/api/handler"
	"github.com/fyefbv/common-ground-api/internal/chathub"
	"github.com/fyefbv/common-ground-api/internal/config"
	"github.com/fyefbv/common-ground-api/internal/logger"
	"github.com/fyefbv/common-ground-api/internal/models"
	"github.com/fyefbv/common-ground-api/internal/roulette"
	"github.com/fyefbv/common-ground-api/internal/storage"
	"github.com/fyefbv/common-ground-api/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg config.Config, logg *zap.SugaredLogger) (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		logg.Fatalw("failed to connect PostgreSQL", "error", err)
	}

	// 2. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: "",
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logg.Fatalw("failed to connect Redis", "error", err)
	}

	// 3. Міграції (Створення таблиць)
	err = db.AutoMigrate(
		&models.Profile{},
		&models.Search{},
		&models.Session{},
		&models.Message{},
		&models.Report{},
	)
	if err != nil {
		logg.Fatalw("failed to run migrations", "error", err)
	}

	logg.Infow("database and redis connections established, migrations complete")
	return db, rdb
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg := config.FromEnv()

	logg, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logg.Sync()

	logg.Infow("starting common-ground backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Ініціалізація залежностей
	db, rdb := setupDependencies(ctx, cfg, logg)
	store := storage.NewStorageService(db, rdb)

	// 2. Реєстр з'єднань, нотифікації модераторам і сервіс рулетки
	registry := chathub.NewRegistry(store, logg)

	notifier, err := telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramModerationChatID, logg)
	if err != nil {
		logg.Fatalw("failed to start telegram notifier", "error", err)
	}
	if notifier == nil {
		logg.Infow("telegram moderation notifications disabled")
	}

	service := roulette.NewService(ctx, store, registry, notifier, logg)
	scheduler := roulette.NewScheduler(store, registry, logg)

	// 3. Налаштування Gin та роутингу
	r := gin.Default()
	h := handler.NewHandler(service, store, registry, cfg.JWTSecret, logg)

	r.POST("/auth/register", h.Register)

	authed := r.Group("/", h.AuthRequired())
	authed.GET("/profiles/me", h.Me)
	authed.POST("/roulette/search", h.StartSearch)
	authed.POST("/roulette/search/cancel", h.CancelSearch)
	authed.GET("/roulette/session", h.GetSession)
	authed.POST("/roulette/session/extend", h.ExtendSession)
	authed.POST("/roulette/session/end", h.EndSession)
	authed.POST("/roulette/session/rate", h.RatePartner)
	authed.POST("/roulette/session/report", h.ReportPartner)
	authed.POST("/roulette/session/message", h.SendMessage)
	authed.GET("/roulette/statistics", h.GetStatistics)

	r.GET("/roulette/ws", h.ServeWebSocket) // токен перевіряється в хендлері

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 4. Запуск основних goroutines
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return registry.Run(gctx)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		logg.Infow("http server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Fatalw("server stopped", "error", err)
	}
	logg.Infow("shutdown complete")
}
