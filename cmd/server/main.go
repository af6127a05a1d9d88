package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/salewatch/salewatch/internal/api"
	"github.com/salewatch/salewatch/internal/config"
	"github.com/salewatch/salewatch/internal/holiday"
	"github.com/salewatch/salewatch/internal/pkg/distlock"
	"github.com/salewatch/salewatch/internal/pkg/logger"
	"github.com/salewatch/salewatch/internal/repository/postgres"
	"github.com/salewatch/salewatch/internal/service/accuracy"
	"github.com/salewatch/salewatch/internal/service/dedup"
	"github.com/salewatch/salewatch/internal/service/predict"
	"github.com/salewatch/salewatch/internal/service/suggest"
	"github.com/salewatch/salewatch/internal/service/verify"
	"github.com/salewatch/salewatch/internal/worker"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func openDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMins) * time.Minute)

	// The database may still be starting; retry the first ping.
	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = 30 * time.Second
	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return db.PingContext(ctx)
	}
	if err := backoff.Retry(operation, strategy); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	db, err := openDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.Info("redis locking enabled", "addr", cfg.Redis.Addr)
	}

	// Repositories
	brandRepo := postgres.NewBrandRepo(db)
	dedupRepo := postgres.NewDedupRepo(db)
	predictRepo := postgres.NewPredictRepo(db)
	verifyRepo := postgres.NewVerifyRepo(db)
	accuracyRepo := postgres.NewAccuracyRepo(db)
	suggestRepo := postgres.NewSuggestRepo(db)
	predictionRepo := postgres.NewPredictionRepo(db)

	// Services
	dedupSvc := dedup.NewService(dedupRepo, dedup.Options{
		DateProximityDays:      cfg.Engine.Dedup.DateProximityDays,
		DiscountValueTolerance: cfg.Engine.Dedup.DiscountValueTolerance,
		AnchorToleranceDays:    cfg.Engine.Dedup.AnchorToleranceDays,
	})
	predictSvc := predict.NewService(predictRepo, nil, predict.Options{
		MinConfidence: cfg.Engine.Predict.MinConfidence,
		LeapPolicy:    holiday.LeapPolicy(cfg.Engine.Predict.LeapPolicy),
	})
	verifySvc := verify.NewService(verifyRepo, verify.Options{
		GraceDays:       cfg.Engine.Verify.GraceDays,
		MatchWindowDays: cfg.Engine.Verify.MatchWindowDays,
		DiscountFloor:   cfg.Engine.Verify.DiscountFloor,
	})
	accuracySvc := accuracy.NewService(accuracyRepo)
	suggestSvc := suggest.NewService(suggestRepo, suggest.Options{
		LookbackDays: cfg.Engine.Suggest.LookbackDays,
	})

	locks := func(key string) distlock.DistLock {
		return distlock.NewLock(redisClient, db, key, cfg.LockTTL())
	}
	weeklyPass := worker.NewWeeklyPass(brandRepo, dedupSvc, predictSvc, locks, cfg.Worker.BrandConcurrency)
	dailyPass := worker.NewDailyPass(brandRepo, verifySvc, accuracySvc, suggestSvc, locks, cfg.Worker.BrandConcurrency)

	server := api.NewServer(predictionRepo, verifyRepo, verifySvc,
		accuracyRepo, suggestRepo, suggestSvc, weeklyPass, dailyPass)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // operator pass triggers run synchronously
	}

	go func() {
		logger.Info("api listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
