// Command worker runs one scheduled pass and exits. An external
// scheduler (cron, systemd timer) is expected to invoke it: the weekly
// pass groups observations and generates predictions, the daily pass
// verifies elapsed predictions, recomputes accuracy, and generates
// adjustment suggestions.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
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
	passName := flag.String("pass", "", "pass to run: weekly or daily")
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	if *passName != "weekly" && *passName != "daily" {
		fmt.Fprintln(os.Stderr, "usage: worker -pass weekly|daily")
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	db, err := openDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	brandRepo := postgres.NewBrandRepo(db)
	locks := func(key string) distlock.DistLock {
		return distlock.NewLock(redisClient, db, key, cfg.LockTTL())
	}

	ctx := context.Background()
	asOf := time.Now().UTC()

	var summary worker.PassSummary
	switch *passName {
	case "weekly":
		dedupSvc := dedup.NewService(postgres.NewDedupRepo(db), dedup.Options{
			DateProximityDays:      cfg.Engine.Dedup.DateProximityDays,
			DiscountValueTolerance: cfg.Engine.Dedup.DiscountValueTolerance,
			AnchorToleranceDays:    cfg.Engine.Dedup.AnchorToleranceDays,
		})
		predictSvc := predict.NewService(postgres.NewPredictRepo(db), nil, predict.Options{
			MinConfidence: cfg.Engine.Predict.MinConfidence,
			LeapPolicy:    holiday.LeapPolicy(cfg.Engine.Predict.LeapPolicy),
		})
		pass := worker.NewWeeklyPass(brandRepo, dedupSvc, predictSvc, locks, cfg.Worker.BrandConcurrency)
		summary, err = pass.Run(ctx, asOf)
	case "daily":
		verifySvc := verify.NewService(postgres.NewVerifyRepo(db), verify.Options{
			GraceDays:       cfg.Engine.Verify.GraceDays,
			MatchWindowDays: cfg.Engine.Verify.MatchWindowDays,
			DiscountFloor:   cfg.Engine.Verify.DiscountFloor,
		})
		accuracySvc := accuracy.NewService(postgres.NewAccuracyRepo(db))
		suggestSvc := suggest.NewService(postgres.NewSuggestRepo(db), suggest.Options{
			LookbackDays: cfg.Engine.Suggest.LookbackDays,
		})
		pass := worker.NewDailyPass(brandRepo, verifySvc, accuracySvc, suggestSvc, locks, cfg.Worker.BrandConcurrency)
		summary, err = pass.Run(ctx, asOf)
	}
	if err != nil {
		log.Fatalf("Pass %s failed: %v", *passName, err)
	}

	logger.Info("pass complete", "pass", *passName,
		"brands", summary.Brands, "skipped", summary.Skipped, "failed", summary.Failed())
	if summary.Failed() > 0 {
		os.Exit(1)
	}
}
