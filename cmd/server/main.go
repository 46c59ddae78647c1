package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/brightcart/recommendation-engine/internal/cache"
	"github.com/brightcart/recommendation-engine/internal/config"
	"github.com/brightcart/recommendation-engine/internal/engine"
	"github.com/brightcart/recommendation-engine/internal/handler"
	"github.com/brightcart/recommendation-engine/internal/repository"
	"github.com/brightcart/recommendation-engine/internal/router"
	"github.com/brightcart/recommendation-engine/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config %v", err)
	}

	ctx := context.Background()

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to parse database config %v", err)
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalf("failed to connect to database %v", err)
	}
	defer pool.Close()

	if err := waitForDB(ctx, pool); err != nil {
		log.Fatalf("database not ready: %v", err)
	}
	log.Println("connected to PostgreSQL")

	// ------------ Run Migrations ---------------
	// for migrate-down using CLI command
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		if err := migrateDown(ctx, pool); err != nil {
			log.Fatalf("failed to migrate down %v", err)
		}
		log.Println("migrations dropped")
		return
	}

	if err := migrateUp(ctx, pool); err != nil {
		log.Fatalf("failed to migrate up %v", err)
	}

	// ------------ Redis ---------------
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to parse redis url %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	resultCache := cache.New(redisClient)
	if err := resultCache.Ping(ctx); err != nil {
		// The cache is a pure performance layer; run degraded without it.
		log.Printf("redis not reachable, running with cache misses: %v", err)
	}

	// ------------ Engine ---------------
	repo := repository.New(pool)
	eng := engine.New(repo, engine.Options{
		Cache:               resultCache,
		FeatureTTL:          cfg.FeatureTTL,
		CollabTTL:           cfg.CollabTTL,
		SimilarityFloor:     cfg.SimilarityFloor,
		SimilarityBatchSize: cfg.SimilarityBatchSize,
		SeasonalBoost:       cfg.SeasonalBoost,
		TrendingWindowDays:  cfg.TrendingWindowDays,
	})
	svc := service.New(eng, resultCache, repo, cfg)

	// ------------ Similarity rebuild scheduler ---------------
	// Batch recomputation runs in the background; readers tolerate stale
	// similarity data during a rebuild.
	go scheduleRebuilds(ctx, svc, cfg.RebuildInterval)

	// ---------------- Server --------------------
	h := handler.NewHandler(svc)
	log.Printf("Server running on %s", cfg.Addr())
	log.Fatal(http.ListenAndServe(cfg.Addr(), router.Setup(h)))
}

func scheduleRebuilds(ctx context.Context, svc *service.Service, interval time.Duration) {
	run := func() {
		if _, err := svc.RebuildSimilarities(ctx); err != nil {
			log.Printf("scheduled similarity rebuild failed: %v", err)
		}
	}
	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		run()
	}
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		log.Printf("waiting for database... (%d/30)", i+1)
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func migrateDown(ctx context.Context, pool *pgxpool.Pool) error {
	sql, err := os.ReadFile("migrations/create_tables.down.sql")
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	log.Println("migrations dropped successfully")
	return nil
}

func migrateUp(ctx context.Context, pool *pgxpool.Pool) error {
	sql, err := os.ReadFile("migrations/create_tables.up.sql")
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	log.Println("migrations applied successfully")
	return nil
}
