package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ivpulse/iv-scanner/internal/api"
	"github.com/ivpulse/iv-scanner/internal/cache"
	"github.com/ivpulse/iv-scanner/internal/config"
	"github.com/ivpulse/iv-scanner/internal/database"
	"github.com/ivpulse/iv-scanner/internal/kafka"
	"github.com/ivpulse/iv-scanner/internal/metrics"
	"github.com/ivpulse/iv-scanner/internal/scan"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var summaryCache *cache.SummaryCache
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, serving summaries without cache")
	} else {
		summaryCache = cache.New(redisClient, cfg.Redis.CacheTTL)
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer producer.Close()

	engine := metrics.NewEngine(metrics.Config{
		WindowSize: cfg.Scan.WindowSize,
		JumpWindow: cfg.Scan.JumpWindow,
		Return6M:   cfg.Scan.Return6M,
		Return1M:   cfg.Scan.Return1M,
		Return1W:   cfg.Scan.Return1W,
	})
	scanner := scan.NewScanner(db, engine, cfg.Scan.Workers, cfg.Scan.WindowSize, log.Logger)

	handler := api.NewHandler(db, producer, scanner, summaryCache)
	router := api.SetupRoutes(handler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bar feed consumer runs alongside the API server.
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.BarTopic, cfg.Kafka.GroupID, db)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("bar consumer stopped")
		}
	}()

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("starting api server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
