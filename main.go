package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cafepos/configs"
	"cafepos/middlewares"
	"cafepos/pkg/cache"
	"cafepos/pkg/events"
	"cafepos/routes"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := configs.LoadConfig()
	configs.InitLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	if cfg.JaegerEndpoint != "" {
		tp, err := configs.InitTracerProvider(cfg.ServiceName, cfg.JaegerEndpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("init tracing failed")
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	// DB
	configs.ConnectionDB(cfg)
	db := configs.DB()

	// migrate
	configs.SetupDatabase()

	if err := configs.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("seed admin failed")
	}
	if cfg.SeedDemo {
		if err := configs.SeedDemo(db, cfg.Loyalty); err != nil {
			log.Fatal().Err(err).Msg("seed demo failed")
		}
	}

	opts := routes.Options{Cache: cache.Nop{}, Publisher: events.Nop{}}

	// Redis profile cache
	if cfg.RedisAddr != "" {
		rc, err := cache.Dial(ctx, cfg.RedisAddr, cfg.ProfileCacheTTL)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, profile cache disabled")
		} else {
			defer rc.Close()
			opts.Cache = rc
		}
	}

	// Kafka events
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		defer kp.Close()
		opts.Publisher = kp
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.Tracing(cfg.ServiceName), middlewares.RequestLogger(), middlewares.Metrics())

	// ✅ Enable CORS
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	// ✅ Register API routes
	if err := routes.RegisterRoutes(ctx, r, db, cfg, opts); err != nil {
		log.Fatal().Err(err).Msg("register routes failed")
	}

	// ✅ Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		log.Info().Str("addr", addr).Msg("🚀 Server running at")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
