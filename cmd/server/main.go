package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/clock"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/config"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/db"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/logger"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/mail"
	"github.com/desertcanvasart-dotcom/travel-ops-pro-sub002/internal/server"
)

func withLogging(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info().Str("method", r.Method).Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).Msg("request")
	})
}

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	if err := logger.Setup(logger.FromEnv()); err != nil {
		panic(err)
	}
	log := logger.WithComponent("server")

	cfg := config.Load()
	dbConn, err := db.ConnectAndMigrate(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connection failed")
	}
	log.Info().Str("dsn", db.MaskDSN(cfg.DatabaseDSN)).Msg("store ready")
	if *migrateOnlyFlag {
		log.Info().Msg("migrations completed; exiting as requested")
		return
	}

	mailer, err := mail.ForConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("mail dispatcher setup failed")
	}

	handler := server.New(dbConn, cfg, mailer, clock.System())
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: withLogging(log, handler)}

	go func() {
		log.Info().Str("env", cfg.Env).Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}
