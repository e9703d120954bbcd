package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studiobooking/internal/clock"
	"studiobooking/internal/config"
	"studiobooking/internal/database"
	"studiobooking/internal/domain/booking"
	"studiobooking/internal/pkg/jwt"
	"studiobooking/internal/pkg/logger"
	"studiobooking/internal/pkg/mq"
	"studiobooking/internal/pkg/obs"
	"studiobooking/internal/server"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.OTLPEndpoint != "" {
		shutdown, err := obs.InitTracer(ctx, cfg.ServiceName, version, cfg.AppEnv, cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				lg.Warn("tracer shutdown", zap.Error(err))
			}
		}()
		lg.Info("tracing enabled", zap.String("endpoint", cfg.OTLPEndpoint))
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	lg.Info("database connected", zap.String("dialect", db.Dialector.Name()))

	if err := database.Migrate(ctx, db, lg, server.Models()...); err != nil {
		return err
	}

	var publishers []booking.EventPublisher
	if cfg.RabbitURL != "" {
		pub, err := mq.NewPublisher(cfg.RabbitURL, cfg.BookingExchange)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		publishers = append(publishers, booking.NewBrokerPublisher(pub))
		lg.Info("publishing booking events", zap.String("exchange", cfg.BookingExchange))
	}

	app := server.New(server.Deps{
		DB:          db,
		JWT:         jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL),
		Log:         lg,
		Clock:       clock.NewSystem(),
		CORSOrigins: cfg.CORSAllowedOrigins,
		Publishers:  publishers,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
