// @title Dog Walk Service API
// @version 1.0
// @description Solicitudes de paseo, postulaciones de paseadores, ratings y resumen por paseador.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dog-walk-service/internal/adapters/auth/jwtauth"
	"dog-walk-service/internal/adapters/storage/sqlstore"
	"dog-walk-service/internal/config"
	"dog-walk-service/internal/platform/logger"
	"dog-walk-service/internal/router"
	"dog-walk-service/internal/seed"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "ruta a config YAML (opcional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", map[string]any{"err": err})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	opts := router.Options{
		Logger:          log,
		LoginRatePerSec: cfg.Auth.LoginRatePerSec,
		LoginBurst:      cfg.Auth.LoginBurst,
		Done:            ctx.Done(),
	}

	if cfg.Database.Driver != config.DriverMemory {
		dialect, err := sqlstore.ParseDialect(cfg.Database.Driver)
		if err != nil {
			return err
		}
		store, err := sqlstore.Open(ctx, dialect, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()
		opts.Store = store
	}

	if cfg.Auth.DevAuth {
		// sin verifier para modo dev
		log.Warn("dev auth enabled: X-Debug-User-* headers are trusted", nil)
	} else {
		m, err := jwtauth.NewManager(jwtauth.Config{Secret: cfg.Auth.JWTSecret, TTL: cfg.Auth.TokenTTL})
		if err != nil {
			return err
		}
		opts.AuthVerifier = m
		opts.Tokens = m
	}

	svcs := router.NewServices(opts)
	if cfg.Seed.DemoData {
		if err := seed.Load(ctx, seed.Services{Users: svcs.Users, Dogs: svcs.Dogs, Walks: svcs.Walks}, log); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Handler(svcs, opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "driver": cfg.Database.Driver})
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

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
