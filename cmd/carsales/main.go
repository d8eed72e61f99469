package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/carsales/internal/config"
	"github.com/deppfellow/carsales/internal/database"
	"github.com/deppfellow/carsales/internal/handler"
	"github.com/deppfellow/carsales/internal/logger"
	"github.com/deppfellow/carsales/internal/repository"
	"github.com/deppfellow/carsales/internal/router"
	"github.com/deppfellow/carsales/internal/server"
	"github.com/deppfellow/carsales/internal/service"
	"github.com/shopspring/decimal"
)

const (
	migrateTimeout  = 60 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	// Prices and engine sizes are JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
		err := database.Migrate(ctx, &log, database.DSN(cfg.Database))
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos := repository.NewRepositories(srv)

	services, err := service.NewService(srv, repos)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create services")
	}

	handlers := handler.NewHandlers(srv, services)

	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
