package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tendant/simple-publish/pkg/simplepublish/api"
	"github.com/tendant/simple-publish/pkg/simplepublish/config"
)

// Env is the process environment read at startup. Connection strings use
// the URL formats documented on config.WithEnv.
type Env struct {
	Port         string `env:"PORT" env-default:"8080"`
	Environment  string `env:"ENVIRONMENT" env-default:"development"`
	StorageURL   string `env:"STORAGE_URL" env-default:"memory://"`
	IndexURL     string `env:"INDEX_URL" env-default:"memory://"`
	AssetBaseURL string `env:"ASSET_BASE_URL"`
	APIKey       string `env:"API_KEY"`
}

func main() {
	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	serverConfig, err := config.Load(
		config.WithPort(env.Port),
		config.WithEnvironment(env.Environment),
		config.WithAPIKey(env.APIKey),
		config.WithAssetBaseURL(env.AssetBaseURL),
		config.WithStorageURL(env.StorageURL),
		config.WithIndexURL(env.IndexURL),
	)
	if err != nil {
		logger.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	svc, err := serverConfig.BuildService(logger)
	if err != nil {
		logger.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(api.RequestID())
	r.Use(api.Logging(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api.APIKey(serverConfig.APIKey))
		r.Mount("/envelopes", api.NewEnvelopesHandler(svc, logger).Routes())
		r.Mount("/assets", api.NewAssetsHandler(svc, logger).Routes())
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: r,
	}

	go func() {
		logger.Info("simple-publish server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"storage", serverConfig.Storage.Type,
			"index", serverConfig.Index.Type)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	logger.Info("Server exiting")
}
