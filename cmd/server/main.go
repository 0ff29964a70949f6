package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/api"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/config"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/metrics"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/pipeline"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/translate"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize translation providers.
	ports := make(map[string]translate.Port)
	if cfg.OpenAIAPIKey != "" {
		ports["openai"] = translate.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	if cfg.DeepLAPIKey != "" {
		ports["deepl"] = translate.NewDeepLClient(cfg.DeepLAPIKey)
	}

	met := metrics.New()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, ports, met, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Stop accepting submissions before tearing down the pipeline.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting slidetrans", "port", cfg.Port, "provider", cfg.DefaultProvider)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
