package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tibiawiki-api/pkg/config"
	"tibiawiki-api/pkg/handlers"
	"tibiawiki-api/pkg/logging"
	"tibiawiki-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	logger, err := logging.New(logging.Options{Level: config.LogLevel, Format: config.LogFormat})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	wiki, err := services.NewMediaWiki(services.MediaWikiConfig{
		APIURL:    config.WikiAPIURL,
		UserAgent: config.WikiUserAgent,
		BatchSize: config.FetchBatchSize,
		HTTPClient: services.BotHTTPClient(ctx, config.WikiClientID, config.WikiClientSecret,
			config.WikiTokenURL, config.WikiRequestTimeout),
	})
	if err != nil {
		return err
	}
	retriever := services.NewRetriever(wiki, services.RetrieverOptions{
		ListsCategory: config.ListsCategory,
		Concurrency:   config.FetchConcurrency,
		BatchSize:     config.FetchBatchSize,
	})

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.NewAPI(registry, retriever), handlers.RouterOptions{
		Logger:        logger,
		SessionSecret: config.SessionSecret,
		AuthEnabled:   config.AuthEnabled(),
	})

	srv := &http.Server{Addr: config.ListenAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", config.ListenAddr), slog.String("wiki", config.WikiAPIURL),
			slog.Int("schemas", len(registry.Schemas)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
