package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/raviakasapu/generative-planner-vision-sub000/internal/http"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sessionSweepInterval is how often idle grid sessions are evicted.
const sessionSweepInterval = time.Minute

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configFile)
		},
	}
}

func runServe(ctx context.Context, configFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, "planner-data")
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	router := httpapi.NewRouter(logger)
	router.RegisterOpsRoutes()
	router.RegisterPlanningRoutes(httpapi.NewPlanningHandler(a.planning, logger), httpapi.NewVersionHandler(a.versions, logger))
	router.RegisterMasterDataRoutes(httpapi.NewDimensionHandler(a.dimensions, logger))
	router.RegisterAccessGrantRoutes(httpapi.NewAccessGrantHandler(a.grants, logger))
	router.RegisterRuleRoutes(httpapi.NewRuleHandler(a.rules, logger))
	router.RegisterAssistantRoutes(httpapi.NewAssistantHandler(a.assistant, logger))

	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.sessions.Run(ctx, sessionSweepInterval)

	if a.listener != nil {
		if err := a.listener.Start(ctx); err != nil {
			logger.Warn("Event listener disabled", zap.Error(err))
			a.listener = nil
		} else {
			go a.listener.Run(ctx)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case <-sigCh:
	case serveErr = <-errCh:
		logger.Error("HTTP server stopped", zap.Error(serveErr))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown failed", zap.Error(err))
	}
	if a.listener != nil {
		if err := a.listener.Close(shutdownCtx); err != nil {
			logger.Warn("Failed to remove event consumer group", zap.Error(err))
		}
	}
	return serveErr
}
