package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/trendharvest/internal/api/handler"
	"github.com/timmy/trendharvest/internal/config"
	"github.com/timmy/trendharvest/internal/logger"
	"github.com/timmy/trendharvest/internal/repository"
	"github.com/timmy/trendharvest/internal/service"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "trendharvest-cli",
	})
	logger.SetDefaultLogger(appLogger)

	rawURL := flag.String("url", "", "URL to analyse")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *rawURL == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	harvester, err := service.NewHarvesterFromConfig(ctx, cfg, db, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize harvester")
	}

	runID, err := harvester.RunAnalysis(ctx, *rawURL)
	if errors.Is(err, service.ErrInvalidURL) {
		appLogger.WithError(err).Error("Invalid URL")
		os.Exit(2)
	}
	if err != nil {
		appLogger.WithError(err).Fatal("Analysis could not start")
	}

	results, err := harvester.RunResults(context.Background(), runID)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load results")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(handler.NewResultsResponse(results)); err != nil {
		appLogger.WithError(err).Fatal("Failed to write results")
	}
}
