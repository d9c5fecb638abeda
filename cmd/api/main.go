package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/theescape/bookings-backend/api/routes"
	"github.com/theescape/bookings-backend/internal/mirror"
	"github.com/theescape/bookings-backend/internal/provision"
	"github.com/theescape/bookings-backend/internal/replicate"
	"github.com/theescape/bookings-backend/pkg/bigquery"
	"github.com/theescape/bookings-backend/pkg/config"
	"github.com/theescape/bookings-backend/pkg/firestore"
	"github.com/theescape/bookings-backend/pkg/logger"
	"github.com/theescape/bookings-backend/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	warehouse, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := warehouse.Close(); err != nil {
			logg.Error(ctx, "error closing bigquery", err)
		}
	}()

	var docs *firestore.Client
	if cfg.Firestore.MirrorEnabled {
		docs, err = firestore.NewClient(ctx, cfg.GCP, cfg.Firestore, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap firestore", err)
			os.Exit(1)
		}
		defer func() {
			if err := docs.Close(); err != nil {
				logg.Error(ctx, "error closing firestore", err)
			}
		}()
	}

	provisioner, err := provision.New(warehouse, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(ctx, "failed to create provisioner", err)
		os.Exit(1)
	}

	writer, err := replicate.NewWriter(warehouse, cfg.BigQuery, cfg.Writer)
	if err != nil {
		logg.Error(ctx, "failed to create warehouse writer", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)

	params := replicate.ServiceParams{
		Provisioner: provisioner,
		Writer:      writer,
		Metrics:     pipelineMetrics,
		Logger:      logg,
	}
	if docs != nil {
		orderMirror, err := mirror.New(docs, cfg.Firestore)
		if err != nil {
			logg.Error(ctx, "failed to create booking mirror", err)
			os.Exit(1)
		}
		params.Mirror = orderMirror
	}

	pipeline, err := replicate.NewService(params)
	if err != nil {
		logg.Error(ctx, "failed to create replication pipeline", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	var docsPinger firestore.Pinger
	if docs != nil {
		docsPinger = docs
	}

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, warehouse, docsPinger, pipeline, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
