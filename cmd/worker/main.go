package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/theescape/bookings-backend/internal/consumers/bookings"
	"github.com/theescape/bookings-backend/internal/mirror"
	"github.com/theescape/bookings-backend/internal/provision"
	"github.com/theescape/bookings-backend/internal/replicate"
	"github.com/theescape/bookings-backend/pkg/bigquery"
	"github.com/theescape/bookings-backend/pkg/config"
	"github.com/theescape/bookings-backend/pkg/firestore"
	"github.com/theescape/bookings-backend/pkg/logger"
	"github.com/theescape/bookings-backend/pkg/metrics"
	"github.com/theescape/bookings-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := psClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

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
	params := replicate.ServiceParams{
		Provisioner: provisioner,
		Writer:      writer,
		Metrics:     metrics.NewPipelineMetrics(registry),
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

	consumer, err := bookings.NewConsumer(pipeline, psClient.BookingsSubscription(), logg)
	if err != nil {
		logg.Error(ctx, "failed to create bookings consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logg,
		BigQuery: warehouse,
		PubSub:   psClient,
		Docs:     docs,
		Consumer: consumer,
	})
	if err != nil {
		logg.Error(ctx, "failed to create worker service", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting bookings worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
}
