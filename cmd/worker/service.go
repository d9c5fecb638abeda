package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theescape/bookings-backend/internal/consumers/bookings"
	"github.com/theescape/bookings-backend/pkg/bigquery"
	"github.com/theescape/bookings-backend/pkg/config"
	"github.com/theescape/bookings-backend/pkg/firestore"
	"github.com/theescape/bookings-backend/pkg/logger"
	"github.com/theescape/bookings-backend/pkg/pubsub"
)

type ServiceParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	BigQuery *bigquery.Client
	PubSub   *pubsub.Client
	Docs     *firestore.Client
	Consumer *bookings.Consumer
}

type Service struct {
	cfg      *config.Config
	logg     *logger.Logger
	bigquery *bigquery.Client
	pubsub   *pubsub.Client
	docs     *firestore.Client
	consumer *bookings.Consumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.BigQuery == nil {
		return nil, errors.New("bigquery client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("bookings consumer is required")
	}

	return &Service{
		cfg:      params.Config,
		logg:     params.Logger,
		bigquery: params.BigQuery,
		pubsub:   params.PubSub,
		docs:     params.Docs,
		consumer: params.Consumer,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "bigquery", s.bigquery.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	if s.docs != nil {
		if err := pingDependency(ctx, s.logg, "firestore", s.docs.Ping); err != nil {
			return err
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.consumer.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "worker context canceled")
			return ctx.Err()
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				s.logg.Error(ctx, "consumer stopped unexpectedly", err)
				return err
			}
			return err
		case <-ticker.C:
		}
	}
}
