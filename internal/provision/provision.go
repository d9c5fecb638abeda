// Package provision idempotently ensures the destination dataset and tables
// exist before the first write. Safe to call from concurrent pipeline
// invocations: create races resolve to success, everything else is fatal
// for the run.
package provision

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"cloud.google.com/go/bigquery"
	"github.com/theescape/bookings-backend/internal/schema"
	"github.com/theescape/bookings-backend/pkg/config"
	pkgerrors "github.com/theescape/bookings-backend/pkg/errors"
	"github.com/theescape/bookings-backend/pkg/logger"
)

type warehouse interface {
	EnsureDataset(ctx context.Context) error
	EnsureTable(ctx context.Context, name string, schema bigquery.Schema) error
}

// Provisioner ensures the dataset plus every registry table once per process,
// rechecking only until the first full success.
type Provisioner struct {
	wh     warehouse
	cfg    config.BigQueryConfig
	logg   *logger.Logger
	tables []schema.Table

	provisioned atomic.Bool
}

// New builds a provisioner over the schema registry tables.
func New(wh warehouse, cfg config.BigQueryConfig, logg *logger.Logger) (*Provisioner, error) {
	if wh == nil {
		return nil, errors.New("warehouse client is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Provisioner{
		wh:     wh,
		cfg:    cfg,
		logg:   logg,
		tables: schema.Tables(cfg),
	}, nil
}

// Ensure provisions the dataset and all tables. After one full success the
// call becomes a no-op for the life of the process.
func (p *Provisioner) Ensure(ctx context.Context) error {
	if p.provisioned.Load() {
		return nil
	}

	if err := p.wh.EnsureDataset(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeProvisioning, err, fmt.Sprintf("ensure dataset %q", p.cfg.Dataset))
	}
	for _, table := range p.tables {
		if err := p.wh.EnsureTable(ctx, table.Name, table.Schema); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeProvisioning, err, fmt.Sprintf("ensure table %q", table.Name))
		}
	}

	if p.provisioned.CompareAndSwap(false, true) {
		p.logg.Info(ctx, "destination dataset and tables provisioned")
	}
	return nil
}
