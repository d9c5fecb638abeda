// Package replicate applies one decoded booking to the warehouse: provision,
// append orders/items, merge the customer, append the association row, then
// mirror. There is no transaction spanning the four row sets; a failing
// stage leaves earlier batches applied and surfaces as a stage-tagged error.
package replicate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/theescape/bookings-backend/internal/booking"
	"github.com/theescape/bookings-backend/internal/normalize"
	pkgerrors "github.com/theescape/bookings-backend/pkg/errors"
	"github.com/theescape/bookings-backend/pkg/logger"
	"github.com/theescape/bookings-backend/pkg/metrics"
)

const (
	StageValidate  = "validate"
	StageProvision = "provision"
	StageOrders    = "orders"
	StageItems     = "items"
	StageCustomer  = "customer"
	StageLink      = "order_user"
	StageMirror    = "mirror"
)

type provisioner interface {
	Ensure(ctx context.Context) error
}

type rowWriter interface {
	AppendOrders(ctx context.Context, rows []normalize.OrderRow) error
	AppendItems(ctx context.Context, rows []normalize.ItemRow) error
	AppendLinks(ctx context.Context, rows []normalize.LinkRow) error
	MergeCustomer(ctx context.Context, row normalize.CustomerRow) error
}

type mirrorWriter interface {
	Mirror(ctx context.Context, rows normalize.RowSet) error
}

// ServiceParams wires the pipeline dependencies. Mirror is optional.
type ServiceParams struct {
	Provisioner provisioner
	Writer      rowWriter
	Mirror      mirrorWriter
	Metrics     *metrics.PipelineMetrics
	Logger      *logger.Logger
}

// Service is one stateless replication pipeline; invocations may run
// concurrently and hold no state between events.
type Service struct {
	provisioner provisioner
	writer      rowWriter
	mirror      mirrorWriter
	metrics     *metrics.PipelineMetrics
	logg        *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Provisioner == nil {
		return nil, errors.New("provisioner is required")
	}
	if params.Writer == nil {
		return nil, errors.New("writer is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		provisioner: params.Provisioner,
		writer:      params.Writer,
		mirror:      params.Mirror,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// Process replicates one decoded booking. The source label only feeds
// metrics and logs.
func (s *Service) Process(ctx context.Context, source string, ord booking.Order) error {
	logCtx := s.logg.WithOrderID(ctx, ord.ID)
	logCtx = s.logg.WithCustomerID(logCtx, ord.Customer.ID)
	logCtx = s.logg.WithField(logCtx, "source", source)

	if err := ord.Validate(); err != nil {
		s.fail(source, StageValidate)
		return err
	}

	rows := normalize.Flatten(ord)

	if err := s.runStage(logCtx, StageProvision, func() error {
		return s.provisioner.Ensure(ctx)
	}); err != nil {
		s.fail(source, StageProvision)
		return err
	}

	if err := s.runStage(logCtx, StageOrders, func() error {
		return s.writer.AppendOrders(ctx, rows.Orders)
	}); err != nil {
		s.fail(source, StageOrders)
		return wrapStage(pkgerrors.CodeAppend, StageOrders, err)
	}

	if err := s.runStage(logCtx, StageItems, func() error {
		return s.writer.AppendItems(ctx, rows.Items)
	}); err != nil {
		s.fail(source, StageItems)
		return wrapStage(pkgerrors.CodeAppend, StageItems, err)
	}

	if err := s.runStage(logCtx, StageCustomer, func() error {
		return s.writer.MergeCustomer(ctx, rows.Customers[0])
	}); err != nil {
		s.fail(source, StageCustomer)
		return wrapStage(pkgerrors.CodeMerge, StageCustomer, err)
	}

	if err := s.runStage(logCtx, StageLink, func() error {
		return s.writer.AppendLinks(ctx, rows.Links)
	}); err != nil {
		s.fail(source, StageLink)
		return wrapStage(pkgerrors.CodeAppend, StageLink, err)
	}

	// The operational mirror is best-effort; a mirror failure never fails
	// the invocation.
	if s.mirror != nil {
		if err := s.runStage(logCtx, StageMirror, func() error {
			return s.mirror.Mirror(ctx, rows)
		}); err != nil {
			s.logg.Error(logCtx, "booking mirror failed", err)
			s.fail(source, StageMirror)
		}
	}

	s.metrics.IncSuccess(source)
	s.logg.Info(logCtx, "booking replicated")
	return nil
}

func (s *Service) runStage(ctx context.Context, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.ObserveStage(stage, time.Since(start))
	return err
}

func (s *Service) fail(source, stage string) {
	s.metrics.IncFailure(source, stage)
}

func wrapStage(code pkgerrors.Code, stage string, err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(code, err, fmt.Sprintf("%s stage failed", stage)).
		WithDetails(map[string]any{"stage": stage})
}
