package replicate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/theescape/bookings-backend/internal/normalize"
	"github.com/theescape/bookings-backend/pkg/config"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// RetryPolicy controls how many times warehouse writes are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type warehouseClient interface {
	InsertRows(ctx context.Context, table string, rows []any) error
	Exec(ctx context.Context, sql string, params []bigquery.QueryParameter) error
	Project() string
	DatasetID() string
}

// Writer applies the three write modes against BigQuery: duplicate-tolerant
// appends for orders, items, and association rows, and an atomic
// parameterized merge for the customer entity.
type Writer struct {
	client warehouseClient
	tables config.BigQueryConfig
	retry  RetryPolicy
}

// NewWriter creates a Writer backed by the shared warehouse client.
func NewWriter(client warehouseClient, tables config.BigQueryConfig, cfg config.WriterConfig) (*Writer, error) {
	if client == nil {
		return nil, errors.New("warehouse client required")
	}
	for _, name := range []string{tables.OrdersTable, tables.ItemsTable, tables.CustomersTable, tables.OrderUserTable} {
		if strings.TrimSpace(name) == "" {
			return nil, errors.New("all destination table names are required")
		}
	}

	retry := RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaximumBackoff: cfg.MaximumBackoff,
	}
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff <= 0 {
		retry.MaximumBackoff = defaultMaximumBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = retry.InitialBackoff
	}

	return &Writer{
		client: client,
		tables: tables,
		retry:  retry,
	}, nil
}

// AppendOrders inserts order rows. Duplicates of the same logical row are
// allowed; dedup by id is a downstream concern.
func (w *Writer) AppendOrders(ctx context.Context, rows []normalize.OrderRow) error {
	batch := make([]any, len(rows))
	for i := range rows {
		batch[i] = &rows[i]
	}
	return w.insertWithRetry(ctx, w.tables.OrdersTable, batch)
}

// AppendItems inserts item rows for one order.
func (w *Writer) AppendItems(ctx context.Context, rows []normalize.ItemRow) error {
	batch := make([]any, len(rows))
	for i := range rows {
		batch[i] = &rows[i]
	}
	return w.insertWithRetry(ctx, w.tables.ItemsTable, batch)
}

// AppendLinks inserts order to customer association rows.
func (w *Writer) AppendLinks(ctx context.Context, rows []normalize.LinkRow) error {
	batch := make([]any, len(rows))
	for i := range rows {
		batch[i] = &rows[i]
	}
	return w.insertWithRetry(ctx, w.tables.OrderUserTable, batch)
}

// MergeCustomer upserts the customer row keyed on exact id equality. The
// statement binds every attribute as a query parameter; user data is never
// interpolated into the SQL text. The destination executes the merge
// atomically, so concurrent upserts for one id cannot produce two rows and
// retries stay idempotent.
func (w *Writer) MergeCustomer(ctx context.Context, row normalize.CustomerRow) error {
	sql := fmt.Sprintf(`MERGE %s T
USING (SELECT @id AS id,
              @firstname AS firstname,
              @lastname AS lastname,
              @email_address AS email_address,
              @phone1 AS phone1,
              @phone2 AS phone2,
              @newsletter_opt_in AS newsletter_opt_in) S
ON T.id = S.id
WHEN MATCHED THEN UPDATE SET
    firstname = S.firstname,
    lastname = S.lastname,
    email_address = S.email_address,
    phone1 = S.phone1,
    phone2 = S.phone2,
    newsletter_opt_in = S.newsletter_opt_in
WHEN NOT MATCHED THEN
    INSERT (id, firstname, lastname, email_address, phone1, phone2, newsletter_opt_in)
    VALUES (S.id, S.firstname, S.lastname, S.email_address, S.phone1, S.phone2, S.newsletter_opt_in)`,
		w.customersTableRef())

	var phone2 bigquery.NullString
	if row.Phone2 != nil {
		phone2 = bigquery.NullString{StringVal: *row.Phone2, Valid: true}
	}

	params := []bigquery.QueryParameter{
		{Name: "id", Value: row.ID},
		{Name: "firstname", Value: row.Firstname},
		{Name: "lastname", Value: row.Lastname},
		{Name: "email_address", Value: row.EmailAddress},
		{Name: "phone1", Value: row.Phone1},
		{Name: "phone2", Value: phone2},
		{Name: "newsletter_opt_in", Value: row.NewsletterOptIn},
	}

	attempts := 0
	backoff := w.retry.InitialBackoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := w.client.Exec(ctx, sql, params)
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= w.retry.MaxAttempts || !isRetryableWarehouseError(err) {
			return fmt.Errorf("merge customer %s: %w", row.ID, err)
		}
		if err := sleepBackoff(ctx, backoff); err != nil {
			return err
		}
		backoff = minDuration(backoff*2, w.retry.MaximumBackoff)
	}
}

func (w *Writer) customersTableRef() string {
	return fmt.Sprintf("`%s.%s.%s`", w.client.Project(), w.client.DatasetID(), w.tables.CustomersTable)
}

func (w *Writer) insertWithRetry(ctx context.Context, table string, rows []any) error {
	if len(rows) == 0 {
		return nil
	}

	attempts := 0
	backoff := w.retry.InitialBackoff

	for {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		err := w.client.InsertRows(ctx, table, rows)
		if err == nil {
			return nil
		}

		attempts++
		if attempts >= w.retry.MaxAttempts || !isRetryableWarehouseError(err) {
			return fmt.Errorf("insert %s rows: %w", table, err)
		}
		if err := sleepBackoff(ctx, backoff); err != nil {
			return err
		}
		backoff = minDuration(backoff*2, w.retry.MaximumBackoff)
	}
}

func sleepBackoff(ctx context.Context, backoff time.Duration) error {
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func isRetryableWarehouseError(err error) bool {
	if err == nil {
		return false
	}

	var multi *bigquery.MultiError
	if errors.As(err, &multi) {
		if multi == nil || len(*multi) == 0 {
			return false
		}
		for _, inner := range *multi {
			if !isRetryableWarehouseError(inner) {
				return false
			}
		}
		return true
	}

	var pme *bigquery.PutMultiError
	if errors.As(err, &pme) {
		if pme == nil || len(*pme) == 0 {
			return false
		}
		for _, rowErr := range *pme {
			if !isRetryableWarehouseError(rowErr.Errors) {
				return false
			}
		}
		return true
	}

	var rowErr *bigquery.RowInsertionError
	if errors.As(err, &rowErr) {
		if rowErr == nil || len(rowErr.Errors) == 0 {
			return false
		}
		for _, inner := range rowErr.Errors {
			if !isRetryableWarehouseError(inner) {
				return false
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return isRetryableHTTPCode(apiErr.Code)
	}

	var statusErr interface{ GRPCStatus() *status.Status }
	if errors.As(err, &statusErr) {
		if st := statusErr.GRPCStatus(); st != nil {
			return isRetryableGRPCCode(st.Code())
		}
	}

	return false
}

func isRetryableHTTPCode(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isRetryableGRPCCode(code codes.Code) bool {
	switch code {
	case codes.Aborted,
		codes.DeadlineExceeded,
		codes.Internal,
		codes.ResourceExhausted,
		codes.Unavailable:
		return true
	default:
		return false
	}
}
