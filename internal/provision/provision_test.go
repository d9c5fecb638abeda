package provision

import (
	"context"
	"errors"
	"io"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/theescape/bookings-backend/pkg/config"
	pkgerrors "github.com/theescape/bookings-backend/pkg/errors"
	"github.com/theescape/bookings-backend/pkg/logger"
)

type fakeWarehouse struct {
	datasetCalls int
	tableCalls   []string

	datasetErr error
	tableErrs  map[string]error
}

func (f *fakeWarehouse) EnsureDataset(context.Context) error {
	f.datasetCalls++
	return f.datasetErr
}

func (f *fakeWarehouse) EnsureTable(_ context.Context, name string, _ bigquery.Schema) error {
	f.tableCalls = append(f.tableCalls, name)
	if f.tableErrs != nil {
		return f.tableErrs[name]
	}
	return nil
}

func testConfig() config.BigQueryConfig {
	return config.BigQueryConfig{
		Dataset:        "the_escape_bookings",
		OrdersTable:    "orders",
		ItemsTable:     "order_items",
		CustomersTable: "customers",
		OrderUserTable: "order_user",
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestEnsureCreatesDatasetAndAllTables(t *testing.T) {
	wh := &fakeWarehouse{}
	p, err := New(wh, testConfig(), testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := p.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	if wh.datasetCalls != 1 {
		t.Fatalf("expected 1 dataset call, got %d", wh.datasetCalls)
	}
	want := []string{"orders", "order_items", "customers", "order_user"}
	if len(wh.tableCalls) != len(want) {
		t.Fatalf("expected tables %v, got %v", want, wh.tableCalls)
	}
	for i, name := range want {
		if wh.tableCalls[i] != name {
			t.Fatalf("table %d: expected %s, got %s", i, name, wh.tableCalls[i])
		}
	}
}

func TestEnsureIsNoOpAfterFirstSuccess(t *testing.T) {
	wh := &fakeWarehouse{}
	p, _ := New(wh, testConfig(), testLogger())

	for i := 0; i < 3; i++ {
		if err := p.Ensure(context.Background()); err != nil {
			t.Fatalf("Ensure %d: %v", i, err)
		}
	}

	if wh.datasetCalls != 1 {
		t.Fatalf("expected provisioning to run once, dataset calls = %d", wh.datasetCalls)
	}
	if len(wh.tableCalls) != 4 {
		t.Fatalf("expected 4 table calls total, got %d", len(wh.tableCalls))
	}
}

func TestEnsureDatasetFailureIsFatal(t *testing.T) {
	wh := &fakeWarehouse{datasetErr: errors.New("permission denied")}
	p, _ := New(wh, testConfig(), testLogger())

	err := p.Ensure(context.Background())
	if err == nil {
		t.Fatal("expected dataset failure")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeProvisioning {
		t.Fatalf("expected provisioning code, got %v", err)
	}
	if len(wh.tableCalls) != 0 {
		t.Fatal("tables must not be touched after dataset failure")
	}
}

func TestEnsureTableFailureRechecksNextCall(t *testing.T) {
	wh := &fakeWarehouse{tableErrs: map[string]error{"customers": errors.New("quota exceeded")}}
	p, _ := New(wh, testConfig(), testLogger())

	if err := p.Ensure(context.Background()); err == nil {
		t.Fatal("expected table failure")
	}

	// A failed run must not latch; the next call provisions again.
	wh.tableErrs = nil
	if err := p.Ensure(context.Background()); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if wh.datasetCalls != 2 {
		t.Fatalf("expected 2 dataset calls, got %d", wh.datasetCalls)
	}
}

func TestNewValidatesParams(t *testing.T) {
	if _, err := New(nil, testConfig(), testLogger()); err == nil {
		t.Fatal("expected error without warehouse")
	}
	if _, err := New(&fakeWarehouse{}, testConfig(), nil); err == nil {
		t.Fatal("expected error without logger")
	}
}
