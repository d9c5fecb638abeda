// Package mirror keeps the best-effort operational copy of each booking in
// the document store, keyed by order id for live lookup. It is not required
// to be consistent with the warehouse at any instant.
package mirror

import (
	"context"
	"errors"
	"strconv"

	"github.com/theescape/bookings-backend/internal/normalize"
	"github.com/theescape/bookings-backend/pkg/config"
	"go.uber.org/multierr"
)

type documentStore interface {
	Set(ctx context.Context, collection, docID string, data map[string]any) error
	Add(ctx context.Context, collection string, data map[string]any) error
}

// Mirror writes order and item documents into the configured collections.
type Mirror struct {
	store documentStore
	cfg   config.FirestoreConfig
}

func New(store documentStore, cfg config.FirestoreConfig) (*Mirror, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	return &Mirror{store: store, cfg: cfg}, nil
}

// Mirror writes the order document plus one document per item. Failures are
// collected rather than short-circuited so one bad item does not drop the
// rest of the batch.
func (m *Mirror) Mirror(ctx context.Context, rows normalize.RowSet) error {
	var errs error

	for _, ord := range rows.Orders {
		doc := map[string]any{
			"id":                 ord.ID,
			"transaction_number": ord.TransactionNumber,
			"total":              ord.Total,
		}
		if err := m.store.Set(ctx, m.cfg.OrdersCollection, strconv.FormatInt(ord.ID, 10), doc); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	for _, item := range rows.Items {
		doc := map[string]any{
			"i_orderitem": item.OrderItemID,
			"i_sku":       item.SKU,
			"name":        item.Name,
			"event_name":  item.EventName,
			"quantity":    item.Quantity,
			"price":       item.Price,
			"slot_start":  item.SlotStart,
			"slot_end":    item.SlotEnd,
			"order_id":    item.OrderID,
		}
		if err := m.store.Add(ctx, m.cfg.ItemsCollection, doc); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
