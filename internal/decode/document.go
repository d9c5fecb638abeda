// Package decode turns raw booking events into the canonical booking.Order.
// Two wire variants exist: the plain JSON document posted by the web front
// end and the typed field encoding carried by Firestore change events. Both
// must decode to identical output. Decoding is a pure transform; missing
// required fields fail hard, unknown fields are ignored.
package decode

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theescape/bookings-backend/internal/booking"
	pkgerrors "github.com/theescape/bookings-backend/pkg/errors"
)

// Document decodes the plain nested JSON variant.
func Document(doc map[string]any) (booking.Order, error) {
	var ord booking.Order
	if doc == nil {
		return ord, decodeErr("", "empty document")
	}

	id, err := requiredInt64(doc, "id")
	if err != nil {
		return ord, err
	}
	txn, err := requiredString(doc, "transaction_number")
	if err != nil {
		return ord, err
	}
	total, err := requiredDecimal(doc, "total")
	if err != nil {
		return ord, err
	}

	rawCustomer, ok := doc["customer"]
	if !ok {
		return ord, missingField("customer")
	}
	customerDoc, ok := rawCustomer.(map[string]any)
	if !ok {
		return ord, decodeErr("customer", "expected an object")
	}
	customer, err := documentCustomer(customerDoc)
	if err != nil {
		return ord, err
	}

	items, err := documentItems(doc)
	if err != nil {
		return ord, err
	}

	ord = booking.Order{
		ID:                id,
		TransactionNumber: txn,
		Total:             total,
		Customer:          customer,
		Items:             items,
	}
	return ord, nil
}

func documentCustomer(doc map[string]any) (booking.Customer, error) {
	var cust booking.Customer

	id, err := requiredStringAt(doc, "id", "customer.id")
	if err != nil {
		return cust, err
	}
	cust.ID = id

	for _, field := range []struct {
		key  string
		dest *string
	}{
		{"firstname", &cust.Firstname},
		{"lastname", &cust.Lastname},
		{"email_address", &cust.EmailAddress},
		{"phone1", &cust.Phone1},
	} {
		value, err := requiredStringAt(doc, field.key, "customer."+field.key)
		if err != nil {
			return cust, err
		}
		*field.dest = value
	}

	// Optional fields default deterministically, never raise.
	cust.Phone2 = optionalString(doc, "phone2")
	cust.NewsletterOptIn = optionalBool(doc, "newsletter_opt_in")
	return cust, nil
}

func documentItems(doc map[string]any) ([]booking.Item, error) {
	raw, ok := doc["items"]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, decodeErr("items", "expected an array")
	}

	items := make([]booking.Item, 0, len(list))
	for i, entry := range list {
		itemDoc, ok := entry.(map[string]any)
		if !ok {
			return nil, decodeErr(fmt.Sprintf("items[%d]", i), "expected an object")
		}
		item, err := documentItem(itemDoc, i)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func documentItem(doc map[string]any, index int) (booking.Item, error) {
	var item booking.Item
	path := func(key string) string { return fmt.Sprintf("items[%d].%s", index, key) }

	var err error
	if item.OrderItemID, err = requiredInt64At(doc, "i_orderitem", path("i_orderitem")); err != nil {
		return item, err
	}
	if item.SKU, err = requiredInt64At(doc, "i_sku", path("i_sku")); err != nil {
		return item, err
	}
	if item.Name, err = requiredStringAt(doc, "name", path("name")); err != nil {
		return item, err
	}
	if item.EventName, err = requiredStringAt(doc, "event_name", path("event_name")); err != nil {
		return item, err
	}
	if item.Quantity, err = requiredInt64At(doc, "quantity", path("quantity")); err != nil {
		return item, err
	}
	if item.Price, err = requiredDecimalAt(doc, "price", path("price")); err != nil {
		return item, err
	}
	if item.SlotStart, err = requiredTimeAt(doc, "slot_start", path("slot_start")); err != nil {
		return item, err
	}
	if item.SlotEnd, err = requiredTimeAt(doc, "slot_end", path("slot_end")); err != nil {
		return item, err
	}
	return item, nil
}

func requiredInt64(doc map[string]any, key string) (int64, error) {
	return requiredInt64At(doc, key, key)
}

func requiredInt64At(doc map[string]any, key, path string) (int64, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return 0, missingField(path)
	}
	return coerceInt64(raw, path)
}

func requiredString(doc map[string]any, path string) (string, error) {
	return requiredStringAt(doc, lastSegment(path), path)
}

func requiredStringAt(doc map[string]any, key, path string) (string, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return "", missingField(path)
	}
	value, ok := raw.(string)
	if !ok {
		return "", decodeErr(path, "expected a string")
	}
	return value, nil
}

func requiredDecimal(doc map[string]any, key string) (decimal.Decimal, error) {
	return requiredDecimalAt(doc, key, key)
}

func requiredDecimalAt(doc map[string]any, key, path string) (decimal.Decimal, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return decimal.Zero, missingField(path)
	}
	return coerceDecimal(raw, path)
}

func requiredTimeAt(doc map[string]any, key, path string) (time.Time, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return time.Time{}, missingField(path)
	}
	switch value := raw.(type) {
	case string:
		ts, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, decodeErr(path, "expected an RFC3339 timestamp")
		}
		return ts.UTC(), nil
	case time.Time:
		return value.UTC(), nil
	default:
		return time.Time{}, decodeErr(path, "expected an RFC3339 timestamp")
	}
}

func optionalString(doc map[string]any, key string) string {
	if raw, ok := doc[key]; ok {
		if value, ok := raw.(string); ok {
			return value
		}
	}
	return ""
}

func optionalBool(doc map[string]any, key string) bool {
	if raw, ok := doc[key]; ok {
		if value, ok := raw.(bool); ok {
			return value
		}
	}
	return false
}

// coerceInt64 accepts the identifier encodings seen in the wild: JSON
// numbers, numeric strings, and native integers.
func coerceInt64(raw any, path string) (int64, error) {
	switch value := raw.(type) {
	case int64:
		return value, nil
	case int:
		return int64(value), nil
	case float64:
		truncated := int64(value)
		if float64(truncated) != value {
			return 0, decodeErr(path, "expected an integer value")
		}
		return truncated, nil
	case string:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, decodeErr(path, "expected a numeric value")
		}
		return parsed, nil
	default:
		return 0, decodeErr(path, "expected an integer value")
	}
}

func coerceDecimal(raw any, path string) (decimal.Decimal, error) {
	switch value := raw.(type) {
	case float64:
		return decimal.NewFromFloat(value), nil
	case int64:
		return decimal.NewFromInt(value), nil
	case int:
		return decimal.NewFromInt(int64(value)), nil
	case string:
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, decodeErr(path, "expected a numeric value")
		}
		return parsed, nil
	default:
		return decimal.Zero, decodeErr(path, "expected a numeric value")
	}
}

func lastSegment(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return path
}

func missingField(path string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeDecode, fmt.Sprintf("missing required field %q", path))
}

func decodeErr(path, msg string) *pkgerrors.Error {
	if path == "" {
		return pkgerrors.New(pkgerrors.CodeDecode, msg)
	}
	return pkgerrors.New(pkgerrors.CodeDecode, fmt.Sprintf("field %q: %s", path, msg))
}
