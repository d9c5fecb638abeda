package decode

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/theescape/bookings-backend/internal/booking"
)

// Firestore value tags. Each scalar arrives wrapped in a single-key object
// naming its type; the decoder must unwrap exactly the tag matching the
// declared schema type of the field.
const (
	tagInteger   = "integerValue"
	tagDouble    = "doubleValue"
	tagString    = "stringValue"
	tagBoolean   = "booleanValue"
	tagTimestamp = "timestampValue"
	tagMap       = "mapValue"
	tagArray     = "arrayValue"
	tagNull      = "nullValue"
)

var knownTags = []string{
	tagInteger, tagDouble, tagString, tagBoolean, tagTimestamp, tagMap, tagArray, tagNull,
}

// Fields decodes the typed field encoding of a document change event. The
// input is the "fields" map of the changed document.
func Fields(fields map[string]any) (booking.Order, error) {
	var ord booking.Order
	if fields == nil {
		return ord, decodeErr("", "empty field set")
	}

	var err error
	if ord.ID, err = fieldInt64(fields, "id", "id"); err != nil {
		return ord, err
	}
	if ord.TransactionNumber, err = fieldString(fields, "transaction_number", "transaction_number"); err != nil {
		return ord, err
	}
	if ord.Total, err = fieldDecimal(fields, "total", "total"); err != nil {
		return ord, err
	}

	customerFields, err := fieldMap(fields, "customer", "customer")
	if err != nil {
		return ord, err
	}
	if ord.Customer, err = fieldsCustomer(customerFields); err != nil {
		return ord, err
	}

	if ord.Items, err = fieldsItems(fields); err != nil {
		return ord, err
	}
	return ord, nil
}

func fieldsCustomer(fields map[string]any) (booking.Customer, error) {
	var cust booking.Customer

	var err error
	if cust.ID, err = fieldString(fields, "id", "customer.id"); err != nil {
		return cust, err
	}
	if cust.Firstname, err = fieldString(fields, "firstname", "customer.firstname"); err != nil {
		return cust, err
	}
	if cust.Lastname, err = fieldString(fields, "lastname", "customer.lastname"); err != nil {
		return cust, err
	}
	if cust.EmailAddress, err = fieldString(fields, "email_address", "customer.email_address"); err != nil {
		return cust, err
	}
	if cust.Phone1, err = fieldString(fields, "phone1", "customer.phone1"); err != nil {
		return cust, err
	}

	if cust.Phone2, err = optionalFieldString(fields, "phone2", "customer.phone2"); err != nil {
		return cust, err
	}
	if cust.NewsletterOptIn, err = optionalFieldBool(fields, "newsletter_opt_in", "customer.newsletter_opt_in"); err != nil {
		return cust, err
	}
	return cust, nil
}

func fieldsItems(fields map[string]any) ([]booking.Item, error) {
	wrapper, ok := fields["items"]
	if !ok {
		return nil, nil
	}
	values, err := unwrapArray(wrapper, "items")
	if err != nil {
		return nil, err
	}

	items := make([]booking.Item, 0, len(values))
	for i, value := range values {
		path := func(key string) string { return fmt.Sprintf("items[%d].%s", i, key) }
		itemFields, err := unwrapMap(value, fmt.Sprintf("items[%d]", i))
		if err != nil {
			return nil, err
		}

		var item booking.Item
		if item.OrderItemID, err = fieldInt64(itemFields, "i_orderitem", path("i_orderitem")); err != nil {
			return nil, err
		}
		if item.SKU, err = fieldInt64(itemFields, "i_sku", path("i_sku")); err != nil {
			return nil, err
		}
		if item.Name, err = fieldString(itemFields, "name", path("name")); err != nil {
			return nil, err
		}
		if item.EventName, err = fieldString(itemFields, "event_name", path("event_name")); err != nil {
			return nil, err
		}
		if item.Quantity, err = fieldInt64(itemFields, "quantity", path("quantity")); err != nil {
			return nil, err
		}
		if item.Price, err = fieldDecimal(itemFields, "price", path("price")); err != nil {
			return nil, err
		}
		if item.SlotStart, err = fieldTime(itemFields, "slot_start", path("slot_start")); err != nil {
			return nil, err
		}
		if item.SlotEnd, err = fieldTime(itemFields, "slot_end", path("slot_end")); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func fieldInt64(fields map[string]any, key, path string) (int64, error) {
	wrapper, err := requireWrapper(fields, key, path)
	if err != nil {
		return 0, err
	}
	raw, ok := wrapper[tagInteger]
	if !ok {
		return 0, tagMismatch(path, tagInteger, wrapper)
	}
	switch value := raw.(type) {
	case string:
		// Firestore serializes 64-bit integers as strings.
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, decodeErr(path, "malformed integerValue")
		}
		return parsed, nil
	case float64:
		return int64(value), nil
	default:
		return 0, decodeErr(path, "malformed integerValue")
	}
}

func fieldDecimal(fields map[string]any, key, path string) (decimal.Decimal, error) {
	wrapper, err := requireWrapper(fields, key, path)
	if err != nil {
		return decimal.Zero, err
	}
	// Whole amounts arrive integer-tagged, fractional ones double-tagged.
	if raw, ok := wrapper[tagDouble]; ok {
		value, ok := raw.(float64)
		if !ok {
			return decimal.Zero, decodeErr(path, "malformed doubleValue")
		}
		return decimal.NewFromFloat(value), nil
	}
	if raw, ok := wrapper[tagInteger]; ok {
		switch value := raw.(type) {
		case string:
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return decimal.Zero, decodeErr(path, "malformed integerValue")
			}
			return decimal.NewFromInt(parsed), nil
		case float64:
			return decimal.NewFromFloat(value), nil
		default:
			return decimal.Zero, decodeErr(path, "malformed integerValue")
		}
	}
	return decimal.Zero, tagMismatch(path, tagDouble, wrapper)
}

func fieldString(fields map[string]any, key, path string) (string, error) {
	wrapper, err := requireWrapper(fields, key, path)
	if err != nil {
		return "", err
	}
	raw, ok := wrapper[tagString]
	if !ok {
		return "", tagMismatch(path, tagString, wrapper)
	}
	value, ok := raw.(string)
	if !ok {
		return "", decodeErr(path, "malformed stringValue")
	}
	return value, nil
}

func fieldTime(fields map[string]any, key, path string) (time.Time, error) {
	wrapper, err := requireWrapper(fields, key, path)
	if err != nil {
		return time.Time{}, err
	}
	raw, ok := wrapper[tagTimestamp]
	if !ok {
		return time.Time{}, tagMismatch(path, tagTimestamp, wrapper)
	}
	value, ok := raw.(string)
	if !ok {
		return time.Time{}, decodeErr(path, "malformed timestampValue")
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, decodeErr(path, "expected an RFC3339 timestampValue")
	}
	return ts.UTC(), nil
}

func fieldMap(fields map[string]any, key, path string) (map[string]any, error) {
	wrapper, err := requireWrapper(fields, key, path)
	if err != nil {
		return nil, err
	}
	raw, ok := wrapper[tagMap]
	if !ok {
		return nil, tagMismatch(path, tagMap, wrapper)
	}
	inner, ok := raw.(map[string]any)
	if !ok {
		return nil, decodeErr(path, "malformed mapValue")
	}
	nested, ok := inner["fields"].(map[string]any)
	if !ok {
		return nil, decodeErr(path, "mapValue missing fields")
	}
	return nested, nil
}

func optionalFieldString(fields map[string]any, key, path string) (string, error) {
	wrapper, ok := fields[key]
	if !ok {
		return "", nil
	}
	w, err := unwrapValue(wrapper, path)
	if err != nil {
		return "", err
	}
	if _, ok := w[tagNull]; ok {
		return "", nil
	}
	raw, ok := w[tagString]
	if !ok {
		return "", tagMismatch(path, tagString, w)
	}
	value, ok := raw.(string)
	if !ok {
		return "", decodeErr(path, "malformed stringValue")
	}
	return value, nil
}

func optionalFieldBool(fields map[string]any, key, path string) (bool, error) {
	wrapper, ok := fields[key]
	if !ok {
		return false, nil
	}
	w, err := unwrapValue(wrapper, path)
	if err != nil {
		return false, err
	}
	if _, ok := w[tagNull]; ok {
		return false, nil
	}
	raw, ok := w[tagBoolean]
	if !ok {
		return false, tagMismatch(path, tagBoolean, w)
	}
	value, ok := raw.(bool)
	if !ok {
		return false, decodeErr(path, "malformed booleanValue")
	}
	return value, nil
}

func requireWrapper(fields map[string]any, key, path string) (map[string]any, error) {
	raw, ok := fields[key]
	if !ok {
		return nil, missingField(path)
	}
	return unwrapValue(raw, path)
}

func unwrapValue(raw any, path string) (map[string]any, error) {
	wrapper, ok := raw.(map[string]any)
	if !ok {
		return nil, decodeErr(path, "expected a tagged value")
	}
	return wrapper, nil
}

func unwrapMap(raw any, path string) (map[string]any, error) {
	wrapper, err := unwrapValue(raw, path)
	if err != nil {
		return nil, err
	}
	inner, ok := wrapper[tagMap]
	if !ok {
		return nil, tagMismatch(path, tagMap, wrapper)
	}
	mv, ok := inner.(map[string]any)
	if !ok {
		return nil, decodeErr(path, "malformed mapValue")
	}
	nested, ok := mv["fields"].(map[string]any)
	if !ok {
		return nil, decodeErr(path, "mapValue missing fields")
	}
	return nested, nil
}

func unwrapArray(raw any, path string) ([]any, error) {
	wrapper, err := unwrapValue(raw, path)
	if err != nil {
		return nil, err
	}
	inner, ok := wrapper[tagArray]
	if !ok {
		return nil, tagMismatch(path, tagArray, wrapper)
	}
	av, ok := inner.(map[string]any)
	if !ok {
		return nil, decodeErr(path, "malformed arrayValue")
	}
	raw, ok = av["values"]
	if !ok || raw == nil {
		return nil, nil
	}
	values, ok := raw.([]any)
	if !ok {
		return nil, decodeErr(path, "malformed arrayValue")
	}
	return values, nil
}

func tagMismatch(path, want string, wrapper map[string]any) error {
	for _, tag := range knownTags {
		if _, ok := wrapper[tag]; ok {
			return decodeErr(path, fmt.Sprintf("expected %s, found %s", want, tag))
		}
	}
	return decodeErr(path, fmt.Sprintf("expected %s", want))
}
