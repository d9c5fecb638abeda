package decode

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theescape/bookings-backend/internal/normalize"
	pkgerrors "github.com/theescape/bookings-backend/pkg/errors"
)

const sampleDocument = `{
	"id": "42",
	"transaction_number": "T-1",
	"total": 19.99,
	"customer": {
		"id": "C1",
		"firstname": "A",
		"lastname": "B",
		"email_address": "a@b.co",
		"phone1": "123"
	},
	"items": [{
		"i_orderitem": 1,
		"i_sku": 9,
		"name": "Ticket",
		"event_name": "Show",
		"quantity": 2,
		"price": 9.99,
		"slot_start": "2024-01-01T10:00:00Z",
		"slot_end": "2024-01-01T11:00:00Z"
	}]
}`

const sampleFields = `{
	"id": {"integerValue": "42"},
	"transaction_number": {"stringValue": "T-1"},
	"total": {"doubleValue": 19.99},
	"customer": {"mapValue": {"fields": {
		"id": {"stringValue": "C1"},
		"firstname": {"stringValue": "A"},
		"lastname": {"stringValue": "B"},
		"email_address": {"stringValue": "a@b.co"},
		"phone1": {"stringValue": "123"}
	}}},
	"items": {"arrayValue": {"values": [{"mapValue": {"fields": {
		"i_orderitem": {"integerValue": "1"},
		"i_sku": {"integerValue": "9"},
		"name": {"stringValue": "Ticket"},
		"event_name": {"stringValue": "Show"},
		"quantity": {"integerValue": "2"},
		"price": {"doubleValue": 9.99},
		"slot_start": {"timestampValue": "2024-01-01T10:00:00Z"},
		"slot_end": {"timestampValue": "2024-01-01T11:00:00Z"}
	}}}]}}
}`

func parseJSON(t *testing.T, raw string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestDocumentDecodesSampleBooking(t *testing.T) {
	ord, err := Document(parseJSON(t, sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, int64(42), ord.ID)
	assert.Equal(t, "T-1", ord.TransactionNumber)
	assert.True(t, ord.Total.Equal(decimal.NewFromFloat(19.99)))

	assert.Equal(t, "C1", ord.Customer.ID)
	assert.Equal(t, "a@b.co", ord.Customer.EmailAddress)
	assert.Empty(t, ord.Customer.Phone2)
	assert.False(t, ord.Customer.NewsletterOptIn)

	require.Len(t, ord.Items, 1)
	item := ord.Items[0]
	assert.Equal(t, int64(1), item.OrderItemID)
	assert.Equal(t, int64(9), item.SKU)
	assert.Equal(t, int64(2), item.Quantity)
	assert.True(t, item.Price.Equal(decimal.NewFromFloat(9.99)))
	assert.True(t, item.SlotStart.Before(item.SlotEnd))
}

func TestDecoderVariantEquivalence(t *testing.T) {
	fromDocument, err := Document(parseJSON(t, sampleDocument))
	require.NoError(t, err)

	fromFields, err := Fields(parseJSON(t, sampleFields))
	require.NoError(t, err)

	require.Equal(t, fromDocument, fromFields)
}

func TestDocumentNumericOrderID(t *testing.T) {
	doc := parseJSON(t, sampleDocument)
	doc["id"] = float64(42)

	ord, err := Document(doc)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ord.ID)
}

func TestDocumentMissingRequiredField(t *testing.T) {
	cases := []string{"id", "transaction_number", "total", "customer"}
	for _, missing := range cases {
		t.Run(missing, func(t *testing.T) {
			doc := parseJSON(t, sampleDocument)
			delete(doc, missing)

			_, err := Document(doc)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeDecode, typed.Code())
		})
	}
}

func TestDocumentMissingCustomerField(t *testing.T) {
	doc := parseJSON(t, sampleDocument)
	customer := doc["customer"].(map[string]any)
	delete(customer, "email_address")

	_, err := Document(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customer.email_address")
}

func TestDocumentOptionalCustomerFields(t *testing.T) {
	doc := parseJSON(t, sampleDocument)
	customer := doc["customer"].(map[string]any)
	customer["phone2"] = "456"
	customer["newsletter_opt_in"] = true
	customer["companyname"] = "ignored"
	customer["gender"] = "ignored"

	ord, err := Document(doc)
	require.NoError(t, err)
	assert.Equal(t, "456", ord.Customer.Phone2)
	assert.True(t, ord.Customer.NewsletterOptIn)
}

func TestDocumentWithoutItems(t *testing.T) {
	doc := parseJSON(t, sampleDocument)
	delete(doc, "items")

	ord, err := Document(doc)
	require.NoError(t, err)
	assert.Empty(t, ord.Items)
}

func TestDocumentRejectsNonNumericID(t *testing.T) {
	doc := parseJSON(t, sampleDocument)
	doc["id"] = "not-a-number"

	_, err := Document(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"id"`)
}

func TestDocumentRejectsBadTimestamp(t *testing.T) {
	doc := parseJSON(t, sampleDocument)
	items := doc["items"].([]any)
	item := items[0].(map[string]any)
	item["slot_start"] = "yesterday"

	_, err := Document(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot_start")
}

func TestFieldsTagMismatch(t *testing.T) {
	fields := parseJSON(t, sampleFields)
	fields["transaction_number"] = map[string]any{"integerValue": "7"}

	_, err := Fields(fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected stringValue, found integerValue")
}

func TestFieldsIntegerTaggedTotal(t *testing.T) {
	fields := parseJSON(t, sampleFields)
	fields["total"] = map[string]any{"integerValue": "20"}

	ord, err := Fields(fields)
	require.NoError(t, err)
	assert.True(t, ord.Total.Equal(decimal.NewFromInt(20)))
}

func TestFieldsMissingRequiredField(t *testing.T) {
	fields := parseJSON(t, sampleFields)
	delete(fields, "transaction_number")

	_, err := Fields(fields)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDecode, typed.Code())
}

func TestFieldsOptionalCustomerFields(t *testing.T) {
	fields := parseJSON(t, sampleFields)
	customer := fields["customer"].(map[string]any)["mapValue"].(map[string]any)["fields"].(map[string]any)
	customer["phone2"] = map[string]any{"stringValue": "456"}
	customer["newsletter_opt_in"] = map[string]any{"booleanValue": true}

	ord, err := Fields(fields)
	require.NoError(t, err)
	assert.Equal(t, "456", ord.Customer.Phone2)
	assert.True(t, ord.Customer.NewsletterOptIn)
}

func TestFieldsNullOptionalFieldsDefault(t *testing.T) {
	fields := parseJSON(t, sampleFields)
	customer := fields["customer"].(map[string]any)["mapValue"].(map[string]any)["fields"].(map[string]any)
	customer["phone2"] = map[string]any{"nullValue": nil}
	customer["newsletter_opt_in"] = map[string]any{"nullValue": nil}

	ord, err := Fields(fields)
	require.NoError(t, err)
	assert.Empty(t, ord.Customer.Phone2)
	assert.False(t, ord.Customer.NewsletterOptIn)
}

func TestFieldsEmptyItemsArray(t *testing.T) {
	fields := parseJSON(t, sampleFields)
	fields["items"] = map[string]any{"arrayValue": map[string]any{}}

	ord, err := Fields(fields)
	require.NoError(t, err)
	assert.Empty(t, ord.Items)
}

func TestSampleBookingEndToEnd(t *testing.T) {
	ord, err := Document(parseJSON(t, sampleDocument))
	require.NoError(t, err)
	require.NoError(t, ord.Validate())

	rows := normalize.Flatten(ord)

	require.Len(t, rows.Orders, 1)
	assert.Equal(t, int64(42), rows.Orders[0].ID)
	assert.Equal(t, 19.99, rows.Orders[0].Total)

	require.Len(t, rows.Items, 1)
	assert.Equal(t, int64(42), rows.Items[0].OrderID)
	assert.Equal(t, 9.99, rows.Items[0].Price)

	require.Len(t, rows.Customers, 1)
	assert.Equal(t, "C1", rows.Customers[0].ID)
	assert.Nil(t, rows.Customers[0].Phone2)

	require.Len(t, rows.Links, 1)
	assert.Equal(t, int64(42), rows.Links[0].OrderID)
	assert.Equal(t, "C1", rows.Links[0].CustomerID)
}

func TestFieldsCustomerTagMismatch(t *testing.T) {
	fields := parseJSON(t, sampleFields)
	fields["customer"] = map[string]any{"stringValue": "C1"}

	_, err := Fields(fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected mapValue, found stringValue")
}
