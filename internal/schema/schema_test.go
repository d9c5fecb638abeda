package schema

import (
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/theescape/bookings-backend/pkg/config"
)

func fieldTypes(s bigquery.Schema) map[string]bigquery.FieldType {
	out := make(map[string]bigquery.FieldType, len(s))
	for _, f := range s {
		out[f.Name] = f.Type
	}
	return out
}

func TestTablesFollowWriterOrder(t *testing.T) {
	cfg := config.BigQueryConfig{
		OrdersTable:    "orders",
		ItemsTable:     "order_items",
		CustomersTable: "customers",
		OrderUserTable: "order_user",
	}

	tables := Tables(cfg)
	want := []string{"orders", "order_items", "customers", "order_user"}
	if len(tables) != len(want) {
		t.Fatalf("expected %d tables, got %d", len(want), len(tables))
	}
	for i, name := range want {
		if tables[i].Name != name {
			t.Fatalf("table %d: expected %s, got %s", i, name, tables[i].Name)
		}
		if len(tables[i].Schema) == 0 {
			t.Fatalf("table %s has no columns", name)
		}
	}
}

func TestOrdersColumns(t *testing.T) {
	types := fieldTypes(Orders())
	if types["id"] != bigquery.IntegerFieldType {
		t.Fatalf("order id must be an integer column, got %s", types["id"])
	}
	if types["transaction_number"] != bigquery.StringFieldType {
		t.Fatalf("unexpected transaction_number type %s", types["transaction_number"])
	}
	if types["total"] != bigquery.FloatFieldType {
		t.Fatalf("unexpected total type %s", types["total"])
	}
}

func TestItemsCarryOrderID(t *testing.T) {
	schema := Items()
	types := fieldTypes(schema)
	if types["order_id"] != bigquery.IntegerFieldType {
		t.Fatal("item rows must carry the parent order id")
	}
	for _, f := range schema {
		if f.Name == "order_id" && !f.Required {
			t.Fatal("order_id must be required")
		}
	}
	if types["slot_start"] != bigquery.TimestampFieldType || types["slot_end"] != bigquery.TimestampFieldType {
		t.Fatal("slot bounds must be timestamp columns")
	}
}

func TestCustomerIDIsString(t *testing.T) {
	types := fieldTypes(Customers())
	if types["id"] != bigquery.StringFieldType {
		t.Fatalf("customer id must be a string column, got %s", types["id"])
	}
	if types["newsletter_opt_in"] != bigquery.BooleanFieldType {
		t.Fatalf("unexpected newsletter_opt_in type %s", types["newsletter_opt_in"])
	}
}

func TestOrderUserAssociation(t *testing.T) {
	schema := OrderUser()
	if len(schema) != 2 {
		t.Fatalf("association table must have exactly 2 columns, got %d", len(schema))
	}
	for _, f := range schema {
		if !f.Required {
			t.Fatalf("association column %s must be required", f.Name)
		}
	}
}
