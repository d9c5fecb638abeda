// Package schema is the static registry mapping logical table names to
// destination column definitions. The provisioner creates tables from it;
// the row structs in internal/normalize follow its column names.
package schema

import (
	"cloud.google.com/go/bigquery"
	"github.com/theescape/bookings-backend/pkg/config"
)

// Table pairs a destination table name with its column definitions.
type Table struct {
	Name   string
	Schema bigquery.Schema
}

// Orders returns the orders table column set.
func Orders() bigquery.Schema {
	return bigquery.Schema{
		{Name: "id", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "transaction_number", Type: bigquery.StringFieldType, Required: true},
		{Name: "total", Type: bigquery.FloatFieldType},
	}
}

// Items returns the order_items table column set.
func Items() bigquery.Schema {
	return bigquery.Schema{
		{Name: "i_orderitem", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "i_sku", Type: bigquery.IntegerFieldType},
		{Name: "name", Type: bigquery.StringFieldType},
		{Name: "event_name", Type: bigquery.StringFieldType},
		{Name: "quantity", Type: bigquery.IntegerFieldType},
		{Name: "price", Type: bigquery.FloatFieldType},
		{Name: "slot_start", Type: bigquery.TimestampFieldType},
		{Name: "slot_end", Type: bigquery.TimestampFieldType},
		{Name: "order_id", Type: bigquery.IntegerFieldType, Required: true},
	}
}

// Customers returns the customers table column set.
func Customers() bigquery.Schema {
	return bigquery.Schema{
		{Name: "id", Type: bigquery.StringFieldType, Required: true},
		{Name: "firstname", Type: bigquery.StringFieldType},
		{Name: "lastname", Type: bigquery.StringFieldType},
		{Name: "email_address", Type: bigquery.StringFieldType},
		{Name: "phone1", Type: bigquery.StringFieldType},
		{Name: "phone2", Type: bigquery.StringFieldType},
		{Name: "newsletter_opt_in", Type: bigquery.BooleanFieldType},
	}
}

// OrderUser returns the order to customer association table column set.
func OrderUser() bigquery.Schema {
	return bigquery.Schema{
		{Name: "order_id", Type: bigquery.IntegerFieldType, Required: true},
		{Name: "customer_id", Type: bigquery.StringFieldType, Required: true},
	}
}

// Tables returns every destination table under its configured name, in the
// order the writer touches them.
func Tables(cfg config.BigQueryConfig) []Table {
	return []Table{
		{Name: cfg.OrdersTable, Schema: Orders()},
		{Name: cfg.ItemsTable, Schema: Items()},
		{Name: cfg.CustomersTable, Schema: Customers()},
		{Name: cfg.OrderUserTable, Schema: OrderUser()},
	}
}
