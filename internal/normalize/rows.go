package normalize

import "time"

// Destination row shapes, one struct per table. Field tags follow the
// column names in the schema registry.

type OrderRow struct {
	ID                int64   `bigquery:"id"`
	TransactionNumber string  `bigquery:"transaction_number"`
	Total             float64 `bigquery:"total"`
}

type ItemRow struct {
	OrderItemID int64     `bigquery:"i_orderitem"`
	SKU         int64     `bigquery:"i_sku"`
	Name        string    `bigquery:"name"`
	EventName   string    `bigquery:"event_name"`
	Quantity    int64     `bigquery:"quantity"`
	Price       float64   `bigquery:"price"`
	SlotStart   time.Time `bigquery:"slot_start"`
	SlotEnd     time.Time `bigquery:"slot_end"`
	OrderID     int64     `bigquery:"order_id"`
}

type CustomerRow struct {
	ID              string  `bigquery:"id"`
	Firstname       string  `bigquery:"firstname"`
	Lastname        string  `bigquery:"lastname"`
	EmailAddress    string  `bigquery:"email_address"`
	Phone1          string  `bigquery:"phone1"`
	Phone2          *string `bigquery:"phone2"`
	NewsletterOptIn bool    `bigquery:"newsletter_opt_in"`
}

type LinkRow struct {
	OrderID    int64  `bigquery:"order_id"`
	CustomerID string `bigquery:"customer_id"`
}

// RowSet holds the four independent row batches produced from one event.
// The batches share no transaction; each is applied on its own.
type RowSet struct {
	Orders    []OrderRow
	Items     []ItemRow
	Customers []CustomerRow
	Links     []LinkRow
}
