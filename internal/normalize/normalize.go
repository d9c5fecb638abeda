// Package normalize flattens a decoded booking into independent row batches
// for the four destination tables, stamping the derived order id onto each
// item and the association row.
package normalize

import (
	"strings"

	"github.com/theescape/bookings-backend/internal/booking"
)

// Flatten produces the four row batches for one booking. A booking with zero
// items yields one order row, zero item rows, and one association row.
func Flatten(ord booking.Order) RowSet {
	rows := RowSet{
		Orders: []OrderRow{{
			ID:                ord.ID,
			TransactionNumber: ord.TransactionNumber,
			Total:             ord.Total.InexactFloat64(),
		}},
		Customers: []CustomerRow{flattenCustomer(ord.Customer)},
		Links: []LinkRow{{
			OrderID:    ord.ID,
			CustomerID: ord.Customer.ID,
		}},
	}

	if len(ord.Items) > 0 {
		rows.Items = make([]ItemRow, 0, len(ord.Items))
		for _, item := range ord.Items {
			rows.Items = append(rows.Items, ItemRow{
				OrderItemID: item.OrderItemID,
				SKU:         item.SKU,
				Name:        item.Name,
				EventName:   item.EventName,
				Quantity:    item.Quantity,
				Price:       item.Price.InexactFloat64(),
				SlotStart:   item.SlotStart,
				SlotEnd:     item.SlotEnd,
				OrderID:     ord.ID,
			})
		}
	}

	return rows
}

func flattenCustomer(cust booking.Customer) CustomerRow {
	row := CustomerRow{
		ID:              cust.ID,
		Firstname:       cust.Firstname,
		Lastname:        cust.Lastname,
		EmailAddress:    cust.EmailAddress,
		Phone1:          cust.Phone1,
		NewsletterOptIn: cust.NewsletterOptIn,
	}
	if trimmed := strings.TrimSpace(cust.Phone2); trimmed != "" {
		row.Phone2 = &trimmed
	}
	return row
}
