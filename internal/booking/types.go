package booking

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	pkgerrors "github.com/theescape/bookings-backend/pkg/errors"
)

// Order is the canonical decoded booking event. Both wire variants decode
// into this shape so everything downstream is variant-agnostic.
type Order struct {
	ID                int64           `json:"id" validate:"required"`
	TransactionNumber string          `json:"transaction_number" validate:"required"`
	Total             decimal.Decimal `json:"total"`
	Customer          Customer        `json:"customer"`
	Items             []Item          `json:"items" validate:"dive"`
}

// Customer identity is the external id; repeated orders converge onto one row.
type Customer struct {
	ID              string `json:"id" validate:"required"`
	Firstname       string `json:"firstname" validate:"required"`
	Lastname        string `json:"lastname" validate:"required"`
	EmailAddress    string `json:"email_address" validate:"required,email"`
	Phone1          string `json:"phone1" validate:"required"`
	Phone2          string `json:"phone2"`
	NewsletterOptIn bool   `json:"newsletter_opt_in"`
}

type Item struct {
	OrderItemID int64           `json:"i_orderitem" validate:"required"`
	SKU         int64           `json:"i_sku"`
	Name        string          `json:"name" validate:"required"`
	EventName   string          `json:"event_name" validate:"required"`
	Quantity    int64           `json:"quantity" validate:"gte=0"`
	Price       decimal.Decimal `json:"price"`
	SlotStart   time.Time       `json:"slot_start"`
	SlotEnd     time.Time       `json:"slot_end"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Validate checks the decoded order against the field constraints plus the
// slot ordering invariant on each item.
func (o Order) Validate() error {
	if err := validate.Struct(o); err != nil {
		return formatValidationErrors(err)
	}
	for _, item := range o.Items {
		if !item.SlotStart.IsZero() && !item.SlotEnd.IsZero() && item.SlotEnd.Before(item.SlotStart) {
			return pkgerrors.New(pkgerrors.CodeValidation, "item slot_end precedes slot_start").
				WithDetails(map[string]any{"i_orderitem": item.OrderItemID})
		}
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}
