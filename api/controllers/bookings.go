package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/theescape/bookings-backend/api/responses"
	"github.com/theescape/bookings-backend/internal/booking"
	"github.com/theescape/bookings-backend/internal/decode"
	pkgerrors "github.com/theescape/bookings-backend/pkg/errors"
	"github.com/theescape/bookings-backend/pkg/logger"
)

const sourceHTTP = "http"

// BookingPipeline replicates one decoded booking event.
type BookingPipeline interface {
	Process(ctx context.Context, source string, ord booking.Order) error
}

// LogBooking accepts the raw order JSON body, decodes the plain-document
// variant, and runs the replication pipeline.
func LogBooking(pipeline BookingPipeline, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer func() {
			_, _ = io.Copy(io.Discard, r.Body)
		}()

		var doc map[string]any
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
			return
		}
		if len(doc) == 0 {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "empty request body"))
			return
		}

		ord, err := decode.Document(doc)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := pipeline.Process(ctx, sourceHTTP, ord); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "success"})
	}
}
