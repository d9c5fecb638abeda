package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theescape/bookings-backend/api/controllers"
	"github.com/theescape/bookings-backend/api/middleware"
	"github.com/theescape/bookings-backend/pkg/bigquery"
	"github.com/theescape/bookings-backend/pkg/config"
	"github.com/theescape/bookings-backend/pkg/firestore"
	"github.com/theescape/bookings-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	warehouse bigquery.Pinger,
	docs firestore.Pinger,
	pipeline controllers.BookingPipeline,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, warehouse, docs))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// The original ingest route plus a versioned alias.
	r.Post("/log", controllers.LogBooking(pipeline, logg))
	r.Post("/api/v1/bookings", controllers.LogBooking(pipeline, logg))

	return r
}
