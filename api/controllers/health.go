package controllers

import (
	"net/http"

	"github.com/theescape/bookings-backend/api/responses"
	"github.com/theescape/bookings-backend/pkg/bigquery"
	"github.com/theescape/bookings-backend/pkg/config"
	pkgerrors "github.com/theescape/bookings-backend/pkg/errors"
	"github.com/theescape/bookings-backend/pkg/firestore"
	"github.com/theescape/bookings-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Bookings-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, warehouse bigquery.Pinger, docs firestore.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("X-Bookings-Env", cfg.App.Env)

		checks := map[string]string{}
		if warehouse != nil {
			if err := warehouse.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bigquery not ready"))
				return
			}
			checks["bigquery"] = "ok"
		}
		if docs != nil {
			if err := docs.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "firestore not ready"))
				return
			}
			checks["firestore"] = "ok"
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
