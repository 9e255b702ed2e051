package controllers

import (
	"net/http"

	"github.com/angelmondragon/bazary-backend/api/responses"
	"github.com/angelmondragon/bazary-backend/api/validators"
	"github.com/angelmondragon/bazary-backend/internal/catalog"
	"github.com/angelmondragon/bazary-backend/internal/orders"
	"github.com/angelmondragon/bazary-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
)

// OrdersList returns the orders captured by the intake bot, newest first.
func OrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status enums.OrderStatus
		if raw := validators.QueryString(r, "status"); raw != "" {
			parsed, err := enums.ParseOrderStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = parsed
		}
		responses.WriteSuccess(w, svc.List(r.Context(), status))
	}
}

// DashboardStats backs the dashboard tiles.
func DashboardStats(svc catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Stats(r.Context()))
	}
}
