package controllers

import (
	"net/http"

	"github.com/subtrackr/subtrackr-backend/api/responses"
	"github.com/subtrackr/subtrackr-backend/internal/dashboard"
	pkgerrors "github.com/subtrackr/subtrackr-backend/pkg/errors"
	"github.com/subtrackr/subtrackr-backend/pkg/logger"
)

// DashboardSummary aggregates spend, status counts and upcoming renewals.
func DashboardSummary(svc dashboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dashboard service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), tenantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}
