package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/subtrackr/subtrackr-backend/api/responses"
	"github.com/subtrackr/subtrackr-backend/api/validators"
	"github.com/subtrackr/subtrackr-backend/internal/subscriptions"
	pkgerrors "github.com/subtrackr/subtrackr-backend/pkg/errors"
	"github.com/subtrackr/subtrackr-backend/pkg/logger"
)

const renewalDateLayout = "2006-01-02"

type subscriptionRequest struct {
	Name           string          `json:"name" validate:"required,min=1,max=160"`
	Vendor         string          `json:"vendor" validate:"max=160"`
	Category       string          `json:"category" validate:"max=80"`
	Cost           decimal.Decimal `json:"cost"`
	Currency       string          `json:"currency" validate:"omitempty,len=3"`
	BillingCycle   string          `json:"billing_cycle" validate:"max=20"`
	RenewalDate    *string         `json:"renewal_date"`
	ReminderPolicy string          `json:"reminder_policy" validate:"max=30"`
	ReminderDays   *int            `json:"reminder_days" validate:"omitempty,min=0,max=365"`
	Status         string          `json:"status" validate:"max=20"`
	Notes          string          `json:"notes" validate:"max=2000"`
}

func (req subscriptionRequest) renewalDate() (*time.Time, error) {
	if req.RenewalDate == nil {
		return nil, nil
	}
	raw := strings.TrimSpace(*req.RenewalDate)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(renewalDateLayout, raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "renewal_date must be formatted YYYY-MM-DD")
	}
	return &parsed, nil
}

// SubscriptionCreate persists a subscription and its reminder schedule.
func SubscriptionCreate(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body subscriptionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		renewal, err := body.renewalDate()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Create(r.Context(), subscriptions.CreateInput{
			TenantID:       tenantID,
			Name:           validators.SanitizeString(body.Name, 160),
			Vendor:         validators.SanitizeString(body.Vendor, 160),
			Category:       validators.SanitizeString(body.Category, 80),
			Cost:           body.Cost,
			Currency:       body.Currency,
			BillingCycle:   body.BillingCycle,
			RenewalDate:    renewal,
			ReminderPolicy: body.ReminderPolicy,
			ReminderDays:   body.ReminderDays,
			Notes:          validators.SanitizeString(body.Notes, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

// SubscriptionUpdate applies a full update and regenerates the reminder schedule.
func SubscriptionUpdate(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subscriptionID, err := uuid.Parse(chi.URLParam(r, "subscriptionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subscription id"))
			return
		}

		var body subscriptionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		renewal, err := body.renewalDate()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Update(r.Context(), subscriptions.UpdateInput{
			TenantID:       tenantID,
			SubscriptionID: subscriptionID,
			Name:           validators.SanitizeString(body.Name, 160),
			Vendor:         validators.SanitizeString(body.Vendor, 160),
			Category:       validators.SanitizeString(body.Category, 80),
			Cost:           body.Cost,
			Currency:       body.Currency,
			BillingCycle:   body.BillingCycle,
			RenewalDate:    renewal,
			ReminderPolicy: body.ReminderPolicy,
			ReminderDays:   body.ReminderDays,
			Status:         body.Status,
			Notes:          validators.SanitizeString(body.Notes, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sub)
	}
}

// SubscriptionDetail returns one tenant-scoped subscription.
func SubscriptionDetail(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subscriptionID, err := uuid.Parse(chi.URLParam(r, "subscriptionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subscription id"))
			return
		}

		sub, err := svc.Get(r.Context(), tenantID, subscriptionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sub)
	}
}

// SubscriptionList returns a cursor-paginated subscription page.
func SubscriptionList(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), subscriptions.ListParams{
			TenantID: tenantID,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
			Status:   strings.TrimSpace(r.URL.Query().Get("status")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// SubscriptionDelete cancels the subscription and drops its pending reminders.
func SubscriptionDelete(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		tenantID, err := tenantFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subscriptionID, err := uuid.Parse(chi.URLParam(r, "subscriptionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subscription id"))
			return
		}

		if err := svc.Delete(r.Context(), tenantID, subscriptionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}
