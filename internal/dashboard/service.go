package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	"github.com/subtrackr/subtrackr-backend/pkg/enums"
	pkgerrors "github.com/subtrackr/subtrackr-backend/pkg/errors"
)

// Service summarizes a tenant's subscription spend and upcoming renewals.
type Service interface {
	Summary(ctx context.Context, tenantID uuid.UUID) (*SummaryResult, error)
}

// SummaryResult is the dashboard payload.
type SummaryResult struct {
	MonthlySpend     decimal.Decimal            `json:"monthly_spend"`
	AnnualizedSpend  decimal.Decimal            `json:"annualized_spend"`
	SpendByCategory  map[string]decimal.Decimal `json:"spend_by_category"`
	CountsByStatus   map[string]int             `json:"counts_by_status"`
	UpcomingRenewals []UpcomingRenewal          `json:"upcoming_renewals"`
}

// UpcomingRenewal is one subscription renewing inside the lookahead window.
type UpcomingRenewal struct {
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	Name           string          `json:"name"`
	Cost           decimal.Decimal `json:"cost"`
	Currency       string          `json:"currency"`
	RenewalDate    string          `json:"renewal_date"`
}

// renewalLookaheadDays bounds the upcoming-renewals list.
const renewalLookaheadDays = 30

type subscriptionLister interface {
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.Subscription, error)
}

type service struct {
	subs subscriptionLister
	now  func() time.Time
}

// ServiceParams wires dashboard dependencies.
type ServiceParams struct {
	Subscriptions subscriptionLister
	Now           func() time.Time
}

// NewService validates dependencies and returns a dashboard service.
func NewService(params ServiceParams) (Service, error) {
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscription lister required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{subs: params.Subscriptions, now: now}, nil
}

var (
	twelve     = decimal.NewFromInt(12)
	three      = decimal.NewFromInt(3)
	weeksPerMo = decimal.NewFromInt(52).Div(decimal.NewFromInt(12))
)

// monthlyCost normalizes a subscription's cost to a monthly figure.
func monthlyCost(sub models.Subscription) decimal.Decimal {
	switch sub.BillingCycle {
	case enums.BillingCycleYearly:
		return sub.Cost.Div(twelve)
	case enums.BillingCycleQuarterly:
		return sub.Cost.Div(three)
	case enums.BillingCycleWeekly:
		return sub.Cost.Mul(weeksPerMo)
	default:
		return sub.Cost
	}
}

func (s *service) Summary(ctx context.Context, tenantID uuid.UUID) (*SummaryResult, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id required")
	}

	subs, err := s.subs.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscriptions")
	}

	result := &SummaryResult{
		MonthlySpend:     decimal.Zero,
		SpendByCategory:  map[string]decimal.Decimal{},
		CountsByStatus:   map[string]int{},
		UpcomingRenewals: []UpcomingRenewal{},
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	horizon := today.AddDate(0, 0, renewalLookaheadDays)

	for _, sub := range subs {
		result.CountsByStatus[sub.Status.String()]++
		if sub.Status != enums.SubscriptionStatusActive {
			continue
		}

		monthly := monthlyCost(sub)
		result.MonthlySpend = result.MonthlySpend.Add(monthly)

		category := sub.Category
		if category == "" {
			category = "uncategorized"
		}
		result.SpendByCategory[category] = result.SpendByCategory[category].Add(monthly)

		if sub.RenewalDate != nil && !sub.RenewalDate.Before(today) && !sub.RenewalDate.After(horizon) {
			result.UpcomingRenewals = append(result.UpcomingRenewals, UpcomingRenewal{
				SubscriptionID: sub.ID,
				Name:           sub.Name,
				Cost:           sub.Cost,
				Currency:       sub.Currency,
				RenewalDate:    sub.RenewalDate.Format("2006-01-02"),
			})
		}
	}

	result.MonthlySpend = result.MonthlySpend.Round(2)
	result.AnnualizedSpend = result.MonthlySpend.Mul(twelve).Round(2)
	for category, spend := range result.SpendByCategory {
		result.SpendByCategory[category] = spend.Round(2)
	}
	return result, nil
}
