package enums

import (
	"fmt"
	"time"
)

// BillingCycle is the cadence a subscription renews on.
type BillingCycle string

const (
	BillingCycleMonthly   BillingCycle = "monthly"
	BillingCycleYearly    BillingCycle = "yearly"
	BillingCycleQuarterly BillingCycle = "quarterly"
	BillingCycleWeekly    BillingCycle = "weekly"
)

var validBillingCycles = []BillingCycle{
	BillingCycleMonthly,
	BillingCycleYearly,
	BillingCycleQuarterly,
	BillingCycleWeekly,
}

// String implements fmt.Stringer.
func (c BillingCycle) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c BillingCycle) IsValid() bool {
	for _, candidate := range validBillingCycles {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBillingCycle converts raw input into a BillingCycle.
func ParseBillingCycle(value string) (BillingCycle, error) {
	for _, candidate := range validBillingCycles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing cycle %q", value)
}

// NormalizeBillingCycle maps unknown or empty input to the monthly cycle.
func NormalizeBillingCycle(value string) BillingCycle {
	if cycle, err := ParseBillingCycle(value); err == nil {
		return cycle
	}
	return BillingCycleMonthly
}

// Advance returns the renewal date one cycle after t. Unknown cycles fall back
// to monthly.
func (c BillingCycle) Advance(t time.Time) time.Time {
	switch c {
	case BillingCycleYearly:
		return t.AddDate(1, 0, 0)
	case BillingCycleQuarterly:
		return t.AddDate(0, 3, 0)
	case BillingCycleWeekly:
		return t.AddDate(0, 0, 7)
	default:
		return t.AddDate(0, 1, 0)
	}
}
