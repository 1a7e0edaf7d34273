package reminders

import (
	"fmt"
	"time"

	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	"github.com/subtrackr/subtrackr-backend/pkg/enums"
)

// DateLayout is the calendar-day format used for reminder dates.
const DateLayout = "2006-01-02"

// defaultLeadDays is applied when a stored record carries a negative lead.
const defaultLeadDays = 7

// ScheduleEntry is one reminder instance derived from a subscription's
// renewal date and policy. Date is a YYYY-MM-DD string.
type ScheduleEntry struct {
	Type string
	Date string
}

// policyStrategy unifies generation and trigger evaluation for one policy so
// the two call sites cannot drift apart.
type policyStrategy interface {
	generate(renewal time.Time, leadDays int) []ScheduleEntry
	selectActive(renewal time.Time, leadDays int, today time.Time) (time.Time, bool)
}

func strategyFor(policy enums.ReminderPolicy) policyStrategy {
	switch enums.NormalizeReminderPolicy(policy.String()) {
	case enums.ReminderPolicyTwoTimes:
		return twoTimesPolicy{}
	case enums.ReminderPolicyUntilRenewal:
		return untilRenewalPolicy{}
	default:
		return oneTimePolicy{}
	}
}

// BuildSchedule derives the full reminder set for a subscription. A nil
// renewal date yields an empty schedule. Unknown policies fall back to the
// one-time strategy.
func BuildSchedule(renewalDate *time.Time, policy enums.ReminderPolicy, leadDays int) []ScheduleEntry {
	if renewalDate == nil {
		return nil
	}
	return strategyFor(policy).generate(dateOnly(*renewalDate), normalizeLead(leadDays))
}

// ActiveTrigger evaluates which single reminder date is currently live for
// notification purposes. The bool is false when the policy yields no trigger
// for today (renewal missing, two-times window fully past, or today outside
// the until-renewal window).
func ActiveTrigger(renewalDate *time.Time, policy enums.ReminderPolicy, leadDays int, today time.Time) (string, bool) {
	if renewalDate == nil {
		return "", false
	}
	trigger, ok := strategyFor(policy).selectActive(dateOnly(*renewalDate), normalizeLead(leadDays), dateOnly(today))
	if !ok {
		return "", false
	}
	return trigger.Format(DateLayout), true
}

// SelectDue resolves today's trigger date against the stored candidate
// reminders. An exact string match on reminder_date wins; when a trigger
// exists but no row matches, the first stored candidate is returned so
// notifications degrade gracefully instead of vanishing on date drift.
// No trigger or no candidates yields nil.
func SelectDue(renewalDate *time.Time, policy enums.ReminderPolicy, leadDays int, today time.Time, candidates []models.Reminder) *models.Reminder {
	trigger, ok := ActiveTrigger(renewalDate, policy, leadDays, today)
	if !ok || len(candidates) == 0 {
		return nil
	}
	for i := range candidates {
		if candidates[i].ReminderDate == trigger {
			return &candidates[i]
		}
	}
	return &candidates[0]
}

type oneTimePolicy struct{}

func (oneTimePolicy) generate(renewal time.Time, leadDays int) []ScheduleEntry {
	return []ScheduleEntry{{
		Type: fmt.Sprintf("Before %d days", leadDays),
		Date: renewal.AddDate(0, 0, -leadDays).Format(DateLayout),
	}}
}

func (oneTimePolicy) selectActive(renewal time.Time, leadDays int, _ time.Time) (time.Time, bool) {
	return renewal.AddDate(0, 0, -leadDays), true
}

type twoTimesPolicy struct{}

func (twoTimesPolicy) generate(renewal time.Time, leadDays int) []ScheduleEntry {
	entries := []ScheduleEntry{{
		Type: fmt.Sprintf("Before %d days", leadDays),
		Date: renewal.AddDate(0, 0, -leadDays).Format(DateLayout),
	}}
	secondDays := leadDays / 2
	// secondDays == 0 or == leadDays would duplicate or zero-offset the
	// first entry, so it is suppressed.
	if secondDays > 0 && secondDays != leadDays {
		entries = append(entries, ScheduleEntry{
			Type: fmt.Sprintf("Before %d days", secondDays),
			Date: renewal.AddDate(0, 0, -secondDays).Format(DateLayout),
		})
	}
	return entries
}

func (twoTimesPolicy) selectActive(renewal time.Time, leadDays int, today time.Time) (time.Time, bool) {
	first := renewal.AddDate(0, 0, -leadDays)
	second := renewal.AddDate(0, 0, -leadDays/2)
	firstFuture := first.After(today)
	secondFuture := second.After(today)
	switch {
	case firstFuture && secondFuture:
		return first, true
	case !firstFuture && secondFuture:
		return second, true
	case firstFuture && !secondFuture:
		return first, true
	default:
		// Both dates are in the past: the reminder window has closed.
		return time.Time{}, false
	}
}

type untilRenewalPolicy struct{}

func (untilRenewalPolicy) generate(renewal time.Time, leadDays int) []ScheduleEntry {
	var entries []ScheduleEntry
	for day := renewal.AddDate(0, 0, -leadDays); !day.After(renewal); day = day.AddDate(0, 0, 1) {
		entries = append(entries, ScheduleEntry{Type: "Daily", Date: day.Format(DateLayout)})
	}
	return entries
}

func (untilRenewalPolicy) selectActive(renewal time.Time, leadDays int, today time.Time) (time.Time, bool) {
	start := renewal.AddDate(0, 0, -leadDays)
	if today.Before(start) || today.After(renewal) {
		return time.Time{}, false
	}
	return today, true
}

func normalizeLead(leadDays int) int {
	if leadDays < 0 {
		return defaultLeadDays
	}
	return leadDays
}

// dateOnly strips the time-of-day component and pins the date to UTC.
func dateOnly(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
