package enums

import "fmt"

// ReminderPolicy selects how many reminder instances precede a renewal date.
type ReminderPolicy string

const (
	ReminderPolicyOneTime      ReminderPolicy = "One time"
	ReminderPolicyTwoTimes     ReminderPolicy = "Two times"
	ReminderPolicyUntilRenewal ReminderPolicy = "Until Renewal"
)

var validReminderPolicies = []ReminderPolicy{
	ReminderPolicyOneTime,
	ReminderPolicyTwoTimes,
	ReminderPolicyUntilRenewal,
}

// String implements fmt.Stringer.
func (p ReminderPolicy) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p ReminderPolicy) IsValid() bool {
	for _, candidate := range validReminderPolicies {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseReminderPolicy converts raw input into a ReminderPolicy.
func ParseReminderPolicy(value string) (ReminderPolicy, error) {
	for _, candidate := range validReminderPolicies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reminder policy %q", value)
}

// NormalizeReminderPolicy maps unknown or empty input to the one-time policy.
// Unrecognized policies are tolerated rather than rejected so stored records
// with stale values keep producing a sane schedule.
func NormalizeReminderPolicy(value string) ReminderPolicy {
	if policy, err := ParseReminderPolicy(value); err == nil {
		return policy
	}
	return ReminderPolicyOneTime
}
