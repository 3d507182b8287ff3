package domain

import (
	"fmt"
	"slices"
	"time"
)

// ScheduleRule describes one allowed (or explicitly disallowed) browsing
// window on a set of weekdays.
//
// Start and End are zero-padded "HH:MM" strings. The format is chosen so
// that plain lexicographic comparison orders times correctly, which keeps
// evaluation allocation-free and independent of timezone arithmetic.
type ScheduleRule struct {
	Days    []time.Weekday `json:"days"`    // 0=Sunday .. 6=Saturday
	Start   string         `json:"start"`   // inclusive, "HH:MM"
	End     string         `json:"end"`     // inclusive, "HH:MM"
	Allowed bool           `json:"allowed"` // rule grants access when matched
}

// Validate checks the rule for well-formed times and a non-empty day set.
func (r ScheduleRule) Validate() error {
	if len(r.Days) == 0 {
		return fmt.Errorf("schedule rule must name at least one day")
	}
	for _, d := range r.Days {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("invalid weekday: %d", d)
		}
	}
	if err := validateClockTime(r.Start); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := validateClockTime(r.End); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	if r.Start >= r.End {
		return fmt.Errorf("start %q must precede end %q", r.Start, r.End)
	}
	return nil
}

// Equal reports field-by-field equality.
func (r ScheduleRule) Equal(o ScheduleRule) bool {
	return r.Start == o.Start && r.End == o.End && r.Allowed == o.Allowed &&
		slices.Equal(r.Days, o.Days)
}

// AppliesTo reports whether the rule covers the given weekday.
func (r ScheduleRule) AppliesTo(day time.Weekday) bool {
	for _, d := range r.Days {
		if d == day {
			return true
		}
	}
	return false
}

// validateClockTime checks a zero-padded 24h "HH:MM" string.
func validateClockTime(s string) error {
	if len(s) != 5 || s[2] != ':' {
		return fmt.Errorf("clock time %q must be zero-padded HH:MM", s)
	}
	hh := int(s[0]-'0')*10 + int(s[1]-'0')
	mm := int(s[3]-'0')*10 + int(s[4]-'0')
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("clock time %q must be zero-padded HH:MM", s)
		}
	}
	if hh > 23 || mm > 59 {
		return fmt.Errorf("clock time %q out of range", s)
	}
	return nil
}

// ScheduleConfig is the full schedule rule source.
//
// TemporaryOverride is a parent-granted bypass: while unexpired it lifts all
// schedule restrictions without editing the rules themselves.
type ScheduleConfig struct {
	Enabled           bool           `json:"enabled"`
	Rules             []ScheduleRule `json:"rules"`
	TemporaryOverride bool           `json:"temporary_override"`
	OverrideExpiresAt time.Time      `json:"override_expires_at"` // zero when no override was ever granted
}

// OverrideActive reports whether an unexpired temporary override is in effect.
func (c ScheduleConfig) OverrideActive(now time.Time) bool {
	return c.TemporaryOverride && c.OverrideExpiresAt.After(now)
}

// Equal reports content equality; the override expiry is compared by
// instant, not by wall-clock representation.
func (c ScheduleConfig) Equal(o ScheduleConfig) bool {
	if c.Enabled != o.Enabled || c.TemporaryOverride != o.TemporaryOverride ||
		!c.OverrideExpiresAt.Equal(o.OverrideExpiresAt) {
		return false
	}
	return slices.EqualFunc(c.Rules, o.Rules, ScheduleRule.Equal)
}

// Validate checks every rule in the config.
func (c ScheduleConfig) Validate() error {
	for i, r := range c.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// ClockTimeOf formats t as the zero-padded "HH:MM" string the schedule
// rules compare against.
func ClockTimeOf(t time.Time) string {
	return t.Format("15:04")
}
