// Package schedule decides whether "now" falls inside an allowed browsing
// window. The evaluator is a pure function of (now, config): no clock
// access, no allocation, no timezone arithmetic. Times compare as
// zero-padded "HH:MM" strings, which order correctly lexicographically.
package schedule

import (
	"time"

	"github.com/amanahapps/guardian/internal/guard/domain"
)

// IsAllowed reports whether browsing is permitted at now under cfg.
//
// The empty-vs-no-match asymmetry is deliberate and load-bearing:
// zero configured rules means the schedule feature was never set up, so
// browsing is unrestricted; one or more rules means the parent has drawn
// windows, and any moment outside every window is denied. "Tuesday has no
// rule" with rules present is an intentionally closed day, not an open one.
func IsAllowed(now time.Time, cfg domain.ScheduleConfig) bool {
	if !cfg.Enabled {
		return true
	}
	if cfg.OverrideActive(now) {
		return true
	}
	if len(cfg.Rules) == 0 {
		return true
	}

	day := now.Weekday()
	at := domain.ClockTimeOf(now)
	for _, r := range cfg.Rules {
		// bounds are inclusive on both ends
		if r.Allowed && r.AppliesTo(day) && r.Start <= at && at <= r.End {
			return true
		}
	}
	return false
}
