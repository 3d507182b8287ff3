package domain

import (
	"slices"
	"time"
)

// RuleSnapshot is the complete, structurally whole set of inputs one
// decision needs. It is produced by the rule cache, replaced atomically on
// refresh, and never mutated afterwards: readers share the backing arrays
// by convention.
//
// The zero value is a valid snapshot (generation 0, defaults, everything
// empty) so the decision engine never needs nil checks beyond "is this
// list empty".
type RuleSnapshot struct {
	Generation uint64    // monotonically increasing per successful refresh
	FetchedAt  time.Time // when the refresh completed; zero before the first

	Settings  Settings
	Schedule  ScheduleConfig
	Rules     BlockRules
	Whitelist Whitelist
}

// Bootstrap returns the snapshot in effect before any successful refresh.
// Its net effect is that nothing is blocked, which is the documented
// fail-open posture for first launch.
func Bootstrap() RuleSnapshot {
	return RuleSnapshot{Settings: DefaultSettings()}
}

// SameRules reports whether two snapshots carry identical rule content,
// ignoring Generation and FetchedAt. A refresh that fetched unchanged data
// keeps its generation, so downstream per-generation caches survive it.
func (s RuleSnapshot) SameRules(o RuleSnapshot) bool {
	return s.Settings == o.Settings &&
		s.Schedule.Equal(o.Schedule) &&
		slices.Equal(s.Rules.Domains, o.Rules.Domains) &&
		slices.Equal(s.Rules.Keywords, o.Rules.Keywords) &&
		slices.Equal(s.Whitelist.Domains, o.Whitelist.Domains)
}

// Age returns how stale the snapshot is at the given instant. A zero
// FetchedAt (bootstrap) reports a zero age.
func (s RuleSnapshot) Age(now time.Time) time.Duration {
	if s.FetchedAt.IsZero() {
		return 0
	}
	return now.Sub(s.FetchedAt)
}
