package domain

// Settings is one immutable snapshot of the engine's feature flags.
// It is replaced wholesale on refresh, never mutated in place.
type Settings struct {
	ScheduleEnabled       bool `json:"schedule_enabled"`         // enforce the browsing schedule
	StrictMode            bool `json:"strict_mode"`              // whitelist-only browsing
	AutoPauseDuringPrayer bool `json:"auto_pause_during_prayer"` // suspend browsing inside prayer windows
	PauseDurationMinutes  int  `json:"pause_duration_minutes"`   // length of each prayer pause window
}

// DefaultSettings returns the bootstrap settings used before the first
// successful refresh: nothing enabled, nothing blocked. This fail-open
// posture is intentional and applies only to that bootstrap scenario.
func DefaultSettings() Settings {
	return Settings{PauseDurationMinutes: 15}
}
