package domain

import (
	"testing"
	"time"
)

func TestScheduleRule_Validate(t *testing.T) {
	cases := []struct {
		name    string
		rule    ScheduleRule
		wantErr bool
	}{
		{"valid", ScheduleRule{Days: []time.Weekday{time.Monday}, Start: "08:00", End: "20:00", Allowed: true}, false},
		{"no days", ScheduleRule{Start: "08:00", End: "20:00"}, true},
		{"bad day", ScheduleRule{Days: []time.Weekday{7}, Start: "08:00", End: "20:00"}, true},
		{"unpadded", ScheduleRule{Days: []time.Weekday{time.Monday}, Start: "8:00", End: "20:00"}, true},
		{"not a time", ScheduleRule{Days: []time.Weekday{time.Monday}, Start: "ab:cd", End: "20:00"}, true},
		{"out of range", ScheduleRule{Days: []time.Weekday{time.Monday}, Start: "24:00", End: "25:00"}, true},
		{"inverted", ScheduleRule{Days: []time.Weekday{time.Monday}, Start: "20:00", End: "08:00"}, true},
		{"equal", ScheduleRule{Days: []time.Weekday{time.Monday}, Start: "08:00", End: "08:00"}, true},
	}

	for _, tc := range cases {
		err := tc.rule.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestScheduleConfig_OverrideActive(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	c := ScheduleConfig{TemporaryOverride: true, OverrideExpiresAt: now.Add(time.Hour)}
	if !c.OverrideActive(now) {
		t.Error("unexpired override should be active")
	}

	c.OverrideExpiresAt = now.Add(-time.Minute)
	if c.OverrideActive(now) {
		t.Error("expired override should be inactive")
	}

	c = ScheduleConfig{OverrideExpiresAt: now.Add(time.Hour)}
	if c.OverrideActive(now) {
		t.Error("override flag off should be inactive even with future expiry")
	}
}

func TestClockTimeOf(t *testing.T) {
	at := time.Date(2025, 3, 10, 7, 5, 59, 0, time.UTC)
	if got := ClockTimeOf(at); got != "07:05" {
		t.Errorf("ClockTimeOf = %q, want 07:05", got)
	}
}
