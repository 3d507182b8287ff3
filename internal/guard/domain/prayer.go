package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Prayer names one of the five daily prayers (plus sunrise, which is
// computed but never pauses browsing).
type Prayer uint8

const (
	Fajr Prayer = iota
	Sunrise
	Dhuhr
	Asr
	Maghrib
	Isha
)

// String returns the canonical lowercase prayer name.
func (p Prayer) String() string {
	switch p {
	case Fajr:
		return "fajr"
	case Sunrise:
		return "sunrise"
	case Dhuhr:
		return "dhuhr"
	case Asr:
		return "asr"
	case Maghrib:
		return "maghrib"
	case Isha:
		return "isha"
	default:
		return fmt.Sprintf("Prayer(%d)", p)
	}
}

// ParsePrayer converts a string into a Prayer (case-insensitive).
func ParsePrayer(s string) (Prayer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fajr":
		return Fajr, nil
	case "sunrise":
		return Sunrise, nil
	case "dhuhr":
		return Dhuhr, nil
	case "asr":
		return Asr, nil
	case "maghrib":
		return Maghrib, nil
	case "isha":
		return Isha, nil
	default:
		return 0, fmt.Errorf("unsupported Prayer: %q", s)
	}
}

// Location is a geographic position plus its IANA timezone. The timezone
// matters: prayer windows are computed against the day containing "now"
// at the location, not in the device-local zone.
type Location struct {
	Latitude  float64
	Longitude float64
	Timezone  string // IANA name, e.g. "Asia/Riyadh"
}

// IsZero reports whether no location has been configured.
func (l Location) IsZero() bool {
	return l.Latitude == 0 && l.Longitude == 0 && l.Timezone == ""
}

// Validate checks coordinate ranges. A zero Location is valid (it simply
// disables prayer pausing); out-of-range coordinates are not.
func (l Location) Validate() error {
	if l.IsZero() {
		return nil
	}
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) ||
		math.Abs(l.Latitude) > 90 || math.Abs(l.Longitude) > 180 {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidLocation, l.Latitude, l.Longitude)
	}
	return nil
}

// PrayerTimesForDay holds the six computed instants for one calendar day
// at one location. Recomputed once per day per location; cached by the
// calculator.
type PrayerTimesForDay struct {
	Date    time.Time // midnight at the location
	Fajr    time.Time
	Sunrise time.Time
	Dhuhr   time.Time
	Asr     time.Time
	Maghrib time.Time
	Isha    time.Time
}

// PauseCandidates returns the prayers that open pause windows, in
// chronological order. Sunrise is informational only.
func (d PrayerTimesForDay) PauseCandidates() []struct {
	Prayer Prayer
	At     time.Time
} {
	return []struct {
		Prayer Prayer
		At     time.Time
	}{
		{Fajr, d.Fajr},
		{Dhuhr, d.Dhuhr},
		{Asr, d.Asr},
		{Maghrib, d.Maghrib},
		{Isha, d.Isha},
	}
}

// PrayerPauseWindow is the derived pause status for a single instant.
// It must be recomputed at least once per minute to stay truthful.
type PrayerPauseWindow struct {
	Paused           bool
	Prayer           Prayer // valid only when Paused
	MinutesRemaining int    // ceil of the time left in the window
}

// NotPaused returns the inactive pause status.
func NotPaused() PrayerPauseWindow { return PrayerPauseWindow{} }
