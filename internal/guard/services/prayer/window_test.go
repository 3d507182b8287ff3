package prayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanahapps/guardian/internal/guard/domain"
)

// fixedTimes builds a synthetic day with dhuhr at 12:30 so the window
// arithmetic can be tested without astronomy.
func fixedTimes() domain.PrayerTimesForDay {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	at := func(hh, mm int) time.Time { return day.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute) }
	return domain.PrayerTimesForDay{
		Date:    day,
		Fajr:    at(5, 10),
		Sunrise: at(6, 25),
		Dhuhr:   at(12, 30),
		Asr:     at(15, 45),
		Maghrib: at(18, 20),
		Isha:    at(19, 40),
	}
}

func TestInPauseWindow_Boundaries(t *testing.T) {
	times := fixedTimes()
	day := times.Date

	cases := []struct {
		name      string
		now       time.Time
		paused    bool
		prayer    domain.Prayer
		remaining int
	}{
		{"before window", day.Add(12*time.Hour + 29*time.Minute), false, 0, 0},
		{"at prayer time", day.Add(12*time.Hour + 30*time.Minute), true, domain.Dhuhr, 15},
		{"mid window", day.Add(12*time.Hour + 37*time.Minute), true, domain.Dhuhr, 8},
		{"one minute left", day.Add(12*time.Hour + 44*time.Minute), true, domain.Dhuhr, 1},
		{"seconds left", day.Add(12*time.Hour + 44*time.Minute + 30*time.Second), true, domain.Dhuhr, 1},
		{"window end is exclusive", day.Add(12*time.Hour + 45*time.Minute), false, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := InPauseWindow(tc.now, times, 15)
			assert.Equal(t, tc.paused, got.Paused)
			if tc.paused {
				assert.Equal(t, tc.prayer, got.Prayer)
				assert.Equal(t, tc.remaining, got.MinutesRemaining)
			}
		})
	}
}

func TestInPauseWindow_SunriseNeverPauses(t *testing.T) {
	times := fixedTimes()
	got := InPauseWindow(times.Sunrise.Add(time.Minute), times, 15)
	assert.False(t, got.Paused)
}

func TestInPauseWindow_EachPrayerOpensAWindow(t *testing.T) {
	times := fixedTimes()
	want := map[domain.Prayer]time.Time{
		domain.Fajr:    times.Fajr,
		domain.Dhuhr:   times.Dhuhr,
		domain.Asr:     times.Asr,
		domain.Maghrib: times.Maghrib,
		domain.Isha:    times.Isha,
	}
	for prayer, at := range want {
		got := InPauseWindow(at.Add(time.Minute), times, 10)
		require.True(t, got.Paused, "%v window missing", prayer)
		assert.Equal(t, prayer, got.Prayer)
	}
}

func TestInPauseWindow_OverlapEarliestWins(t *testing.T) {
	times := fixedTimes()
	// a misconfigured 4-hour pause makes dhuhr's window swallow asr's start
	got := InPauseWindow(times.Asr.Add(time.Minute), times, 240)
	assert.True(t, got.Paused)
	assert.Equal(t, domain.Dhuhr, got.Prayer, "earliest matching window must win")
}

func TestInPauseWindow_NonPositiveDuration(t *testing.T) {
	times := fixedTimes()
	assert.False(t, InPauseWindow(times.Dhuhr, times, 0).Paused)
	assert.False(t, InPauseWindow(times.Dhuhr, times, -5).Paused)
}

func TestPauseStatus_NoLocationMeansNoPause(t *testing.T) {
	c := NewCalculator(StaticLocation{}, MWL, Standard)
	got := c.PauseStatus(time.Now(), 15)
	assert.False(t, got.Paused, "missing location must never fail closed")
}

func TestPauseStatus_InvalidLocationTolerated(t *testing.T) {
	c := NewCalculator(StaticLocation{Loc: domain.Location{Latitude: 99, Longitude: 0, Timezone: "UTC"}}, MWL, Standard)
	assert.False(t, c.PauseStatus(time.Now(), 15).Paused)
}

func TestPauseStatus_UsesComputedWindows(t *testing.T) {
	c := NewCalculator(StaticLocation{Loc: mecca}, MWL, Standard)

	times, err := c.TimesFor(meccaDay(), mecca)
	require.NoError(t, err)

	inWindow := c.PauseStatus(times.Dhuhr.Add(2*time.Minute), 15)
	assert.True(t, inWindow.Paused)
	assert.Equal(t, domain.Dhuhr, inWindow.Prayer)

	before := c.PauseStatus(times.Dhuhr.Add(-2*time.Minute), 15)
	assert.False(t, before.Paused)
}

func TestTimesFor_CachesPerDay(t *testing.T) {
	c := NewCalculator(StaticLocation{Loc: mecca}, MWL, Standard)

	a, err := c.TimesFor(meccaDay(), mecca)
	require.NoError(t, err)
	b, err := c.TimesFor(meccaDay().Add(3*time.Hour), mecca)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same local day must hit the cache")

	next, err := c.TimesFor(meccaDay().AddDate(0, 0, 1), mecca)
	require.NoError(t, err)
	assert.NotEqual(t, a.Dhuhr, next.Dhuhr, "next day must be recomputed")
}
