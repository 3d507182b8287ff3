package prayer

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/amanahapps/guardian/internal/guard/domain"
)

// LocationProvider supplies the last-known child location. Implementations
// must be non-blocking; the calculator is invoked on the decision path.
type LocationProvider interface {
	Location() domain.Location
}

// StaticLocation is a LocationProvider pinned to one configured location.
type StaticLocation struct {
	Loc domain.Location
}

func (s StaticLocation) Location() domain.Location { return s.Loc }

// Calculator computes daily prayer times for the provided location and
// answers pause-window queries. Times are recomputed once per calendar
// day per location and cached; lookups on the decision path are a map hit.
type Calculator struct {
	provider LocationProvider
	method   Method
	school   AsrSchool

	mu    sync.RWMutex
	cache map[string]domain.PrayerTimesForDay
}

// NewCalculator creates a Calculator using the given provider and method.
func NewCalculator(provider LocationProvider, method Method, school AsrSchool) *Calculator {
	return &Calculator{
		provider: provider,
		method:   method,
		school:   school,
		cache:    make(map[string]domain.PrayerTimesForDay),
	}
}

// ComputeDailyTimes computes the six prayer instants for the calendar day
// containing date at the given location. Pure and deterministic for given
// inputs; no caching, no clock access.
func ComputeDailyTimes(date time.Time, loc domain.Location, method Method, school AsrSchool) (domain.PrayerTimesForDay, error) {
	if loc.IsZero() {
		return domain.PrayerTimesForDay{}, fmt.Errorf("%w: location unset", domain.ErrInvalidLocation)
	}
	if err := loc.Validate(); err != nil {
		return domain.PrayerTimesForDay{}, err
	}
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		return domain.PrayerTimesForDay{}, fmt.Errorf("%w: timezone %q", domain.ErrInvalidLocation, loc.Timezone)
	}

	// The day boundary belongs to the location's timezone, not the
	// device's; otherwise prayer windows shift by the zone difference.
	local := date.In(tz)
	year, month, day := local.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, tz)

	_, offsetSec := time.Date(year, month, day, 12, 0, 0, 0, tz).Zone()
	tzHours := float64(offsetSec) / 3600

	jDate := julianDay(year, int(month), day) - loc.Longitude/(15*24)
	p := method.params()
	lat := loc.Latitude

	fajr := sunAngleTime(jDate, p.fajrAngle, 5.0/24, lat, true)
	sunrise := sunAngleTime(jDate, horizonAngle, 6.0/24, lat, true)
	dhuhr := midDay(jDate, 12.0/24)
	asr := asrTime(jDate, school.shadowFactor(), 13.0/24, lat)
	maghrib := sunAngleTime(jDate, horizonAngle, 18.0/24, lat, false)

	var isha float64
	if p.ishaMinutes > 0 {
		isha = maghrib + float64(p.ishaMinutes)/60
	} else {
		isha = sunAngleTime(jDate, p.ishaAngle, 18.0/24, lat, false)
	}

	adjust := func(hours float64) time.Time {
		hours = fixHour(hours + tzHours - loc.Longitude/15)
		return midnight.Add(time.Duration(math.Round(hours * float64(time.Hour))))
	}

	return domain.PrayerTimesForDay{
		Date:    midnight,
		Fajr:    adjust(fajr),
		Sunrise: adjust(sunrise),
		Dhuhr:   adjust(dhuhr),
		Asr:     adjust(asr),
		Maghrib: adjust(maghrib),
		Isha:    adjust(isha),
	}, nil
}

// TimesFor returns the cached daily times for the day containing now,
// computing them on first use.
func (c *Calculator) TimesFor(now time.Time, loc domain.Location) (domain.PrayerTimesForDay, error) {
	key := cacheKey(now, loc, c.method, c.school)

	c.mu.RLock()
	times, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return times, nil
	}

	times, err := ComputeDailyTimes(now, loc, c.method, c.school)
	if err != nil {
		return domain.PrayerTimesForDay{}, err
	}

	c.mu.Lock()
	// bound the cache: it only ever needs today and its neighbors
	if len(c.cache) > 4 {
		c.cache = make(map[string]domain.PrayerTimesForDay)
	}
	c.cache[key] = times
	c.mu.Unlock()
	return times, nil
}

// PauseStatus reports whether now falls inside a prayer pause window of
// the given duration. Missing or invalid location means no pause: prayer
// blocking never fails closed on absent configuration.
func (c *Calculator) PauseStatus(now time.Time, pauseMinutes int) domain.PrayerPauseWindow {
	loc := c.provider.Location()
	if loc.IsZero() || pauseMinutes <= 0 {
		return domain.NotPaused()
	}
	times, err := c.TimesFor(now, loc)
	if err != nil {
		return domain.NotPaused()
	}
	return InPauseWindow(now, times, pauseMinutes)
}

// InPauseWindow evaluates now against the five pause windows
// [prayer, prayer+duration). Windows should not overlap for sanely
// configured durations; if they do, the earliest window wins
// deterministically. MinutesRemaining rounds up so a window never reports
// zero minutes while still active.
func InPauseWindow(now time.Time, times domain.PrayerTimesForDay, pauseMinutes int) domain.PrayerPauseWindow {
	if pauseMinutes <= 0 {
		return domain.NotPaused()
	}
	dur := time.Duration(pauseMinutes) * time.Minute
	for _, c := range times.PauseCandidates() {
		end := c.At.Add(dur)
		if !now.Before(c.At) && now.Before(end) {
			return domain.PrayerPauseWindow{
				Paused:           true,
				Prayer:           c.Prayer,
				MinutesRemaining: int(math.Ceil(end.Sub(now).Minutes())),
			}
		}
	}
	return domain.NotPaused()
}

func cacheKey(now time.Time, loc domain.Location, m Method, s AsrSchool) string {
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		tz = time.UTC
	}
	return fmt.Sprintf("%s|%.4f|%.4f|%s|%s",
		now.In(tz).Format("2006-01-02"), loc.Latitude, loc.Longitude, m, s)
}
