package prayer

import "math"

// Solar position math for prayer time computation. These are the standard
// low-precision ephemeris formulas (accurate to well under a minute of
// clock time, which is ample for a pause window expressed in minutes):
// solar declination and the equation of time from the mean anomaly and
// mean longitude, hour angles from the spherical altitude equation.

const (
	// horizonAngle is the depression of the sun's upper limb at rise/set,
	// refraction included.
	horizonAngle = 0.833
)

// julianDay returns the Julian Day number for a civil date at 0h UT.
func julianDay(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}
	a := math.Floor(float64(year) / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*float64(year+4716)) +
		math.Floor(30.6001*float64(month+1)) +
		float64(day) + b - 1524.5
}

// solarPosition returns the sun's declination (degrees) and the equation
// of time (hours) for the given Julian date.
func solarPosition(jd float64) (declination, eqOfTime float64) {
	d := jd - 2451545.0

	g := fixAngle(357.529 + 0.98560028*d) // mean anomaly
	q := fixAngle(280.459 + 0.98564736*d) // mean longitude
	l := fixAngle(q + 1.915*sinDeg(g) + 0.020*sinDeg(2*g))

	e := 23.439 - 0.00000036*d // obliquity of the ecliptic

	ra := math.Atan2(cosDeg(e)*sinDeg(l), cosDeg(l)) * 180 / math.Pi / 15
	ra = fixHour(ra)

	declination = math.Asin(sinDeg(e)*sinDeg(l)) * 180 / math.Pi
	eqOfTime = q/15 - ra
	return declination, eqOfTime
}

// midDay returns solar noon (hours) at the fractional day portion.
func midDay(jDate, portion float64) float64 {
	_, eqt := solarPosition(jDate + portion)
	return fixHour(12 - eqt)
}

// sunAngleTime returns the clock hour at which the sun reaches the given
// depression angle below the horizon, before (ccw) or after solar noon.
// Near the poles the altitude equation has no solution for steep angles;
// the acos argument is clamped, which degrades gracefully instead of
// producing NaN (high-latitude conventions are out of scope).
func sunAngleTime(jDate, angle, portion, latitude float64, beforeNoon bool) float64 {
	decl, _ := solarPosition(jDate + portion)
	noon := midDay(jDate, portion)
	cosH := (-sinDeg(angle) - sinDeg(decl)*sinDeg(latitude)) /
		(cosDeg(decl) * cosDeg(latitude))
	t := math.Acos(clamp(cosH, -1, 1)) * 180 / math.Pi / 15
	if beforeNoon {
		return noon - t
	}
	return noon + t
}

// asrTime returns the Asr hour for the given shadow factor.
func asrTime(jDate, factor, portion, latitude float64) float64 {
	decl, _ := solarPosition(jDate + portion)
	angle := -acotDeg(factor + tanDeg(math.Abs(latitude-decl)))
	return sunAngleTime(jDate, angle, portion, latitude, false)
}

func fixAngle(a float64) float64 { return fix(a, 360) }
func fixHour(h float64) float64  { return fix(h, 24) }

func fix(v, mod float64) float64 {
	v = math.Mod(v, mod)
	if v < 0 {
		v += mod
	}
	return v
}

func sinDeg(d float64) float64 { return math.Sin(d * math.Pi / 180) }
func cosDeg(d float64) float64 { return math.Cos(d * math.Pi / 180) }
func tanDeg(d float64) float64 { return math.Tan(d * math.Pi / 180) }

func acotDeg(x float64) float64 { return math.Atan(1/x) * 180 / math.Pi }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
