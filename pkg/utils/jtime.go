package utils

import (
	"math"
	"time"
)

// UTCToJulian converts a civil time to a Julian day number. The input is
// interpreted on the Gregorian calendar in UTC.
func UTCToJulian(t time.Time) float64 {
	t = t.UTC()
	year, month := t.Year(), int(t.Month())
	day := float64(t.Day()) +
		(float64(t.Hour())+
			float64(t.Minute())/60+
			(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600)/24

	if month <= 2 {
		year--
		month += 12
	}
	a := year / 100
	b := 2 - a + a/4

	return math.Floor(365.25*float64(year+4716)) +
		math.Floor(30.6001*float64(month+1)) +
		day + float64(b) - 1524.5
}

// JulianToUTC converts a Julian day number back to civil UTC time,
// rounded to the nearest millisecond.
func JulianToUTC(jd float64) time.Time {
	z, f := math.Modf(jd + 0.5)

	a := z
	if z >= 2299161 {
		alpha := math.Floor((z - 1867216.25) / 36524.25)
		a = z + 1 + alpha - math.Floor(alpha/4)
	}
	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	e := math.Floor((b - d) / 30.6001)

	day := b - d - math.Floor(30.6001*e)
	month := int(e) - 1
	if e >= 14 {
		month = int(e) - 13
	}
	year := int(c) - 4716
	if month <= 2 {
		year = int(c) - 4715
	}

	millis := math.Round(f * 86400000)
	return time.Date(year, time.Month(month), int(day), 0, 0, 0, 0, time.UTC).
		Add(time.Duration(millis) * time.Millisecond)
}
