package utils

import (
	"math"
	"testing"
	"time"
)

func TestUTCToJulian(t *testing.T) {
	cases := []struct {
		in   time.Time
		want float64
	}{
		// J2000.0 epoch.
		{time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), 2451545.0},
		// Day 0 of the orbital element epoch, 1999 December 31.0.
		{time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC), 2451543.5},
		// January 2024 new moon.
		{time.Date(2024, 1, 11, 11, 57, 0, 0, time.UTC), 2460320.99792},
		{time.Date(1990, 4, 19, 0, 0, 0, 0, time.UTC), 2448000.5},
	}
	for _, c := range cases {
		if got := UTCToJulian(c.in); math.Abs(got-c.want) > 1e-5 {
			t.Errorf("UTCToJulian(%v) = %.6f, want %.5f", c.in, got, c.want)
		}
	}
}

func TestJulianToUTC(t *testing.T) {
	got := JulianToUTC(2451545.0)
	want := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("JulianToUTC(2451545.0) = %v, want %v", got, want)
	}
}

// Round-tripping a civil time through the Julian day number must come
// back within a millisecond.
func TestJulianRoundTrip(t *testing.T) {
	times := []time.Time{
		time.Date(1900, 2, 28, 23, 59, 59, 0, time.UTC),
		time.Date(1990, 4, 19, 6, 30, 0, 0, time.UTC),
		time.Date(2024, 1, 11, 11, 57, 13, 0, time.UTC),
		time.Date(2100, 12, 31, 0, 0, 1, 0, time.UTC),
	}
	for _, in := range times {
		out := JulianToUTC(UTCToJulian(in))
		if d := out.Sub(in); d < -time.Millisecond || d > time.Millisecond {
			t.Errorf("round trip of %v drifted by %v", in, d)
		}
	}
}
