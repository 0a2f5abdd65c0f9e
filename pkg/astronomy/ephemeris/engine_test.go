package ephemeris

import (
	"math"
	"testing"

	"github.com/astrokairos/aspectarian/pkg/catalog"
)

// Julian day of the J2000.0 epoch, 2000 January 1 12:00 UT.
const jdJ2000 = 2451545.0

func newTestEngine() *Engine {
	return NewEngine(nil)
}

// Geocentric ecliptic longitudes at J2000.0, degrees. Reference values
// from standard ephemerides; tolerances reflect the documented accuracy
// budget (inner planets 0.1 degree, outer planets and Moon 0.5).
func TestPositionAgainstKnownSky(t *testing.T) {
	cases := []struct {
		body catalog.Body
		lon  float64
		tol  float64
	}{
		{catalog.Sun, 280.37, 0.1},
		{catalog.Moon, 222.8, 1.0},
		{catalog.Mercury, 271.9, 0.3},
		{catalog.Venus, 241.5, 0.3},
		{catalog.Mars, 327.9, 0.3},
		{catalog.Jupiter, 25.2, 0.5},
		{catalog.Saturn, 40.4, 0.5},
		{catalog.Uranus, 314.8, 0.5},
		{catalog.Neptune, 303.2, 0.5},
		{catalog.Pluto, 251.4, 0.7},
	}

	engine := newTestEngine()
	for _, c := range cases {
		sample, err := engine.Position(jdJ2000, c.body)
		if err != nil {
			t.Fatalf("Position(%v) returned error: %v", c.body, err)
		}
		diff := math.Abs(sample.Longitude - c.lon)
		if diff > 180 {
			diff = 360 - diff
		}
		if diff > c.tol {
			t.Errorf("%v longitude at J2000 = %.3f, want %.1f within %.1f", c.body, sample.Longitude, c.lon, c.tol)
		}
		if sample.Longitude < 0 || sample.Longitude >= 360 {
			t.Errorf("%v longitude %.3f out of [0, 360)", c.body, sample.Longitude)
		}
	}
}

func TestSunDistanceAndSpeed(t *testing.T) {
	engine := newTestEngine()
	sample, err := engine.Position(jdJ2000, catalog.Sun)
	if err != nil {
		t.Fatalf("Position(Sun) returned error: %v", err)
	}

	// Early January: Earth near perihelion, so just under 1 AU and the
	// apparent solar motion slightly above its mean.
	if sample.Distance < 0.975 || sample.Distance > 0.99 {
		t.Errorf("Sun distance at J2000 = %.5f AU, want ~0.983", sample.Distance)
	}
	if sample.LongitudeSpeed < 0.95 || sample.LongitudeSpeed > 1.1 {
		t.Errorf("Sun longitude speed at J2000 = %.5f deg/day, want ~1.02", sample.LongitudeSpeed)
	}
	if sample.Retrograde() {
		t.Error("the Sun must never be retrograde")
	}
	if math.Abs(sample.Latitude) > 0.01 {
		t.Errorf("Sun latitude = %.5f, want ~0", sample.Latitude)
	}
}

func TestMoonPhysicalBounds(t *testing.T) {
	engine := newTestEngine()
	for jd := jdJ2000; jd < jdJ2000+27; jd += 1.7 {
		sample, err := engine.Position(jd, catalog.Moon)
		if err != nil {
			t.Fatalf("Position(Moon, %g) returned error: %v", jd, err)
		}
		// Perigee-apogee range with margin.
		if sample.Distance < 0.0023 || sample.Distance > 0.0028 {
			t.Errorf("Moon distance at %g = %.6f AU out of physical range", jd, sample.Distance)
		}
		if math.Abs(sample.Latitude) > 5.7 {
			t.Errorf("Moon latitude at %g = %.3f exceeds orbital inclination bound", jd, sample.Latitude)
		}
		if sample.LongitudeSpeed < 11.0 || sample.LongitudeSpeed > 15.5 {
			t.Errorf("Moon longitude speed at %g = %.3f deg/day out of range", jd, sample.LongitudeSpeed)
		}
	}
}

// The scalar call is defined as a length-one batch; both paths must agree
// bit for bit.
func TestPositionBatchMatchesScalar(t *testing.T) {
	engine := newTestEngine()
	times := []float64{jdJ2000 - 1000, jdJ2000, jdJ2000 + 365.25, jdJ2000 + 5000}
	for _, body := range []catalog.Body{catalog.Sun, catalog.Moon, catalog.Mars, catalog.Saturn, catalog.MeanNode} {
		batch, err := engine.PositionBatch(times, body)
		if err != nil {
			t.Fatalf("PositionBatch(%v) returned error: %v", body, err)
		}
		for i, jd := range times {
			scalar, err := engine.Position(jd, body)
			if err != nil {
				t.Fatalf("Position(%v, %g) returned error: %v", body, jd, err)
			}
			if batch[i] != scalar {
				t.Errorf("%v at %g: batch %+v differs from scalar %+v", body, jd, batch[i], scalar)
			}
		}
	}
}

func TestVirtualPoints(t *testing.T) {
	engine := newTestEngine()

	mean, err := engine.Position(jdJ2000, catalog.MeanNode)
	if err != nil {
		t.Fatalf("Position(MeanNode) returned error: %v", err)
	}
	if mean.LongitudeSpeed >= 0 {
		t.Errorf("mean node speed = %g, want negative (nodes regress)", mean.LongitudeSpeed)
	}
	if mean.Distance != 0 || mean.Latitude != 0 {
		t.Errorf("mean node must have zero latitude and distance, got %+v", mean)
	}

	truen, err := engine.Position(jdJ2000, catalog.TrueNode)
	if err != nil {
		t.Fatalf("Position(TrueNode) returned error: %v", err)
	}
	// The true node oscillates around the mean node by under two degrees.
	diff := math.Abs(truen.Longitude - mean.Longitude)
	if diff > 180 {
		diff = 360 - diff
	}
	if diff > 2 {
		t.Errorf("true node deviates %.3f degrees from mean node, want < 2", diff)
	}

	lilith, err := engine.Position(jdJ2000, catalog.Lilith)
	if err != nil {
		t.Fatalf("Position(Lilith) returned error: %v", err)
	}
	if lilith.LongitudeSpeed <= 0 {
		t.Errorf("Lilith speed = %g, want positive", lilith.LongitudeSpeed)
	}
}

// The Moon returns to the Sun (synodic month) in about 29.53 days. Check
// the engine reproduces the January 2024 new moon within a few hours.
func TestKnownNewMoon(t *testing.T) {
	// 2024-01-11 11:57 UTC.
	const newMoonJD = 2460320.998

	engine := newTestEngine()
	sun, err := engine.Position(newMoonJD, catalog.Sun)
	if err != nil {
		t.Fatalf("Position(Sun) returned error: %v", err)
	}
	moon, err := engine.Position(newMoonJD, catalog.Moon)
	if err != nil {
		t.Fatalf("Position(Moon) returned error: %v", err)
	}

	diff := math.Abs(sun.Longitude - moon.Longitude)
	if diff > 180 {
		diff = 360 - diff
	}
	// Half a degree of separation is about an hour of lunar motion.
	if diff > 0.5 {
		t.Errorf("Sun-Moon separation at known new moon = %.3f degrees, want < 0.5", diff)
	}
}

func TestPositionUnknownBody(t *testing.T) {
	engine := newTestEngine()
	if _, err := engine.Position(jdJ2000, catalog.Body(99)); err == nil {
		t.Error("Position with invalid body must fail")
	}
	if _, err := engine.PositionBatch([]float64{jdJ2000}, catalog.Body(-1)); err == nil {
		t.Error("PositionBatch with invalid body must fail")
	}
}
