package window

import (
	"math"
	"testing"

	"github.com/astrokairos/aspectarian/pkg/astronomy/ephemeris"
	"github.com/astrokairos/aspectarian/pkg/catalog"
)

// syntheticProvider drives the second body through an oscillating
// separation around a square to the first, so one occurrence produces
// three exact moments: direct, retrograde, direct. Relative to baseJD,
// the separation is 90 + 0.05*u + 10*sin(0.1*u) degrees, whose roots sit
// at u = 0, 33.077 and 59.796.
type syntheticProvider struct {
	baseJD float64
}

func (p *syntheticProvider) sample(jd float64, body catalog.Body) ephemeris.PositionSample {
	u := jd - p.baseJD
	if body == catalog.Mars {
		return ephemeris.PositionSample{Longitude: 10, LongitudeSpeed: 0}
	}
	return ephemeris.PositionSample{
		Longitude:      norm(100 + 0.05*u + 10*math.Sin(0.1*u)),
		LongitudeSpeed: 0.05 + math.Cos(0.1*u),
	}
}

func (p *syntheticProvider) Position(jd float64, body catalog.Body) (ephemeris.PositionSample, error) {
	return p.sample(jd, body), nil
}

func (p *syntheticProvider) PositionBatch(jd []float64, body catalog.Body) ([]ephemeris.PositionSample, error) {
	out := make([]ephemeris.PositionSample, len(jd))
	for i, t := range jd {
		out[i] = p.sample(t, body)
	}
	return out, nil
}

func norm(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func checkMomentInvariants(t *testing.T, m Moment) {
	t.Helper()
	if !(m.Begin <= m.Exact && m.Exact <= m.End) {
		t.Errorf("moment ordering violated: begin %.6f exact %.6f end %.6f", m.Begin, m.Exact, m.End)
	}
	if m.Orb <= 0 {
		t.Errorf("moment orb = %g, want positive", m.Orb)
	}
}

func TestRetrogradeTripleCrossing(t *testing.T) {
	const baseJD = 2451545.0
	provider := &syntheticProvider{baseJD: baseJD}
	finder := NewFinder(provider)

	opts := DefaultOptions()
	opts.Orb = 8

	w, err := finder.FindWindow(catalog.Mars, catalog.Jupiter, catalog.Square, baseJD+28, 45, opts)
	if err != nil {
		t.Fatalf("FindWindow returned error: %v", err)
	}
	if len(w.Moments) != 3 {
		t.Fatalf("found %d moments, want 3 (station inside orb)", len(w.Moments))
	}

	wantExacts := []float64{0, 33.077, 59.796}
	wantMotion := []Motion{MotionDirect, MotionRetrograde, MotionDirect}
	for i, m := range w.Moments {
		checkMomentInvariants(t, m)
		if got := m.Exact - baseJD; math.Abs(got-wantExacts[i]) > 0.01 {
			t.Errorf("moment %d exact at u=%.4f, want %.3f", i, got, wantExacts[i])
		}
		if m.Motion != wantMotion[i] {
			t.Errorf("moment %d motion = %s, want %s", i, m.Motion, wantMotion[i])
		}
	}
	if w.RetrogradeCount != 1 {
		t.Errorf("retrograde count = %d, want 1", w.RetrogradeCount)
	}

	// The separation leaves the 8-degree orb before the first root
	// (|deviation| = 8 at u = -8.588) but never between the second and
	// third roots, so those boundaries clamp at the neighboring exact
	// moment.
	if got := w.Moments[0].Begin - baseJD; math.Abs(got-(-8.588)) > 0.05 {
		t.Errorf("first moment begins at u=%.4f, want -8.588", got)
	}
	if got := w.Moments[1].End; math.Abs(got-w.Moments[2].Exact) > 1e-6 {
		t.Errorf("second moment end %.6f should clamp at third exact %.6f", got, w.Moments[2].Exact)
	}
	if got := w.Moments[2].Begin; math.Abs(got-w.Moments[1].Exact) > 1e-6 {
		t.Errorf("third moment begin %.6f should clamp at second exact %.6f", got, w.Moments[1].Exact)
	}
}

func TestRetrogradeDetectionDisabled(t *testing.T) {
	const baseJD = 2451545.0
	finder := NewFinder(&syntheticProvider{baseJD: baseJD})

	opts := DefaultOptions()
	opts.Orb = 8
	opts.DetectRetrograde = false

	// Reference time nearest the middle root.
	w, err := finder.FindWindow(catalog.Mars, catalog.Jupiter, catalog.Square, baseJD+28, 45, opts)
	if err != nil {
		t.Fatalf("FindWindow returned error: %v", err)
	}
	if len(w.Moments) != 1 {
		t.Fatalf("found %d moments with retrograde detection off, want 1", len(w.Moments))
	}
	if got := w.Moments[0].Exact - baseJD; math.Abs(got-33.077) > 0.01 {
		t.Errorf("kept moment at u=%.4f, want the one nearest the reference (33.077)", got)
	}
}

// The January 2024 new moon: one direct conjunction spanning roughly 42
// hours at the default 12-degree orb.
func TestNewMoonWindow(t *testing.T) {
	const newMoonJD = 2460320.998 // 2024-01-11 11:57 UTC

	engine := ephemeris.NewEngine(ephemeris.NewCache(50000))
	finder := NewFinder(engine)

	w, err := finder.FindWindow(catalog.Sun, catalog.Moon, catalog.Conjunction, newMoonJD+0.5, 2, DefaultOptions())
	if err != nil {
		t.Fatalf("FindWindow returned error: %v", err)
	}
	if len(w.Moments) != 1 {
		t.Fatalf("found %d moments, want 1", len(w.Moments))
	}

	m := w.Moments[0]
	checkMomentInvariants(t, m)
	if math.Abs(m.Exact-newMoonJD) > 0.1 {
		t.Errorf("exact new moon at JD %.4f, want %.3f within 0.1 day", m.Exact, newMoonJD)
	}
	if m.Motion != MotionDirect {
		t.Errorf("motion = %s, want direct", m.Motion)
	}
	if w.RetrogradeCount != 0 {
		t.Errorf("retrograde count = %d, want 0", w.RetrogradeCount)
	}
	duration := m.End - m.Begin
	if duration < 1.3 || duration > 2.6 {
		t.Errorf("window duration = %.3f days, want roughly 1.77 (42 hours)", duration)
	}
}

// A tighter orb must shrink the window without moving the exact moment.
func TestCustomOrbNarrowsWindow(t *testing.T) {
	const newMoonJD = 2460320.998

	engine := ephemeris.NewEngine(ephemeris.NewCache(50000))
	finder := NewFinder(engine)

	wide, err := finder.FindWindow(catalog.Sun, catalog.Moon, catalog.Conjunction, newMoonJD, 2, DefaultOptions())
	if err != nil {
		t.Fatalf("FindWindow (default orb) returned error: %v", err)
	}

	opts := DefaultOptions()
	opts.Orb = 6
	narrow, err := finder.FindWindow(catalog.Sun, catalog.Moon, catalog.Conjunction, newMoonJD, 2, opts)
	if err != nil {
		t.Fatalf("FindWindow (orb 6) returned error: %v", err)
	}

	if len(wide.Moments) != 1 || len(narrow.Moments) != 1 {
		t.Fatalf("want one moment in each window, got %d and %d", len(wide.Moments), len(narrow.Moments))
	}
	if math.Abs(wide.Moments[0].Exact-narrow.Moments[0].Exact) > 1e-3 {
		t.Errorf("exact moment moved with the orb: %.6f vs %.6f", wide.Moments[0].Exact, narrow.Moments[0].Exact)
	}
	wideSpan := wide.Moments[0].End - wide.Moments[0].Begin
	narrowSpan := narrow.Moments[0].End - narrow.Moments[0].Begin
	if narrowSpan >= wideSpan {
		t.Errorf("orb 6 window (%.3f days) not narrower than orb 12 window (%.3f days)", narrowSpan, wideSpan)
	}
}

// A search interval with no crossing returns an empty window, not an
// error. The Sun-Moon opposition nearest the January 2024 new moon is two
// weeks away.
func TestEmptySearchResult(t *testing.T) {
	const newMoonJD = 2460320.998

	engine := ephemeris.NewEngine(ephemeris.NewCache(50000))
	finder := NewFinder(engine)

	w, err := finder.FindWindow(catalog.Sun, catalog.Moon, catalog.Opposition, newMoonJD, 2, DefaultOptions())
	if err != nil {
		t.Fatalf("FindWindow returned error: %v", err)
	}
	if !w.Empty() {
		t.Errorf("found %d moments in an interval with no opposition", len(w.Moments))
	}
	if w.RetrogradeCount != 0 {
		t.Errorf("empty window has retrograde count %d", w.RetrogradeCount)
	}
}

func TestFindWindowValidation(t *testing.T) {
	finder := NewFinder(ephemeris.NewEngine(nil))

	if _, err := finder.FindWindow(catalog.Sun, catalog.Sun, catalog.Square, 2451545, 10, DefaultOptions()); err == nil {
		t.Error("identical bodies must fail")
	}
	if _, err := finder.FindWindow(catalog.Sun, catalog.Moon, catalog.Aspect(99), 2451545, 10, DefaultOptions()); err == nil {
		t.Error("unknown aspect must fail")
	}
	if _, err := finder.FindWindow(catalog.Sun, catalog.Moon, catalog.Square, 2451545, 0, DefaultOptions()); err == nil {
		t.Error("non-positive half width must fail")
	}
	opts := DefaultOptions()
	opts.Orb = -1
	if _, err := finder.FindWindow(catalog.Sun, catalog.Moon, catalog.Square, 2451545, 10, opts); err == nil {
		t.Error("negative orb must fail")
	}
}

// Every produced moment must sit within 1e-4 degrees of the target angle
// at its exact time.
func TestExactMomentPrecision(t *testing.T) {
	const newMoonJD = 2460320.998

	engine := ephemeris.NewEngine(ephemeris.NewCache(50000))
	finder := NewFinder(engine)

	w, err := finder.FindWindow(catalog.Sun, catalog.Moon, catalog.Conjunction, newMoonJD, 2, DefaultOptions())
	if err != nil {
		t.Fatalf("FindWindow returned error: %v", err)
	}
	for _, m := range w.Moments {
		sun, err := engine.Position(m.Exact, catalog.Sun)
		if err != nil {
			t.Fatal(err)
		}
		moon, err := engine.Position(m.Exact, catalog.Moon)
		if err != nil {
			t.Fatal(err)
		}
		sep := math.Abs(sun.Longitude - moon.Longitude)
		if sep > 180 {
			sep = 360 - sep
		}
		if sep > 1e-4 {
			t.Errorf("separation at exact moment = %g degrees, want < 1e-4", sep)
		}
	}
}
