// Package window locates the timing windows of aspects: the exact moments
// a body pair hits an aspect angle, bounded by the orb entry and exit
// times, with retrograde-induced multiplicity handled (a station inside
// the orb can produce up to three exact moments for one occurrence).
package window

import (
	"math"
	"sort"

	errorsmod "cosmossdk.io/errors"
	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/floats"

	"github.com/astrokairos/aspectarian/internal/metrics"
	"github.com/astrokairos/aspectarian/pkg/aspect"
	"github.com/astrokairos/aspectarian/pkg/astronomy/angle"
	"github.com/astrokairos/aspectarian/pkg/catalog"
)

// ErrInvalidArgument is returned for malformed search parameters.
var ErrInvalidArgument = errorsmod.Register("window", 2, "invalid argument")

// Motion labels the pair's combined longitudinal motion at an exact
// instant. Retrograde means at least one body's longitude is decreasing.
type Motion string

const (
	MotionDirect     Motion = "direct"
	MotionRetrograde Motion = "retrograde"
)

// Moment is one exact occurrence of an aspect. Begin and End are the
// orb entry and exit times; Begin <= Exact <= End always holds.
type Moment struct {
	Begin  float64 `json:"begin"`
	Exact  float64 `json:"exact"`
	End    float64 `json:"end"`
	Orb    float64 `json:"orb"`
	Motion Motion  `json:"motion"`
}

// Window aggregates the moments of one aspect occurrence between two
// bodies. Zero moments is a valid negative result, not an error.
type Window struct {
	Body1           catalog.Body   `json:"body1"`
	Body2           catalog.Body   `json:"body2"`
	Aspect          catalog.Aspect `json:"aspect"`
	Moments         []Moment       `json:"moments"`
	RetrogradeCount int            `json:"retrograde_count"`
}

// Empty reports whether the search found no crossing.
func (w Window) Empty() bool { return len(w.Moments) == 0 }

// Options tunes a window search.
type Options struct {
	// Orb overrides the catalog orb when positive; zero selects the
	// catalog default for the pair and aspect.
	Orb float64
	// DetectRetrograde keeps every exact moment in the search interval.
	// When false only the moment nearest the reference time is kept.
	DetectRetrograde bool
	// Policy scopes per-body orb overrides; nil uses catalog defaults.
	Policy *catalog.OrbPolicy
}

// DefaultOptions returns the standard search options: catalog orbs and
// retrograde detection on.
func DefaultOptions() Options {
	return Options{DetectRetrograde: true}
}

const (
	// refineTolerance is the bisection bracket width target, one second
	// of time.
	refineTolerance = 1.0 / 86400
	// exactTolerance is the largest deviation from the target angle an
	// accepted root may have, in degrees.
	exactTolerance = 1e-4
	maxBisections  = 64
)

// Finder searches for aspect windows. Construct with NewFinder.
type Finder struct {
	provider aspect.PositionProvider
}

// NewFinder creates a finder over a position provider.
func NewFinder(provider aspect.PositionProvider) *Finder {
	return &Finder{provider: provider}
}

// FindWindow searches [aroundJD-halfWidthDays, aroundJD+halfWidthDays]
// for the aspect between b1 and b2 and returns its window. An empty
// window means no crossing fell inside the interval.
func (f *Finder) FindWindow(b1, b2 catalog.Body, a catalog.Aspect, aroundJD, halfWidthDays float64, opts Options) (Window, error) {
	if err := validatePair(b1, b2); err != nil {
		return Window{}, err
	}
	if !a.Valid() {
		return Window{}, errorsmod.Wrapf(catalog.ErrUnknownAspect, "id %d", int(a))
	}
	if halfWidthDays <= 0 {
		return Window{}, errorsmod.Wrapf(ErrInvalidArgument, "half width %g days", halfWidthDays)
	}
	if opts.Orb < 0 {
		return Window{}, errorsmod.Wrapf(ErrInvalidArgument, "orb %g", opts.Orb)
	}

	metrics.WindowSearches.Inc()
	timer := prometheus.NewTimer(metrics.WindowSearchSeconds)
	defer timer.ObserveDuration()

	orb := resolveOrb(b1, b2, a, opts)
	start, end := aroundJD-halfWidthDays, aroundJD+halfWidthDays

	scan, err := f.scan(b1, b2, start, end, orb)
	if err != nil {
		return Window{}, err
	}
	exacts, err := f.exactMoments(scan, a.Angle())
	if err != nil {
		return Window{}, err
	}

	if !opts.DetectRetrograde && len(exacts) > 1 {
		nearest := exacts[0]
		for _, t := range exacts[1:] {
			if math.Abs(t-aroundJD) < math.Abs(nearest-aroundJD) {
				nearest = t
			}
		}
		exacts = []float64{nearest}
	}

	return f.assemble(b1, b2, a, exacts, orb)
}

// scanResult is one vectorized pass over a time range: the grid and both
// bodies' longitudes and longitudinal speeds at every grid node.
type scanResult struct {
	b1, b2     catalog.Body
	grid       []float64
	lon1, lon2 []float64
}

// scan samples both bodies across [start, end] on an adaptive grid sized
// for roughly ten samples per orb transit at the pair's nominal speeds.
func (f *Finder) scan(b1, b2 catalog.Body, start, end, orb float64) (*scanResult, error) {
	step := gridStep(b1, b2, orb)
	n := int(math.Ceil((end-start)/step)) + 1
	if n < 3 {
		n = 3
	}
	grid := floats.Span(make([]float64, n), start, end)

	s1, err := f.provider.PositionBatch(grid, b1)
	if err != nil {
		return nil, err
	}
	s2, err := f.provider.PositionBatch(grid, b2)
	if err != nil {
		return nil, err
	}

	res := &scanResult{
		b1: b1, b2: b2,
		grid: grid,
		lon1: make([]float64, n),
		lon2: make([]float64, n),
	}
	for i := range grid {
		res.lon1[i] = s1[i].Longitude
		res.lon2[i] = s2[i].Longitude
	}
	return res, nil
}

// gridStep derives the scan resolution from the pair's combined nominal
// speed: about ten samples per orb transit, clamped to [0.01, 1.0] days.
// The catalog speeds are a search-resolution hint only, never used for
// position computation.
func gridStep(b1, b2 catalog.Body, orb float64) float64 {
	rel := math.Abs(b1.MeanSpeed()) + math.Abs(b2.MeanSpeed())
	if rel < 1e-3 {
		rel = 1e-3
	}
	step := orb / rel / 10
	return math.Min(math.Max(step, 0.01), 1.0)
}

// crossValue is the function whose roots are exact aspect moments. For
// mid-range targets the angular distance minus the target changes sign at
// a crossing; at 0 and 180 degrees it touches zero without crossing, so
// those targets use the wrapped signed difference instead.
func crossValue(target, lon1, lon2 float64) float64 {
	psi := angle.Wrap180(lon2 - lon1)
	switch target {
	case 0:
		return psi
	case 180:
		return angle.Wrap180(psi - 180)
	default:
		return angle.Distance(lon1, lon2) - target
	}
}

func (f *Finder) evalCross(t, target float64, b1, b2 catalog.Body) (float64, error) {
	p1, err := f.provider.Position(t, b1)
	if err != nil {
		return 0, err
	}
	p2, err := f.provider.Position(t, b2)
	if err != nil {
		return 0, err
	}
	return crossValue(target, p1.Longitude, p2.Longitude), nil
}

// deviation is the signed distance-from-target value used for orb checks.
func (f *Finder) deviation(t, target float64, b1, b2 catalog.Body) (float64, error) {
	p1, err := f.provider.Position(t, b1)
	if err != nil {
		return 0, err
	}
	p2, err := f.provider.Position(t, b2)
	if err != nil {
		return 0, err
	}
	return angle.Distance(p1.Longitude, p2.Longitude) - target, nil
}

// exactMoments finds every root of the crossing function on the scanned
// range, refined to refineTolerance, sorted ascending.
func (f *Finder) exactMoments(scan *scanResult, target float64) ([]float64, error) {
	n := len(scan.grid)
	cross := make([]float64, n)
	for i := range scan.grid {
		cross[i] = crossValue(target, scan.lon1[i], scan.lon2[i])
	}

	var exacts []float64
	for i := 1; i < n; i++ {
		f0, f1 := cross[i-1], cross[i]
		if f0 == 0 {
			if ok, err := f.accept(scan.grid[i-1], target, scan); err != nil {
				return nil, err
			} else if ok {
				exacts = append(exacts, scan.grid[i-1])
			}
			continue
		}
		if f0*f1 >= 0 {
			continue
		}
		// A jump close to a full wrap is the branch cut of the wrapped
		// difference passing by, not a crossing.
		if math.Abs(f1-f0) >= 180 {
			continue
		}

		seed := quadraticSeed(scan.grid, cross, i)
		root, err := f.bisect(scan.grid[i-1], scan.grid[i], f0, seed, target, scan.b1, scan.b2)
		if err != nil {
			return nil, err
		}
		if ok, err := f.accept(root, target, scan); err != nil {
			return nil, err
		} else if ok {
			exacts = append(exacts, root)
		}
	}
	sort.Float64s(exacts)
	return exacts, nil
}

// accept validates a refined root against the exactness contract.
func (f *Finder) accept(t, target float64, scan *scanResult) (bool, error) {
	dev, err := f.deviation(t, target, scan.b1, scan.b2)
	if err != nil {
		return false, err
	}
	return math.Abs(dev) < exactTolerance, nil
}

// quadraticSeed estimates the root by inverse quadratic interpolation
// over the three grid samples nearest the sign change at index i. NaN
// means no usable estimate; the caller falls back to plain bisection.
func quadraticSeed(grid, cross []float64, i int) float64 {
	j := i - 2
	if j < 0 {
		j = 0
	}
	if j+2 >= len(grid) {
		j = len(grid) - 3
	}
	t0, t1, t2 := grid[j], grid[j+1], grid[j+2]
	f0, f1, f2 := cross[j], cross[j+1], cross[j+2]
	if f0 == f1 || f0 == f2 || f1 == f2 {
		return math.NaN()
	}
	return t0*f1*f2/((f0-f1)*(f0-f2)) +
		t1*f0*f2/((f1-f0)*(f1-f2)) +
		t2*f0*f1/((f2-f0)*(f2-f1))
}

// bisect narrows [lo, hi] to refineTolerance. The interpolation seed is
// probed first when it falls inside the bracket; after that the loop is
// plain bisection, which stays robust where the pair's relative motion
// stalls at a station and derivative-based refinement would not.
func (f *Finder) bisect(lo, hi, flo, seed, target float64, b1, b2 catalog.Body) (float64, error) {
	for iter := 0; iter < maxBisections && hi-lo > refineTolerance; iter++ {
		mid := (lo + hi) / 2
		if iter == 0 && !math.IsNaN(seed) && seed > lo && seed < hi {
			mid = seed
		}
		fm, err := f.evalCross(mid, target, b1, b2)
		if err != nil {
			return 0, err
		}
		if fm == 0 {
			return mid, nil
		}
		if (fm > 0) == (flo > 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

// assemble builds the window: orb boundaries around each exact moment,
// motion labels from the longitudinal speeds, retrograde count.
func (f *Finder) assemble(b1, b2 catalog.Body, a catalog.Aspect, exacts []float64, orb float64) (Window, error) {
	w := Window{Body1: b1, Body2: b2, Aspect: a, Moments: make([]Moment, 0, len(exacts))}
	target := a.Angle()

	for i, exact := range exacts {
		prev, next := math.Inf(-1), math.Inf(1)
		if i > 0 {
			prev = exacts[i-1]
		}
		if i+1 < len(exacts) {
			next = exacts[i+1]
		}

		begin, err := f.orbBoundary(b1, b2, target, orb, exact, prev, -1)
		if err != nil {
			return Window{}, err
		}
		end, err := f.orbBoundary(b1, b2, target, orb, exact, next, +1)
		if err != nil {
			return Window{}, err
		}

		p1, err := f.provider.Position(exact, b1)
		if err != nil {
			return Window{}, err
		}
		p2, err := f.provider.Position(exact, b2)
		if err != nil {
			return Window{}, err
		}
		motion := MotionDirect
		if p1.LongitudeSpeed < 0 || p2.LongitudeSpeed < 0 {
			motion = MotionRetrograde
			w.RetrogradeCount++
		}

		w.Moments = append(w.Moments, Moment{
			Begin:  begin,
			Exact:  exact,
			End:    end,
			Orb:    orb,
			Motion: motion,
		})
	}
	return w, nil
}

// orbBoundary finds the time where |deviation| first reaches the orb,
// stepping outward from exact in direction dir (-1 or +1). The search is
// bounded by the neighboring exact moment so oscillation inside the orb
// cannot pull a boundary into the next crossing's territory; if the
// deviation never reaches the orb before the bound, the bound is
// returned.
func (f *Finder) orbBoundary(b1, b2 catalog.Body, target, orb, exact, bound float64, dir float64) (float64, error) {
	rel := math.Abs(b1.MeanSpeed()) + math.Abs(b2.MeanSpeed())
	if rel < 1e-3 {
		rel = 1e-3
	}
	// Without a neighbor, march out to several orb transits.
	if math.IsInf(bound, 0) {
		bound = exact + dir*math.Max(8*orb/rel, 1.0)
	}
	step := dir * math.Min(math.Max(orb/rel/10, 0.01), 1.0)

	// inside(t) > 0 while within orb.
	inside := func(t float64) (float64, error) {
		dev, err := f.deviation(t, target, b1, b2)
		if err != nil {
			return 0, err
		}
		return orb - math.Abs(dev), nil
	}

	lo := exact
	hi := lo
	for {
		hi += step
		if (dir > 0 && hi >= bound) || (dir < 0 && hi <= bound) {
			hi = bound
		}
		g, err := inside(hi)
		if err != nil {
			return 0, err
		}
		if g <= 0 {
			break
		}
		if hi == bound {
			return bound, nil
		}
		lo = hi
	}

	// Bisect the entry/exit bracket down to one second.
	for iter := 0; iter < maxBisections && math.Abs(hi-lo) > refineTolerance; iter++ {
		mid := (lo + hi) / 2
		g, err := inside(mid)
		if err != nil {
			return 0, err
		}
		if g > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

func resolveOrb(b1, b2 catalog.Body, a catalog.Aspect, opts Options) float64 {
	if opts.Orb > 0 {
		return opts.Orb
	}
	if opts.Policy != nil {
		return opts.Policy.OrbFor(b1, b2, a)
	}
	return catalog.OrbFor(b1, b2, a)
}

func validatePair(b1, b2 catalog.Body) error {
	if !b1.Valid() {
		return errorsmod.Wrapf(catalog.ErrUnknownBody, "id %d", int(b1))
	}
	if !b2.Valid() {
		return errorsmod.Wrapf(catalog.ErrUnknownBody, "id %d", int(b2))
	}
	if b1 == b2 {
		return errorsmod.Wrapf(ErrInvalidArgument, "identical bodies %s", b1)
	}
	return nil
}
