package window

import (
	"math"
	"sort"

	errorsmod "cosmossdk.io/errors"
	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/stat"

	"github.com/astrokairos/aspectarian/internal/metrics"
	"github.com/astrokairos/aspectarian/pkg/astronomy/angle"
	"github.com/astrokairos/aspectarian/pkg/catalog"
)

// Timeline finds every window of the requested aspects between b1 and b2
// over [startJD, endJD], ordered chronologically by exact time. The range
// is scanned once and the scan is shared by all aspects, so asking for
// seven aspects costs one grid pass, not seven.
//
// Consecutive exact moments of the same aspect are grouped into a single
// window when the pair never leaves the orb between them; otherwise each
// moment opens a window of its own.
func (f *Finder) Timeline(b1, b2 catalog.Body, aspects []catalog.Aspect, startJD, endJD float64, opts Options) ([]Window, error) {
	if err := validatePair(b1, b2); err != nil {
		return nil, err
	}
	if endJD <= startJD {
		return nil, errorsmod.Wrapf(ErrInvalidArgument, "range [%g, %g]", startJD, endJD)
	}
	if len(aspects) == 0 {
		return nil, errorsmod.Wrap(ErrInvalidArgument, "no aspects requested")
	}
	seen := make(map[catalog.Aspect]struct{}, len(aspects))
	minOrb := math.Inf(1)
	for _, a := range aspects {
		if !a.Valid() {
			return nil, errorsmod.Wrapf(catalog.ErrUnknownAspect, "id %d", int(a))
		}
		if _, ok := seen[a]; ok {
			return nil, errorsmod.Wrapf(ErrInvalidArgument, "duplicate aspect %s", a)
		}
		seen[a] = struct{}{}
		if orb := resolveOrb(b1, b2, a, opts); orb < minOrb {
			minOrb = orb
		}
	}
	if opts.Orb < 0 {
		return nil, errorsmod.Wrapf(ErrInvalidArgument, "orb %g", opts.Orb)
	}

	metrics.WindowSearches.Inc()
	timer := prometheus.NewTimer(metrics.WindowSearchSeconds)
	defer timer.ObserveDuration()

	// The tightest orb in play dictates the shared grid resolution.
	scan, err := f.scan(b1, b2, startJD, endJD, minOrb)
	if err != nil {
		return nil, err
	}

	var out []Window
	for _, a := range aspects {
		orb := resolveOrb(b1, b2, a, opts)
		exacts, err := f.exactMoments(scan, a.Angle())
		if err != nil {
			return nil, err
		}
		for _, group := range groupByOrb(scan, exacts, a.Angle(), orb) {
			w, err := f.assemble(b1, b2, a, group, orb)
			if err != nil {
				return nil, err
			}
			out = append(out, w)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Moments[0].Exact < out[j].Moments[0].Exact
	})
	return out, nil
}

// groupByOrb splits a sorted list of exact moments into occurrence
// groups. Two consecutive moments share an occurrence when the scan's
// deviation samples between them all stay inside the orb; a grid node
// outside the orb means the pair separated and came back, which is a new
// occurrence.
func groupByOrb(scan *scanResult, exacts []float64, target, orb float64) [][]float64 {
	var groups [][]float64
	for _, t := range exacts {
		n := len(groups)
		if n > 0 && insideOrbBetween(scan, groups[n-1][len(groups[n-1])-1], t, target, orb) {
			groups[n-1] = append(groups[n-1], t)
			continue
		}
		groups = append(groups, []float64{t})
	}
	return groups
}

func insideOrbBetween(scan *scanResult, t0, t1, target, orb float64) bool {
	i := sort.SearchFloat64s(scan.grid, t0)
	for ; i < len(scan.grid) && scan.grid[i] < t1; i++ {
		dev := angle.Distance(scan.lon1[i], scan.lon2[i]) - target
		if math.Abs(dev) >= orb {
			return false
		}
	}
	return true
}

// Summary describes a set of windows in aggregate.
type Summary struct {
	Windows            int     `json:"windows"`
	Moments            int     `json:"moments"`
	Retrograde         int     `json:"retrograde"`
	MeanDurationDays   float64 `json:"mean_duration_days"`
	StdDevDurationDays float64 `json:"stddev_duration_days"`
}

// Summarize aggregates a timeline result. A window's duration is orb
// entry of its first moment to orb exit of its last. Empty windows are
// skipped; fewer than two durations yields a zero standard deviation.
func Summarize(windows []Window) Summary {
	s := Summary{Windows: len(windows)}
	var durations []float64
	for _, w := range windows {
		s.Moments += len(w.Moments)
		s.Retrograde += w.RetrogradeCount
		if w.Empty() {
			continue
		}
		durations = append(durations, w.Moments[len(w.Moments)-1].End-w.Moments[0].Begin)
	}
	if len(durations) == 0 {
		return s
	}
	mean, stddev := stat.MeanStdDev(durations, nil)
	s.MeanDurationDays = mean
	if len(durations) > 1 {
		s.StdDevDurationDays = stddev
	}
	return s
}
