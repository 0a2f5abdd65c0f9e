// Package aspect detects angular aspects between pairs of bodies from
// their ecliptic longitudes.
package aspect

import (
	errorsmod "cosmossdk.io/errors"

	"github.com/astrokairos/aspectarian/pkg/astronomy/angle"
	"github.com/astrokairos/aspectarian/pkg/astronomy/ephemeris"
	"github.com/astrokairos/aspectarian/pkg/catalog"
)

// ErrInvalidArgument is returned for malformed detector inputs.
var ErrInvalidArgument = errorsmod.Register("aspect", 2, "invalid argument")

// PositionProvider supplies body states to the detector. It is satisfied
// by *ephemeris.Engine; tests substitute synthetic orbits.
type PositionProvider interface {
	Position(jd float64, body catalog.Body) (ephemeris.PositionSample, error)
	PositionBatch(jd []float64, body catalog.Body) ([]ephemeris.PositionSample, error)
}

// Match is one detected aspect between a body pair at one instant.
//
// Delta is the signed deviation: angular separation minus the aspect's
// exact angle. Negative means the separation has not yet reached the
// aspect angle; the magnitude never exceeds Orb.
type Match struct {
	Body1  catalog.Body
	Body2  catalog.Body
	Aspect catalog.Aspect
	Orb    float64
	Delta  float64
}

// Exact reports whether the aspect is partile, within a hundredth of a
// degree of the exact angle.
func (m Match) Exact() bool { return m.Delta > -0.01 && m.Delta < 0.01 }

// Detector classifies body-pair separations against the aspect catalog.
// The zero value is not usable; construct with NewDetector.
type Detector struct {
	provider PositionProvider
	policy   *catalog.OrbPolicy
}

// NewDetector creates a detector. policy may be nil to use the catalog's
// default orbs.
func NewDetector(provider PositionProvider, policy *catalog.OrbPolicy) *Detector {
	return &Detector{provider: provider, policy: policy}
}

func (d *Detector) orbFor(b1, b2 catalog.Body, a catalog.Aspect) float64 {
	if d.policy != nil {
		return d.policy.OrbFor(b1, b2, a)
	}
	return catalog.OrbFor(b1, b2, a)
}

// classify maps a separation in [0,180] to the tightest matching aspect.
// When two aspect intervals overlap the smaller |Delta| wins.
func (d *Detector) classify(b1, b2 catalog.Body, sep float64) (Match, bool) {
	best := Match{Body1: b1, Body2: b2}
	found := false
	for _, a := range catalog.Aspects() {
		orb := d.orbFor(b1, b2, a)
		if orb <= 0 {
			continue
		}
		delta := sep - a.Angle()
		if delta < -orb || delta > orb {
			continue
		}
		if !found || abs(delta) < abs(best.Delta) {
			best.Aspect = a
			best.Orb = orb
			best.Delta = delta
			found = true
		}
	}
	return best, found
}

// Match reports the aspect, if any, between two bodies at a Julian day
// number. The boolean is false when the pair is not within orb of any
// catalog aspect.
func (d *Detector) Match(jd float64, b1, b2 catalog.Body) (Match, bool, error) {
	if b1 == b2 {
		return Match{}, false, errorsmod.Wrapf(ErrInvalidArgument, "identical bodies %s", b1)
	}
	p1, err := d.provider.Position(jd, b1)
	if err != nil {
		return Match{}, false, err
	}
	p2, err := d.provider.Position(jd, b2)
	if err != nil {
		return Match{}, false, err
	}
	m, ok := d.classify(b1, b2, angle.Distance(p1.Longitude, p2.Longitude))
	return m, ok, nil
}

// MatchAll scans every unordered pair from bodies and returns the matches
// in pair order. An empty or single-element body list yields no matches.
func (d *Detector) MatchAll(jd float64, bodies []catalog.Body) ([]Match, error) {
	var out []Match
	positions := make(map[catalog.Body]ephemeris.PositionSample, len(bodies))
	for _, b := range bodies {
		if _, ok := positions[b]; ok {
			return nil, errorsmod.Wrapf(ErrInvalidArgument, "duplicate body %s", b)
		}
		p, err := d.provider.Position(jd, b)
		if err != nil {
			return nil, err
		}
		positions[b] = p
	}
	for i, b1 := range bodies {
		for _, b2 := range bodies[i+1:] {
			sep := angle.Distance(positions[b1].Longitude, positions[b2].Longitude)
			if m, ok := d.classify(b1, b2, sep); ok {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// MatchAllBatch runs MatchAll at each time in jd, fetching each body's
// positions as one batch per body. The result is indexed like jd.
func (d *Detector) MatchAllBatch(jd []float64, bodies []catalog.Body) ([][]Match, error) {
	seen := make(map[catalog.Body]struct{}, len(bodies))
	longitudes := make(map[catalog.Body][]float64, len(bodies))
	for _, b := range bodies {
		if _, ok := seen[b]; ok {
			return nil, errorsmod.Wrapf(ErrInvalidArgument, "duplicate body %s", b)
		}
		seen[b] = struct{}{}
		samples, err := d.provider.PositionBatch(jd, b)
		if err != nil {
			return nil, err
		}
		lons := make([]float64, len(samples))
		for i, s := range samples {
			lons[i] = s.Longitude
		}
		longitudes[b] = lons
	}

	out := make([][]Match, len(jd))
	for t := range jd {
		var matches []Match
		for i, b1 := range bodies {
			for _, b2 := range bodies[i+1:] {
				sep := angle.Distance(longitudes[b1][t], longitudes[b2][t])
				if m, ok := d.classify(b1, b2, sep); ok {
					matches = append(matches, m)
				}
			}
		}
		out[t] = matches
	}
	return out, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
