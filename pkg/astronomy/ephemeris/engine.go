// Package ephemeris computes geocentric ecliptic positions of the catalog
// bodies from Keplerian orbital elements with first-order periodic
// perturbations.
//
// Accuracy budget: inner planets within 0.1 degree, outer planets and the
// Moon within 0.5 degrees, over roughly 1800-2200 CE. Callers that need a
// tighter contract need a numerical ephemeris instead of this theory.
package ephemeris

import (
	"math"

	errorsmod "cosmossdk.io/errors"

	"github.com/astrokairos/aspectarian/pkg/astronomy/angle"
	"github.com/astrokairos/aspectarian/pkg/astronomy/kepler"
	astromath "github.com/astrokairos/aspectarian/pkg/astronomy/math"
	"github.com/astrokairos/aspectarian/pkg/catalog"
)

// PositionSample is the computed state of one body at one instant.
// Longitude is in [0,360) degrees; distance is AU and zero for the virtual
// points (nodes, Lilith), which have no radial coordinate. Speeds are per
// day, obtained by symmetric finite difference through the same pipeline,
// and are the sole retrograde/station signal used downstream.
type PositionSample struct {
	Longitude float64
	Latitude  float64
	Distance  float64

	LongitudeSpeed float64
	LatitudeSpeed  float64
	DistanceSpeed  float64
}

// Retrograde reports whether the body's apparent longitude is decreasing.
func (s PositionSample) Retrograde() bool { return s.LongitudeSpeed < 0 }

const (
	// derivativeStep is the half-width of the symmetric finite difference,
	// one minute of time. Small enough that the derivative tracks station
	// passages, large enough to stay clear of float cancellation.
	derivativeStep = 1.0 / 1440

	earthRadiusAU   = 4.26352e-5
	aberrationConst = 20.49552 // arcseconds
)

// Engine turns (time, body) into position samples, scalar or batched.
// A scalar call is a length-one batch; there is a single array-oriented
// pipeline. The optional cache is injected at construction so tests can
// run with caching disabled.
type Engine struct {
	cache *Cache
}

// NewEngine creates an engine. cache may be nil to disable memoization.
func NewEngine(cache *Cache) *Engine {
	return &Engine{cache: cache}
}

// Position computes the geocentric state of a body at a Julian day number.
func (e *Engine) Position(jd float64, body catalog.Body) (PositionSample, error) {
	samples, err := e.PositionBatch([]float64{jd}, body)
	if err != nil {
		return PositionSample{}, err
	}
	return samples[0], nil
}

// PositionBatch computes the geocentric state of one body at every time in
// jd. Positions for all samples flow through one batched pipeline rather
// than a scalar loop.
func (e *Engine) PositionBatch(jd []float64, body catalog.Body) ([]PositionSample, error) {
	if !body.Valid() {
		return nil, errorsmod.Wrapf(catalog.ErrUnknownBody, "id %d", int(body))
	}

	out := make([]PositionSample, len(jd))
	missingIdx := make([]int, 0, len(jd))
	missingJD := make([]float64, 0, len(jd))
	for i, t := range jd {
		if e.cache != nil {
			if s, ok := e.cache.get(t, body); ok {
				out[i] = s
				continue
			}
		}
		missingIdx = append(missingIdx, i)
		missingJD = append(missingJD, t)
	}
	if len(missingIdx) == 0 {
		return out, nil
	}

	computed, err := e.compute(missingJD, body)
	if err != nil {
		return nil, err
	}
	for k, i := range missingIdx {
		out[i] = computed[k]
		if e.cache != nil {
			e.cache.put(jd[i], body, computed[k])
		}
	}
	return out, nil
}

// ClearCache drops all memoized positions.
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

// compute evaluates the instantaneous state at t-h, t, t+h for every
// requested time in one batched pass and differences the flanks.
func (e *Engine) compute(jd []float64, body catalog.Body) ([]PositionSample, error) {
	n := len(jd)
	ext := make([]float64, 3*n)
	for i, t := range jd {
		ext[i] = t - derivativeStep
		ext[n+i] = t
		ext[2*n+i] = t + derivativeStep
	}

	states, err := e.states(ext, body)
	if err != nil {
		return nil, err
	}

	out := make([]PositionSample, n)
	for i := range jd {
		lo, mid, hi := states[i], states[n+i], states[2*n+i]
		out[i] = PositionSample{
			Longitude:      mid.lon,
			Latitude:       mid.lat,
			Distance:       mid.dist,
			LongitudeSpeed: angle.Wrap180(hi.lon-lo.lon) / (2 * derivativeStep),
			LatitudeSpeed:  (hi.lat - lo.lat) / (2 * derivativeStep),
			DistanceSpeed:  (hi.dist - lo.dist) / (2 * derivativeStep),
		}
	}
	return out, nil
}

type bodyState struct {
	lon, lat, dist float64
}

func (e *Engine) states(jd []float64, body catalog.Body) ([]bodyState, error) {
	switch body {
	case catalog.Sun:
		return sunStates(jd)
	case catalog.Moon:
		return moonStates(jd)
	case catalog.MeanNode:
		return meanNodeStates(jd), nil
	case catalog.TrueNode:
		return trueNodeStates(jd), nil
	case catalog.Lilith:
		return lilithStates(jd), nil
	default:
		return planetStates(jd, body)
	}
}

// heliocentricVectors computes rectangular ecliptic positions from the
// propagated elements, solving the Kepler equation for the whole batch at
// once.
func heliocentricVectors(el Elements, jd []float64) ([]astromath.Vector3, error) {
	const deg = math.Pi / 180

	n := len(jd)
	M := make([]float64, n)
	ecc := make([]float64, n)
	props := make([]Elements, n)
	for i, t := range jd {
		p := el.at(daysSinceEpoch(t))
		props[i] = p
		M[i] = p.MeanAnomaly * deg
		ecc[i] = p.Eccentricity
	}

	E, err := kepler.SolveBatch(M, ecc)
	if err != nil {
		return nil, err
	}

	out := make([]astromath.Vector3, n)
	for i := range out {
		p := props[i]

		// Orbital-plane position from the eccentric anomaly.
		xp := p.Axis * (math.Cos(E[i]) - p.Eccentricity)
		yp := p.Axis * math.Sqrt(1-p.Eccentricity*p.Eccentricity) * math.Sin(E[i])
		r := math.Hypot(xp, yp)
		v := math.Atan2(yp, xp)

		// Rotate by argument of perihelion, inclination, ascending node.
		N := p.Node * deg
		incl := p.Inclination * deg
		vw := v + p.Perihelion*deg
		out[i] = astromath.Vector3{
			X: r * (math.Cos(N)*math.Cos(vw) - math.Sin(N)*math.Sin(vw)*math.Cos(incl)),
			Y: r * (math.Sin(N)*math.Cos(vw) + math.Cos(N)*math.Sin(vw)*math.Cos(incl)),
			Z: r * math.Sin(vw) * math.Sin(incl),
		}
	}
	return out, nil
}

// sunStates derives the Sun's apparent geocentric position as the negated
// heliocentric Earth vector.
func sunStates(jd []float64) ([]bodyState, error) {
	earth, err := heliocentricVectors(earthElements, jd)
	if err != nil {
		return nil, err
	}
	out := make([]bodyState, len(jd))
	for i, v := range earth {
		lon, lat, dist := v.Neg().ToSpherical()
		out[i] = bodyState{lon, lat, dist}
	}
	return out, nil
}

func planetStates(jd []float64, body catalog.Body) ([]bodyState, error) {
	el, ok := planetElements[body]
	if !ok {
		return nil, errorsmod.Wrapf(catalog.ErrUnknownBody, "no orbital elements for %s", body)
	}

	helio, err := heliocentricVectors(el, jd)
	if err != nil {
		return nil, err
	}
	earth, err := heliocentricVectors(earthElements, jd)
	if err != nil {
		return nil, err
	}

	out := make([]bodyState, len(jd))
	for i := range jd {
		d := daysSinceEpoch(jd[i])

		v := helio[i]
		if dLon, dLat := outerPerturbations(body, d); dLon != 0 || dLat != 0 {
			lon, lat, r := v.ToSpherical()
			v = astromath.FromSpherical(lon+dLon, lat+dLat, r)
		}

		lon, lat, dist := v.Sub(earth[i]).ToSpherical()
		dLon, dLat := aberration(lon, lat, d)
		out[i] = bodyState{angle.Normalize(lon + dLon), lat + dLat, dist}
	}
	return out, nil
}

// moonStates evaluates the geocentric lunar orbit and adds the periodic
// perturbation series, converting the tabulated Earth-radii distance to AU.
func moonStates(jd []float64) ([]bodyState, error) {
	vecs, err := heliocentricVectors(moonElements, jd)
	if err != nil {
		return nil, err
	}
	out := make([]bodyState, len(jd))
	for i, v := range vecs {
		lon, lat, r := v.ToSpherical()
		dLon, dLat, dDist := lunarPerturbations(daysSinceEpoch(jd[i]))
		out[i] = bodyState{
			lon:  angle.Normalize(lon + dLon),
			lat:  lat + dLat,
			dist: (r + dDist) * earthRadiusAU,
		}
	}
	return out, nil
}

func meanNodeStates(jd []float64) []bodyState {
	out := make([]bodyState, len(jd))
	for i, t := range jd {
		out[i] = bodyState{lon: angle.Normalize(meanNodeLongitude + meanNodeRate*daysSinceEpoch(t))}
	}
	return out
}

// trueNodeStates corrects the mean node with the leading nutation terms.
func trueNodeStates(jd []float64) []bodyState {
	const deg = math.Pi / 180
	out := make([]bodyState, len(jd))
	for i, t := range jd {
		d := daysSinceEpoch(t)
		mean := angle.Normalize(meanNodeLongitude + meanNodeRate*d)
		moon := moonElements.at(d)
		earth := earthElements.at(d)
		dPsi := -0.0048*math.Sin(2*mean*deg) -
			0.0024*math.Sin(2*moon.MeanAnomaly*deg) -
			0.0017*math.Sin(earth.MeanAnomaly*deg)
		out[i] = bodyState{lon: angle.Normalize(mean + dPsi)}
	}
	return out
}

func lilithStates(jd []float64) []bodyState {
	out := make([]bodyState, len(jd))
	for i, t := range jd {
		out[i] = bodyState{lon: angle.Normalize(lilithLongitude + lilithRate*daysSinceEpoch(t))}
	}
	return out
}

// aberration returns the annual-aberration corrections in degrees for an
// apparent geocentric direction. lon and lat are degrees.
func aberration(lon, lat, d float64) (dLon, dLat float64) {
	const deg = math.Pi / 180

	earth := earthElements.at(d)
	sunLon := angle.Normalize(earth.Perihelion+180+earth.MeanAnomaly) * deg
	sunPerihelion := angle.Normalize(earth.Perihelion+180) * deg
	ecc := earth.Eccentricity

	lonRad := lon * deg
	latRad := lat * deg

	dLonAS := (-aberrationConst*math.Cos(sunLon-lonRad) +
		aberrationConst*ecc*math.Cos(sunPerihelion-lonRad)) / math.Cos(latRad)
	dLatAS := -aberrationConst * math.Sin(latRad) *
		(math.Sin(sunLon-lonRad) - ecc*math.Sin(sunPerihelion-lonRad))

	return dLonAS / 3600, dLatAS / 3600
}
