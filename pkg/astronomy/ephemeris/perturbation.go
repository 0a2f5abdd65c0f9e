package ephemeris

import (
	"math"

	"github.com/astrokairos/aspectarian/pkg/astronomy/angle"
	"github.com/astrokairos/aspectarian/pkg/catalog"
)

// lunarArgs are the fundamental arguments of the first-order lunar theory,
// in radians: the Moon's mean anomaly, its mean elongation from the Sun,
// the Sun's mean anomaly, and the Moon's argument of latitude.
type lunarArgs struct {
	Mm, D, Ms, F float64
}

func lunarArgsAt(d float64) lunarArgs {
	moon := moonElements.at(d)
	earth := earthElements.at(d)

	// Mean longitudes. The elongation is measured against the Sun's
	// apparent direction, whose perihelion sits 180 degrees from the
	// Earth's heliocentric one tabulated in earthElements.
	sunLon := angle.Normalize(earth.Perihelion + 180 + earth.MeanAnomaly)
	moonLon := angle.Normalize(moon.Node + moon.Perihelion + moon.MeanAnomaly)

	deg := math.Pi / 180
	return lunarArgs{
		Mm: moon.MeanAnomaly * deg,
		D:  angle.Normalize(moonLon-sunLon) * deg,
		Ms: earth.MeanAnomaly * deg,
		F:  angle.Normalize(moonLon-moon.Node) * deg,
	}
}

// lunarTerm is one periodic term: amplitude (degrees for the angle series,
// Earth radii for the distance series) applied to the sine (or cosine, for
// distance) of an integer combination of the fundamental arguments.
type lunarTerm struct {
	amp          float64
	mm, d, ms, f int
}

func (t lunarTerm) argument(a lunarArgs) float64 {
	return float64(t.mm)*a.Mm + float64(t.d)*a.D + float64(t.ms)*a.Ms + float64(t.f)*a.F
}

// The twelve largest longitude terms: evection, variation, the yearly
// equation, and the parallactic equation among them.
var lunarLongitudeTerms = []lunarTerm{
	{-1.274, 1, -2, 0, 0}, // evection
	{0.658, 0, 2, 0, 0},   // variation
	{-0.186, 0, 0, 1, 0},  // yearly equation
	{-0.059, 2, -2, 0, 0},
	{-0.057, 1, -2, 1, 0},
	{0.053, 1, 2, 0, 0},
	{0.046, 0, 2, -1, 0},
	{0.041, 1, 0, -1, 0},
	{-0.035, 0, 1, 0, 0}, // parallactic equation
	{-0.031, 1, 0, 1, 0},
	{-0.015, 0, -2, 0, 2},
	{0.011, 1, -4, 0, 0},
}

var lunarLatitudeTerms = []lunarTerm{
	{-0.173, 0, -2, 0, 1},
	{-0.055, 1, -2, 0, -1},
	{-0.046, 1, -2, 0, 1},
	{0.033, 0, 2, 0, 1},
	{0.017, 2, 0, 0, 1},
}

// Distance terms are cosine series in Earth radii.
var lunarDistanceTerms = []lunarTerm{
	{-0.58, 1, -2, 0, 0},
	{-0.46, 0, 2, 0, 0},
}

// lunarPerturbations returns the longitude and latitude corrections in
// degrees and the distance correction in Earth radii for d days past epoch.
func lunarPerturbations(d float64) (dLon, dLat, dDist float64) {
	a := lunarArgsAt(d)
	for _, t := range lunarLongitudeTerms {
		dLon += t.amp * math.Sin(t.argument(a))
	}
	for _, t := range lunarLatitudeTerms {
		dLat += t.amp * math.Sin(t.argument(a))
	}
	for _, t := range lunarDistanceTerms {
		dDist += t.amp * math.Cos(t.argument(a))
	}
	return dLon, dLat, dDist
}

// outerTerm is one long-period term of the Jupiter-Saturn-Uranus mutual
// perturbations: amplitude in degrees applied to sin (or cos) of an
// integer combination of the three mean anomalies plus a phase.
type outerTerm struct {
	amp           float64
	jup, sat, ura int
	phase         float64 // degrees
	cos           bool
}

func (t outerTerm) value(Mj, Ms, Mu float64) float64 {
	arg := float64(t.jup)*Mj + float64(t.sat)*Ms + float64(t.ura)*Mu + t.phase*math.Pi/180
	if t.cos {
		return t.amp * math.Cos(arg)
	}
	return t.amp * math.Sin(arg)
}

// The dominant term of the great Jupiter-Saturn inequality appears in both
// planets' longitude series with opposite sign conventions.
var (
	jupiterLongitudeTerms = []outerTerm{
		{amp: -0.332, jup: 2, sat: -5, phase: -67.6},
		{amp: -0.056, jup: 2, sat: -2, phase: 21},
		{amp: 0.042, jup: 3, sat: -5, phase: 21},
		{amp: -0.036, jup: 1, sat: -2},
		{amp: 0.022, jup: 1, sat: -1, cos: true},
		{amp: 0.023, jup: 2, sat: -3, phase: 52},
		{amp: -0.016, jup: 1, sat: -5, phase: -69},
	}

	saturnLongitudeTerms = []outerTerm{
		{amp: 0.812, jup: 2, sat: -5, phase: -67.6},
		{amp: -0.229, jup: 2, sat: -4, phase: -2, cos: true},
		{amp: 0.119, jup: 1, sat: -2, phase: -3},
		{amp: 0.046, jup: 2, sat: -6, phase: -69},
		{amp: 0.014, jup: 1, sat: -3, phase: 32},
	}

	saturnLatitudeTerms = []outerTerm{
		{amp: -0.020, jup: 2, sat: -4, phase: -2, cos: true},
		{amp: 0.018, jup: 2, sat: -6, phase: -49},
	}

	uranusLongitudeTerms = []outerTerm{
		{amp: 0.040, sat: 1, ura: -2, phase: 6},
		{amp: 0.035, sat: 1, ura: -3, phase: 33},
		{amp: -0.015, jup: 1, ura: -1, phase: 20},
	}
)

// outerPerturbations returns the heliocentric longitude and latitude
// corrections in degrees for Jupiter, Saturn, or Uranus at d days past
// epoch. Other bodies get no correction.
func outerPerturbations(b catalog.Body, d float64) (dLon, dLat float64) {
	var lonTerms, latTerms []outerTerm
	switch b {
	case catalog.Jupiter:
		lonTerms = jupiterLongitudeTerms
	case catalog.Saturn:
		lonTerms = saturnLongitudeTerms
		latTerms = saturnLatitudeTerms
	case catalog.Uranus:
		lonTerms = uranusLongitudeTerms
	default:
		return 0, 0
	}

	deg := math.Pi / 180
	Mj := planetElements[catalog.Jupiter].at(d).MeanAnomaly * deg
	Ms := planetElements[catalog.Saturn].at(d).MeanAnomaly * deg
	Mu := planetElements[catalog.Uranus].at(d).MeanAnomaly * deg

	for _, t := range lonTerms {
		dLon += t.value(Mj, Ms, Mu)
	}
	for _, t := range latTerms {
		dLat += t.value(Mj, Ms, Mu)
	}
	return dLon, dLat
}
