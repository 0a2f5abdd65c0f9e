package ephemeris

import (
	"github.com/astrokairos/aspectarian/pkg/astronomy/angle"
	"github.com/astrokairos/aspectarian/pkg/catalog"
)

// epochJD is the epoch of this element set: 1999 December 31.0 (day 0 of
// 2000). All secular rates below are per day from this epoch.
const epochJD = 2451543.5

func daysSinceEpoch(jd float64) float64 { return jd - epochJD }

// Elements holds Keplerian orbital elements at the table epoch together
// with their secular rates. Angles are degrees; the semi-major axis is AU
// except for the Moon, whose geocentric orbit is tabulated in Earth radii.
type Elements struct {
	Node         float64 // longitude of ascending node
	Inclination  float64
	Perihelion   float64 // argument of perihelion
	Axis         float64 // semi-major axis
	Eccentricity float64
	MeanAnomaly  float64

	NodeRate         float64
	InclinationRate  float64
	PerihelionRate   float64
	EccentricityRate float64
	MeanAnomalyRate  float64
}

// at propagates the elements d days past the epoch. Angles are normalized
// to [0,360); the semi-major axis is secularly constant.
func (el Elements) at(d float64) Elements {
	return Elements{
		Node:         angle.Normalize(el.Node + el.NodeRate*d),
		Inclination:  el.Inclination + el.InclinationRate*d,
		Perihelion:   angle.Normalize(el.Perihelion + el.PerihelionRate*d),
		Axis:         el.Axis,
		Eccentricity: el.Eccentricity + el.EccentricityRate*d,
		MeanAnomaly:  angle.Normalize(el.MeanAnomaly + el.MeanAnomalyRate*d),
	}
}

// earthElements is the Earth's heliocentric orbit. The Sun's apparent
// geocentric position is the negated Earth vector, so the argument of
// perihelion here is 180 degrees from the Sun's apparent one.
var earthElements = Elements{
	Node:             0,
	Inclination:      0,
	Perihelion:       102.9404,
	Axis:             1.000000,
	Eccentricity:     0.016709,
	MeanAnomaly:      356.0470,
	PerihelionRate:   4.70935e-5,
	EccentricityRate: -1.151e-9,
	MeanAnomalyRate:  0.9856002585,
}

// moonElements is the Moon's geocentric orbit with the semi-major axis in
// Earth radii. Periodic perturbations are applied on top (perturbation.go).
var moonElements = Elements{
	Node:            125.1228,
	Inclination:     5.1454,
	Perihelion:      318.0634,
	Axis:            60.2666,
	Eccentricity:    0.0549,
	MeanAnomaly:     115.3654,
	NodeRate:        -0.0529538083,
	PerihelionRate:  0.1643573223,
	MeanAnomalyRate: 13.0649929509,
}

// planetElements holds the heliocentric orbits of the planets. Pluto's
// entry is a simplified mean orbit without secular rates on the angles,
// adequate for the sub-degree accuracy budget.
var planetElements = map[catalog.Body]Elements{
	catalog.Mercury: {
		Node: 48.3313, Inclination: 7.0047, Perihelion: 29.1241,
		Axis: 0.387098, Eccentricity: 0.205635, MeanAnomaly: 168.6562,
		NodeRate: 3.24587e-5, InclinationRate: 5.00e-8, PerihelionRate: 1.01444e-5,
		EccentricityRate: 5.59e-10, MeanAnomalyRate: 4.0923344368,
	},
	catalog.Venus: {
		Node: 76.6799, Inclination: 3.3946, Perihelion: 54.8910,
		Axis: 0.723330, Eccentricity: 0.006773, MeanAnomaly: 48.0052,
		NodeRate: 2.46590e-5, InclinationRate: 2.75e-8, PerihelionRate: 1.38374e-5,
		EccentricityRate: -1.30e-9, MeanAnomalyRate: 1.6021302244,
	},
	catalog.Mars: {
		Node: 49.5574, Inclination: 1.8497, Perihelion: 286.5016,
		Axis: 1.523688, Eccentricity: 0.093405, MeanAnomaly: 18.6021,
		NodeRate: 2.11081e-5, InclinationRate: -1.78e-8, PerihelionRate: 2.92961e-5,
		EccentricityRate: 2.51e-9, MeanAnomalyRate: 0.5240207766,
	},
	catalog.Jupiter: {
		Node: 100.4542, Inclination: 1.3030, Perihelion: 273.8777,
		Axis: 5.20256, Eccentricity: 0.048498, MeanAnomaly: 19.8950,
		NodeRate: 2.76854e-5, InclinationRate: -1.557e-7, PerihelionRate: 1.6450e-5,
		EccentricityRate: 4.469e-9, MeanAnomalyRate: 0.0830853001,
	},
	catalog.Saturn: {
		Node: 113.6634, Inclination: 2.4886, Perihelion: 339.3939,
		Axis: 9.55475, Eccentricity: 0.055546, MeanAnomaly: 316.9670,
		NodeRate: 2.38980e-5, InclinationRate: -1.081e-7, PerihelionRate: 2.97661e-5,
		EccentricityRate: -9.499e-9, MeanAnomalyRate: 0.0334442282,
	},
	catalog.Uranus: {
		Node: 74.0005, Inclination: 0.7733, Perihelion: 96.6612,
		Axis: 19.18171, Eccentricity: 0.047318, MeanAnomaly: 142.5905,
		NodeRate: 1.3978e-5, InclinationRate: 1.9e-8, PerihelionRate: 3.0565e-5,
		EccentricityRate: 7.45e-9, MeanAnomalyRate: 0.011725806,
	},
	catalog.Neptune: {
		Node: 131.7806, Inclination: 1.7700, Perihelion: 272.8461,
		Axis: 30.05826, Eccentricity: 0.008606, MeanAnomaly: 260.2471,
		NodeRate: 3.0173e-5, InclinationRate: -2.55e-7, PerihelionRate: -6.027e-6,
		EccentricityRate: 2.15e-9, MeanAnomalyRate: 0.005995147,
	},
	catalog.Pluto: {
		Node: 110.30, Inclination: 17.14, Perihelion: 113.76,
		Axis: 39.48, Eccentricity: 0.2488, MeanAnomaly: 238.93,
		MeanAnomalyRate: 0.00396,
	},
}

// Mean-element constants for the virtual points.
const (
	meanNodeLongitude = 125.1228
	meanNodeRate      = -0.0529538083

	lilithLongitude = 83.3532
	lilithRate      = 0.1114040803
)
