// Package angle provides normalization and shortest-path distance helpers
// for ecliptic longitudes in degrees.
package angle

import "math"

// Normalize reduces an angle to the [0,360) range.
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Wrap180 reduces an angle to the (-180,180] range.
func Wrap180(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}

// Distance returns the shortest angular separation between two positions,
// always in [0,180]. Symmetric; zero iff the positions coincide mod 360.
func Distance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		return 360 - d
	}
	return d
}

// DistanceSlice writes the pairwise Distance of a and b into dst and
// returns it. All three slices must have equal length; dst may alias a or b.
func DistanceSlice(dst, a, b []float64) []float64 {
	for i := range a {
		dst[i] = Distance(a[i], b[i])
	}
	return dst
}
