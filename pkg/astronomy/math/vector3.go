// Package math provides small geometric primitives shared by the
// ephemeris pipeline.
package math

import "math"

// Vector3 is a rectangular ecliptic position in AU.
type Vector3 struct {
	X, Y, Z float64
}

// Add returns the sum of two vectors.
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns the difference between two vectors.
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns the vector scaled by a scalar.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Neg returns the opposite vector.
func (v Vector3) Neg() Vector3 {
	return Vector3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Magnitude returns the length of the vector.
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// ToSpherical converts to ecliptic longitude and latitude in degrees and
// radial distance. Longitude is in [0,360). A zero vector maps to the
// origin of both angles.
func (v Vector3) ToSpherical() (lon, lat, r float64) {
	r = v.Magnitude()
	if r == 0 {
		return 0, 0, 0
	}
	lon = math.Atan2(v.Y, v.X) * 180 / math.Pi
	if lon < 0 {
		lon += 360
	}
	lat = math.Asin(v.Z/r) * 180 / math.Pi
	return lon, lat, r
}

// FromSpherical builds a rectangular vector from ecliptic longitude and
// latitude in degrees and radial distance.
func FromSpherical(lon, lat, r float64) Vector3 {
	lonRad := lon * math.Pi / 180
	latRad := lat * math.Pi / 180
	return Vector3{
		X: r * math.Cos(lonRad) * math.Cos(latRad),
		Y: r * math.Sin(lonRad) * math.Cos(latRad),
		Z: r * math.Sin(latRad),
	}
}
