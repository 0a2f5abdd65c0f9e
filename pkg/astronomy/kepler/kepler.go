// Package kepler solves Kepler's equation E - e*sin(E) = M for the
// eccentric anomaly E by Newton-Raphson iteration.
//
// Convergence is quadratic for the eccentricity range of the solar-system
// bodies handled here (e < 0.3). Hitting the iteration cap is a data
// problem rather than a usage error: the best estimate is returned, the
// occurrence is logged and counted, and no error reaches the caller.
package kepler

import (
	"log"
	"math"

	errorsmod "cosmossdk.io/errors"

	"github.com/astrokairos/aspectarian/internal/metrics"
)

// ErrInvalidEccentricity flags an eccentricity outside [0,1); parabolic and
// hyperbolic orbits are out of domain and fail fast.
var ErrInvalidEccentricity = errorsmod.Register("kepler", 2, "eccentricity out of [0,1)")

const (
	tolerance     = 1e-9 // radians
	maxIterations = 30
)

// Solve returns the eccentric anomaly for mean anomaly M (radians, any
// range) and eccentricity e.
func Solve(M, e float64) (float64, error) {
	if e < 0 || e >= 1 {
		return 0, errorsmod.Wrapf(ErrInvalidEccentricity, "e=%v", e)
	}

	E := M
	for i := 0; i < maxIterations; i++ {
		dE := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < tolerance {
			return E, nil
		}
	}

	metrics.KeplerNonConvergence.Inc()
	log.Printf("kepler: no convergence after %d iterations (M=%v e=%v), using best estimate", maxIterations, M, e)
	return E, nil
}

// SolveBatch solves the equation element-wise for equal-length slices of
// mean anomaly and eccentricity. Every element receives the same Newton
// update per sweep; converged elements are frozen so a slow element
// neither forces extra work elsewhere nor gets under-iterated itself.
func SolveBatch(M, e []float64) ([]float64, error) {
	if len(M) != len(e) {
		return nil, errorsmod.Wrapf(ErrInvalidEccentricity, "length mismatch: %d mean anomalies, %d eccentricities", len(M), len(e))
	}
	for i, ecc := range e {
		if ecc < 0 || ecc >= 1 {
			return nil, errorsmod.Wrapf(ErrInvalidEccentricity, "e[%d]=%v", i, ecc)
		}
	}

	E := make([]float64, len(M))
	copy(E, M)
	converged := make([]bool, len(M))
	remaining := len(M)

	for i := 0; i < maxIterations && remaining > 0; i++ {
		for j := range E {
			if converged[j] {
				continue
			}
			dE := (E[j] - e[j]*math.Sin(E[j]) - M[j]) / (1 - e[j]*math.Cos(E[j]))
			E[j] -= dE
			if math.Abs(dE) < tolerance {
				converged[j] = true
				remaining--
			}
		}
	}

	if remaining > 0 {
		metrics.KeplerNonConvergence.Add(float64(remaining))
		log.Printf("kepler: %d of %d batch elements hit the iteration cap, using best estimates", remaining, len(M))
	}
	return E, nil
}
