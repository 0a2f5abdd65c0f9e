// Package catalog holds the static body and aspect tables used throughout
// the library. Both tables are immutable; customization happens through an
// OrbPolicy passed explicitly into calls, never by mutating the tables.
package catalog

import (
	"strings"

	errorsmod "cosmossdk.io/errors"
)

var (
	ErrInvalidArgument = errorsmod.Register("catalog", 2, "invalid argument")
	ErrUnknownBody     = errorsmod.Register("catalog", 3, "unknown body")
	ErrUnknownAspect   = errorsmod.Register("catalog", 4, "unknown aspect")
)

// Body identifies a celestial body. The set is closed; identifiers are
// stable and index into the body table.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
	MeanNode
	TrueNode
	Lilith

	numBodies
)

// bodyInfo is one row of the body table: display name, orb of influence in
// degrees (after Abu Ma'shar and Al-Biruni), and mean speed in degrees per
// day. The speed is a search-resolution hint only, not an ephemeris value.
type bodyInfo struct {
	name  string
	orb   float64
	speed float64
}

// Published tables disagree on the mean node's rate (-0.013 vs -0.053
// deg/day) and on Lilith's sign and magnitude (+0.113 vs -0.113 and
// 0.1114). The values here follow the body table that the search code was
// tuned against; since speed is only a grid-step hint, the disagreement
// does not affect results, but it should be reconciled against an
// authoritative ephemeris before the table is treated as canonical.
var bodyTable = [numBodies]bodyInfo{
	Sun:      {"Sun", 12, 0.986},
	Moon:     {"Moon", 12, 13.176},
	Mercury:  {"Mercury", 8, 1.383},
	Venus:    {"Venus", 10, 1.2},
	Mars:     {"Mars", 8, 0.524},
	Jupiter:  {"Jupiter", 10, 0.083},
	Saturn:   {"Saturn", 10, 0.034},
	Uranus:   {"Uranus", 6, 0.012},
	Neptune:  {"Neptune", 6, 0.007},
	Pluto:    {"Pluto", 4, 0.004},
	MeanNode: {"Rahu", 0, -0.013},
	TrueNode: {"North Node", 0, -0.013},
	Lilith:   {"Lilith", 0, 0.113},
}

// Valid reports whether b is one of the defined bodies.
func (b Body) Valid() bool { return b >= Sun && b < numBodies }

func (b Body) String() string {
	if !b.Valid() {
		return "unknown"
	}
	return bodyTable[b].name
}

// Orb returns the body's base orb of influence in degrees.
func (b Body) Orb() float64 {
	if !b.Valid() {
		return 0
	}
	return bodyTable[b].orb
}

// MeanSpeed returns the body's nominal angular speed in degrees per day.
// It is a hint for search-grid sizing, not an authoritative rate.
func (b Body) MeanSpeed() float64 {
	if !b.Valid() {
		return 0
	}
	return bodyTable[b].speed
}

// BodyByName resolves a display name to a body identifier. Matching is
// case-insensitive.
func BodyByName(name string) (Body, error) {
	for b := Sun; b < numBodies; b++ {
		if strings.EqualFold(bodyTable[b].name, name) {
			return b, nil
		}
	}
	return 0, errorsmod.Wrapf(ErrUnknownBody, "%q", name)
}

// Bodies returns all defined bodies in identifier order.
func Bodies() []Body {
	out := make([]Body, numBodies)
	for b := Sun; b < numBodies; b++ {
		out[b] = b
	}
	return out
}

// Aspect identifies an angular aspect. The set is closed.
type Aspect int

const (
	Conjunction Aspect = iota
	SemiSextile
	Sextile
	Square
	Trine
	Quincunx
	Opposition

	numAspects
)

type aspectInfo struct {
	name  string
	angle float64
	coef  float64
}

var aspectTable = [numAspects]aspectInfo{
	Conjunction: {"Conjunction", 0, 1},
	SemiSextile: {"Semi-sextile", 30, 1.0 / 6},
	Sextile:     {"Sextile", 60, 1.0 / 3},
	Square:      {"Square", 90, 1.0 / 2},
	Trine:       {"Trine", 120, 2.0 / 3},
	Quincunx:    {"Quincunx", 150, 5.0 / 6},
	Opposition:  {"Opposition", 180, 1},
}

// Valid reports whether a is one of the defined aspects.
func (a Aspect) Valid() bool { return a >= Conjunction && a < numAspects }

func (a Aspect) String() string {
	if !a.Valid() {
		return "unknown"
	}
	return aspectTable[a].name
}

// Angle returns the target angular separation in degrees.
func (a Aspect) Angle() float64 {
	if !a.Valid() {
		return 0
	}
	return aspectTable[a].angle
}

// Coefficient returns the harmonic coefficient that scales the averaged
// body orb into the aspect-specific orb.
func (a Aspect) Coefficient() float64 {
	if !a.Valid() {
		return 0
	}
	return aspectTable[a].coef
}

// AspectByName resolves a display name to an aspect identifier. Matching
// is case-insensitive.
func AspectByName(name string) (Aspect, error) {
	for a := Conjunction; a < numAspects; a++ {
		if strings.EqualFold(aspectTable[a].name, name) {
			return a, nil
		}
	}
	return 0, errorsmod.Wrapf(ErrUnknownAspect, "%q", name)
}

// AspectByAngle resolves a target angle to an aspect identifier.
func AspectByAngle(angle float64) (Aspect, error) {
	for a := Conjunction; a < numAspects; a++ {
		if aspectTable[a].angle == angle {
			return a, nil
		}
	}
	return 0, errorsmod.Wrapf(ErrUnknownAspect, "angle %v", angle)
}

// Aspects returns all defined aspects in identifier order.
func Aspects() []Aspect {
	out := make([]Aspect, numAspects)
	for a := Conjunction; a < numAspects; a++ {
		out[a] = a
	}
	return out
}

// OrbFor returns the orb in degrees for an aspect between two bodies:
// the half-sum of the base orbs scaled by the aspect coefficient.
// Symmetric in b1 and b2.
func OrbFor(b1, b2 Body, a Aspect) float64 {
	return (b1.Orb() + b2.Orb()) / 2 * a.Coefficient()
}

// OrbPolicy overrides base orbs for selected bodies. The zero value applies
// no overrides. A policy's effect is confined to the calls it is passed to.
type OrbPolicy struct {
	BodyOrbs map[Body]float64
}

// OrbFor is like the package-level OrbFor with the policy's per-body
// overrides applied.
func (p *OrbPolicy) OrbFor(b1, b2 Body, a Aspect) float64 {
	return (p.baseOrb(b1) + p.baseOrb(b2)) / 2 * a.Coefficient()
}

func (p *OrbPolicy) baseOrb(b Body) float64 {
	if p != nil && p.BodyOrbs != nil {
		if orb, ok := p.BodyOrbs[b]; ok {
			return orb
		}
	}
	return b.Orb()
}
