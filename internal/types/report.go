package types

import (
	"time"

	"github.com/astrokairos/aspectarian/pkg/aspect/window"
)

// PositionReport is one body's computed state prepared for output
type PositionReport struct {
	Body           string  `json:"body"`
	JulianDay      float64 `json:"julian_day"`
	Longitude      float64 `json:"longitude"`       // degrees
	Latitude       float64 `json:"latitude"`        // degrees
	Distance       float64 `json:"distance"`        // AU
	LongitudeSpeed float64 `json:"longitude_speed"` // degrees/day
	Retrograde     bool    `json:"retrograde"`
}

// AspectReport is one detected aspect prepared for output
type AspectReport struct {
	Body1  string  `json:"body1"`
	Body2  string  `json:"body2"`
	Aspect string  `json:"aspect"`
	Orb    float64 `json:"orb"`
	Delta  float64 `json:"delta"`
	Exact  bool    `json:"exact"`
}

// MomentReport is one exact aspect occurrence with calendar times
type MomentReport struct {
	Begin     time.Time `json:"begin"`
	Exact     time.Time `json:"exact"`
	End       time.Time `json:"end"`
	BeginJD   float64   `json:"begin_jd"`
	ExactJD   float64   `json:"exact_jd"`
	EndJD     float64   `json:"end_jd"`
	Orb       float64   `json:"orb"`
	Motion    string    `json:"motion"`
	Duration  string    `json:"duration"`
}

// WindowReport is one aspect window prepared for output
type WindowReport struct {
	Body1           string         `json:"body1"`
	Body2           string         `json:"body2"`
	Aspect          string         `json:"aspect"`
	Moments         []MomentReport `json:"moments"`
	RetrogradeCount int            `json:"retrograde_count"`
	Empty           bool           `json:"empty"`
}

// TimelineReport is the result of a timeline search prepared for output
type TimelineReport struct {
	Body1   string          `json:"body1"`
	Body2   string          `json:"body2"`
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	Windows []WindowReport  `json:"windows"`
	Summary *window.Summary `json:"summary,omitempty"`
}
