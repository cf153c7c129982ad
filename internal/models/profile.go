package models

import (
	"errors"
	"fmt"
)

const millisPerHour = int64(60 * 60 * 1000)

// Point is one set point of a temperature profile.
type Point struct {
	HoursSinceStart int `json:"hoursSinceStart"`
	TargetTemp      int `json:"targetTemp"` // degrees x 10
}

// TemperatureProfile is a user defined list of set points. The first point is at
// hour 0; the last point's target is held indefinitely.
type TemperatureProfile struct {
	Points []Point `json:"points"`
}

var (
	ErrEmptyProfile    = errors.New("profile has no points")
	ErrNegativeOffset  = errors.New("millisSinceStart cannot be negative")
	errFirstPointNotT0 = errors.New("first profile point isn't at t0")
)

func validTargetTemp(t int) bool {
	return -500 < t && t < 500
}

// AddPoint appends a set point. Points must be added in chronological order.
func (p *TemperatureProfile) AddPoint(hoursSinceStart, targetTemp int) error {
	if hoursSinceStart < 0 {
		return fmt.Errorf("hoursSinceStart must be positive: %d", hoursSinceStart)
	}
	if !validTargetTemp(targetTemp) {
		return fmt.Errorf("targetTemp is out of range: %d", targetTemp)
	}
	if len(p.Points) == 0 {
		if hoursSinceStart != 0 {
			return errFirstPointNotT0
		}
	} else if hoursSinceStart <= p.Points[len(p.Points)-1].HoursSinceStart {
		return fmt.Errorf("point at hour %d must occur after the last point", hoursSinceStart)
	}
	p.Points = append(p.Points, Point{HoursSinceStart: hoursSinceStart, TargetTemp: targetTemp})
	return nil
}

// Validate checks a profile loaded from disk.
func (p TemperatureProfile) Validate() error {
	var rebuilt TemperatureProfile
	if len(p.Points) == 0 {
		return ErrEmptyProfile
	}
	for _, pt := range p.Points {
		if err := rebuilt.AddPoint(pt.HoursSinceStart, pt.TargetTemp); err != nil {
			return err
		}
	}
	return nil
}

// TargetTempAt returns the target at the given offset, interpolating linearly
// between points and holding the last target after the final point.
func (p TemperatureProfile) TargetTempAt(millisSinceStart int64) (int, error) {
	if millisSinceStart < 0 {
		return 0, ErrNegativeOffset
	}
	if len(p.Points) == 0 {
		return 0, ErrEmptyProfile
	}
	if p.Points[0].HoursSinceStart != 0 {
		return 0, errFirstPointNotT0
	}
	for i, pt := range p.Points {
		x := int64(pt.HoursSinceStart) * millisPerHour
		if x == millisSinceStart {
			return pt.TargetTemp, nil
		}
		if x > millisSinceStart {
			prev := p.Points[i-1]
			xA := int64(prev.HoursSinceStart) * millisPerHour
			yA, yB := int64(prev.TargetTemp), int64(pt.TargetTemp)
			return int(yA + (yB-yA)*(millisSinceStart-xA)/(x-xA)), nil
		}
	}
	return p.Points[len(p.Points)-1].TargetTemp, nil
}
