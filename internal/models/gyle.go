package models

import (
	"time"
)

// Gyle mirrors gyle.json: one brewing batch in a chamber.
type Gyle struct {
	ID                 int                `json:"-"`
	ChamberID          int                `json:"-"`
	Name               string             `json:"name"`
	TemperatureProfile TemperatureProfile `json:"temperatureProfile"`
	DtStarted          *int64             `json:"dtStarted,omitempty"` // epoch millis
	DtEnded            *int64             `json:"dtEnded,omitempty"`   // epoch millis
	Mode               *Mode              `json:"mode,omitempty"`
	THold              *int               `json:"tHold,omitempty"`
}

// IsActive reports whether the gyle has started and not yet ended.
func (g Gyle) IsActive() bool {
	return g.DtStarted != nil && g.DtEnded == nil
}

// StartedDt is the gyle start at reading resolution, or 0 if not started.
func (g Gyle) StartedDt() int64 {
	if g.DtStarted == nil {
		return 0
	}
	return ReduceMillisPrecision(*g.DtStarted)
}

// Parameters computes what to send to the controller for this gyle at now.
func (g Gyle) Parameters(ch Chamber, now time.Time) (ChamberParameters, error) {
	p := ch.PartialParameters()
	p.Mode = ModeAuto
	if g.Mode != nil {
		p.Mode = *g.Mode
	}
	if g.DtStarted == nil {
		return p, nil
	}

	age := now.UnixMilli() - *g.DtStarted
	if age < 0 {
		age = 0
	}
	target, err := g.TemperatureProfile.TargetTempAt(age)
	if err != nil {
		return ChamberParameters{}, err
	}
	next, err := g.TemperatureProfile.TargetTempAt(age + millisPerHour)
	if err != nil {
		return ChamberParameters{}, err
	}
	p.GyleAgeHours = int(age / millisPerHour)
	p.TTarget = target
	p.TTargetNext = next
	if p.Mode == ModeHold && g.THold != nil {
		p.TTarget = *g.THold
		p.TTargetNext = *g.THold
	}
	return p, nil
}
