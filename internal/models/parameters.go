package models

// ChamberParameters are sent to the controller before every poll.
// Temperatures are degrees x 10.
type ChamberParameters struct {
	GyleAgeHours          int     `json:"gyleAgeHours"`
	TTarget               int     `json:"tTarget"`
	TTargetNext           int     `json:"tTargetNext"`
	TMin                  int     `json:"tMin"`
	TMax                  int     `json:"tMax"`
	HasHeater             bool    `json:"hasHeater"`
	FridgeMinOnTimeMins   int     `json:"fridgeMinOnTimeMins"`
	FridgeMinOffTimeMins  int     `json:"fridgeMinOffTimeMins"`
	FridgeSwitchOnLagMins int     `json:"fridgeSwitchOnLagMins"`
	Kp                    float64 `json:"Kp"`
	Ki                    float64 `json:"Ki"`
	Kd                    float64 `json:"Kd"`
	Mode                  Mode    `json:"mode"`
}

// Mismatches lists the fields that differ between p and other.
// PID gains are skipped: the controller rounds them.
func (p ChamberParameters) Mismatches(other ChamberParameters) []string {
	var out []string
	check := func(name string, same bool) {
		if !same {
			out = append(out, name)
		}
	}
	check("gyleAgeHours", p.GyleAgeHours == other.GyleAgeHours)
	check("tTarget", p.TTarget == other.TTarget)
	check("tTargetNext", p.TTargetNext == other.TTargetNext)
	check("tMin", p.TMin == other.TMin)
	check("tMax", p.TMax == other.TMax)
	check("hasHeater", p.HasHeater == other.HasHeater)
	check("fridgeMinOnTimeMins", p.FridgeMinOnTimeMins == other.FridgeMinOnTimeMins)
	check("fridgeMinOffTimeMins", p.FridgeMinOffTimeMins == other.FridgeMinOffTimeMins)
	check("fridgeSwitchOnLagMins", p.FridgeSwitchOnLagMins == other.FridgeSwitchOnLagMins)
	check("mode", p.Mode == other.Mode)
	return out
}
