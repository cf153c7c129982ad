package models

// Chamber mirrors chamber.json. ID comes from the directory name.
type Chamber struct {
	ID                    int     `json:"-"`
	Name                  string  `json:"name"`
	TMin                  int     `json:"tMin"`
	TMax                  int     `json:"tMax"`
	HasHeater             bool    `json:"hasHeater"`
	FridgeMinOnTimeMins   int     `json:"fridgeMinOnTimeMins"`
	FridgeMinOffTimeMins  int     `json:"fridgeMinOffTimeMins"`
	FridgeSwitchOnLagMins int     `json:"fridgeSwitchOnLagMins"`
	Kp                    float64 `json:"Kp"`
	Ki                    float64 `json:"Ki"`
	Kd                    float64 `json:"Kd"`
}

// PartialParameters are sent when the chamber has no active gyle: no targets, monitor only.
func (c Chamber) PartialParameters() ChamberParameters {
	return ChamberParameters{
		TMin:                  c.TMin,
		TMax:                  c.TMax,
		HasHeater:             c.HasHeater,
		FridgeMinOnTimeMins:   c.FridgeMinOnTimeMins,
		FridgeMinOffTimeMins:  c.FridgeMinOffTimeMins,
		FridgeSwitchOnLagMins: c.FridgeSwitchOnLagMins,
		Kp:                    c.Kp,
		Ki:                    c.Ki,
		Kd:                    c.Kd,
		Mode:                  ModeNone,
	}
}
