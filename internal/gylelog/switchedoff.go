package gylelog

import (
	"time"

	"chamber_monitor/internal/models"
)

// dt units per minute
const dtPerMinute = int64(time.Minute / (models.DtResolutionMillis * time.Millisecond))

// SwitchedOffConfig tunes the left-switched-off checks.
type SwitchedOffConfig struct {
	// IgnoreFirstHours skips the start of a gyle while temperatures settle.
	IgnoreFirstHours int
	// FridgeOnTimeMins is how long the fridge must run without the chamber cooling.
	FridgeOnTimeMins int
	// HeaterOnTimeMins is how long the heater must run without anything warming.
	HeaterOnTimeMins int
}

// longest returns the longest look-back needed by either check.
func (c SwitchedOffConfig) longest() time.Duration {
	return time.Duration(max(c.FridgeOnTimeMins, c.HeaterOnTimeMins)) * time.Minute
}

// LeftOffFlags remember which signals have been raised and not yet resolved.
type LeftOffFlags struct {
	Fridge bool
	Heater bool
}

// DetectSwitchedOff evaluates the recent readings (oldest first). It returns the
// signals to raise now and the updated flags. A raised signal is not raised
// again until its resolving signal has been emitted.
func DetectSwitchedOff(cfg SwitchedOffConfig, dtStarted int64, window []models.Reading, flags LeftOffFlags) ([]models.Signal, LeftOffFlags) {
	if len(window) == 0 {
		return nil, flags
	}
	last := window[len(window)-1]
	settled := dtStarted + int64(cfg.IgnoreFirstHours)*60*dtPerMinute
	if last.Dt < settled {
		return nil, flags
	}

	var out []models.Signal

	if flags.Fridge {
		if last.FridgeOn != nil && !*last.FridgeOn {
			out = append(out, models.SignalFridgeNoLongerLeftOff)
			flags.Fridge = false
		}
	} else if span, ok := trailing(window, last.Dt-int64(cfg.FridgeOnTimeMins)*dtPerMinute, settled); ok && fridgeLeftOff(span) {
		out = append(out, models.SignalFridgeLeftOff)
		flags.Fridge = true
	}

	if flags.Heater {
		if last.TBeer != nil && last.TTarget != nil && *last.TBeer >= *last.TTarget {
			out = append(out, models.SignalHeaterNoLongerLeftOff)
			flags.Heater = false
		}
	} else if span, ok := trailing(window, last.Dt-int64(cfg.HeaterOnTimeMins)*dtPerMinute, settled); ok && heaterLeftOff(span) {
		out = append(out, models.SignalHeaterLeftOff)
		flags.Heater = true
	}

	return out, flags
}

// trailing returns the readings from the latest one at or before fromDt to the end,
// leaving out any taken before settled. ok is false when the window does not
// reach back to fromDt or fromDt itself falls before settled.
func trailing(window []models.Reading, fromDt, settled int64) ([]models.Reading, bool) {
	if fromDt < settled {
		return nil, false
	}
	for i := len(window) - 1; i >= 0; i-- {
		if window[i].Dt <= fromDt {
			for i < len(window) && window[i].Dt < settled {
				i++
			}
			return window[i:], i < len(window)
		}
	}
	return nil, false
}

// fridgeLeftOff: fridge on throughout and the chamber never got colder.
func fridgeLeftOff(span []models.Reading) bool {
	for i, r := range span {
		if r.FridgeOn == nil || !*r.FridgeOn || r.TChamber == nil {
			return false
		}
		if i > 0 && *r.TChamber < *span[i-1].TChamber {
			return false
		}
	}
	return true
}

// heaterLeftOff: heater driven throughout while neither chamber nor beer got warmer.
func heaterLeftOff(span []models.Reading) bool {
	for i, r := range span {
		if r.HeaterOutput == nil || *r.HeaterOutput <= 0 || r.TChamber == nil || r.TBeer == nil {
			return false
		}
		if i > 0 && (*r.TChamber > *span[i-1].TChamber || *r.TBeer > *span[i-1].TBeer) {
			return false
		}
	}
	return true
}
