// Package optimise shrinks a run of readings before it is written to disk.
// It is lossy: small temperature fluctuations are flattened and repeated values dropped.
package optimise

import "chamber_monitor/internal/models"

// Config switches the individual steps on or off.
type Config struct {
	SmoothTemperatureReadings   bool
	NullOutRedundantValues      bool
	RemoveRedundantIntermediate bool
	Thresholds                  Thresholds
}

// Optimiser runs the steps in a fixed order. Smoothing goes first because it
// assumes a uniform sampling interval, which no longer holds once rows are removed.
type Optimiser struct {
	cfg      Config
	smoother *Smoother
}

func New(cfg Config) *Optimiser {
	return &Optimiser{cfg: cfg, smoother: NewSmoother(cfg.Thresholds)}
}

// Optimise may modify readings in place and returns the (possibly shorter) result.
func (o *Optimiser) Optimise(readings []models.Reading) []models.Reading {
	if o.cfg.SmoothTemperatureReadings {
		o.SmoothTemperatures(readings)
	}
	if o.cfg.NullOutRedundantValues {
		NullOutRedundantValues(readings)
	}
	if o.cfg.RemoveRedundantIntermediate {
		readings = RemoveRedundantIntermediate(readings)
	}
	return readings
}

// SmoothTemperatures smooths each temperature column. Nil values split a column
// into runs that are smoothed independently.
func (o *Optimiser) SmoothTemperatures(readings []models.Reading) bool {
	changed := false
	for _, col := range temperatureColumns {
		start := 0
		for start < len(readings) {
			if *col.ref(&readings[start]) == nil {
				start++
				continue
			}
			end := start
			for end < len(readings) && *col.ref(&readings[end]) != nil {
				end++
			}
			if o.smoothRun(readings[start:end], col.ref) {
				changed = true
			}
			start = end
		}
	}
	return changed
}

func (o *Optimiser) smoothRun(run []models.Reading, ref func(r *models.Reading) **int) bool {
	values := make([]int, len(run))
	for i := range run {
		values[i] = **ref(&run[i])
	}
	if !o.smoother.SmoothOutSmallFluctuations(values) {
		return false
	}
	for i := range run {
		if values[i] != **ref(&run[i]) {
			*ref(&run[i]) = models.IntPtr(values[i])
		}
	}
	return true
}
