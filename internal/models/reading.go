package models

import "time"

// DtResolutionMillis is the granularity of every persisted timestamp.
const DtResolutionMillis = 30_000

// Reading is one sample taken from a chamber. Temperatures are degrees x 10.
// Nil fields are absent from the persisted form.
type Reading struct {
	Dt           int64 `json:"dt"`
	TTarget      *int  `json:"tTarget,omitempty"`
	TBeer        *int  `json:"tBeer,omitempty"`
	TExternal    *int  `json:"tExternal,omitempty"`
	TChamber     *int  `json:"tChamber,omitempty"`
	TPi          *int  `json:"tPi,omitempty"`
	HeaterOutput *int  `json:"heaterOutput,omitempty"` // 1-100, nil when the heater is off
	FridgeOn     *bool `json:"fridgeOn,omitempty"`
	Mode         *Mode `json:"mode,omitempty"`

	// Parameters echoed back by the controller. Only used for sanity checks.
	ChamberParameters *ChamberParameters `json:"-"`
}

// AllNullableNil reports whether every nullable field has been elided.
func (r Reading) AllNullableNil() bool {
	return r.TTarget == nil && r.TBeer == nil && r.TExternal == nil && r.TChamber == nil &&
		r.TPi == nil && r.HeaterOutput == nil && r.FridgeOn == nil && r.Mode == nil
}

// ReduceMillisPrecision converts epoch millis to the 30 second resolution used on disk.
func ReduceMillisPrecision(ms int64) int64 {
	if ms < 0 && ms%DtResolutionMillis != 0 {
		return ms/DtResolutionMillis - 1
	}
	return ms / DtResolutionMillis
}

// RestoreMillisPrecision is the inverse of ReduceMillisPrecision.
func RestoreMillisPrecision(dt int64) int64 {
	return dt * DtResolutionMillis
}

// DtFromTime returns the reduced precision timestamp for t.
func DtFromTime(t time.Time) int64 {
	return ReduceMillisPrecision(t.UnixMilli())
}

// TimeFromDt returns the instant a reduced precision timestamp starts at.
func TimeFromDt(dt int64) time.Time {
	return time.UnixMilli(RestoreMillisPrecision(dt)).UTC()
}

func IntPtr(v int) *int { return &v }

func BoolPtr(v bool) *bool { return &v }

func ModePtr(v Mode) *Mode { return &v }

func Int64Ptr(v int64) *int64 { return &v }
