package models

import "time"

// Signal is a one-shot anomaly raised by the switched-off detector.
type Signal string

const (
	SignalFridgeLeftOff         Signal = "SEND_FRIDGE_LEFT_OFF"
	SignalFridgeNoLongerLeftOff Signal = "SEND_FRIDGE_NO_LONGER_LEFT_OFF"
	SignalHeaterLeftOff         Signal = "SEND_HEATER_LEFT_OFF"
	SignalHeaterNoLongerLeftOff Signal = "SEND_HEATER_NO_LONGER_LEFT_OFF"
)

// Description returns a human readable message for the signal.
func (s Signal) Description() string {
	switch s {
	case SignalFridgeLeftOff:
		return "Fridge appears to have been left switched off"
	case SignalFridgeNoLongerLeftOff:
		return "Fridge no longer appears to be switched off"
	case SignalHeaterLeftOff:
		return "Heater appears to have been left switched off"
	case SignalHeaterNoLongerLeftOff:
		return "Heater no longer appears to be switched off"
	}
	return string(s)
}

// Operational event types recorded alongside signals.
const (
	EventPollFailed     = "POLL_FAILED"
	EventParamsMismatch = "PARAMS_MISMATCH"
	EventFlushFailed    = "FLUSH_FAILED"
	EventLogCorrupt     = "GYLE_LOG_CORRUPT"
)

// ChamberEvent is a single event log entry.
type ChamberEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	ChamberID   int       `json:"chamber_id"`
	GyleID      int       `json:"gyle_id,omitempty"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}

// ChamberState is the latest known snapshot for a chamber.
type ChamberState struct {
	ChamberID int       `json:"chamber_id"`
	GyleID    int       `json:"gyle_id,omitempty"`
	Reading   *Reading  `json:"reading,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
