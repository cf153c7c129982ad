package models

import (
	"fmt"
)

// Mode is the control mode a chamber runs in. Each mode has a single character
// code understood by the controller.
type Mode uint8

const (
	// ModeAuto aims for the target temperature in the chamber parameters.
	ModeAuto Mode = iota + 1
	// ModeHold holds the beer temperature as it was when the mode was engaged.
	ModeHold
	// ModeCool is AUTO with the heater disabled.
	ModeCool
	// ModeHeat is AUTO with the fridge disabled.
	ModeHeat
	// ModeNone does no heating or cooling, just monitoring.
	ModeNone
)

var modeTable = []struct {
	mode Mode
	code byte
	name string
}{
	{ModeAuto, 'A', "AUTO"},
	{ModeHold, 'H', "HOLD"},
	{ModeCool, '*', "COOL"},
	{ModeHeat, '~', "HEAT"},
	{ModeNone, 'M', "NONE"},
}

var (
	modeByCode = map[byte]Mode{}
	modeByName = map[string]Mode{}
	codeByMode = map[Mode]byte{}
	nameByMode = map[Mode]string{}
)

func init() {
	for _, e := range modeTable {
		if _, dup := modeByCode[e.code]; dup {
			panic(fmt.Sprintf("duplicate mode code %q", e.code))
		}
		if _, dup := modeByName[e.name]; dup {
			panic(fmt.Sprintf("duplicate mode name %q", e.name))
		}
		modeByCode[e.code] = e.mode
		modeByName[e.name] = e.mode
		codeByMode[e.mode] = e.code
		nameByMode[e.mode] = e.name
	}
}

// ModeFromCode looks a mode up by its controller code.
func ModeFromCode(code byte) (Mode, error) {
	m, ok := modeByCode[code]
	if !ok {
		return 0, fmt.Errorf("illegal mode code: %q", code)
	}
	return m, nil
}

// ParseMode accepts either a single character code or a mode name.
func ParseMode(s string) (Mode, error) {
	if len(s) == 1 {
		return ModeFromCode(s[0])
	}
	if m, ok := modeByName[s]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("illegal mode: %q", s)
}

// Code returns the controller code, or 0 for an invalid mode.
func (m Mode) Code() byte {
	return codeByMode[m]
}

func (m Mode) String() string {
	if n, ok := nameByMode[m]; ok {
		return n
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// MarshalText encodes the mode as its single character code.
func (m Mode) MarshalText() ([]byte, error) {
	c, ok := codeByMode[m]
	if !ok {
		return nil, fmt.Errorf("cannot encode invalid mode %d", uint8(m))
	}
	return []byte{c}, nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
