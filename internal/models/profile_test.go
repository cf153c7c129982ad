package models

import (
	"testing"
	"time"
)

func newTestProfile(t *testing.T) TemperatureProfile {
	t.Helper()
	var p TemperatureProfile
	if err := p.AddPoint(0, 150); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	if err := p.AddPoint(1, 200); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	return p
}

func TestTargetTempAt_Interpolation(t *testing.T) {
	p := newTestProfile(t)
	hour := int64(time.Hour / time.Millisecond)

	cases := []struct {
		at   int64
		want int
	}{
		{0, 150},
		{hour / 2, 175},
		{hour, 200},
		{hour + 1, 200},
		{hour * 2, 200},
	}
	for _, tc := range cases {
		got, err := p.TargetTempAt(tc.at)
		if err != nil {
			t.Fatalf("TargetTempAt(%d): %v", tc.at, err)
		}
		if got != tc.want {
			t.Fatalf("TargetTempAt(%d) = %d, want %d", tc.at, got, tc.want)
		}
	}
}

func TestTargetTempAt_Errors(t *testing.T) {
	p := newTestProfile(t)
	if _, err := p.TargetTempAt(-1); err != ErrNegativeOffset {
		t.Fatalf("expected ErrNegativeOffset, got %v", err)
	}
	if _, err := (TemperatureProfile{}).TargetTempAt(0); err != ErrEmptyProfile {
		t.Fatalf("expected ErrEmptyProfile, got %v", err)
	}
}

func TestAddPoint_Validation(t *testing.T) {
	var p TemperatureProfile
	if err := p.AddPoint(1, 150); err == nil {
		t.Fatal("first point must be at t0")
	}
	if err := p.AddPoint(0, 500); err == nil {
		t.Fatal("expected out of range error")
	}
	if err := p.AddPoint(0, 150); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.AddPoint(0, 160); err == nil {
		t.Fatal("expected ordering error")
	}
}

func TestValidate(t *testing.T) {
	ok := TemperatureProfile{Points: []Point{{0, 180}, {48, 190}, {96, 40}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := TemperatureProfile{Points: []Point{{0, 180}, {48, 190}, {24, 40}}}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for out of order points")
	}
}
