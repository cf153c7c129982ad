package models

import (
	"testing"
	"time"
)

func testChamber() Chamber {
	return Chamber{
		ID: 1, Name: "Fermenter", TMin: -10, TMax: 400, HasHeater: true,
		FridgeMinOnTimeMins: 10, FridgeMinOffTimeMins: 10, FridgeSwitchOnLagMins: 1,
		Kp: 1.2, Ki: 2.3, Kd: 3.4,
	}
}

func TestGyleParameters(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := Gyle{
		ID:                 3,
		TemperatureProfile: TemperatureProfile{Points: []Point{{0, 150}, {2, 200}}},
		DtStarted:          Int64Ptr(start.UnixMilli()),
	}
	p, err := g.Parameters(testChamber(), start.Add(time.Hour))
	if err != nil {
		t.Fatalf("Parameters: %v", err)
	}
	if p.GyleAgeHours != 1 || p.TTarget != 175 || p.TTargetNext != 200 {
		t.Fatalf("unexpected targets: %+v", p)
	}
	if p.Mode != ModeAuto || p.TMax != 400 || !p.HasHeater {
		t.Fatalf("unexpected chamber fields: %+v", p)
	}
}

func TestGyleParameters_Hold(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := Gyle{
		TemperatureProfile: TemperatureProfile{Points: []Point{{0, 150}}},
		DtStarted:          Int64Ptr(start.UnixMilli()),
		Mode:               ModePtr(ModeHold),
		THold:              IntPtr(120),
	}
	p, err := g.Parameters(testChamber(), start.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("Parameters: %v", err)
	}
	if p.TTarget != 120 || p.TTargetNext != 120 || p.Mode != ModeHold {
		t.Fatalf("unexpected: %+v", p)
	}
}

func TestGyleIsActive(t *testing.T) {
	if (Gyle{}).IsActive() {
		t.Fatal("unstarted gyle is not active")
	}
	g := Gyle{DtStarted: Int64Ptr(1)}
	if !g.IsActive() {
		t.Fatal("started gyle should be active")
	}
	g.DtEnded = Int64Ptr(2)
	if g.IsActive() {
		t.Fatal("ended gyle is not active")
	}
}

func TestParametersMismatchIgnoresPID(t *testing.T) {
	a := testChamber().PartialParameters()
	b := a
	b.Kp, b.Ki, b.Kd = 9, 9, 9
	if m := a.Mismatches(b); len(m) != 0 {
		t.Fatalf("expected no mismatches, got %v", m)
	}
	b.TMax = 1
	b.Mode = ModeAuto
	m := a.Mismatches(b)
	if len(m) != 2 || m[0] != "tMax" || m[1] != "mode" {
		t.Fatalf("unexpected mismatches: %v", m)
	}
}
