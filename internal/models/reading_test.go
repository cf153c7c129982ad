package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestReduceMillisPrecision(t *testing.T) {
	cases := []struct {
		ms   int64
		want int64
	}{
		{0, 0},
		{29_999, 0},
		{30_000, 1},
		{1_600_000_015_000, 53_333_333},
		{-1, -1},
		{-30_000, -1},
	}
	for _, tc := range cases {
		if got := ReduceMillisPrecision(tc.ms); got != tc.want {
			t.Fatalf("ReduceMillisPrecision(%d) = %d, want %d", tc.ms, got, tc.want)
		}
	}
	if got := RestoreMillisPrecision(53_333_333); got != 1_599_999_990_000 {
		t.Fatalf("RestoreMillisPrecision = %d", got)
	}
}

func TestDtFromTimeRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 45, 0, time.UTC)
	dt := DtFromTime(at)
	if got := TimeFromDt(dt); !got.Equal(at.Truncate(30 * time.Second)) {
		t.Fatalf("TimeFromDt = %v", got)
	}
}

func TestReadingJSONOmitsNullsAndParameters(t *testing.T) {
	r := Reading{
		Dt:                10,
		TBeer:             IntPtr(175),
		FridgeOn:          BoolPtr(false),
		Mode:              ModePtr(ModeAuto),
		ChamberParameters: &ChamberParameters{TTarget: 175},
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"dt":10,"tBeer":175,"fridgeOn":false,"mode":"A"}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
	if r.AllNullableNil() {
		t.Fatal("reading has values")
	}
	if !(Reading{Dt: 3}).AllNullableNil() {
		t.Fatal("bare reading should report all nil")
	}
}
