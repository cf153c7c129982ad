package chamber

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"

	"chamber_monitor/internal/models"
)

// Simulation constants. Temperatures are degrees x 10, rates are per minute.
const (
	AmbientT          = 200.0 // 20 °C
	PiT               = 450   // controller board temperature
	FridgeCoolPerMin  = 5.0   // chamber cooling with the fridge on
	HeaterHeatPerMin  = 4.0   // chamber heating at 100% heater output
	AmbientDriftRatio = 0.02  // share of the chamber/ambient gap closed per minute
	BeerLagRatio      = 0.1   // share of the beer/chamber gap closed per minute
	TargetTolerance   = 3.0   // ±0.3 °C band for "at target"
)

// ErrLinkClosed is returned by a simulated link after Close.
var ErrLinkClosed = errors.New("link closed")

type simChamber struct {
	params    *models.ChamberParameters
	tChamber  float64
	tBeer     float64
	fridgeOn  bool
	heaterOut int
	updatedAt time.Time
}

// SimController stands in for the real controller. Chamber state survives
// reconnects, so one controller is shared by every link Dial opens.
type SimController struct {
	mu       sync.Mutex
	rng      *rand.Rand
	now      func() time.Time
	chambers map[int]*simChamber
}

func NewSimController(seed int64, now func() time.Time) *SimController {
	if now == nil {
		now = time.Now
	}
	return &SimController{
		rng:      rand.New(rand.NewSource(seed)),
		now:      now,
		chambers: make(map[int]*simChamber),
	}
}

// Dial matches Dialer.
func (c *SimController) Dial(_ context.Context) (Link, error) {
	return &simLink{ctrl: c}, nil
}

func (c *SimController) chamber(id int) *simChamber {
	ch, ok := c.chambers[id]
	if !ok {
		ch = &simChamber{tChamber: AmbientT, tBeer: AmbientT, updatedAt: c.now()}
		c.chambers[id] = ch
	}
	return ch
}

func (c *SimController) setParameters(id int, params models.ChamberParameters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := c.chamber(id)
	c.advance(ch)
	p := params
	ch.params = &p
}

func (c *SimController) readings(id int) models.Reading {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := c.chamber(id)
	c.advance(ch)
	c.control(ch)

	r := models.Reading{
		TBeer:     models.IntPtr(int(math.Round(ch.tBeer))),
		TChamber:  models.IntPtr(int(math.Round(ch.tChamber))),
		TExternal: models.IntPtr(int(AmbientT) + c.rng.Intn(3) - 1),
		TPi:       models.IntPtr(PiT + c.rng.Intn(11) - 5),
		FridgeOn:  models.BoolPtr(ch.fridgeOn),
	}
	if ch.heaterOut > 0 {
		r.HeaterOutput = models.IntPtr(ch.heaterOut)
	}
	if ch.params != nil {
		p := *ch.params
		r.ChamberParameters = &p
		r.Mode = models.ModePtr(p.Mode)
		if p.Mode != models.ModeNone {
			r.TTarget = models.IntPtr(p.TTarget)
		}
	} else {
		r.Mode = models.ModePtr(models.ModeNone)
	}
	return r
}

// advance moves the chamber forward by the time elapsed since its last update,
// with the outputs as they were.
func (c *SimController) advance(ch *simChamber) {
	now := c.now()
	mins := now.Sub(ch.updatedAt).Minutes()
	ch.updatedAt = now
	if mins <= 0 {
		return
	}
	if ch.fridgeOn {
		ch.tChamber -= FridgeCoolPerMin * mins
	}
	ch.tChamber += HeaterHeatPerMin * float64(ch.heaterOut) / 100 * mins
	ch.tChamber += (AmbientT - ch.tChamber) * math.Min(1, AmbientDriftRatio*mins)
	ch.tBeer += (ch.tChamber - ch.tBeer) * math.Min(1, BeerLagRatio*mins)
}

// control picks the fridge and heater outputs for the chamber's mode.
func (c *SimController) control(ch *simChamber) {
	ch.fridgeOn, ch.heaterOut = false, 0
	if ch.params == nil {
		return
	}
	p := ch.params
	switch p.Mode {
	case models.ModeCool:
		ch.fridgeOn = true
	case models.ModeHeat:
		if p.HasHeater {
			ch.heaterOut = 100
		}
	case models.ModeAuto, models.ModeHold:
		target := float64(p.TTarget)
		switch {
		case ch.tBeer > target+TargetTolerance:
			ch.fridgeOn = true
		case ch.tBeer < target-TargetTolerance && p.HasHeater:
			ch.heaterOut = min(100, int((target-ch.tBeer)*10))
		}
	}
	if ch.fridgeOn && ch.tChamber <= float64(p.TMin) {
		ch.fridgeOn = false
	}
	if ch.heaterOut > 0 && ch.tChamber >= float64(p.TMax) {
		ch.heaterOut = 0
	}
}

type simLink struct {
	ctrl   *SimController
	closed bool
}

func (l *simLink) SendParameters(ctx context.Context, chamberID int, params models.ChamberParameters) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.closed {
		return ErrLinkClosed
	}
	l.ctrl.setParameters(chamberID, params)
	return nil
}

func (l *simLink) RequestReadings(ctx context.Context, chamberID int) (models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return models.Reading{}, err
	}
	if l.closed {
		return models.Reading{}, ErrLinkClosed
	}
	return l.ctrl.readings(chamberID), nil
}

func (l *simLink) Close() error {
	l.closed = true
	return nil
}
