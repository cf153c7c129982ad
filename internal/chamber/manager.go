// Package chamber talks to the controller that runs the fridges and heaters.
package chamber

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"chamber_monitor/internal/logger"
	"chamber_monitor/internal/models"
)

// Manager is the capability the collector needs from the controller.
type Manager interface {
	// GetReadings re-sends the chamber's current parameters, then reads it.
	GetReadings(ctx context.Context, chamberID int, now time.Time) (models.Reading, error)
	SetParameters(ctx context.Context, chamberID int, params models.ChamberParameters) error
}

// Link is an open connection to the controller. Any error it returns is treated
// as an I/O failure.
type Link interface {
	SendParameters(ctx context.Context, chamberID int, params models.ChamberParameters) error
	// RequestReadings returns a reading without Dt, with the parameters the
	// controller is running on in ChamberParameters.
	RequestReadings(ctx context.Context, chamberID int) (models.Reading, error)
	Close() error
}

// Dialer opens a Link.
type Dialer func(ctx context.Context) (Link, error)

// ConnManager keeps a single Link open across calls. After an I/O error the link
// is closed and the next call dials again.
type ConnManager struct {
	mu     sync.Mutex
	dial   Dialer
	link   Link
	params map[int]models.ChamberParameters
	log    *logger.Logger
	obs    Observer
}

// Observer is told about connection trouble. The metrics package implements it.
type Observer interface {
	LinkOpened()
	LinkFailed()
	ParamsMismatch(chamberID int)
}

type nopObserver struct{}

func (nopObserver) LinkOpened()        {}
func (nopObserver) LinkFailed()        {}
func (nopObserver) ParamsMismatch(int) {}

func NewConnManager(dial Dialer, log *logger.Logger, obs Observer) *ConnManager {
	if obs == nil {
		obs = nopObserver{}
	}
	return &ConnManager{
		dial:   dial,
		params: make(map[int]models.ChamberParameters),
		log:    log,
		obs:    obs,
	}
}

func (m *ConnManager) connect(ctx context.Context) (Link, error) {
	if m.link != nil {
		return m.link, nil
	}
	link, err := m.dial(ctx)
	if err != nil {
		m.obs.LinkFailed()
		return nil, errors.Wrap(err, "open controller link")
	}
	m.link = link
	m.obs.LinkOpened()
	m.log.Infow("controller link opened")
	return link, nil
}

// drop tears the link down so that the next call reconnects.
func (m *ConnManager) drop(cause error) {
	m.obs.LinkFailed()
	if m.link == nil {
		return
	}
	if err := m.link.Close(); err != nil {
		m.log.Warnw("closing controller link failed", "err", err)
	}
	m.link = nil
	m.log.Warnw("controller link dropped", "err", cause)
}

// SetParameters sends params and remembers them for later polls.
func (m *ConnManager) SetParameters(ctx context.Context, chamberID int, params models.ChamberParameters) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.params[chamberID] = params
	link, err := m.connect(ctx)
	if err != nil {
		return err
	}
	if err := link.SendParameters(ctx, chamberID, params); err != nil {
		m.drop(err)
		return errors.Wrapf(err, "send parameters to chamber %d", chamberID)
	}
	return nil
}

// GetReadings re-sends the last parameters set for the chamber, then reads it.
// A mismatch between sent and echoed parameters is logged but does not fail the poll.
func (m *ConnManager) GetReadings(ctx context.Context, chamberID int, now time.Time) (models.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, err := m.connect(ctx)
	if err != nil {
		return models.Reading{}, err
	}
	sent, haveParams := m.params[chamberID]
	if haveParams {
		if err := link.SendParameters(ctx, chamberID, sent); err != nil {
			m.drop(err)
			return models.Reading{}, errors.Wrapf(err, "send parameters to chamber %d", chamberID)
		}
	}
	r, err := link.RequestReadings(ctx, chamberID)
	if err != nil {
		m.drop(err)
		return models.Reading{}, errors.Wrapf(err, "read chamber %d", chamberID)
	}
	r.Dt = models.DtFromTime(now)

	if haveParams && r.ChamberParameters != nil {
		if mm := sent.Mismatches(*r.ChamberParameters); len(mm) > 0 {
			m.obs.ParamsMismatch(chamberID)
			m.log.Warnw("chamber parameters mismatch", "chamber", chamberID, "fields", mm,
				"sent", sent, "echoed", *r.ChamberParameters)
		}
	}
	return r, nil
}

// Close closes the link if one is open.
func (m *ConnManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.link == nil {
		return nil
	}
	err := m.link.Close()
	m.link = nil
	return err
}
