package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"chamber_monitor/internal/chamber"
	"chamber_monitor/internal/gylelog"
	"chamber_monitor/internal/logger"
	"chamber_monitor/internal/models"
	"chamber_monitor/internal/notify"
	"chamber_monitor/internal/optimise"
	"chamber_monitor/internal/repository"
	"chamber_monitor/internal/segment"
)

// CollectorMetrics is implemented by *metrics.Metrics.
type CollectorMetrics interface {
	gylelog.Observer
	PollFailed(chamberID int)
	SetActiveGyles(n int)
	TickCompleted(d time.Duration)
}

type nopCollectorMetrics struct{}

func (nopCollectorMetrics) ReadingCollected()           {}
func (nopCollectorMetrics) BufferFlushed(int, int)      {}
func (nopCollectorMetrics) SegmentWritten(int)          {}
func (nopCollectorMetrics) SegmentDeleted(int)          {}
func (nopCollectorMetrics) SignalRaised(string)         {}
func (nopCollectorMetrics) PollFailed(int)              {}
func (nopCollectorMetrics) SetActiveGyles(int)          {}
func (nopCollectorMetrics) TickCompleted(time.Duration) {}

// activeGyle is the gyle currently logged for a chamber.
type activeGyle struct {
	gyleID     int
	engine     *gylelog.Engine
	failing    bool // last CollectReadings failed; the failure event has been recorded
	mismatched bool // controller echoed other parameters; the event has been recorded
}

// CollectorService polls each chamber once per tick and feeds the active gyle's log.
type CollectorService struct {
	chambers repository.ChamberRepo
	states   repository.StateRepo
	events   repository.EventRepo
	manager  chamber.Manager
	notifier notify.Notifier
	metrics  CollectorMetrics
	cfg      gylelog.Config
	opt      *optimise.Optimiser
	log      *logger.Logger

	mu          sync.Mutex
	gyles       map[int]*activeGyle // by chamber id
	longestTick time.Duration
}

func NewCollectorService(repos *repository.Repository, deps Deps) *CollectorService {
	m := deps.Metrics
	if m == nil {
		m = nopCollectorMetrics{}
	}
	n := deps.Notifier
	if n == nil {
		n = notify.Multi{}
	}
	return &CollectorService{
		chambers: repos.ChamberRepo,
		states:   repos.StateRepo,
		events:   repos.EventRepo,
		manager:  deps.Manager,
		notifier: n,
		metrics:  m,
		cfg:      deps.GyleLog,
		opt:      deps.Optimiser,
		log:      deps.Logger,
		gyles:    make(map[int]*activeGyle),
	}
}

// Run ticks at the given interval until ctx is canceled. It returns early with
// the error of a gyle log that cannot be written any more.
func (s *CollectorService) Run(ctx context.Context, tick time.Duration) error {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			if err := s.Tick(ctx, now); err != nil {
				return err
			}
		}
	}
}

// Tick polls every chamber once. Poll failures are recorded and skipped; only a
// corrupt gyle log directory is returned, and it stops the tick.
func (s *CollectorService) Tick(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	chambers, err := s.chambers.Chambers()
	if err != nil {
		s.log.Errorw("listing chambers failed", "err", err)
		return nil
	}
	for _, ch := range chambers {
		if ctx.Err() != nil {
			return nil
		}
		if err := s.pollChamber(ctx, ch, now); err != nil {
			return err
		}
	}
	s.metrics.SetActiveGyles(len(s.gyles))

	took := time.Since(start)
	s.metrics.TickCompleted(took)
	if took > s.longestTick {
		if s.longestTick > 0 {
			s.log.Warnw("longest time to collect readings so far", "took", took, "chambers", len(chambers))
		}
		s.longestTick = took
	}
	return nil
}

func (s *CollectorService) pollChamber(ctx context.Context, ch models.Chamber, now time.Time) error {
	g, found, err := s.chambers.LatestGyle(ch.ID)
	if err != nil {
		s.log.Errorw("loading latest gyle failed", "chamber", ch.ID, "err", err)
		return nil
	}
	active := found && g.IsActive()
	s.retireGyle(ch.ID, g.ID, active)

	params := ch.PartialParameters()
	if active {
		if params, err = g.Parameters(ch, now); err != nil {
			s.log.Errorw("computing gyle parameters failed", "chamber", ch.ID, "gyle", g.ID, "err", err)
			params = ch.PartialParameters()
		}
	}
	if err := s.manager.SetParameters(ctx, ch.ID, params); err != nil {
		s.pollFailed(ctx, ch.ID, g.ID, err, now)
		return nil
	}
	if !active {
		return nil
	}

	ag := s.gyleFor(ch.ID, g)
	if err := ag.engine.Open(); err != nil {
		if errors.Is(err, segment.ErrMalformedSegmentName) {
			return s.corruptLog(ctx, ch.ID, ag, err, now)
		}
		s.log.Errorw("opening gyle log failed", "chamber", ch.ID, "gyle", g.ID, "dir", ag.engine.Dir(), "err", err)
		return nil
	}

	r, err := s.manager.GetReadings(ctx, ch.ID, now)
	if err != nil {
		s.pollFailed(ctx, ch.ID, g.ID, err, now)
		return nil
	}
	s.checkEchoedParams(ctx, ch.ID, ag, params, r, now)

	// A quick restart can poll within the same dt as the last logged reading.
	if last, ok := ag.engine.LastDt(); ok && r.Dt <= last {
		s.log.Debugw("skipping reading within the last logged interval", "chamber", ch.ID, "dt", r.Dt, "last", last)
		return nil
	}
	if err := ag.engine.CollectReadings(r, now); err != nil {
		if errors.Is(err, segment.ErrMalformedSegmentName) {
			return s.corruptLog(ctx, ch.ID, ag, err, now)
		}
		s.log.Errorw("collecting readings failed", "chamber", ch.ID, "gyle", g.ID, "err", err)
		if !ag.failing {
			ag.failing = true
			s.recordEvent(ctx, models.ChamberEvent{
				OccurredAt:  now,
				ChamberID:   ch.ID,
				GyleID:      g.ID,
				Type:        models.EventFlushFailed,
				Description: err.Error(),
			})
		}
	} else {
		ag.failing = false
	}

	for _, sig := range ag.engine.CheckLeftSwitchedOff() {
		s.recordEvent(ctx, models.ChamberEvent{
			OccurredAt:  now,
			ChamberID:   ch.ID,
			GyleID:      g.ID,
			Type:        string(sig),
			Description: sig.Description(),
		})
	}

	if err := s.states.Save(ctx, models.ChamberState{
		ChamberID: ch.ID,
		GyleID:    g.ID,
		Reading:   &r,
		UpdatedAt: now,
	}); err != nil {
		s.log.Errorw("saving chamber state failed", "chamber", ch.ID, "err", err)
	}
	return nil
}

// checkEchoedParams records a PARAMS_MISMATCH event when the controller runs on
// parameters other than those sent. A persistent mismatch is recorded once.
func (s *CollectorService) checkEchoedParams(ctx context.Context, chamberID int, ag *activeGyle, sent models.ChamberParameters, r models.Reading, now time.Time) {
	if r.ChamberParameters == nil {
		return
	}
	fields := sent.Mismatches(*r.ChamberParameters)
	if len(fields) == 0 {
		ag.mismatched = false
		return
	}
	if ag.mismatched {
		return
	}
	ag.mismatched = true
	s.recordEvent(ctx, models.ChamberEvent{
		OccurredAt:  now,
		ChamberID:   chamberID,
		GyleID:      ag.gyleID,
		Type:        models.EventParamsMismatch,
		Description: "Controller is running on different parameters",
		Metadata:    map[string]any{"fields": fields},
	})
}

// corruptLog records that a gyle log directory holds a file that is not a
// segment and returns the error that stops the collector.
func (s *CollectorService) corruptLog(ctx context.Context, chamberID int, ag *activeGyle, err error, now time.Time) error {
	s.log.Errorw("gyle log directory is corrupt", "chamber", chamberID, "gyle", ag.gyleID, "dir", ag.engine.Dir(), "err", err)
	s.recordEvent(ctx, models.ChamberEvent{
		OccurredAt:  now,
		ChamberID:   chamberID,
		GyleID:      ag.gyleID,
		Type:        models.EventLogCorrupt,
		Description: errors.Cause(err).Error(),
		Metadata:    map[string]any{"dir": ag.engine.Dir(), "err": err.Error()},
	})
	return errors.Wrapf(err, "gyle %d of chamber %d", ag.gyleID, chamberID)
}

// retireGyle closes the chamber's engine if its gyle is no longer the active one.
func (s *CollectorService) retireGyle(chamberID, gyleID int, active bool) {
	ag, ok := s.gyles[chamberID]
	if !ok || (active && ag.gyleID == gyleID) {
		return
	}
	if err := ag.engine.Close(); err != nil {
		s.log.Errorw("closing gyle log failed", "chamber", chamberID, "gyle", ag.gyleID, "err", err)
	}
	s.log.Infow("gyle log closed", "chamber", chamberID, "gyle", ag.gyleID)
	delete(s.gyles, chamberID)
}

func (s *CollectorService) gyleFor(chamberID int, g models.Gyle) *activeGyle {
	if ag, ok := s.gyles[chamberID]; ok {
		return ag
	}
	dir := s.chambers.GyleLogsDir(chamberID, g.ID)
	ag := &activeGyle{
		gyleID: g.ID,
		engine: gylelog.NewEngine(dir, g.StartedDt(), s.cfg, s.opt, s.log.Component("gylelog"), s.metrics),
	}
	s.gyles[chamberID] = ag
	s.log.Infow("gyle log opened", "chamber", chamberID, "gyle", g.ID, "dir", dir)
	return ag
}

func (s *CollectorService) pollFailed(ctx context.Context, chamberID, gyleID int, err error, now time.Time) {
	s.log.Warnw("polling chamber failed", "chamber", chamberID, "err", err)
	s.metrics.PollFailed(chamberID)
	s.recordEvent(ctx, models.ChamberEvent{
		OccurredAt:  now,
		ChamberID:   chamberID,
		GyleID:      gyleID,
		Type:        models.EventPollFailed,
		Description: errors.Cause(err).Error(),
		Metadata:    map[string]any{"err": err.Error()},
	})
}

func (s *CollectorService) recordEvent(ctx context.Context, ev models.ChamberEvent) {
	ev.EventID = uuid.NewString()
	ev.OccurredAt = ev.OccurredAt.UTC()
	if err := s.events.Append(ctx, ev); err != nil {
		s.log.Errorw("appending event failed", "type", ev.Type, "chamber", ev.ChamberID, "err", err)
	}
	s.notifier.Notify(ctx, ev)
}

// Shutdown closes every open gyle log, flushing partial buffers. The first
// error is returned; the rest are logged.
func (s *CollectorService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	for chamberID, ag := range s.gyles {
		if err := ag.engine.Close(); err != nil {
			s.log.Errorw("closing gyle log failed", "chamber", chamberID, "gyle", ag.gyleID, "err", err)
			if first == nil {
				first = errors.Wrapf(err, "close gyle %d of chamber %d", ag.gyleID, chamberID)
			}
		}
		delete(s.gyles, chamberID)
	}
	s.metrics.SetActiveGyles(0)
	return first
}
