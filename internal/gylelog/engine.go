// Package gylelog is the readings log of a single gyle: an in-memory buffer that
// spills to immutable segments which are compacted across generations.
package gylelog

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"chamber_monitor/internal/logger"
	"chamber_monitor/internal/models"
	"chamber_monitor/internal/optimise"
	"chamber_monitor/internal/segment"
)

// ErrClosed is returned by an engine after Close.
var ErrClosed = errors.New("gyle log closed")

// Config is shared by every engine.
type Config struct {
	// Gen1Capacity is the number of readings in a freshly flushed segment.
	Gen1Capacity int
	// ReadingPeriod is the expected interval between readings; it sizes the
	// window kept for the switched-off checks.
	ReadingPeriod time.Duration
	Compaction    CompactionConfig
	SwitchedOff   SwitchedOffConfig
}

func (c Config) Validate() error {
	if c.Gen1Capacity < 1 {
		return fmt.Errorf("gen1 capacity must be positive: %d", c.Gen1Capacity)
	}
	if c.ReadingPeriod <= 0 {
		return fmt.Errorf("reading period must be positive: %s", c.ReadingPeriod)
	}
	if c.SwitchedOff.FridgeOnTimeMins <= 0 || c.SwitchedOff.HeaterOnTimeMins <= 0 {
		return fmt.Errorf("switched-off durations must be positive: %+v", c.SwitchedOff)
	}
	return c.Compaction.Validate()
}

func (c Config) windowSize() int {
	return int(c.SwitchedOff.longest()/c.ReadingPeriod) + 2
}

// Engine owns one gyle's logs directory. Readings are buffered and flushed one
// reading late: a full buffer is only written when the next reading arrives.
type Engine struct {
	mu sync.Mutex

	cfg       Config
	dtStarted int64
	store     *segment.Store
	compactor *Compactor
	optimiser *optimise.Optimiser
	log       *logger.Logger
	obs       Observer

	initialised bool
	broken      error
	closed      bool

	buffer  *ReadingsBuffer
	window  *recentWindow
	flags   LeftOffFlags
	lastDt  int64
	hasLast bool
}

// NewEngine does not touch the filesystem; the logs directory is prepared on first use.
func NewEngine(logsDir string, dtStarted int64, cfg Config, opt *optimise.Optimiser, log *logger.Logger, obs Observer) *Engine {
	if obs == nil {
		obs = nopObserver{}
	}
	store := segment.NewStore(logsDir)
	return &Engine{
		cfg:       cfg,
		dtStarted: dtStarted,
		store:     store,
		compactor: NewCompactor(store, cfg.Compaction, obs),
		optimiser: opt,
		log:       log,
		obs:       obs,
		window:    newRecentWindow(cfg.windowSize()),
	}
}

// init prepares the logs directory: leftovers of interrupted writes are removed
// and segments already covered by a compacted one are purged. A malformed file
// name leaves the engine permanently broken.
func (e *Engine) init() error {
	if e.broken != nil {
		return e.broken
	}
	if e.initialised {
		return nil
	}
	if err := e.store.EnsureDir(); err != nil {
		return err
	}
	if n, err := e.store.RemoveTemp(); err != nil {
		return err
	} else if n > 0 {
		e.log.Warnw("removed unfinished segments", "dir", e.store.Dir(), "count", n)
	}
	deleted, err := e.compactor.PurgeSuperseded()
	if err != nil {
		if errors.Is(err, segment.ErrMalformedSegmentName) {
			e.broken = err
		}
		return err
	}
	if len(deleted) > 0 {
		e.log.Infow("purged superseded segments", "dir", e.store.Dir(), "count", len(deleted))
	}
	segs, err := e.store.List()
	if err != nil {
		return err
	}
	for _, d := range segs {
		if !e.hasLast || d.EndTs > e.lastDt {
			e.lastDt, e.hasLast = d.EndTs, true
		}
	}
	e.initialised = true
	return nil
}

// Open prepares the logs directory. The other methods do so on first use;
// calling Open up front surfaces a corrupt directory before any reading is taken.
func (e *Engine) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.init()
}

// CollectReadings adds r to the log. If the current buffer is already full it is
// flushed first and r starts a new buffer. A failed flush keeps the buffer so the
// next call retries; the error is returned after r has been buffered.
func (e *Engine) CollectReadings(r models.Reading, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if err := e.init(); err != nil {
		return err
	}
	if e.hasLast && r.Dt <= e.lastDt {
		panic(fmt.Sprintf("reading dt %d does not follow %d in %s", r.Dt, e.lastDt, e.store.Dir()))
	}

	var flushErr error
	if e.buffer != nil && e.buffer.IsReadyToFlush() {
		flushErr = e.flush()
	}
	if e.buffer == nil {
		e.buffer = NewReadingsBuffer(e.cfg.Gen1Capacity, now)
	}
	e.buffer.Add(r, now)
	e.window.push(r)
	e.lastDt, e.hasLast = r.Dt, true
	e.obs.ReadingCollected()
	return flushErr
}

// flush optimises and writes the buffer, then compacts. The buffer is dropped
// only once its segment is on disk.
func (e *Engine) flush() error {
	raw := e.buffer.Snapshot()
	optimised := e.optimiser.Optimise(raw)
	d, err := e.store.Write(1, optimised)
	if err != nil {
		return err
	}
	e.obs.SegmentWritten(1)
	e.obs.BufferFlushed(e.buffer.Len(), len(optimised))
	e.log.Debugw("buffer flushed", "segment", d.Name(), "readings", e.buffer.Len(), "kept", len(optimised))
	e.buffer = nil

	res, err := e.compactor.Compact()
	if err != nil {
		return errors.Wrap(err, "compact")
	}
	for _, w := range res.Written {
		e.log.Infow("segments compacted", "segment", w.Name(), "generation", w.Generation)
	}
	return nil
}

// CheckLeftSwitchedOff evaluates the recent readings and returns any newly raised
// signals. Each signal is returned once.
func (e *Engine) CheckLeftSwitchedOff() []models.Signal {
	e.mu.Lock()
	defer e.mu.Unlock()

	signals, flags := DetectSwitchedOff(e.cfg.SwitchedOff, e.dtStarted, e.window.readings(), e.flags)
	e.flags = flags
	for _, s := range signals {
		e.obs.SignalRaised(string(s))
	}
	return signals
}

// Close flushes whatever is buffered, regardless of size. Further calls to
// CollectReadings fail with ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	if e.buffer != nil && e.buffer.Len() > 0 {
		if err := e.init(); err != nil {
			return err
		}
		if err := e.flush(); err != nil {
			return err
		}
	}
	e.closed = true
	return nil
}

// Segments lists the segment files currently on disk.
func (e *Engine) Segments() ([]segment.Descriptor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.init(); err != nil {
		return nil, err
	}
	return e.store.List()
}

// Readings returns the whole log in chronological order: live segments followed
// by the unflushed buffer.
func (e *Engine) Readings() ([]models.Reading, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.init(); err != nil {
		return nil, err
	}
	segs, err := e.store.List()
	if err != nil {
		return nil, err
	}
	var out []models.Reading
	for _, d := range Live(segs) {
		rs, err := e.store.Read(d)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	if e.buffer != nil {
		out = append(out, e.buffer.Snapshot()...)
	}
	return out, nil
}

// LastDt is the dt of the most recent reading, on disk or buffered.
func (e *Engine) LastDt() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.init(); err != nil {
		return 0, false
	}
	return e.lastDt, e.hasLast
}

// Dir returns the logs directory.
func (e *Engine) Dir() string {
	return e.store.Dir()
}
