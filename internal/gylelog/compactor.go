package gylelog

import (
	"fmt"

	"github.com/pkg/errors"

	"chamber_monitor/internal/models"
	"chamber_monitor/internal/segment"
)

// CompactionConfig bounds the generational merge.
type CompactionConfig struct {
	// GenMultiplier is how many same-generation segments are merged into one.
	GenMultiplier int
	// MaxGeneration segments are never merged further.
	MaxGeneration int
}

func (c CompactionConfig) Validate() error {
	if c.GenMultiplier < 2 {
		return fmt.Errorf("genMultiplier must be at least 2: %d", c.GenMultiplier)
	}
	if c.MaxGeneration < 1 {
		return fmt.Errorf("maxGeneration must be at least 1: %d", c.MaxGeneration)
	}
	return nil
}

// CompactionResult lists what a pass changed on disk.
type CompactionResult struct {
	Deleted []segment.Descriptor
	Written []segment.Descriptor
}

// Compactor merges segments of one logs directory into higher generations.
//
// A pass first deletes segments superseded by an existing higher generation
// segment, then promotes groups of GenMultiplier segments. The sources of a
// promotion stay on disk until the following pass, so a reader listing the
// directory never sees a gap.
type Compactor struct {
	store *segment.Store
	cfg   CompactionConfig
	obs   Observer
}

func NewCompactor(store *segment.Store, cfg CompactionConfig, obs Observer) *Compactor {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Compactor{store: store, cfg: cfg, obs: obs}
}

// Compact runs one full pass.
func (c *Compactor) Compact() (CompactionResult, error) {
	var res CompactionResult

	deleted, remaining, err := c.purge()
	res.Deleted = deleted
	if err != nil {
		return res, err
	}

	segs := remaining
	for g := 1; g < c.cfg.MaxGeneration; g++ {
		group := promotable(segs, g, c.cfg.GenMultiplier)
		if group == nil {
			continue
		}
		d, err := c.merge(group, g+1)
		if err != nil {
			return res, err
		}
		res.Written = append(res.Written, d)
		segs = append(segs, d)
	}
	return res, nil
}

// PurgeSuperseded deletes every segment covered by a later, higher generation one.
func (c *Compactor) PurgeSuperseded() ([]segment.Descriptor, error) {
	deleted, _, err := c.purge()
	return deleted, err
}

func (c *Compactor) purge() ([]segment.Descriptor, []segment.Descriptor, error) {
	segs, err := c.store.List()
	if err != nil {
		return nil, nil, err
	}
	var deleted, remaining []segment.Descriptor
	for _, d := range segs {
		if !isSuperseded(d, segs) {
			remaining = append(remaining, d)
			continue
		}
		if err := c.store.Delete(d); err != nil {
			return deleted, nil, err
		}
		c.obs.SegmentDeleted(d.Generation)
		deleted = append(deleted, d)
	}
	return deleted, remaining, nil
}

func (c *Compactor) merge(group []segment.Descriptor, generation int) (segment.Descriptor, error) {
	var merged []models.Reading
	for _, d := range group {
		rs, err := c.store.Read(d)
		if err != nil {
			return segment.Descriptor{}, err
		}
		merged = append(merged, rs...)
	}
	d, err := c.store.Write(generation, merged)
	if err != nil {
		return segment.Descriptor{}, errors.Wrapf(err, "promote %d segments to generation %d", len(group), generation)
	}
	c.obs.SegmentWritten(generation)
	return d, nil
}

// promotable returns the first n live segments of generation g, or nil if there are fewer.
func promotable(segs []segment.Descriptor, g, n int) []segment.Descriptor {
	var group []segment.Descriptor
	for _, d := range segs {
		if d.Generation != g || isSuperseded(d, segs) {
			continue
		}
		group = append(group, d)
		if len(group) == n {
			return group
		}
	}
	return nil
}

func isSuperseded(d segment.Descriptor, segs []segment.Descriptor) bool {
	for _, h := range segs {
		if h.Supersedes(d) {
			return true
		}
	}
	return false
}

// Live filters out superseded segments: the most compacted view of the log.
func Live(segs []segment.Descriptor) []segment.Descriptor {
	var out []segment.Descriptor
	for _, d := range segs {
		if !isSuperseded(d, segs) {
			out = append(out, d)
		}
	}
	return out
}
