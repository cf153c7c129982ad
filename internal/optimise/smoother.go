package optimise

import (
	"fmt"
)

// Thresholds decide which tips are noise. A tip is significant if its height
// exceeds Height, or if its width exceeds Widths[height-1].
type Thresholds struct {
	Height int
	Widths []int
}

// NewThresholds validates and builds thresholds. Widths must hold one entry per
// height, each positive and none larger than the one before.
func NewThresholds(height int, widths []int) (Thresholds, error) {
	if height <= 0 {
		return Thresholds{}, fmt.Errorf("thresholdHeight must be positive: %d", height)
	}
	if len(widths) != height {
		return Thresholds{}, fmt.Errorf("expected %d threshold widths, got %d", height, len(widths))
	}
	for i, w := range widths {
		if w <= 0 {
			return Thresholds{}, fmt.Errorf("threshold width %d must be positive: %d", i, w)
		}
		if i > 0 && w > widths[i-1] {
			return Thresholds{}, fmt.Errorf("threshold widths must not increase: %v", widths)
		}
	}
	cp := make([]int, height)
	copy(cp, widths)
	return Thresholds{Height: height, Widths: cp}, nil
}

// DefaultThresholds returns widths [height, height-1, ..., 1].
func DefaultThresholds(height int) (Thresholds, error) {
	if height <= 0 {
		return Thresholds{}, fmt.Errorf("thresholdHeight must be positive: %d", height)
	}
	widths := make([]int, height)
	for i := range widths {
		widths[i] = height - i
	}
	return NewThresholds(height, widths)
}

// Smoother flattens insignificant peaks and troughs in a column of values.
type Smoother struct {
	th Thresholds
}

func NewSmoother(th Thresholds) *Smoother {
	return &Smoother{th: th}
}

// tip is a local peak or trough.
type tip struct {
	index  int
	value  int
	peak   bool
	height int
	width  int
}

func (t *tip) significant(th Thresholds) bool {
	return t.height > th.Height || t.width > th.Widths[t.height-1]
}

// effectivelyEqual reports whether t and other are the same plateau: same value
// and nothing different in between.
func (t *tip) effectivelyEqual(other *tip, values []int) bool {
	if t.value != other.value {
		return false
	}
	for i := t.index; i < other.index; i++ {
		if values[i] != t.value {
			return false
		}
	}
	return true
}

// SmoothOutSmallFluctuations flattens every insignificant tip except the last one
// in the array, which may still grow as readings arrive. Returns whether values changed.
func (s *Smoother) SmoothOutSmallFluctuations(values []int) bool {
	if len(values) < 4 {
		return false
	}
	lastTip := findNextTip(values, len(values)-1, false)
	if lastTip == nil {
		return false
	}

	changed := false
	for t := s.findNextInsignificantTip(values, 0); t != nil; t = s.findNextInsignificantTip(values, 0) {
		if t.effectivelyEqual(lastTip, values) {
			break
		}
		flattenTip(values, t)
		changed = true
	}
	return changed
}

func (s *Smoother) findNextInsignificantTip(values []int, from int) *tip {
	for {
		t := findNextTip(values, from, true)
		if t == nil {
			return nil
		}
		if !t.significant(s.th) {
			return t
		}
		from = t.index
	}
}

// newTip builds a tip at index. It fails if index has no flanking extrema on both sides.
func newTip(values []int, index int, peak bool) (*tip, error) {
	t := &tip{index: index, value: values[index], peak: peak}
	if err := t.measure(values); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *tip) flanks(values []int) (int, int, bool) {
	find := findNextLocalMin
	if !t.peak {
		find = findNextLocalMax
	}
	left, okL := find(values, t.index, false)
	right, okR := find(values, t.index, true)
	return left, right, okL && okR
}

func (t *tip) measure(values []int) error {
	left, right, ok := t.flanks(values)
	if !ok {
		kind := "trough"
		if t.peak {
			kind = "peak"
		}
		return fmt.Errorf("index %d is not a %s", t.index, kind)
	}
	t.width = 0
	if t.peak {
		floor := max(values[left], values[right])
		t.height = t.value - floor
		for i := left + 1; i < right; i++ {
			if values[i] > floor {
				t.width++
			}
		}
	} else {
		ceiling := min(values[left], values[right])
		t.height = ceiling - t.value
		for i := left + 1; i < right; i++ {
			if values[i] < ceiling {
				t.width++
			}
		}
	}
	return nil
}

// flattenTip clamps every point between the tip's flanking extrema to its floor (peak)
// or ceiling (trough).
func flattenTip(values []int, t *tip) {
	left, right, ok := t.flanks(values)
	if !ok {
		panic(fmt.Sprintf("tip at %d lost its flanks", t.index))
	}
	if t.peak {
		floor := t.value - t.height
		for i := left + 1; i < right; i++ {
			if values[i] > floor {
				values[i] = floor
			}
		}
		return
	}
	ceiling := t.value + t.height
	for i := left + 1; i < right; i++ {
		if values[i] < ceiling {
			values[i] = ceiling
		}
	}
}

// findNextTip looks for the next peak, then the next trough, from index in the given direction.
func findNextTip(values []int, index int, toRight bool) *tip {
	if m, ok := findNextLocalMax(values, index, toRight); ok {
		if _, ok := findNextLocalMin(values, m, toRight); ok {
			return mustTip(values, m, true)
		}
	}
	if m, ok := findNextLocalMin(values, index, toRight); ok {
		if _, ok := findNextLocalMax(values, m, toRight); ok {
			return mustTip(values, m, false)
		}
	}
	return nil
}

func mustTip(values []int, index int, peak bool) *tip {
	t, err := newTip(values, index, peak)
	if err != nil {
		panic(err)
	}
	return t
}

// indexOfNextDifferentValue returns -1 when every remaining value equals values[index].
func indexOfNextDifferentValue(values []int, index int, toRight bool) int {
	v := values[index]
	for {
		if toRight {
			index++
		} else {
			index--
		}
		if index < 0 || index >= len(values) {
			return -1
		}
		if values[index] != v {
			return index
		}
	}
}

// findNextLocalMax climbs from index in the given direction, skipping plateaus,
// and returns the point after which values start to fall (or the array ends).
// ok is false when the first different value is lower.
func findNextLocalMax(values []int, index int, toRight bool) (int, bool) {
	return findNextExtremum(values, index, toRight, func(next, cur int) bool { return next < cur })
}

// findNextLocalMin is the mirror of findNextLocalMax.
func findNextLocalMin(values []int, index int, toRight bool) (int, bool) {
	return findNextExtremum(values, index, toRight, func(next, cur int) bool { return next > cur })
}

func findNextExtremum(values []int, index int, toRight bool, turns func(next, cur int) bool) (int, bool) {
	j := indexOfNextDifferentValue(values, index, toRight)
	if j == -1 || turns(values[j], values[index]) {
		return 0, false
	}
	for {
		k := indexOfNextDifferentValue(values, j, toRight)
		if k == -1 || turns(values[k], values[j]) {
			return j, true
		}
		j = k
	}
}
