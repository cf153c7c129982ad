package optimise

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSmoother(t *testing.T, height int) *Smoother {
	t.Helper()
	th, err := DefaultThresholds(height)
	require.NoError(t, err)
	return NewSmoother(th)
}

func TestThresholds(t *testing.T) {
	_, err := NewThresholds(0, nil)
	assert.Error(t, err)

	_, err = NewThresholds(2, []int{1, 2})
	assert.Error(t, err, "widths must not increase")

	_, err = NewThresholds(2, []int{2})
	assert.Error(t, err, "one width per height")

	_, err = NewThresholds(2, []int{2, 0})
	assert.Error(t, err, "widths must be positive")

	th, err := DefaultThresholds(3)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, th.Widths)
}

func TestSmoothOutSmallFluctuations(t *testing.T) {
	cases := []struct {
		height int
		in     []int
		want   []int
	}{
		{1, []int{1, 2, 1, 3}, []int{1, 1, 1, 3}},
		{9, []int{1, 5, 1, 5, 1}, []int{1, 1, 1, 5, 1}},
		{2, []int{1, 0, 1, 0, 2, 0}, []int{1, 1, 1, 1, 2, 0}},
		{2, []int{2, 1, 3, 3, 2, 1}, []int{2, 2, 3, 3, 2, 1}},
		{1, []int{1, 2, 1, 1, 2, 1}, []int{1, 1, 1, 1, 2, 1}},
		{1, []int{1, 0, 1, 1, 0, 1}, []int{1, 1, 1, 1, 0, 1}},
		{1, []int{1, 2, 1, 2, 1, 2, 1}, []int{1, 1, 1, 1, 1, 2, 1}},
		{1, []int{1, 2, 1, 1, 2, 1, 1, 0, 1, 1, 0, 1}, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 1}},
		{1, []int{1, 0, 1, 2, 1, 2, 1, 2, 1, 0, 1}, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 1}},
		{1, []int{1, 0, 1, 0, 1, 0, 1, 2, 1, 0, 1}, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 0, 1}},
		{1, []int{9, 1, 3, 1, 2, 1, 9, 1}, []int{9, 1, 3, 2, 2, 1, 9, 1}},
		{1, []int{1, 9, 1, 3, 1, 2, 1, 9, 1}, []int{1, 9, 1, 3, 2, 2, 1, 9, 1}},
		{1, []int{1, 9, 1, 3, 1, 2, 0, 9, 1}, []int{1, 9, 1, 3, 2, 2, 0, 9, 1}},
	}
	for _, tc := range cases {
		values := append([]int(nil), tc.in...)
		changed := newTestSmoother(t, tc.height).SmoothOutSmallFluctuations(values)
		assert.True(t, changed, "input %v", tc.in)
		assert.Equal(t, tc.want, values, "input %v", tc.in)
	}
}

func TestSmoothOutSmallFluctuations_Unchanged(t *testing.T) {
	cases := []struct {
		height int
		in     []int
	}{
		{1, []int{1, 1, 1, 1, 0, 1}},
		{1, []int{1, 5, 1, 3, 1}},
		{2, []int{1, 5, 1, 4, 1}},
		{1, []int{0, 1, 3, 1, 3, 1, 3, 1, 0, 1}},
		{1, []int{0, 2, 0, 2, 0, 2, 2, 1, 0, 1}},
		{1, []int{1, 2, 3, 4, 3, 2, 1, 1, 2, 3, 4, 5, 4, 3, 2, 1}},
		{9, []int{1, 1, 1, 1}},
		{9, []int{1, 2, 3, 4, 5}},
	}
	for _, tc := range cases {
		values := append([]int(nil), tc.in...)
		changed := newTestSmoother(t, tc.height).SmoothOutSmallFluctuations(values)
		assert.False(t, changed, "input %v", tc.in)
		assert.Equal(t, tc.in, values)
	}
}

func TestSmoothOutSmallFluctuations_ShortArrays(t *testing.T) {
	s := newTestSmoother(t, 9)
	rnd := rand.New(rand.NewSource(42))
	for n := 0; n < 4; n++ {
		for i := 0; i < 200; i++ {
			values := make([]int, n)
			for k := range values {
				values[k] = rnd.Intn(7) - 3
			}
			orig := append([]int{}, values...)
			require.False(t, s.SmoothOutSmallFluctuations(values))
			require.Equal(t, orig, values)
		}
	}
}

func TestSmoothOutSmallFluctuations_Realistic(t *testing.T) {
	in := []int{150, 150, 151, 149, 149, 150, 152, 154, 156, 156, 157, 156, 160, 162, 160, 162,
		164, 164, 165, 165, 167, 165, 165, 168, 165, 166, 167, 167, 168, 169, 170, 169}
	want := []int{150, 150, 150, 150, 150, 150, 152, 154, 156, 156, 156, 156, 160, 160, 160, 162,
		164, 164, 165, 165, 165, 165, 165, 168, 165, 166, 167, 167, 168, 169, 170, 169}

	s := newTestSmoother(t, 2)
	values := append([]int(nil), in...)
	require.True(t, s.SmoothOutSmallFluctuations(values))
	require.Equal(t, want, values)

	// smoothing again is a no-op
	assert.False(t, s.SmoothOutSmallFluctuations(values))
	assert.Equal(t, want, values)
}

func TestSmoothOutSmallFluctuations_Idempotent(t *testing.T) {
	s := newTestSmoother(t, 2)
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		values := make([]int, 6+rnd.Intn(5))
		for k := range values {
			values[k] = rnd.Intn(4)
		}
		s.SmoothOutSmallFluctuations(values)
		again := append([]int(nil), values...)
		require.False(t, s.SmoothOutSmallFluctuations(again), "not idempotent for %v", values)
	}
}

func TestNewTip(t *testing.T) {
	values := []int{0, 1, 2, 1, -1}
	tp, err := newTip(values, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 2, tp.height)
	assert.Equal(t, 3, tp.width)

	th, err := DefaultThresholds(1)
	require.NoError(t, err)
	assert.True(t, tp.significant(th))

	_, err = newTip(values, 2, false)
	assert.Error(t, err)
}

func TestFlattenTip(t *testing.T) {
	cases := []struct {
		in    []int
		index int
		peak  bool
		want  []int
	}{
		{[]int{1, 5, 1, 5, 1}, 2, false, []int{1, 5, 5, 5, 1}},
		{[]int{1, 5, 2}, 1, true, []int{1, 2, 2}},
		{[]int{4, 1, 5}, 1, false, []int{4, 4, 5}},
		{[]int{1, 5, 5, 5, 2}, 2, true, []int{1, 2, 2, 2, 2}},
	}
	for _, tc := range cases {
		values := append([]int(nil), tc.in...)
		tp, err := newTip(values, tc.index, tc.peak)
		require.NoError(t, err)
		flattenTip(values, tp)
		assert.Equal(t, tc.want, values, "input %v", tc.in)
	}
}

func TestFindNextTip(t *testing.T) {
	tp := findNextTip([]int{3, 4, 2, 2, 1}, 0, true)
	require.NotNil(t, tp)
	assert.Equal(t, 1, tp.index)
	assert.True(t, tp.peak)

	tp = findNextTip([]int{4, 1, 2, 2, 3}, 4, false)
	require.NotNil(t, tp)
	assert.Equal(t, 1, tp.index)
	assert.False(t, tp.peak)

	tp = findNextTip([]int{1, 2, 2, 1}, 3, false)
	require.NotNil(t, tp)
	assert.Equal(t, 2, tp.index)

	assert.Nil(t, findNextTip([]int{1, 2, 3, 4}, 0, true))
}

func TestIndexOfNextDifferentValue(t *testing.T) {
	values := []int{1, 1, 2, 2, 2, 3}
	assert.Equal(t, 2, indexOfNextDifferentValue(values, 0, true))
	assert.Equal(t, 1, indexOfNextDifferentValue(values, 4, false))
	assert.Equal(t, -1, indexOfNextDifferentValue(values, 5, true))
	assert.Equal(t, -1, indexOfNextDifferentValue(values, 1, false))
}

func TestFindNextLocalExtrema(t *testing.T) {
	values := []int{1, 2, 2, 3, 1, 0, 0, 4}
	i, ok := findNextLocalMax(values, 0, true)
	require.True(t, ok)
	assert.Equal(t, 3, i)

	i, ok = findNextLocalMin(values, 3, true)
	require.True(t, ok)
	assert.Equal(t, 5, i)

	_, ok = findNextLocalMin(values, 0, true)
	assert.False(t, ok, "values rise first")
}
