package gylelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chamber_monitor/internal/models"
)

func TestReadingsBuffer(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewReadingsBuffer(2, created)
	assert.False(t, b.IsReadyToFlush())

	b.Add(models.Reading{Dt: 1}, created)
	b.Add(models.Reading{Dt: 3}, created.Add(time.Minute))
	assert.True(t, b.IsReadyToFlush())
	assert.Equal(t, created, b.CreatedAt())
	assert.Equal(t, created.Add(time.Minute), b.LastAddedAt())

	out := b.Drain()
	assert.Equal(t, []models.Reading{{Dt: 1}, {Dt: 3}}, out)
	assert.Equal(t, 0, b.Len())
	assert.Nil(t, b.Drain())
}

func TestReadingsBufferRejectsNonMonotonicDt(t *testing.T) {
	b := NewReadingsBuffer(5, time.Now())
	b.Add(models.Reading{Dt: 10}, time.Now())
	assert.Panics(t, func() { b.Add(models.Reading{Dt: 10}, time.Now()) })
	assert.Panics(t, func() { b.Add(models.Reading{Dt: 9}, time.Now()) })
}

func TestRecentWindow(t *testing.T) {
	w := newRecentWindow(3)
	assert.Empty(t, w.readings())
	for dt := int64(1); dt <= 5; dt++ {
		w.push(models.Reading{Dt: dt})
	}
	assert.Equal(t, 3, w.len())
	assert.Equal(t, []models.Reading{{Dt: 3}, {Dt: 4}, {Dt: 5}}, w.readings())
}
