package gylelog

import (
	"fmt"
	"time"

	"chamber_monitor/internal/models"
)

// ReadingsBuffer accumulates readings for the next generation 1 segment.
// It is owned by a single Engine and is not safe for concurrent use.
type ReadingsBuffer struct {
	capacity    int
	createdAt   time.Time
	lastAddedAt time.Time
	readings    []models.Reading
}

func NewReadingsBuffer(capacity int, createdAt time.Time) *ReadingsBuffer {
	return &ReadingsBuffer{
		capacity:  capacity,
		createdAt: createdAt,
		readings:  make([]models.Reading, 0, capacity),
	}
}

// Add appends r. A dt that does not advance is a programming error.
func (b *ReadingsBuffer) Add(r models.Reading, addedAt time.Time) {
	if n := len(b.readings); n > 0 && r.Dt <= b.readings[n-1].Dt {
		panic(fmt.Sprintf("reading dt %d does not follow %d", r.Dt, b.readings[n-1].Dt))
	}
	b.readings = append(b.readings, r)
	b.lastAddedAt = addedAt
}

// IsReadyToFlush reports whether the buffer holds at least its capacity.
func (b *ReadingsBuffer) IsReadyToFlush() bool {
	return len(b.readings) >= b.capacity
}

func (b *ReadingsBuffer) Len() int {
	return len(b.readings)
}

// Snapshot returns a copy of the buffered readings.
func (b *ReadingsBuffer) Snapshot() []models.Reading {
	out := make([]models.Reading, len(b.readings))
	copy(out, b.readings)
	return out
}

// Drain returns the buffered readings and empties the buffer.
func (b *ReadingsBuffer) Drain() []models.Reading {
	if len(b.readings) == 0 {
		return nil
	}
	out := b.Snapshot()
	b.readings = b.readings[:0]
	return out
}

func (b *ReadingsBuffer) CreatedAt() time.Time {
	return b.createdAt
}

func (b *ReadingsBuffer) LastAddedAt() time.Time {
	return b.lastAddedAt
}
