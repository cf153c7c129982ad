package gylelog

import "chamber_monitor/internal/models"

// recentWindow is a fixed size ring of the latest readings. Unlike the
// ReadingsBuffer it survives flushes.
type recentWindow struct {
	buf   []models.Reading
	head  int // next write position
	count int
}

func newRecentWindow(size int) *recentWindow {
	if size <= 0 {
		size = 1
	}
	return &recentWindow{buf: make([]models.Reading, size)}
}

func (w *recentWindow) push(r models.Reading) {
	w.buf[w.head] = r
	w.head = (w.head + 1) % len(w.buf)
	if w.count < len(w.buf) {
		w.count++
	}
}

// readings returns the window oldest first.
func (w *recentWindow) readings() []models.Reading {
	out := make([]models.Reading, w.count)
	start := (w.head - w.count + len(w.buf)) % len(w.buf)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(start+i)%len(w.buf)]
	}
	return out
}

func (w *recentWindow) len() int {
	return w.count
}
