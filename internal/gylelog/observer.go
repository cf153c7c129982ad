package gylelog

// Observer is told about engine activity. The metrics package implements it.
type Observer interface {
	ReadingCollected()
	BufferFlushed(readingsIn, readingsOut int)
	SegmentWritten(generation int)
	SegmentDeleted(generation int)
	SignalRaised(signal string)
}

type nopObserver struct{}

func (nopObserver) ReadingCollected()      {}
func (nopObserver) BufferFlushed(int, int) {}
func (nopObserver) SegmentWritten(int)     {}
func (nopObserver) SegmentDeleted(int)     {}
func (nopObserver) SignalRaised(string)    {}
