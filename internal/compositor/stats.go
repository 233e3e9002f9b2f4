package compositor

import (
	"sync/atomic"
	"time"
)

// Stats counts what the compositor did. Counters are cumulative across
// frames and safe to read concurrently with Render.
type Stats struct {
	frames      atomic.Int64
	commands    atomic.Int64
	drawn       atomic.Int64
	culled      atomic.Int64
	unsupported atomic.Int64
	skipped     atomic.Int64
	scissors    atomic.Int64
	presents    atomic.Int64
	aborted     atomic.Int64

	lastFrameTime atomic.Int64 // nanoseconds
	minFrameTime  atomic.Int64
	maxFrameTime  atomic.Int64
	totalTime     atomic.Int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Frames      int64
	Commands    int64
	Drawn       int64
	Culled      int64
	Unsupported int64
	Skipped     int64
	Scissors    int64
	Presents    int64
	Aborted     int64

	LastFrameTime    time.Duration
	MinFrameTime     time.Duration
	MaxFrameTime     time.Duration
	AverageFrameTime time.Duration
}

func (s *Stats) recordFrame(d time.Duration) {
	nanos := d.Nanoseconds()
	s.frames.Add(1)
	s.lastFrameTime.Store(nanos)
	s.totalTime.Add(nanos)

	for {
		cur := s.minFrameTime.Load()
		if (cur != 0 && nanos >= cur) || s.minFrameTime.CompareAndSwap(cur, nanos) {
			break
		}
	}
	for {
		cur := s.maxFrameTime.Load()
		if nanos <= cur || s.maxFrameTime.CompareAndSwap(cur, nanos) {
			break
		}
	}
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() Snapshot {
	snap := Snapshot{
		Frames:        s.frames.Load(),
		Commands:      s.commands.Load(),
		Drawn:         s.drawn.Load(),
		Culled:        s.culled.Load(),
		Unsupported:   s.unsupported.Load(),
		Skipped:       s.skipped.Load(),
		Scissors:      s.scissors.Load(),
		Presents:      s.presents.Load(),
		Aborted:       s.aborted.Load(),
		LastFrameTime: time.Duration(s.lastFrameTime.Load()),
		MinFrameTime:  time.Duration(s.minFrameTime.Load()),
		MaxFrameTime:  time.Duration(s.maxFrameTime.Load()),
	}
	if snap.Frames > 0 {
		snap.AverageFrameTime = time.Duration(s.totalTime.Load() / snap.Frames)
	}
	return snap
}

// Reset zeroes every counter.
func (s *Stats) Reset() {
	for _, v := range []*atomic.Int64{
		&s.frames, &s.commands, &s.drawn, &s.culled, &s.unsupported,
		&s.skipped, &s.scissors, &s.presents, &s.aborted,
		&s.lastFrameTime, &s.minFrameTime, &s.maxFrameTime, &s.totalTime,
	} {
		v.Store(0)
	}
}
