package profiling

import (
	"context"
	"strings"
	"testing"
	"time"
)

// scripted returns samples from a fixed sequence.
func scripted(samples ...Sample) func() Sample {
	i := 0
	return func() Sample {
		s := samples[min(i, len(samples)-1)]
		i++
		return s
	}
}

func TestWatchDefaults(t *testing.T) {
	w := NewWatch(WatchConfig{Window: 1}, nil)
	if w.cfg != DefaultWatchConfig() {
		t.Errorf("cfg = %+v, want defaults", w.cfg)
	}
}

func TestWatchWindow(t *testing.T) {
	base := time.Unix(0, 0)
	w := NewWatch(WatchConfig{Window: 2}, nil)
	w.read = scripted(
		Sample{Time: base, HeapAlloc: 1},
		Sample{Time: base.Add(time.Second), HeapAlloc: 2},
		Sample{Time: base.Add(2 * time.Second), HeapAlloc: 3},
	)
	for range 3 {
		w.Sample()
	}
	got := w.Samples()
	if len(got) != 2 || got[0].HeapAlloc != 2 || got[1].HeapAlloc != 3 {
		t.Errorf("Samples() = %+v", got)
	}
}

func TestWatchGrowth(t *testing.T) {
	base := time.Unix(0, 0)
	tests := []struct {
		name   string
		last   Sample
		leak   bool
		reason string
	}{
		{"steady", Sample{Time: base.Add(10 * time.Second), HeapAlloc: 10 * MB, Goroutines: 5}, false, ""},
		{"heap", Sample{Time: base.Add(10 * time.Second), HeapAlloc: 40 * MB, Goroutines: 5}, true, "heap growing"},
		{"goroutines", Sample{Time: base.Add(10 * time.Second), HeapAlloc: 10 * MB, Goroutines: 50}, true, "45 more goroutines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWatch(WatchConfig{}, nil)
			w.read = scripted(Sample{Time: base, HeapAlloc: 10 * MB, Goroutines: 5}, tt.last)
			if _, ok := w.Growth(); ok {
				t.Fatal("Growth() ok without samples")
			}
			w.Sample()
			w.Sample()
			g, ok := w.Growth()
			if !ok {
				t.Fatal("Growth() not ok")
			}
			if g.Leak != tt.leak {
				t.Errorf("Leak = %v, want %v (%+v)", g.Leak, tt.leak, g)
			}
			if !strings.Contains(g.Reason, tt.reason) {
				t.Errorf("Reason = %q, want it to contain %q", g.Reason, tt.reason)
			}
			if g.Span != 10*time.Second {
				t.Errorf("Span = %v", g.Span)
			}
		})
	}
}

func TestWatchRunReportsLeak(t *testing.T) {
	base := time.Unix(0, 0)
	w := NewWatch(WatchConfig{Interval: time.Millisecond}, nil)
	w.read = scripted(
		Sample{Time: base},
		Sample{Time: base.Add(time.Second), HeapAlloc: 100 * MB},
	)
	leaks := make(chan Growth, 1)
	w.OnLeak(func(g Growth) {
		select {
		case leaks <- g:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case g := <-leaks:
		if g.HeapDelta != 100*MB {
			t.Errorf("HeapDelta = %d", g.HeapDelta)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no leak reported")
	}
	cancel()
	<-done
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    uint64
		want string
	}{
		{512, "512 B"},
		{2 * KB, "2.00 KB"},
		{3 * MB / 2, "1.50 MB"},
		{GB, "1.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestReadSample(t *testing.T) {
	s := ReadSample()
	if s.HeapAlloc == 0 || s.Goroutines == 0 {
		t.Errorf("ReadSample() = %+v", s)
	}
	if !strings.Contains(s.String(), "goroutines") {
		t.Errorf("String() = %q", s.String())
	}
}
