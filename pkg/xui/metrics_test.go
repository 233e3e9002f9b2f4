package xui

import (
	"expvar"
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.IncrementStarts()
	m.IncrementSceneErrors()
	m.IncrementSceneSkipped()
	m.RecordFrame(10*time.Millisecond, 4)
	m.RecordFrame(20*time.Millisecond, 6)
	m.RecordSceneLatency(2 * time.Millisecond)
	m.SetRunning(true)

	s := m.Snapshot()
	if s.Starts != 1 || s.SceneErrors != 1 || s.SceneSkipped != 1 {
		t.Errorf("counters = %+v", s)
	}
	if s.Frames != 2 || s.LastCommands != 6 {
		t.Errorf("frames = %d, last commands = %d", s.Frames, s.LastCommands)
	}
	if s.FrameLatencyAvg != 15*time.Millisecond {
		t.Errorf("FrameLatencyAvg = %v, want 15ms", s.FrameLatencyAvg)
	}
	if s.SceneLatencyAvg != 2*time.Millisecond {
		t.Errorf("SceneLatencyAvg = %v", s.SceneLatencyAvg)
	}
	if !s.Running {
		t.Error("Running = false")
	}

	m.Reset()
	if s := m.Snapshot(); s != (MetricsSnapshot{}) {
		t.Errorf("after Reset: %+v", s)
	}
}

func TestMetricsRegisterExpvar(t *testing.T) {
	m := NewMetrics()
	m.RegisterExpvar()
	m.RegisterExpvar()

	m.RecordFrame(time.Millisecond, 1)
	v := expvar.Get("xui_frames_total")
	if v == nil {
		t.Fatal("xui_frames_total not published")
	}
	if v.String() != "1" {
		t.Errorf("xui_frames_total = %s, want 1", v.String())
	}
	if expvar.Get("xui_frame_latency_avg_ms") == nil {
		t.Error("latency not published")
	}
}

func TestDefaultMetrics(t *testing.T) {
	if DefaultMetrics() != DefaultMetrics() {
		t.Error("DefaultMetrics is not a singleton")
	}
}
