package xui

import (
	"expvar"
	"sync/atomic"
	"time"
)

// Metrics counts what the engine does. It is safe for concurrent use.
// RegisterExpvar publishes the values under /debug/vars:
//
//	m := xui.NewMetrics()
//	m.RegisterExpvar()
//	// import _ "expvar" and serve http.DefaultServeMux
type Metrics struct {
	starts        atomic.Int64
	stops         atomic.Int64
	restarts      atomic.Int64
	configReloads atomic.Int64
	sceneReloads  atomic.Int64
	frames        atomic.Int64
	frameErrors   atomic.Int64
	sceneErrors   atomic.Int64
	sceneSkipped  atomic.Int64
	errorsTotal   atomic.Int64
	eventsEmitted atomic.Int64

	sceneLatencyNs    atomic.Int64
	sceneLatencyCount atomic.Int64
	frameLatencyNs    atomic.Int64
	frameLatencyCount atomic.Int64

	running      atomic.Int32
	lastCommands atomic.Int64

	registered atomic.Bool
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar publishes the metrics with the xui_ prefix. Only the
// first call has an effect; expvar names are process-global.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}
	counters := map[string]*atomic.Int64{
		"xui_starts_total":         &m.starts,
		"xui_stops_total":          &m.stops,
		"xui_restarts_total":       &m.restarts,
		"xui_config_reloads_total": &m.configReloads,
		"xui_scene_reloads_total":  &m.sceneReloads,
		"xui_frames_total":         &m.frames,
		"xui_frame_errors_total":   &m.frameErrors,
		"xui_scene_errors_total":   &m.sceneErrors,
		"xui_scene_skipped_total":  &m.sceneSkipped,
		"xui_errors_total":         &m.errorsTotal,
		"xui_events_emitted_total": &m.eventsEmitted,
		"xui_last_frame_commands":  &m.lastCommands,
	}
	for name, v := range counters {
		expvar.Publish(name, expvar.Func(func() any { return v.Load() }))
	}
	expvar.Publish("xui_running", expvar.Func(func() any { return m.running.Load() }))
	expvar.Publish("xui_scene_latency_avg_ms", expvar.Func(func() any {
		return msAverage(m.sceneLatencyNs.Load(), m.sceneLatencyCount.Load())
	}))
	expvar.Publish("xui_frame_latency_avg_ms", expvar.Func(func() any {
		return msAverage(m.frameLatencyNs.Load(), m.frameLatencyCount.Load())
	}))
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Starts        int64
	Stops         int64
	Restarts      int64
	ConfigReloads int64
	SceneReloads  int64
	Frames        int64
	FrameErrors   int64
	SceneErrors   int64
	SceneSkipped  int64
	ErrorsTotal   int64
	EventsEmitted int64

	Running      bool
	LastCommands int64

	SceneLatencyAvg time.Duration
	FrameLatencyAvg time.Duration
}

// Snapshot returns a copy of the current values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Starts:        m.starts.Load(),
		Stops:         m.stops.Load(),
		Restarts:      m.restarts.Load(),
		ConfigReloads: m.configReloads.Load(),
		SceneReloads:  m.sceneReloads.Load(),
		Frames:        m.frames.Load(),
		FrameErrors:   m.frameErrors.Load(),
		SceneErrors:   m.sceneErrors.Load(),
		SceneSkipped:  m.sceneSkipped.Load(),
		ErrorsTotal:   m.errorsTotal.Load(),
		EventsEmitted: m.eventsEmitted.Load(),

		Running:      m.running.Load() > 0,
		LastCommands: m.lastCommands.Load(),

		SceneLatencyAvg: safeDivide(m.sceneLatencyNs.Load(), m.sceneLatencyCount.Load()),
		FrameLatencyAvg: safeDivide(m.frameLatencyNs.Load(), m.frameLatencyCount.Load()),
	}
}

func (m *Metrics) IncrementStarts()        { m.starts.Add(1) }
func (m *Metrics) IncrementStops()         { m.stops.Add(1) }
func (m *Metrics) IncrementRestarts()      { m.restarts.Add(1) }
func (m *Metrics) IncrementConfigReloads() { m.configReloads.Add(1) }
func (m *Metrics) IncrementSceneReloads()  { m.sceneReloads.Add(1) }
func (m *Metrics) IncrementFrameErrors()   { m.frameErrors.Add(1) }
func (m *Metrics) IncrementSceneErrors()   { m.sceneErrors.Add(1) }
func (m *Metrics) IncrementSceneSkipped()  { m.sceneSkipped.Add(1) }
func (m *Metrics) IncrementErrors()        { m.errorsTotal.Add(1) }
func (m *Metrics) IncrementEventsEmitted() { m.eventsEmitted.Add(1) }

// SetRunning updates the running gauge.
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.running.Store(1)
	} else {
		m.running.Store(0)
	}
}

// RecordFrame counts a rendered frame of n commands that took d.
func (m *Metrics) RecordFrame(d time.Duration, n int) {
	m.frames.Add(1)
	m.lastCommands.Store(int64(n))
	m.frameLatencyNs.Add(d.Nanoseconds())
	m.frameLatencyCount.Add(1)
}

// RecordSceneLatency records the time one scene evaluation took.
func (m *Metrics) RecordSceneLatency(d time.Duration) {
	m.sceneLatencyNs.Add(d.Nanoseconds())
	m.sceneLatencyCount.Add(1)
}

// Reset zeroes everything except the expvar registration.
func (m *Metrics) Reset() {
	for _, v := range []*atomic.Int64{
		&m.starts, &m.stops, &m.restarts, &m.configReloads, &m.sceneReloads,
		&m.frames, &m.frameErrors, &m.sceneErrors, &m.sceneSkipped,
		&m.errorsTotal, &m.eventsEmitted, &m.lastCommands,
		&m.sceneLatencyNs, &m.sceneLatencyCount, &m.frameLatencyNs, &m.frameLatencyCount,
	} {
		v.Store(0)
	}
	m.running.Store(0)
}

func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

func msAverage(total, count int64) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count) / 1e6
}

var defaultMetrics = NewMetrics()

// DefaultMetrics returns the process-wide collector.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
