package xui

import "time"

// Status is a snapshot of an engine.
type Status struct {
	Running bool
	// StartTime is when the engine last started (zero if never started).
	StartTime time.Time
	// Frames is the number of frames rendered since the last start.
	Frames uint64
	// LastError is the most recent error (nil if none).
	LastError error
	// ConfigSource is the configuration file path, "embedded" or "reader".
	ConfigSource string
	// Scene is the script file, if any.
	Scene string
	// Backend is the name of the render backend.
	Backend string
	// Circuit is the state of the scene circuit breaker.
	Circuit CircuitState
}

// ErrorHandler receives runtime errors. It is called asynchronously; do
// not block in it.
type ErrorHandler func(err error)

// EventHandler receives lifecycle events. It is called asynchronously.
type EventHandler func(event Event)

// Event is a lifecycle event.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Message   string
}

// EventType enumerates lifecycle events. Compare against the constants;
// the values are not stable.
type EventType int

const (
	EventStarted EventType = iota
	EventStopped
	EventRestarted
	EventConfigReloaded
	EventSceneReloaded
	EventError
)

func (e EventType) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventRestarted:
		return "restarted"
	case EventConfigReloaded:
		return "config_reloaded"
	case EventSceneReloaded:
		return "scene_reloaded"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
