package xui

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrorCategory classifies an error by the part of the engine it came
// from.
type ErrorCategory int

const (
	ErrorCategoryUnknown ErrorCategory = iota
	ErrorCategoryConfig
	ErrorCategoryBackend
	ErrorCategoryScript
	ErrorCategoryFrame
	ErrorCategoryPresent
	ErrorCategoryIO

	numCategories
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConfig:
		return "config"
	case ErrorCategoryBackend:
		return "backend"
	case ErrorCategoryScript:
		return "script"
	case ErrorCategoryFrame:
		return "frame"
	case ErrorCategoryPresent:
		return "present"
	case ErrorCategoryIO:
		return "io"
	default:
		return "unknown"
	}
}

// ErrorSeverity is how urgent an error is.
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// CategorizedError is an error tagged for tracking. Errors handed to the
// ErrorHandler are of this type.
type CategorizedError struct {
	Err       error
	Category  ErrorCategory
	Severity  ErrorSeverity
	Timestamp time.Time
	Context   map[string]string
}

func (e *CategorizedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s/%s] (no error)", e.Severity, e.Category)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Severity, e.Category, e.Err.Error())
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorizedError tags err.
func NewCategorizedError(err error, category ErrorCategory, severity ErrorSeverity) *CategorizedError {
	return &CategorizedError{
		Err:       err,
		Category:  category,
		Severity:  severity,
		Timestamp: time.Now(),
		Context:   make(map[string]string),
	}
}

// WithContext adds a key-value pair and returns e.
func (e *CategorizedError) WithContext(key, value string) *CategorizedError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// ErrorTrackerConfig configures an ErrorTracker.
type ErrorTrackerConfig struct {
	// MaxErrors is the number of errors retained (default 1000).
	MaxErrors int
	// RetentionTime is how long errors are retained (default one hour).
	RetentionTime time.Duration
}

// DefaultErrorTrackerConfig returns the defaults.
func DefaultErrorTrackerConfig() ErrorTrackerConfig {
	return ErrorTrackerConfig{
		MaxErrors:     1000,
		RetentionTime: time.Hour,
	}
}

// ErrorTracker keeps a window of recent errors and lifetime counts per
// category. It is safe for concurrent use.
type ErrorTracker struct {
	mu            sync.RWMutex
	errors        []CategorizedError
	maxErrors     int
	retentionTime time.Duration

	categoryCounters [numCategories]atomic.Int64
}

// NewErrorTracker creates a tracker.
func NewErrorTracker(cfg ErrorTrackerConfig) *ErrorTracker {
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = 1000
	}
	if cfg.RetentionTime <= 0 {
		cfg.RetentionTime = time.Hour
	}
	return &ErrorTracker{
		errors:        make([]CategorizedError, 0, min(cfg.MaxErrors, 64)),
		maxErrors:     cfg.MaxErrors,
		retentionTime: cfg.RetentionTime,
	}
}

// Record adds err.
func (t *ErrorTracker) Record(err *CategorizedError) {
	if err == nil {
		return
	}
	if err.Category >= 0 && err.Category < numCategories {
		t.categoryCounters[err.Category].Add(1)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, *err)
	if len(t.errors) > t.maxErrors {
		t.errors = t.errors[len(t.errors)-t.maxErrors:]
	}
	t.pruneExpired()
}

// pruneExpired must be called with mu held.
func (t *ErrorTracker) pruneExpired() {
	cutoff := time.Now().Add(-t.retentionTime)
	start := 0
	for start < len(t.errors) && !t.errors[start].Timestamp.After(cutoff) {
		start++
	}
	if start > 0 {
		t.errors = t.errors[start:]
	}
}

// ErrorRate returns errors per second within window. A category of
// ErrorCategoryUnknown counts every error.
func (t *ErrorTracker) ErrorRate(category ErrorCategory, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := time.Now().Add(-window)
	count := 0
	for _, err := range t.errors {
		if err.Timestamp.After(cutoff) && (category == ErrorCategoryUnknown || err.Category == category) {
			count++
		}
	}
	return float64(count) / window.Seconds()
}

// ErrorStats summarizes a tracker.
type ErrorStats struct {
	// Retained is the number of errors in the retention window.
	Retained int
	// ByCategory counts retained errors.
	ByCategory map[ErrorCategory]int
	// BySeverity counts retained errors.
	BySeverity map[ErrorSeverity]int
	// Lifetime counts every error ever recorded.
	Lifetime map[ErrorCategory]int64
}

// Stats returns a snapshot.
func (t *ErrorTracker) Stats() ErrorStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := ErrorStats{
		Retained:   len(t.errors),
		ByCategory: make(map[ErrorCategory]int),
		BySeverity: make(map[ErrorSeverity]int),
		Lifetime:   make(map[ErrorCategory]int64),
	}
	for _, err := range t.errors {
		stats.ByCategory[err.Category]++
		stats.BySeverity[err.Severity]++
	}
	for i := range t.categoryCounters {
		if n := t.categoryCounters[i].Load(); n > 0 {
			stats.Lifetime[ErrorCategory(i)] = n
		}
	}
	return stats
}

// RecentErrors returns up to limit of the newest errors, oldest first.
func (t *ErrorTracker) RecentErrors(limit int) []CategorizedError {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if limit <= 0 || len(t.errors) == 0 {
		return nil
	}
	start := max(len(t.errors)-limit, 0)
	result := make([]CategorizedError, len(t.errors)-start)
	copy(result, t.errors[start:])
	return result
}

// Clear drops the retained errors. Lifetime counts are kept.
func (t *ErrorTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = t.errors[:0]
}
