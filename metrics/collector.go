// Package metrics provides per-frontend metrics collection.
//
// The Collector accumulates counters across the backend commands issued by
// one frontend instance. It is a leaf package with no internal dependencies.
// All increment methods are nil-receiver safe so callers never have to guard
// an optional collector.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of the collected counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Command lifecycle
	CommandsStarted   int64
	CommandsSucceeded int64
	CommandsFailed    int64

	// Protocol anomalies
	ShapeViolations  int64
	MissingResponses int64

	// Metadata fallback
	MetadataFallbacks int64

	// Captured stream volume
	OutBytes int64
	ErrBytes int64

	// Dimension (informational, set at construction)
	Backend string
}

// Collector accumulates metrics for one frontend instance.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	commandsStarted   int64
	commandsSucceeded int64
	commandsFailed    int64

	shapeViolations  int64
	missingResponses int64

	metadataFallbacks int64

	outBytes int64
	errBytes int64

	backend string
}

// NewCollector creates a Collector labelled with the backend identity.
func NewCollector(backend string) *Collector {
	return &Collector{backend: backend}
}

// IncCommandStarted records a backend command being issued.
func (c *Collector) IncCommandStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commandsStarted++
	c.mu.Unlock()
}

// IncCommandSucceeded records a backend command that returned a value.
func (c *Collector) IncCommandSucceeded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commandsSucceeded++
	c.mu.Unlock()
}

// IncCommandFailed records a backend command that reported failure.
func (c *Collector) IncCommandFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commandsFailed++
	c.mu.Unlock()
}

// IncShapeViolation records a response whose payload had the wrong shape.
func (c *Collector) IncShapeViolation() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.shapeViolations++
	c.mu.Unlock()
}

// IncMissingResponse records an exchange whose result file never appeared.
func (c *Collector) IncMissingResponse() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.missingResponses++
	c.mu.Unlock()
}

// IncMetadataFallback records a metadata request served by building a wheel.
func (c *Collector) IncMetadataFallback() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.metadataFallbacks++
	c.mu.Unlock()
}

// AddStreamBytes records the sizes of the captured output and error text
// for one completed exchange.
func (c *Collector) AddStreamBytes(out, err int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.outBytes += int64(out)
	c.errBytes += int64(err)
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of all counters.
// Safe to call on a nil Collector (returns a zero Snapshot).
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		CommandsStarted:   c.commandsStarted,
		CommandsSucceeded: c.commandsSucceeded,
		CommandsFailed:    c.commandsFailed,
		ShapeViolations:   c.shapeViolations,
		MissingResponses:  c.missingResponses,
		MetadataFallbacks: c.metadataFallbacks,
		OutBytes:          c.outBytes,
		ErrBytes:          c.errBytes,
		Backend:           c.backend,
	}
}
