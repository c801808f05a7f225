// Package journal provides an append-only record of object lifecycle events
// for post-mortem leak debugging.
package journal

import (
	"errors"
	"time"
)

// Kind classifies a lifecycle event.
type Kind string

// Lifecycle event kinds.
const (
	// KindDisposed records a release sequence triggered by an explicit
	// Dispose call.
	KindDisposed Kind = "disposed"

	// KindLeaked records a release sequence that ran on the finalizer path,
	// meaning the owner never disposed the object, or a leak confirmed by a
	// leak check.
	KindLeaked Kind = "leaked"
)

// Entry is one lifecycle event.
type Entry struct {
	// Object is the diagnostic name of the object, usually its dynamic type.
	Object string

	// ObjectID is the short per-object identifier assigned at bind time.
	ObjectID string

	// Event classifies what happened.
	Event Kind

	// Err holds the combined hook error text, empty on success.
	Err string

	// Duration is how long the release sequence took.
	Duration time.Duration

	// RecordedAt is when the event was appended.
	RecordedAt time.Time
}

// Size returns the approximate stored size of the entry in bytes.
func (e Entry) Size() int64 {
	// Variable-length string fields plus fixed-width duration and timestamp.
	return int64(len(e.Object)+len(e.ObjectID)+len(e.Event)+len(e.Err)) + 16
}

// Store persists lifecycle events.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores one event. A zero RecordedAt is stamped with the current
	// time.
	Append(e Entry) error

	// List returns events for an object name, oldest first.
	// An empty object name returns all events.
	// Returns empty slice (not error) if nothing matches.
	List(object string) ([]Entry, error)

	// Prune removes events recorded before the given time.
	Prune(before time.Time) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for journal operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)
