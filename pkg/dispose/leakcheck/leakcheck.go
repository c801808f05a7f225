// Package leakcheck provides a debug-mode detector for objects that were
// bound for disposal but never disposed.
//
// Tracking is off by default and costs a single atomic load per bind when
// disabled. When enabled, every dispose.Bind records the object's diagnostic
// name, short ID, bind time, and optionally the bind-site stack; an explicit
// Dispose removes the record, and a finalizer-path disposal converts it into
// a confirmed leak. Only metadata is stored: the tracker never holds the
// object itself, so it cannot keep leaked objects alive or defeat the
// finalizer safety net.
//
// Typical test usage:
//
//	func TestMain(m *testing.M) {
//	    leakcheck.Enable(leakcheck.Policy{Mode: leakcheck.ModeTrack, CaptureStacks: true})
//	    os.Exit(m.Run())
//	}
//
//	func TestPool(t *testing.T) {
//	    defer leakcheck.Check(t)
//	    // ...
//	}
//
// Tracking can also be armed without code changes via the DISPOSE_LEAKCHECK
// environment variable ("track" or "stacks") or a policy file (see
// PolicyFromFile).
package leakcheck

import (
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/dispose/pkg/dispose/observability"
)

// TestingT is the subset of testing.TB needed by Check.
// Using a local interface keeps the testing package out of production builds.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// Record describes one tracked object.
type Record struct {
	// ID is the short per-object identifier assigned at bind time.
	ID string

	// Name is the object's diagnostic name, usually its dynamic type.
	Name string

	// CreatedAt is when the object was bound.
	CreatedAt time.Time

	// Stack is the bind-site stack trace, nil unless the policy captures
	// stacks.
	Stack []byte
}

var (
	enabled atomic.Bool

	mu      sync.RWMutex
	policy  Policy
	pending map[string]Record
	leaked  []Record
)

// Enabled reports whether tracking is armed.
// This is the fast path consulted on every bind.
func Enabled() bool {
	return enabled.Load()
}

// Enable arms tracking with the given policy.
// A policy with ModeOff disables tracking instead.
// Existing records are discarded.
func Enable(p Policy) {
	if err := p.validate(); err != nil {
		panic("leakcheck: " + err.Error())
	}
	if p.Mode == ModeOff {
		Disable()
		return
	}

	mu.Lock()
	defer mu.Unlock()
	policy = p
	pending = make(map[string]Record)
	leaked = nil
	enabled.Store(true)
}

// Disable disarms tracking and discards all records.
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	enabled.Store(false)
	pending = nil
	leaked = nil
}

// Track records a newly bound object.
// Called by dispose.Bind; most programs never call this directly.
func Track(id, name string) {
	if !enabled.Load() {
		return
	}

	r := Record{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now(),
	}

	mu.Lock()
	defer mu.Unlock()
	if pending == nil {
		return
	}
	if policy.CaptureStacks {
		r.Stack = debug.Stack()
	}
	pending[id] = r
}

// Untrack removes a tracked object after an explicit disposal.
// Called by dispose; most programs never call this directly.
func Untrack(id string) {
	if !enabled.Load() {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	delete(pending, id)
}

// Leaked converts a tracked object into a confirmed leak after a
// finalizer-path disposal. Called by dispose; most programs never call this
// directly.
func Leaked(id string) {
	if !enabled.Load() {
		return
	}

	mu.Lock()
	defer mu.Unlock()
	r, ok := pending[id]
	if !ok {
		return
	}
	delete(pending, id)
	leaked = append(leaked, r)
}

// Pending returns the objects still awaiting disposal, oldest first.
func Pending() []Record {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Record, 0, len(pending))
	for _, r := range pending {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Leaks returns the finalizer-confirmed leaks accumulated since Enable,
// in confirmation order.
func Leaks() []Record {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Record, len(leaked))
	copy(result, leaked)
	return result
}

// Check fails the test if any tracked object is still pending or any
// confirmed leak has accumulated. Confirmed leaks are drained once reported;
// pending records remain, since the object may still be disposed later.
func Check(t TestingT) {
	t.Helper()

	stillPending := Pending()
	confirmed := drainLeaks()

	for _, r := range stillPending {
		age := time.Since(r.CreatedAt).Round(time.Millisecond)
		if len(r.Stack) > 0 {
			t.Errorf("leakcheck: %s (%s) bound %s ago was never disposed, bound at:\n%s",
				r.Name, r.ID, age, r.Stack)
		} else {
			t.Errorf("leakcheck: %s (%s) bound %s ago was never disposed (enable CaptureStacks for the bind site)",
				r.Name, r.ID, age)
		}
	}

	for _, r := range confirmed {
		t.Errorf("leakcheck: %s (%s) was reclaimed by the GC without explicit disposal",
			r.Name, r.ID)
	}
}

// Report logs every pending object as a warning and returns the count.
// Intended for shutdown paths of long-running processes.
func Report(logger *slog.Logger) int {
	stillPending := Pending()
	for _, r := range stillPending {
		ageMs := float64(time.Since(r.CreatedAt).Milliseconds())
		observability.LogLeakDetected(logger, r.Name, r.ID, ageMs)
	}
	return len(stillPending)
}

// Reset discards all records but keeps tracking armed.
// Useful between test cases sharing a process.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if enabled.Load() {
		pending = make(map[string]Record)
	}
	leaked = nil
}

// drainLeaks returns and clears the confirmed leaks.
func drainLeaks() []Record {
	mu.Lock()
	defer mu.Unlock()

	result := leaked
	leaked = nil
	return result
}

func init() {
	if p, ok := PolicyFromEnv(); ok {
		Enable(p)
	}
}
