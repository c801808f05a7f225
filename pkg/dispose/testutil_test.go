package dispose

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Test doubles shared across tests

// trackedResource records hook invocations in order.
type trackedResource struct {
	Object
	mu           sync.Mutex
	calls        []string
	managedErr   error
	unmanagedErr error
}

func (r *trackedResource) DisposeResources() error {
	r.mu.Lock()
	r.calls = append(r.calls, "managed")
	r.mu.Unlock()
	return r.managedErr
}

func (r *trackedResource) DisposeUnmanagedResources() error {
	r.mu.Lock()
	r.calls = append(r.calls, "unmanaged")
	r.mu.Unlock()
	return r.unmanagedErr
}

// hookCalls returns a copy of the recorded hook invocations.
func (r *trackedResource) hookCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// managedOnly implements just the required hook.
type managedOnly struct {
	Object
	mu    sync.Mutex
	calls int
}

func (r *managedOnly) DisposeResources() error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return nil
}

func (r *managedOnly) managedCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// finalizable reports hook runs on a channel, so tests can observe the
// finalizer path without holding a reference that would keep the object
// alive.
type finalizable struct {
	Object
	hooks chan<- string
}

func (r *finalizable) DisposeResources() error {
	r.hooks <- "managed"
	return nil
}

func (r *finalizable) DisposeUnmanagedResources() error {
	r.hooks <- "unmanaged"
	return nil
}

// allocateAndDrop binds a finalizable in its own frame and drops it, so the
// object is unreachable when the caller resumes.
func allocateAndDrop(hooks chan string, opts ...BindOption) {
	Bind(&finalizable{hooks: hooks}, opts...)
}

// panicker panics in its managed hook.
type panicker struct {
	Object
	value any
}

func (r *panicker) DisposeResources() error {
	panic(r.value)
}

// blocker blocks its managed hook until released, for observing in-flight
// release sequences.
type blocker struct {
	Object
	entered chan struct{}
	release chan struct{}
}

func newBlocker() *blocker {
	return &blocker{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blocker) DisposeResources() error {
	close(b.entered)
	<-b.release
	return nil
}

// bareDisposer implements ResourceDisposer without embedding Object.
type bareDisposer struct {
	closed bool
}

func (b *bareDisposer) DisposeResources() error {
	b.closed = true
	return nil
}

// fakeMetrics records metric calls for assertions.
type fakeMetrics struct {
	mu       sync.Mutex
	triggers []string
	hookErrs int
	leaks    int
	journals int
}

func (m *fakeMetrics) RecordDisposal(_ context.Context, _, trigger string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, trigger)
	if err != nil {
		m.hookErrs++
	}
}

func (m *fakeMetrics) RecordLeak(_ context.Context, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaks++
}

func (m *fakeMetrics) RecordJournalAppend(_ context.Context, _ string, _ int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journals++
}

func (m *fakeMetrics) hookErrCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hookErrs
}

func (m *fakeMetrics) disposalTriggers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.triggers...)
}

func (m *fakeMetrics) leakCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaks
}

func (m *fakeMetrics) journalAppends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.journals
}

// waitForGC runs collection rounds until check passes or the timeout hits.
// Finalizers run on their own goroutine, so several rounds may be needed.
func waitForGC(timeout time.Duration, check func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		runtime.GC()
		if check() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
