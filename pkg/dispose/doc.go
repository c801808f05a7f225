/*
Package dispose provides a thread-safe, idempotent disposal pattern for
objects that hold resources needing explicit release.

# Overview

dispose is a Go library for deterministic teardown in a garbage-collected
environment. A type embeds Object, implements a release hook, and gets:

  - Exactly-once disposal, no matter how many goroutines race on it
  - A garbage-collector safety net for objects that were never disposed
  - Separate hooks for managed and unmanaged resources
  - Opt-in structured logging, OpenTelemetry metrics and tracing
  - A debug-mode leak detector and a persistent lifecycle journal

# Basic Usage

Embed Object, implement ResourceDisposer, and construct through Bind:

	type Conn struct {
	    dispose.Object
	    sock net.Conn
	}

	func (c *Conn) DisposeResources() error {
	    return c.sock.Close()
	}

	func NewConn(sock net.Conn) *Conn {
	    return dispose.Bind(&Conn{sock: sock})
	}

	func main() {
	    conn := NewConn(sock)
	    defer conn.Dispose()
	    // ...
	}

Dispose is idempotent: any number of calls, concurrent or sequential, run
the release hooks exactly once. Later calls return nil immediately.

# The Two Hooks

DisposeResources (required) releases managed resources: held
collaborators, pooled connections, other disposables. It runs only on
explicit disposal, because during finalization those collaborators may
already be gone.

DisposeUnmanagedResources (optional) releases resources the collector
cannot see: raw descriptors, mmap'd regions, cgo allocations. It runs on
both paths, before the managed hook:

	func (r *Region) DisposeUnmanagedResources() error {
	    return syscall.Munmap(r.data)
	}

# Finalizer Safety Net

If an object becomes unreachable without an explicit Dispose, the garbage
collector eventually runs the unmanaged hook for it. Explicit disposal
disarms the net, so well-behaved callers never pay for it. The net is
best-effort and its timing is the collector's; the primary release path
is always an explicit Dispose.

Disarm it per object with WithoutFinalizer when lifetimes are fully
scoped, and lean on the leakcheck package to surface objects that were
never disposed.

# Concurrency

Two goroutines racing on Dispose: exactly one runs the hooks; the other
returns nil as soon as the first has claimed the transition, possibly
before the hooks finish. To wait for full release, receive from Done:

	go conn.Dispose()
	<-conn.Done() // hooks have finished

Disposed() is a diagnostic peek for tests, not a coordination primitive.

# Function Handles

For resources that are functions rather than structs, NewHandle binds a
release function directly:

	tmp := dispose.NewHandle("tempdir", func() error {
	    return os.RemoveAll(dir)
	})
	defer tmp.Dispose()

# Scoped Acquisition

Using runs a function against a disposable and releases it on every exit
path, panics included:

	err := dispose.Using(NewConn(sock), func(c *Conn) error {
	    return c.Send(payload)
	})

Cleanup covers multi-step constructors, releasing partial acquisitions on
error and transferring ownership on success. CloseAll and SafeCloser
release groups of io.Closers in reverse acquisition order.

# Leak Detection

The leakcheck subpackage tracks bound objects in debug builds and fails
tests that leave objects undisposed:

	func TestMain(m *testing.M) {
	    leakcheck.Enable(leakcheck.Policy{Mode: leakcheck.ModeTrack, CaptureStacks: true})
	    os.Exit(m.Run())
	}

	func TestPool(t *testing.T) {
	    defer leakcheck.Check(t)
	    // ...
	}

Set DISPOSE_LEAKCHECK=track (or =stacks) to arm it without code changes.

# Lifecycle Journal

The journal subpackage persists disposal events for post-mortem
debugging, in memory or in SQLite:

	store, err := journal.NewSQLiteStore("./lifecycle.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	conn := dispose.Bind(&Conn{sock: sock}, dispose.WithJournal(store))

Explicit disposals record as "disposed"; finalizer-path disposals record
as "leaked".

# Observability

Enable logging, metrics, and tracing per object:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	conn := dispose.Bind(&Conn{sock: sock},
	    dispose.WithName("billing-db"),
	    dispose.WithLogger(logger),
	    dispose.WithMetrics(true),
	    dispose.WithTracing(true))

Logs include structured fields: object, object_id, trigger, duration_ms.
OpenTelemetry metrics: dispose.disposals, dispose.latency_ms,
dispose.hook.errors, dispose.leaks. Tracing: dispose.object >
dispose.hook.{unmanaged,managed} spans.

# Error Handling

Hook errors propagate to the Dispose caller, tagged with which hook
failed. When both hooks fail in one sequence, the errors combine; inspect
them with errors.As:

	if err := conn.Dispose(); err != nil {
	    var hookErr *dispose.HookError
	    if errors.As(err, &hookErr) {
	        log.Printf("%s hook failed: %v", hookErr.Hook, hookErr.Err)
	    }
	}

The disposed flag commits before the hooks run, so a failed disposal does
not re-arm the object; disposal is never retried. Hook panics propagate
to the caller with the flag committed and Done closed.

# Thread Safety

  - Dispose, Close, Done, and Disposed are safe for concurrent use after Bind
  - Bind itself is not: bind before sharing the object
  - SafeCloser is safe for concurrent use; Cleanup is not
  - Store implementations in journal are safe for concurrent use

# Subpackages

  - journal: lifecycle event storage (memory, SQLite)
  - leakcheck: debug-mode leak detector
  - observability: logging, metrics, and tracing helpers
*/
package dispose
