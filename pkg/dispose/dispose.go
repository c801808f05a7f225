package dispose

// ResourceDisposer is the required release hook.
// Types embed Object and implement this to release the managed resources
// they own: held collaborators, pooled connections, references to other
// disposable objects.
//
// The hook runs only when disposal is explicit (a Dispose or Close call).
// It never runs on the finalizer path, because by that point the
// collaborators this hook would touch may already have been reclaimed or
// finalized themselves.
//
// The hook runs at most once per object. It does not need to be idempotent
// or safe for concurrent use.
//
// Example:
//
//	type Conn struct {
//	    dispose.Object
//	    sock net.Conn
//	}
//
//	func (c *Conn) DisposeResources() error {
//	    return c.sock.Close()
//	}
type ResourceDisposer interface {
	DisposeResources() error
}

// UnmanagedResourceDisposer is the optional release hook for resources the
// garbage collector does not know about: raw file descriptors, mmap'd
// regions, C allocations, handles from cgo libraries.
//
// Unlike DisposeResources, this hook runs on both disposal paths, explicit
// and finalizer, because unmanaged resources leak permanently if nothing
// releases them. It runs before DisposeResources on the explicit path.
//
// Most types do not implement this interface. Omitting it is equivalent to
// a no-op unmanaged release.
type UnmanagedResourceDisposer interface {
	DisposeUnmanagedResources() error
}

// Disposable is the caller-facing surface of a bound object.
// Every type that embeds Object satisfies it after Bind.
type Disposable interface {
	Dispose() error
}

// Trigger identifies which path started a release sequence.
type Trigger string

// Disposal triggers.
const (
	// TriggerExplicit marks a release sequence started by a Dispose or
	// Close call. Both hooks run.
	TriggerExplicit Trigger = "explicit"

	// TriggerFinalizer marks a release sequence started by the garbage
	// collector's safety net after the object became unreachable without an
	// explicit Dispose. Only the unmanaged hook runs.
	TriggerFinalizer Trigger = "finalizer"
)

// HookKind identifies one of the two release hooks.
type HookKind string

// Release hooks.
const (
	// HookManaged is the DisposeResources hook.
	HookManaged HookKind = "managed"

	// HookUnmanaged is the DisposeUnmanagedResources hook.
	HookUnmanaged HookKind = "unmanaged"
)
