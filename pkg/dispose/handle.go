package dispose

// Handle adapts plain release functions into a bound disposable, for
// resources that are naturally functions rather than methods on an owning
// struct: a temp directory, a subscription cancel, a cgo handle.
//
//	tmp := dispose.NewHandle("tempdir", func() error {
//	    return os.RemoveAll(dir)
//	})
//	defer tmp.Dispose()
//
// The release functions must not capture the Handle itself; a Handle
// reachable from its own release function can never be collected, so the
// finalizer safety net would never fire for it.
type Handle struct {
	Object
	managed   func() error
	unmanaged func() error
}

// NewHandle binds a managed release function under the given diagnostic
// name and returns the armed handle.
// Panics if release is nil.
func NewHandle(name string, release func() error, opts ...BindOption) *Handle {
	if release == nil {
		panic("dispose: release function cannot be nil")
	}
	h := &Handle{managed: release}
	return Bind(h, append([]BindOption{WithName(name)}, opts...)...)
}

// NewHandleWithUnmanaged binds managed and unmanaged release functions.
// Either function may be nil, which makes that hook a no-op; the unmanaged
// function runs on both the explicit and the finalizer path.
// Panics if both functions are nil.
func NewHandleWithUnmanaged(name string, managed, unmanaged func() error, opts ...BindOption) *Handle {
	if managed == nil && unmanaged == nil {
		panic("dispose: at least one release function is required")
	}
	h := &Handle{managed: managed, unmanaged: unmanaged}
	return Bind(h, append([]BindOption{WithName(name)}, opts...)...)
}

// DisposeResources runs the managed release function.
func (h *Handle) DisposeResources() error {
	if h.managed == nil {
		return nil
	}
	return h.managed()
}

// DisposeUnmanagedResources runs the unmanaged release function.
func (h *Handle) DisposeUnmanagedResources() error {
	if h.unmanaged == nil {
		return nil
	}
	return h.unmanaged()
}
