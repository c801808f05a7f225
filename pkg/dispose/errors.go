package dispose

import (
	"errors"
	"fmt"
)

// Sentinel errors for disposed-object use.
var (
	// ErrDisposed indicates an operation was attempted on an object whose
	// release sequence has already run. Dispose itself never returns it;
	// repeated Dispose calls are no-ops. It exists for owning types to
	// return from their own methods after disposal, analogous to
	// os.ErrClosed:
	//
	//	func (c *Conn) Send(msg []byte) error {
	//	    if c.Disposed() {
	//	        return dispose.ErrDisposed
	//	    }
	//	    ...
	//	}
	ErrDisposed = errors.New("object already disposed")
)

// HookError wraps an error returned by a release hook.
// It identifies which object and which hook failed. When both hooks fail
// during one explicit disposal, Dispose returns both HookErrors combined;
// use errors.As to extract them.
type HookError struct {
	// Object is the diagnostic name of the object being disposed.
	Object string
	// Hook is the hook that failed (HookManaged or HookUnmanaged).
	Hook HookKind
	// Err is the underlying error from the hook.
	Err error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("dispose %s: %s hook: %v", e.Object, e.Hook, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HookError) Unwrap() error {
	return e.Err
}
