package dispose

import "go.uber.org/multierr"

// Using runs fn with the given disposable and guarantees disposal on every
// exit path, including panics. Errors from fn and from the release hooks
// combine into the returned error.
//
//	err := dispose.Using(NewConn(sock), func(c *Conn) error {
//	    return c.Send(payload)
//	})
//
// This is the scoped-acquisition construct for callers that would
// otherwise juggle defer ordering by hand.
func Using[T Disposable](d T, fn func(T) error) (err error) {
	defer func() {
		err = multierr.Append(err, d.Dispose())
	}()
	return fn(d)
}

// Cleanup bundles release work that must run unless ownership of the
// underlying resources moves elsewhere. It exists for constructors that
// acquire several resources in sequence: register each acquisition, and on
// the success path transfer the work to the returned owner.
//
//	func NewPool(addrs []string) (p *Pool, err error) {
//	    var cu dispose.Cleanup
//	    defer cu.Clean()
//
//	    conns := make([]*Conn, 0, len(addrs))
//	    for _, addr := range addrs {
//	        c, err := dial(addr)
//	        if err != nil {
//	            return nil, err // Clean releases the conns dialed so far
//	        }
//	        conns = append(conns, c)
//	        cu.Add(func() { c.Close() })
//	    }
//
//	    release := cu.Release() // success: the Pool owns the conns now
//	    return dispose.Bind(&Pool{conns: conns, release: release}), nil
//	}
//
// Cleanup is not safe for concurrent use. The zero value is ready.
type Cleanup struct {
	fns []func()
}

// NewCleanup returns a Cleanup armed with the given functions.
func NewCleanup(fns ...func()) Cleanup {
	return Cleanup{fns: fns}
}

// Add registers release work to run on Clean. Nil functions are ignored.
func (c *Cleanup) Add(f func()) {
	if f == nil {
		return
	}
	c.fns = append(c.fns, f)
}

// Clean runs the registered work in reverse registration order and disarms
// the Cleanup. Later calls are no-ops.
func (c *Cleanup) Clean() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
	c.fns = nil
}

// Release disarms the Cleanup and returns a function that runs the
// registered work, transferring responsibility for the release to the
// caller. Invoke the returned function at most once.
func (c *Cleanup) Release() func() {
	fns := c.fns
	c.fns = nil
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
