package dispose

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.uber.org/multierr"
)

// CloserFunc adapts a function to io.Closer.
type CloserFunc func() error

// Close implements io.Closer.
func (f CloserFunc) Close() error {
	return f()
}

// CloseAll closes the given closers in reverse order, so the last resource
// acquired is the first released. Nil closers are skipped; errors combine
// into the returned error.
func CloseAll(closers ...io.Closer) error {
	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		if closers[i] == nil {
			continue
		}
		err = multierr.Append(err, closers[i].Close())
	}
	return err
}

// SafeCloser accumulates closers and releases them exactly once, in
// reverse registration order. It is safe for concurrent use; the zero
// value is ready. Use it when teardown responsibility is shared across
// goroutines and any of them may trigger shutdown.
type SafeCloser struct {
	mu      sync.Mutex
	closers []io.Closer
	closed  bool
}

// Add registers a closer. If the SafeCloser is already closed, the closer
// is closed immediately and its error returned.
func (s *SafeCloser) Add(c io.Closer) error {
	if c == nil {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return c.Close()
	}
	s.closers = append(s.closers, c)
	s.mu.Unlock()
	return nil
}

// AddFunc registers a release function. Nil functions are ignored.
func (s *SafeCloser) AddFunc(f func() error) error {
	if f == nil {
		return nil
	}
	return s.Add(CloserFunc(f))
}

// Close releases every registered closer in reverse order, combining their
// errors. Only the first call releases; later calls return nil. The lock
// guards only the closed transition, never the release work itself.
func (s *SafeCloser) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var err error
	for i := len(closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, closers[i].Close())
	}
	return err
}

// CloseQuietly closes each closer in reverse order, suppressing
// already-closed errors and logging anything else at warn. Meant for defer
// paths where no caller can act on the error. A nil logger drops the
// errors entirely.
func CloseQuietly(logger *slog.Logger, closers ...io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if c == nil {
			continue
		}
		err := c.Close()
		if err == nil || errors.Is(err, os.ErrClosed) || errors.Is(err, ErrDisposed) {
			continue
		}
		if logger != nil {
			logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}
}
