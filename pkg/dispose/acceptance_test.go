package dispose

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

// TestDispose_SequentialCallsRunHooksOnce covers the core idempotence
// guarantee: any number of Dispose calls run the release hooks once.
func TestDispose_SequentialCallsRunHooksOnce(t *testing.T) {
	r := Bind(&trackedResource{})

	for i := 0; i < 5; i++ {
		require.NoError(t, r.Dispose())
	}

	assert.Equal(t, []string{"unmanaged", "managed"}, r.hookCalls())
	assert.True(t, r.Disposed())
}

// TestDispose_ConcurrentCallsRunHooksOnce races many goroutines on a fresh
// instance: exactly one wins, every call returns without error.
func TestDispose_ConcurrentCallsRunHooksOnce(t *testing.T) {
	r := Bind(&trackedResource{})

	const goroutines = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			<-start
			assert.NoError(t, r.Dispose())
		}()
	}

	close(start)
	wg.Wait()
	<-r.Done()

	assert.Equal(t, []string{"unmanaged", "managed"}, r.hookCalls())
	assert.True(t, r.Disposed())
}

// TestDispose_FlagNeverReverts checks the one-way Live to Disposed
// transition: once any call returns, every subsequent read sees true.
func TestDispose_FlagNeverReverts(t *testing.T) {
	r := Bind(&trackedResource{})
	require.NoError(t, r.Dispose())

	for i := 0; i < 100; i++ {
		assert.True(t, r.Disposed())
	}
}

// TestDispose_ExplicitRunsBothHooksInOrder: the unmanaged hook runs first,
// then the managed hook.
func TestDispose_ExplicitRunsBothHooksInOrder(t *testing.T) {
	r := Bind(&trackedResource{})
	require.NoError(t, r.Dispose())
	assert.Equal(t, []string{"unmanaged", "managed"}, r.hookCalls())
}

// TestDispose_ManagedOnlyType: a type without the unmanaged hook runs just
// the managed hook on the explicit path.
func TestDispose_ManagedOnlyType(t *testing.T) {
	r := Bind(&managedOnly{})
	require.NoError(t, r.Dispose())
	assert.Equal(t, 1, r.managedCalls())
}

// TestFinalizer_RunsUnmanagedHookOnly: an object dropped without an
// explicit Dispose eventually has its unmanaged hook run by the collector;
// the managed hook never runs on that path.
func TestFinalizer_RunsUnmanagedHookOnly(t *testing.T) {
	hooks := make(chan string, 4)
	allocateAndDrop(hooks)

	require.True(t, waitForGC(5*time.Second, func() bool {
		return len(hooks) > 0
	}), "safety net did not run")

	assert.Equal(t, "unmanaged", <-hooks)

	// Give a stray managed hook time to show up, then confirm it never ran.
	time.Sleep(50 * time.Millisecond)
	select {
	case hook := <-hooks:
		t.Fatalf("hook %q ran on the collector path", hook)
	default:
	}
}

// TestDispose_ExplicitDisarmsSafetyNet: after an explicit Dispose the
// collector path must not run the hooks a second time.
func TestDispose_ExplicitDisarmsSafetyNet(t *testing.T) {
	hooks := make(chan string, 8)

	func() {
		r := Bind(&finalizable{hooks: hooks})
		require.NoError(t, r.Dispose())
	}()

	assert.Equal(t, "unmanaged", <-hooks)
	assert.Equal(t, "managed", <-hooks)

	for i := 0; i < 5; i++ {
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	select {
	case hook := <-hooks:
		t.Fatalf("hook %q ran again after explicit disposal", hook)
	default:
	}
}

// TestDispose_HookErrorLeavesFlagCommitted: a failing managed hook
// propagates its error to the caller, but the transition stays committed
// and later calls are no-ops.
func TestDispose_HookErrorLeavesFlagCommitted(t *testing.T) {
	errBoom := errors.New("socket close failed")
	r := Bind(&trackedResource{managedErr: errBoom})

	err := r.Dispose()
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)

	var hookErr *HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, HookManaged, hookErr.Hook)

	assert.True(t, r.Disposed(), "transition commits before the hooks run")
	assert.NoError(t, r.Dispose(), "later calls are no-ops")
	assert.Equal(t, []string{"unmanaged", "managed"}, r.hookCalls())
}

// TestDispose_CombinesHookErrors: when both hooks fail in one sequence,
// both errors come back, and the unmanaged failure does not stop the
// managed hook from running.
func TestDispose_CombinesHookErrors(t *testing.T) {
	errManaged := errors.New("collaborator close failed")
	errUnmanaged := errors.New("munmap failed")
	r := Bind(&trackedResource{managedErr: errManaged, unmanagedErr: errUnmanaged})

	err := r.Dispose()
	require.Error(t, err)
	assert.ErrorIs(t, err, errManaged)
	assert.ErrorIs(t, err, errUnmanaged)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, []string{"unmanaged", "managed"}, r.hookCalls())
}

// TestDispose_HookPanicPropagates: a panicking hook leaves the flag
// committed and Done closed; the panic reaches the caller; repeat calls
// are silent no-ops.
func TestDispose_HookPanicPropagates(t *testing.T) {
	r := Bind(&panicker{value: "managed hook blew up"})

	assert.PanicsWithValue(t, "managed hook blew up", func() {
		_ = r.Dispose()
	})

	assert.True(t, r.Disposed())
	select {
	case <-r.Done():
	default:
		t.Fatal("Done must close even when a hook panics")
	}

	assert.NoError(t, r.Dispose())
}

// TestDispose_RacingCallReturnsBeforeHooksFinish documents the deliberate
// relaxation: a losing Dispose call may return while the winner's hooks
// are still running; Done is the way to wait for them.
func TestDispose_RacingCallReturnsBeforeHooksFinish(t *testing.T) {
	b := newBlocker()
	r := Bind(b)

	go func() { _ = r.Dispose() }()
	<-b.entered // the winner is inside the managed hook

	require.NoError(t, r.Dispose(), "racing call returns immediately")
	assert.True(t, r.Disposed())

	select {
	case <-r.Done():
		t.Fatal("Done closed while a hook was still running")
	default:
	}

	close(b.release)

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done did not close after the hooks finished")
	}
}
