package dispose

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
	"weak"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"

	"github.com/randalmurphal/dispose/pkg/dispose/journal"
	"github.com/randalmurphal/dispose/pkg/dispose/leakcheck"
	"github.com/randalmurphal/dispose/pkg/dispose/observability"
)

// Object is the embeddable disposal state. A type embeds Object, implements
// ResourceDisposer (and optionally UnmanagedResourceDisposer), and arms
// disposal by passing itself through Bind:
//
//	type Conn struct {
//	    dispose.Object
//	    sock net.Conn
//	}
//
//	func (c *Conn) DisposeResources() error {
//	    return c.sock.Close()
//	}
//
//	func NewConn(sock net.Conn) *Conn {
//	    return dispose.Bind(&Conn{sock: sock})
//	}
//
// After Bind the owner exposes Dispose, Close, Disposed, and Done through
// promotion. The zero Object is unbound; calling Dispose or Done on it
// panics. An Object must not be copied after Bind.
//
// Constructors must not fail after acquiring resources that the hooks
// release: a constructor that errors out between acquiring a resource and
// returning the bound owner leaks that resource, because no Dispose or
// finalizer will ever run for it.
type Object struct {
	disposed atomic.Bool
	done     chan struct{}

	// resolve returns a strong reference to the owner, or nil once the
	// owner is queued for finalization. The owner is held weakly: a strong
	// reference here would be a self-pointer, and the collector never
	// frees an object with a finalizer that is reachable from itself.
	resolve func() ResourceDisposer

	hasUnmanaged bool
	finalizer    bool

	id   string
	name string

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	tracing bool
	journal journal.Store
}

// objectHolder locates the embedded Object inside an owner.
// Embedding Object promotes disposeObject, so every owner satisfies it.
type objectHolder interface {
	disposeObject() *Object
}

func (o *Object) disposeObject() *Object { return o }

// Bind arms disposal for owner and returns it.
//
// The owner must embed Object. Bind wires the owner's release hooks into
// the embedded Object, registers the garbage-collector safety net (unless
// WithoutFinalizer), and registers the object with the leakcheck package
// when tracking is armed.
//
// Bind panics on misuse: a nil owner, an owner that does not embed Object,
// or an owner that is already bound.
//
// Example:
//
//	conn := dispose.Bind(&Conn{sock: sock},
//	    dispose.WithName("billing-db"),
//	    dispose.WithLogger(logger))
func Bind[T any, P interface {
	*T
	ResourceDisposer
}](owner P, opts ...BindOption) P {
	if owner == nil {
		panic("dispose: cannot bind a nil owner")
	}
	holder, ok := any(owner).(objectHolder)
	if !ok {
		panic("dispose: owner must embed dispose.Object")
	}
	obj := holder.disposeObject()
	if obj.resolve != nil {
		panic("dispose: owner is already bound")
	}

	cfg := defaultBindConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	name := cfg.name
	if name == "" {
		name = fmt.Sprintf("%T", owner)
	}

	ref := weak.Make((*T)(owner))
	obj.resolve = func() ResourceDisposer {
		if p := ref.Value(); p != nil {
			return P(p)
		}
		return nil
	}

	_, obj.hasUnmanaged = any(owner).(UnmanagedResourceDisposer)
	obj.done = make(chan struct{})
	obj.id = "obj-" + uuid.NewString()[:8]
	obj.name = name
	obj.finalizer = cfg.finalizer
	obj.logger = cfg.logger
	obj.metrics = cfg.metrics
	obj.spans = cfg.spans
	obj.tracing = cfg.tracing
	obj.journal = cfg.journal

	if cfg.finalizer {
		runtime.SetFinalizer(owner, finalizeDisposable)
	}
	if leakcheck.Enabled() {
		leakcheck.Track(obj.id, name)
	}
	observability.LogBound(cfg.logger, name, obj.id)

	return owner
}

// finalizeDisposable is the garbage-collector safety net. It must stay a
// top-level function: a closure would capture the owner and keep it
// reachable forever. The owner arrives as the finalizer argument instead.
func finalizeDisposable(owner ResourceDisposer) {
	holder, ok := owner.(objectHolder)
	if !ok {
		return
	}
	_ = holder.disposeObject().dispose(TriggerFinalizer, owner)
}

// Dispose triggers the one-time release sequence.
//
// The first call (across all goroutines) claims the Live to Disposed
// transition, disarms the finalizer, runs the unmanaged hook and then the
// managed hook, and returns whatever errors the hooks reported. Every
// later call, concurrent or sequential, is a no-op returning nil.
//
// A racing call may return before the winning call's hooks have finished;
// receive from Done to wait for full release. Hook panics are not
// recovered: the flag stays committed, Done still closes, and the panic
// propagates to the caller.
func (o *Object) Dispose() error {
	return o.dispose(TriggerExplicit, o.resolveOwner())
}

// Close implements io.Closer by delegating to Dispose, so bound objects
// plug into closer-shaped APIs (CloseAll, SafeCloser, defer chains).
func (o *Object) Close() error {
	return o.Dispose()
}

// Disposed reports whether the release sequence has been claimed.
//
// This is a diagnostic peek for tests and assertions, not a coordination
// primitive: true means some call won the Live to Disposed transition, not
// that the hooks have finished running. To wait for the hooks, use Done.
func (o *Object) Disposed() bool {
	return o.disposed.Load()
}

// Done returns a channel that closes once the release sequence has
// finished, hooks included. It closes even when a hook panics or returns
// an error.
func (o *Object) Done() <-chan struct{} {
	if o.done == nil {
		panic("dispose: Object is not bound; construct with dispose.Bind")
	}
	return o.done
}

// Name returns the diagnostic name assigned at bind time.
func (o *Object) Name() string {
	return o.name
}

// ID returns the short per-object identifier assigned at bind time.
func (o *Object) ID() string {
	return o.id
}

func (o *Object) resolveOwner() ResourceDisposer {
	if o.resolve == nil {
		panic("dispose: Object is not bound; construct with dispose.Bind")
	}
	return o.resolve()
}

// dispose runs the one-time release sequence for the given trigger path.
func (o *Object) dispose(trigger Trigger, owner ResourceDisposer) error {
	if owner == nil {
		// The owner is already queued for finalization. Leave the
		// transition unclaimed so the safety net still runs the hooks.
		return nil
	}
	if !o.disposed.CompareAndSwap(false, true) {
		return nil
	}
	// The transition is committed: from here the sequence runs exactly
	// once, and done must close on every exit path, panics included.
	defer close(o.done)

	if trigger == TriggerExplicit && o.finalizer {
		// Explicit cleanup is running, so the safety net pass is no
		// longer needed.
		runtime.SetFinalizer(owner, nil)
	}

	ctx := context.Background()
	start := time.Now()

	var err error
	if o.tracing {
		var span trace.Span
		ctx, span = o.spans.StartDisposeSpan(ctx, o.name, string(trigger))
		defer func() { o.spans.EndSpanWithError(span, err) }()
	}

	err = o.runHooks(ctx, trigger, owner)
	duration := time.Since(start)

	o.metrics.RecordDisposal(ctx, o.name, string(trigger), duration, err)
	if trigger == TriggerFinalizer {
		o.metrics.RecordLeak(ctx, o.name)
	}
	o.appendJournal(ctx, trigger, err, duration)

	if leakcheck.Enabled() {
		if trigger == TriggerExplicit {
			leakcheck.Untrack(o.id)
		} else {
			leakcheck.Leaked(o.id)
		}
	}

	durationMs := float64(duration.Milliseconds())
	if trigger == TriggerFinalizer {
		observability.LogFinalizerDisposal(o.logger, o.name, o.id)
	}
	if err != nil {
		observability.LogDisposeError(o.logger, o.name, o.id, string(trigger), err, durationMs)
	} else if trigger == TriggerExplicit {
		observability.LogDisposed(o.logger, o.name, o.id, string(trigger), durationMs)
	}

	return err
}

// runHooks executes the release hooks for the trigger path: the unmanaged
// hook on both paths, the managed hook only on the explicit path. Hook
// errors combine rather than short-circuit, since a failed unmanaged
// release must not prevent the managed release from running.
func (o *Object) runHooks(ctx context.Context, trigger Trigger, owner ResourceDisposer) error {
	var err error

	if o.hasUnmanaged {
		err = multierr.Append(err, o.runHook(ctx, HookUnmanaged, func() error {
			return owner.(UnmanagedResourceDisposer).DisposeUnmanagedResources()
		}))
	}
	if trigger == TriggerExplicit {
		err = multierr.Append(err, o.runHook(ctx, HookManaged, owner.DisposeResources))
	}

	return err
}

// runHook executes one hook under an optional child span and tags its
// error with the hook identity.
func (o *Object) runHook(ctx context.Context, kind HookKind, hook func() error) (err error) {
	if o.tracing {
		var span trace.Span
		_, span = o.spans.StartHookSpan(ctx, string(kind))
		defer func() { o.spans.EndSpanWithError(span, err) }()
	}

	if herr := hook(); herr != nil {
		err = &HookError{Object: o.name, Hook: kind, Err: herr}
	}
	return err
}

// appendJournal records the lifecycle event, if a journal is configured.
// Journal failures are logged and do not fail the disposal.
func (o *Object) appendJournal(ctx context.Context, trigger Trigger, hookErr error, duration time.Duration) {
	if o.journal == nil {
		return
	}

	kind := journal.KindDisposed
	if trigger == TriggerFinalizer {
		kind = journal.KindLeaked
	}
	e := journal.Entry{
		Object:   o.name,
		ObjectID: o.id,
		Event:    kind,
		Duration: duration,
	}
	if hookErr != nil {
		e.Err = hookErr.Error()
	}

	if jerr := o.journal.Append(e); jerr != nil {
		if o.logger != nil {
			o.logger.Warn("journal append failed",
				slog.String("object", o.name),
				slog.String("object_id", o.id),
				slog.String("error", jerr.Error()))
		}
		return
	}
	o.metrics.RecordJournalAppend(ctx, o.name, e.Size())
}
