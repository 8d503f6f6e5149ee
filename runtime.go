package bacsc

import (
	"context"
	"time"

	"github.com/joeycumines/bacsc/runloop"
	"github.com/rs/zerolog"
)

// DefaultTickPeriod is the runloop tick period used when a caller doesn't
// override it. One second is comfortably finer-grained than any timer the
// core arms (reconnect/heartbeat/disconnect/freshness are all specified in
// whole seconds).
const DefaultTickPeriod = 250 * time.Millisecond

// Runtime is the single explicitly-constructed object holding the core's
// only process-scoped state: the recursive mutex serializing every public
// entry point and transport callback, and the runloop that ticks every
// registered state machine, with no hidden package-level globals. Callers
// construct one Runtime, start its runloop, and build every HubConnector /
// Node against it.
type Runtime struct {
	mu      recursiveMutex
	Runloop *runloop.Runloop
	Log     zerolog.Logger
}

// NewRuntime constructs a Runtime with its own runloop and mutex. log may
// be the zero zerolog.Logger (which discards output); callers typically
// pass a configured logger so state transitions are observable.
func NewRuntime(log zerolog.Logger) *Runtime {
	return &Runtime{
		Runloop: runloop.New(),
		Log:     log,
	}
}

// Lock acquires the runtime's recursive lock. Every public entry point in
// this module calls Lock on entry and Unlock on every return path.
func (rt *Runtime) Lock() { rt.mu.Lock() }

// Unlock releases the runtime's recursive lock.
func (rt *Runtime) Unlock() { rt.mu.Unlock() }

// Run drives the runtime's runloop until ctx is cancelled. Intended to run
// on its own goroutine for the lifetime of the process.
func (rt *Runtime) Run(ctx context.Context) {
	rt.Runloop.Run(ctx, DefaultTickPeriod)
}
