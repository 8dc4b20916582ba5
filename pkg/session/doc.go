// Package session orchestrates the graph engine's lifecycle and owns every
// moving part: model, layout engine, viewport, overlay state, and the
// ticking loop.
//
// # Lifecycle
//
// A session moves Idle → Initializing → Ready, with Error reachable from
// Initializing or Ready. Every Load tears the previous run down completely
// (ticker stopped, in-flight detection cancelled) before rebuilding; there
// is no path back to Ready that skips Initializing. From Error, only Retry
// (rebuild from the last raw payload) or a fresh Load leads out.
//
// # Concurrency
//
// All mutation funnels through one internal executor: gesture handlers,
// resize handling, and simulation ticks serialize on the session mutex, so
// no two mutations of the model or transform ever interleave. The single
// asynchronous element is the community-detection round trip, which runs on
// its own goroutine and merges its result back through the executor on
// completion. A generation counter makes supersession explicit: only the
// response matching the latest request generation is applied; stale
// responses are discarded, and teardown cancels whatever is in flight.
//
// Host callbacks are always invoked outside the session mutex, so a
// callback may safely call back into the session.
package session
