package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/chainbreak/chainview/pkg/community"
	"github.com/chainbreak/chainview/pkg/errors"
	"github.com/chainbreak/chainview/pkg/graph"
	"github.com/chainbreak/chainview/pkg/intel"
	"github.com/chainbreak/chainview/pkg/layout"
	"github.com/chainbreak/chainview/pkg/observability"
	"github.com/chainbreak/chainview/pkg/render"
	"github.com/chainbreak/chainview/pkg/viewport"
)

// State is the session lifecycle state.
type State string

// Lifecycle states. See the package documentation for the transition graph.
const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateReady        State = "ready"
	StateError        State = "error"
)

// DefaultTickInterval drives the simulation at roughly 30 frames/second.
const DefaultTickInterval = 33 * time.Millisecond

// Callbacks are the host-facing events a session produces. All fields are
// optional; nil callbacks are skipped. Callbacks run outside the session's
// internal lock and may call back into the session.
type Callbacks struct {
	// OnReady fires when a load completes and the session reaches Ready.
	OnReady func()

	// OnError fires for every surfaced error, fatal or local.
	OnError func(code errors.Code, message string)

	// OnNodeSelect fires with a read-only snapshot of the clicked node,
	// or nil when a click on empty canvas clears the selection.
	OnNodeSelect func(node *render.NodePrimitive)

	// OnCommunityResult fires when a detection result is merged.
	OnCommunityResult func(p *community.Partition)

	// OnFrame fires with a freshly composed frame after every simulation
	// tick that moved something and after every transform change.
	OnFrame func(frame render.Frame)
}

// Options configures a session.
type Options struct {
	// Layout tuning; zero value means layout.DefaultConfig.
	Layout layout.Config

	// TickInterval for the internal ticking loop. Zero means
	// DefaultTickInterval; negative disables the loop entirely, in which
	// case the owner drives the simulation by calling Tick (the terminal
	// viewer and tests do this).
	TickInterval time.Duration

	// Detector performs community-detection round trips. Nil disables
	// DetectCommunities.
	Detector *community.Client

	// Intel supplies illicit-address flags. Nil disables RefreshIntel.
	Intel intel.Provider

	// Host handles fullscreen requests. Nil makes fullscreen requests
	// fail with a VIEWPORT error.
	Host viewport.FullscreenHost

	// ExportPrefix names exported artifacts. Empty means "chainview".
	ExportPrefix string

	Logger    *log.Logger
	Callbacks Callbacks
}

// Session is the engine's root object and public contract.
type Session struct {
	id     string
	opts   Options
	logger *log.Logger

	mu sync.Mutex
	// Everything below is guarded by mu.
	state    State
	lastErr  error
	lastRaw  *graph.RawGraph
	model    *graph.Model
	engine   *layout.Engine
	vp       *viewport.Manager
	overlay  *community.Partition
	flags    intel.Set
	drag     dragState
	closed   bool
	rendered bool // surface had a usable size at least once

	detectGen    uint64
	detectCancel context.CancelFunc

	stopTicker chan struct{}
}

type dragState struct {
	active bool
	nodeID string
}

// New creates an idle session. Call Load to bring it to Ready.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Layout == (layout.Config{}) {
		opts.Layout = layout.DefaultConfig()
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.ExportPrefix == "" {
		opts.ExportPrefix = "chainview"
	}
	s := &Session{
		id:     uuid.NewString(),
		opts:   opts,
		logger: opts.Logger,
		state:  StateIdle,
		flags:  intel.Set{},
		vp:     viewport.New(opts.Host),
	}
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the error that put the session into Error, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Model returns the current validated model, or nil before the first load.
func (s *Session) Model() *graph.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Partition returns the active community overlay, or nil.
func (s *Session) Partition() *community.Partition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay
}

// =============================================================================
// Lifecycle
// =============================================================================

// LoadJSON decodes and loads a raw JSON payload. See Load.
func (s *Session) LoadJSON(ctx context.Context, data []byte) error {
	model, stats, err := graph.BuildJSON(data)
	return s.install(ctx, nil, model, stats, err)
}

// Load validates raw graph data and brings the session to Ready. Any
// previous run is torn down first: the ticking loop is stopped and an
// in-flight detection is cancelled before the model is replaced, so a late
// overlay can never recolor a graph that no longer exists.
//
// A malformed root payload is the one fatal error: the session transitions
// to Error with no partial model installed. Retry rebuilds from the same
// payload after the upstream problem is fixed; a fresh Load replaces it.
func (s *Session) Load(ctx context.Context, raw graph.RawGraph) error {
	model, stats, err := graph.Build(raw)
	return s.install(ctx, &raw, model, stats, err)
}

func (s *Session) install(ctx context.Context, raw *graph.RawGraph, model *graph.Model, stats graph.BuildStats, buildErr error) error {
	start := time.Now()
	observability.Session().OnLoadStart(ctx, s.id)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeInternal, "session is closed")
	}

	// Full teardown before rebuild: no leaked tickers, no stale overlays.
	s.stopTickerLocked()
	s.cancelDetectionLocked()
	s.overlay = nil
	s.drag = dragState{}

	s.setStateLocked(StateInitializing)
	if raw != nil {
		s.lastRaw = raw
	}

	if buildErr != nil {
		s.lastErr = buildErr
		s.model = nil
		s.engine = nil
		s.setStateLocked(StateError)
		s.mu.Unlock()
		observability.Session().OnLoadComplete(ctx, s.id, 0, 0, time.Since(start), buildErr)
		s.emitError(buildErr)
		return buildErr
	}

	s.model = model
	s.lastErr = nil
	cx, cy := s.vp.Center()
	s.engine = layout.New(model, s.opts.Layout, cx, cy)

	surfaceReady := s.vp.ContainerReady()
	s.rendered = s.rendered || surfaceReady
	s.setStateLocked(StateReady)
	s.startTickerLocked()
	s.mu.Unlock()

	s.logger.Info("graph loaded",
		"session", s.id,
		"nodes", stats.NodesKept,
		"edges", stats.EdgesKept,
		"dropped_nodes", stats.NodesDropped,
		"self_loops", stats.SelfLoops,
		"dangling_edges", stats.DanglingEdges)
	observability.Session().OnLoadComplete(ctx, s.id, stats.NodesKept, stats.EdgesKept, time.Since(start), nil)

	if !surfaceReady {
		// Recoverable: the surface has no size yet. Rendering resumes
		// automatically on the first real resize.
		s.emitError(errors.New(errors.ErrCodeRendererInit, "rendering surface has zero size"))
	}
	if cb := s.opts.Callbacks.OnReady; cb != nil {
		cb()
	}
	return nil
}

// Retry rebuilds from the last raw payload. It is only meaningful from
// Error; calling it in any other state is rejected.
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateError {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeInvalidInput, "retry is only valid from the error state")
	}
	raw := s.lastRaw
	s.mu.Unlock()

	if raw == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no previous payload to retry")
	}
	return s.Load(ctx, *raw)
}

// Close destroys the session: the ticking loop stops, any in-flight
// detection is cancelled, and all state is released. A closed session
// rejects further loads.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.stopTickerLocked()
	s.cancelDetectionLocked()
	s.model = nil
	s.engine = nil
	s.overlay = nil
	s.setStateLocked(StateIdle)
	return nil
}

// setStateLocked is the single write point for lifecycle transitions.
func (s *Session) setStateLocked(to State) {
	if s.state == to {
		return
	}
	from := s.state
	s.state = to
	s.logger.Debug("state transition", "session", s.id, "from", from, "to", to)
	observability.Session().OnStateChange(context.Background(), s.id, string(from), string(to))
}

// emitError surfaces an error to the host. Must be called without mu held.
func (s *Session) emitError(err error) {
	if cb := s.opts.Callbacks.OnError; cb != nil {
		cb(errors.GetCode(err), errors.UserMessage(err))
	}
}

// =============================================================================
// Ticking Loop
// =============================================================================

// Tick advances the simulation one step and, when anything moved, composes
// and emits a frame. Safe to call manually when the internal loop is
// disabled; returns whether the tick moved the layout.
func (s *Session) Tick() bool {
	s.mu.Lock()
	if s.state != StateReady || s.engine == nil {
		s.mu.Unlock()
		return false
	}
	moved := s.engine.Tick()
	var frame render.Frame
	var haveFrame bool
	if moved && s.vp.ContainerReady() {
		frame = s.composeLocked()
		haveFrame = true
	}
	alpha := s.engine.Alpha()
	s.mu.Unlock()

	observability.Session().OnTick(context.Background(), s.id, alpha)
	if haveFrame {
		if cb := s.opts.Callbacks.OnFrame; cb != nil {
			cb(frame)
		}
	}
	return moved
}

func (s *Session) startTickerLocked() {
	if s.opts.TickInterval < 0 || s.stopTicker != nil {
		return
	}
	stop := make(chan struct{})
	s.stopTicker = stop
	interval := s.opts.TickInterval
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				s.Tick()
			}
		}
	}()
}

func (s *Session) stopTickerLocked() {
	if s.stopTicker != nil {
		close(s.stopTicker)
		s.stopTicker = nil
	}
}

// =============================================================================
// Frame Composition
// =============================================================================

// Frame composes the current visual state. The composition is pure; two
// calls without an intervening mutation return identical frames.
func (s *Session) Frame() render.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composeLocked()
}

func (s *Session) composeLocked() render.Frame {
	w, h := s.vp.Size()
	if s.model == nil {
		return render.Frame{Width: w, Height: h, Transform: s.vp.Transform()}
	}
	return render.Compose(render.Inputs{
		Model:     s.model,
		Transform: s.vp.Transform(),
		Width:     w,
		Height:    h,
		Overlay:   s.overlay,
		Flags:     s.flags,
	})
}

// emitFrame composes and emits a frame after a transform change.
// Must be called without mu held.
func (s *Session) emitFrame() {
	cb := s.opts.Callbacks.OnFrame
	if cb == nil {
		return
	}
	s.mu.Lock()
	if s.state != StateReady || !s.vp.ContainerReady() {
		s.mu.Unlock()
		return
	}
	frame := s.composeLocked()
	s.mu.Unlock()
	cb(frame)
}
