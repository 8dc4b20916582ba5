// Package observability provides hooks for metrics and instrumentation.
//
// The engine itself stays free of observability-framework dependencies:
// hook interfaces are defined here with no-op defaults, and a backend
// (Prometheus, OpenTelemetry, ...) is registered by the application's main
// at startup. The HTTP server ships a Prometheus implementation.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSessionHooks(&myHooks{})
//	    // ... run application
//	}
//
// The engine calls hooks to emit events:
//
//	observability.Session().OnLoadComplete(ctx, nodes, edges, dur, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives lifecycle and simulation events from graph sessions.
type SessionHooks interface {
	// OnLoadStart fires when a session begins building a model.
	OnLoadStart(ctx context.Context, sessionID string)

	// OnLoadComplete fires when the build finished (err nil) or failed.
	OnLoadComplete(ctx context.Context, sessionID string, nodes, edges int, duration time.Duration, err error)

	// OnStateChange fires on every lifecycle transition.
	OnStateChange(ctx context.Context, sessionID, from, to string)

	// OnTick fires once per simulation step with the remaining energy.
	OnTick(ctx context.Context, sessionID string, alpha float64)
}

// =============================================================================
// Detection Hooks
// =============================================================================

// DetectionHooks receives events from community-detection round trips.
type DetectionHooks interface {
	OnDetectStart(ctx context.Context, sessionID string, nodes int)
	OnDetectComplete(ctx context.Context, sessionID string, communities int, modularity float64, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnLoadStart(context.Context, string)                                  {}
func (NoopSessionHooks) OnLoadComplete(context.Context, string, int, int, time.Duration, error) {}
func (NoopSessionHooks) OnStateChange(context.Context, string, string, string)                {}
func (NoopSessionHooks) OnTick(context.Context, string, float64)                              {}

// NoopDetectionHooks is a no-op implementation of DetectionHooks.
type NoopDetectionHooks struct{}

func (NoopDetectionHooks) OnDetectStart(context.Context, string, int) {}
func (NoopDetectionHooks) OnDetectComplete(context.Context, string, int, float64, time.Duration, error) {
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	sessionHooks   SessionHooks   = NoopSessionHooks{}
	detectionHooks DetectionHooks = NoopDetectionHooks{}
	mu             sync.RWMutex
)

// SetSessionHooks registers a SessionHooks implementation.
// Call once at startup before sessions are created.
func SetSessionHooks(h SessionHooks) {
	mu.Lock()
	defer mu.Unlock()
	sessionHooks = h
}

// SetDetectionHooks registers a DetectionHooks implementation.
func SetDetectionHooks(h DetectionHooks) {
	mu.Lock()
	defer mu.Unlock()
	detectionHooks = h
}

// Session returns the registered session hooks.
func Session() SessionHooks {
	mu.RLock()
	defer mu.RUnlock()
	return sessionHooks
}

// Detection returns the registered detection hooks.
func Detection() DetectionHooks {
	mu.RLock()
	defer mu.RUnlock()
	return detectionHooks
}
