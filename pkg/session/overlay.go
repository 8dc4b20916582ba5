package session

import (
	"context"
	"time"

	"github.com/chainbreak/chainview/pkg/community"
	"github.com/chainbreak/chainview/pkg/errors"
	"github.com/chainbreak/chainview/pkg/export"
	"github.com/chainbreak/chainview/pkg/graph"
	"github.com/chainbreak/chainview/pkg/intel"
	"github.com/chainbreak/chainview/pkg/observability"
)

// =============================================================================
// Community Detection
// =============================================================================

// DetectCommunities starts an asynchronous detection round trip over the
// current model. The simulation keeps running while the request is in
// flight; the result is merged back on completion without restarting the
// layout. Only the most recent request wins: a newer call or a graph reload
// supersedes anything still in flight, and the stale response is discarded.
//
// On failure the existing overlay is left untouched and the error surfaces
// through OnError.
func (s *Session) DetectCommunities(ctx context.Context, params community.Params) error {
	s.mu.Lock()
	if s.state != StateReady || s.model == nil {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeInvalidInput, "no graph loaded")
	}
	if s.opts.Detector == nil {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeCommunityDetection, "no detection service configured")
	}

	s.cancelDetectionLocked()
	s.detectGen++
	gen := s.detectGen
	dctx, cancel := context.WithCancel(ctx)
	s.detectCancel = cancel
	model := s.model
	nodes := len(model.Nodes())
	s.mu.Unlock()

	s.logger.Debug("community detection started", "session", s.id, "generation", gen, "nodes", nodes)
	observability.Detection().OnDetectStart(dctx, s.id, nodes)

	go func() {
		start := time.Now()
		p, err := s.opts.Detector.Detect(dctx, model, params)
		observability.Detection().OnDetectComplete(dctx, s.id, partitionCount(p), partitionModularity(p), time.Since(start), err)
		cancel()
		s.applyDetection(gen, p, err)
	}()
	return nil
}

// applyDetection merges a detection outcome back through the executor.
// Responses from a superseded generation are dropped silently; the caller
// that replaced them has already taken over.
func (s *Session) applyDetection(gen uint64, p *community.Partition, err error) {
	s.mu.Lock()
	if gen != s.detectGen || s.closed {
		s.mu.Unlock()
		s.logger.Debug("stale detection result discarded", "session", s.id, "generation", gen)
		return
	}
	s.detectCancel = nil

	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("community detection failed", "session", s.id, "error", err)
		s.emitError(err)
		return
	}

	s.overlay = p
	s.mu.Unlock()

	s.logger.Info("community overlay applied",
		"session", s.id,
		"communities", p.Count,
		"modularity", p.Modularity,
		"quality", p.Quality())
	if cb := s.opts.Callbacks.OnCommunityResult; cb != nil {
		cb(p)
	}
	s.emitFrame()
}

// ClearCommunities removes the overlay; nodes fall back to kind colors.
func (s *Session) ClearCommunities() {
	s.mu.Lock()
	s.cancelDetectionLocked()
	s.overlay = nil
	s.mu.Unlock()
	s.emitFrame()
}

// cancelDetectionLocked aborts any in-flight round trip and invalidates its
// generation so a late response can never be applied.
func (s *Session) cancelDetectionLocked() {
	if s.detectCancel != nil {
		s.detectCancel()
		s.detectCancel = nil
	}
	s.detectGen++
}

func partitionCount(p *community.Partition) int {
	if p == nil {
		return 0
	}
	return p.Count
}

func partitionModularity(p *community.Partition) float64 {
	if p == nil {
		return 0
	}
	return p.Modularity
}

// =============================================================================
// Threat Intelligence
// =============================================================================

// RefreshIntel re-checks the model's address nodes against the configured
// threat-intelligence provider and replaces the flag set. The refresh is
// synchronous; callers wanting it off the hot path run it on their own
// goroutine, which is safe because flag installation funnels through the
// executor like every other mutation.
func (s *Session) RefreshIntel(ctx context.Context) error {
	if s.opts.Intel == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no threat-intel provider configured")
	}

	s.mu.Lock()
	if s.model == nil {
		s.mu.Unlock()
		return errors.New(errors.ErrCodeInvalidInput, "no graph loaded")
	}
	var addresses []string
	for _, n := range s.model.Nodes() {
		if n.Kind == graph.KindAddress {
			addresses = append(addresses, n.ID)
		}
	}
	s.mu.Unlock()

	flags, err := s.opts.Intel.Check(ctx, addresses)
	if err != nil {
		s.emitError(err)
		return err
	}

	s.SetFlags(intel.NewSet(flags))
	s.logger.Info("threat-intel refreshed", "session", s.id, "checked", len(addresses), "flagged", len(flags))
	return nil
}

// SetFlags installs a flag snapshot directly, bypassing the provider.
func (s *Session) SetFlags(flags intel.Set) {
	s.mu.Lock()
	if flags == nil {
		flags = intel.Set{}
	}
	s.flags = flags
	s.mu.Unlock()
	s.emitFrame()
}

// Flags returns the current flag snapshot.
func (s *Session) Flags() intel.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags
}

// =============================================================================
// Export
// =============================================================================

// ExportPNG rasterizes the current frame and returns the image bytes with
// a timestamped filename. It fails with an EXPORT error when the surface
// was never sized.
func (s *Session) ExportPNG() ([]byte, string, error) {
	s.mu.Lock()
	if s.state != StateReady || s.model == nil {
		s.mu.Unlock()
		return nil, "", errors.New(errors.ErrCodeExport, "no graph loaded")
	}
	frame := s.composeLocked()
	s.mu.Unlock()

	data, err := export.PNG(frame)
	if err != nil {
		s.emitError(err)
		return nil, "", err
	}
	name := export.Filename(s.opts.ExportPrefix, time.Now(), "png")
	s.logger.Info("frame exported", "session", s.id, "file", name, "bytes", len(data))
	return data, name, nil
}

// ExportDOT emits the current model as a Graphviz digraph.
func (s *Session) ExportDOT() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return "", errors.New(errors.ErrCodeExport, "no graph loaded")
	}
	return export.DOT(s.model), nil
}
