// Package server exposes a graph session over HTTP.
//
// The server owns one session and mirrors the engine's contract onto a
// small JSON API: load a graph, drive the viewport, request community
// detection, export frames. Responses use the {success, data, error}
// envelope of the backend services the engine itself consumes, and live
// frames stream over a WebSocket at /ws.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chainbreak/chainview/pkg/community"
	cberrors "github.com/chainbreak/chainview/pkg/errors"
	"github.com/chainbreak/chainview/pkg/render"
	"github.com/chainbreak/chainview/pkg/session"
)

// maxGraphPayload caps uploaded graph JSON at 32 MiB.
const maxGraphPayload = 32 << 20

// Options configures a server.
type Options struct {
	Addr    string
	Session *session.Session
	Metrics *Metrics
	Logger  *log.Logger
}

// Server serves the session API.
type Server struct {
	opts   Options
	logger *log.Logger
	hub    *hub
	http   *http.Server
}

// New builds the server and its routes. The session's OnFrame callback
// must be wired to s.BroadcastFrame by the caller before Load is invoked.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{
		opts:   opts,
		logger: opts.Logger,
		hub:    newHub(opts.Logger),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/graph/load", s.handleLoad)
		r.Post("/graph/retry", s.handleRetry)
		r.Get("/frame", s.handleFrame)
		r.Post("/viewport/resize", s.handleResize)
		r.Post("/communities", s.handleDetect)
		r.Post("/intel/refresh", s.handleIntel)
		r.Post("/export/png", s.handleExportPNG)
		r.Get("/export/dot", s.handleExportDOT)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/ws", s.hub.handleWS)
	if opts.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Metrics.Registry(), promhttp.HandlerOpts{}))
	}

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// BroadcastFrame feeds a composed frame to connected stream clients.
// Wire it as the session's OnFrame callback.
func (s *Server) BroadcastFrame(frame render.Frame) {
	s.hub.Broadcast(frame)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// =============================================================================
// Response Envelope
// =============================================================================

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch cberrors.GetCode(err) {
	case cberrors.ErrCodeInvalidInput, cberrors.ErrCodeGraphBuild:
		status = http.StatusBadRequest
	case cberrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case cberrors.ErrCodeNetwork, cberrors.ErrCodeCommunityDetection:
		status = http.StatusBadGateway
	case cberrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: cberrors.UserMessage(err)})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxGraphPayload))
	if err != nil {
		s.respondErr(w, cberrors.Wrap(cberrors.ErrCodeInvalidInput, err, "read payload"))
		return
	}
	if err := s.opts.Session.LoadJSON(r.Context(), data); err != nil {
		s.respondErr(w, err)
		return
	}
	model := s.opts.Session.Model()
	s.respond(w, http.StatusOK, map[string]any{
		"session_id": s.opts.Session.ID(),
		"nodes":      len(model.Nodes()),
		"edges":      len(model.Edges()),
	})
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Session.Retry(r.Context()); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"state": s.opts.Session.State()})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, s.opts.Session.Frame())
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondErr(w, cberrors.Wrap(cberrors.ErrCodeInvalidInput, err, "decode resize"))
		return
	}
	s.opts.Session.HandleResize(req.Width, req.Height)
	s.respond(w, http.StatusOK, map[string]any{
		"container_ready": s.opts.Session.ContainerReady(),
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var params community.Params
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			s.respondErr(w, cberrors.Wrap(cberrors.ErrCodeInvalidInput, err, "decode detection params"))
			return
		}
	}
	// Detection is asynchronous; the result arrives on the frame stream and
	// via /api/status once merged.
	if err := s.opts.Session.DetectCommunities(context.WithoutCancel(r.Context()), params); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusAccepted, map[string]any{"started": true})
}

func (s *Server) handleIntel(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Session.RefreshIntel(r.Context()); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"flagged": len(s.opts.Session.Flags())})
}

func (s *Server) handleExportPNG(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.opts.Session.ExportPNG()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleExportDOT(w http.ResponseWriter, r *http.Request) {
	dot, err := s.opts.Session.ExportDOT()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, dot)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess := s.opts.Session
	status := map[string]any{
		"session_id": sess.ID(),
		"state":      sess.State(),
		"fullscreen": sess.IsFullscreen(),
	}
	if model := sess.Model(); model != nil {
		status["nodes"] = len(model.Nodes())
		status["edges"] = len(model.Edges())
	}
	if p := sess.Partition(); p != nil {
		status["communities"] = p.Count
		status["modularity"] = p.Modularity
		status["quality"] = p.Quality()
	}
	if err := sess.LastError(); err != nil {
		status["last_error"] = cberrors.UserMessage(err)
	}
	s.respond(w, http.StatusOK, status)
}
