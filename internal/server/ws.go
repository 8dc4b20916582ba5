package server

import (
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/chainbreak/chainview/pkg/render"
)

// frameBufferDepth bounds how far a slow subscriber may fall behind before
// frames are dropped. Frames are snapshots, so dropping intermediates is
// lossless for the final picture.
const frameBufferDepth = 8

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// hub fans composed frames out to connected WebSocket clients.
type hub struct {
	logger *log.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	frames chan render.Frame
	done   chan struct{}
}

func newHub(logger *log.Logger) *hub {
	return &hub{logger: logger, subs: make(map[*subscriber]struct{})}
}

// Broadcast queues a frame for every subscriber, dropping the oldest queued
// frame for subscribers that are not keeping up.
func (h *hub) Broadcast(frame render.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.frames <- frame:
		default:
			select {
			case <-sub.frames:
			default:
			}
			select {
			case sub.frames <- frame:
			default:
			}
		}
	}
}

func (h *hub) add(sub *subscriber) {
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// handleWS upgrades the connection and streams frames until the client
// disconnects. Each message is one JSON-encoded frame.
func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := &subscriber{
		frames: make(chan render.Frame, frameBufferDepth),
		done:   make(chan struct{}),
	}
	h.add(sub)
	defer h.remove(sub)
	h.logger.Debug("frame stream client connected", "remote", conn.RemoteAddr())

	// Reader goroutine: we ignore client messages but need the read loop to
	// notice the close handshake.
	go func() {
		defer close(sub.done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-sub.done:
			h.logger.Debug("frame stream client disconnected", "remote", conn.RemoteAddr())
			return
		case frame := <-sub.frames:
			if err := conn.WriteJSON(frame); err != nil {
				h.logger.Debug("frame stream write failed", "error", err)
				return
			}
		}
	}
}
