package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/clinic-visit-server/internal/service"
)

// previewConn serializes writes to one websocket. The websocket allows at most
// one concurrent writer, and broadcasts for the same session can arrive from
// concurrent requests.
type previewConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *previewConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

// PreviewHub pushes freshly generated previews to websocket subscribers, one
// subscriber set per session. The preview pane stays open while the doctor
// keeps editing; each regenerate is broadcast instead of polled.
type PreviewHub struct {
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[*previewConn]bool
}

// NewPreviewHub creates a preview hub.
func NewPreviewHub(logger *logrus.Logger) *PreviewHub {
	return &PreviewHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[string]map[*previewConn]bool),
	}
}

// Subscribe upgrades the request to a websocket and registers it for the
// session's preview broadcasts. The connection is held open until the client
// goes away.
func (h *PreviewHub) Subscribe(w http.ResponseWriter, r *http.Request, sessionID string) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	conn := &previewConn{ws: ws}

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*previewConn]bool)
	}
	h.subs[sessionID][conn] = true
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
	}).Debug("Preview subscriber connected")

	// Drain reads so close frames are processed; unregister on error.
	go func() {
		defer h.remove(sessionID, conn)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

// Broadcast sends a preview to every subscriber of the session. Dead
// connections are dropped.
func (h *PreviewHub) Broadcast(sessionID string, preview *service.Preview) {
	h.mu.Lock()
	conns := make([]*previewConn, 0, len(h.subs[sessionID]))
	for conn := range h.subs[sessionID] {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.writeJSON(preview); err != nil {
			h.logger.WithError(err).Debug("Dropping dead preview subscriber")
			h.remove(sessionID, conn)
		}
	}
}

// subscribers reports how many connections a session currently has.
func (h *PreviewHub) subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}

func (h *PreviewHub) remove(sessionID string, conn *previewConn) {
	h.mu.Lock()
	if subs, ok := h.subs[sessionID]; ok {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.subs, sessionID)
		}
	}
	h.mu.Unlock()
	conn.ws.Close()
}
