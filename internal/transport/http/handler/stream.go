package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/taara-api/internal/application/notification"
	"github.com/taara-api/internal/domain"
	"github.com/taara-api/internal/infrastructure/metrics"
	"github.com/taara-api/internal/pkg/id"
	"github.com/taara-api/internal/pkg/logging"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// streamFrame is one push to the client: the full newest-first list plus the unread count.
type streamFrame struct {
	Type          string                `json:"type"`
	Notifications []domain.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

// StreamHandler turns a notification subscription into a WebSocket feed.
type StreamHandler struct {
	svc      notification.Service
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewStreamHandler(svc notification.Service, allowedOrigins []string, log *zap.Logger) *StreamHandler {
	return &StreamHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: logging.OrNop(log),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		return
	}
	log := h.log.With(zap.String("conn_id", id.Conn()), zap.String("user_id", a.UserID))
	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()
	defer conn.Close()

	// Latest snapshot wins; the writer never falls behind by more than one frame.
	frames := make(chan streamFrame, 1)
	push := func(list []domain.Notification) {
		f := streamFrame{Type: "notifications", Notifications: list, Unread: unread(list)}
		select {
		case <-frames:
		default:
		}
		select {
		case frames <- f:
		default:
		}
	}

	unsubscribe, err := h.svc.Subscribe(r.Context(), a.UserID, push)
	if err != nil {
		log.Warn("stream subscribe failed", zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(writeWait))
		return
	}
	defer unsubscribe()
	log.Debug("stream opened")

	closed := make(chan struct{})
	go readPump(conn, closed)
	writePump(conn, frames, closed, log)
	log.Debug("stream closed")
}

// readPump discards client frames and signals when the peer goes away.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(conn *websocket.Conn, frames <-chan streamFrame, closed <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case f := <-frames:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(f); err != nil {
				log.Debug("stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func unread(list []domain.Notification) int {
	n := 0
	for _, x := range list {
		if !x.Read {
			n++
		}
	}
	return n
}
