package http

import (
	"net/http"
	"time"

	"finapp-backend/internal/events"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type Subscriber interface {
	Subscribe(f events.Filter) (<-chan events.Event, func())
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type StreamHandler struct {
	sub      Subscriber
	upgrader websocket.Upgrader
}

func NewStreamHandler(sub Subscriber) *StreamHandler {
	return &StreamHandler{
		sub: sub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// bearer auth already ran; browsers are not the primary client
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream pushes loan and payment events as JSON frames. Clients only see
// their own loans; admins see everything. ?loan_id= narrows further.
func (h *StreamHandler) Stream(c echo.Context) error {
	sess := sessionOf(c)
	f := events.Filter{LoanID: c.QueryParam("loan_id")}
	if !sess.IsAdmin() {
		f.UserID = sess.UserID
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the error response.
		log.WithError(err).Warn("stream: upgrade failed")
		return nil
	}
	defer conn.Close()

	ch, cancel := h.sub.Subscribe(f)
	defer cancel()

	entry := log.WithFields(log.Fields{"user_id": sess.UserID, "loan_id": f.LoanID})
	entry.Debug("stream opened")

	// Reader: only control frames are expected; a read error means the peer left.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
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
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	ctx := c.Request().Context()

	for {
		select {
		case e, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return nil
			}
			if err := conn.WriteJSON(e); err != nil {
				entry.WithError(err).Debug("stream write failed")
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-gone:
			entry.Debug("stream closed by peer")
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
