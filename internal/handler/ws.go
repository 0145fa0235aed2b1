package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"basismon/internal/monitor"
)

const wsWriteTimeout = 5 * time.Second

// StreamHandler upgrades dashboard clients to a websocket and relays every
// broadcast frame. Clients only receive; the read side exists to surface
// close frames. A client that stops draining loses frames at the hub, so
// one stuck connection never stalls the broadcast.
type StreamHandler struct {
	Hub         *monitor.Hub
	Broadcaster *monitor.Broadcaster
	Logger      *zap.Logger
}

func (h *StreamHandler) Register(r *gin.Engine) {
	r.GET("/ws", h.stream)
	r.GET("/ws/instruments", h.stream)
}

// @Summary Stream instrument frames
// @Description Pushes the full instrument table as JSON text frames on every monitor tick. The latest frame is sent immediately on connect.
// @Tags instruments
// @Router /ws [get]
func (h *StreamHandler) stream(c *gin.Context) {
	if h.Hub == nil {
		c.Status(500)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("websocket accept failed", zap.Error(err))
		}
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	// CloseRead cancels the context as soon as the peer goes away.
	ctx := conn.CloseRead(c.Request.Context())

	sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(sub)

	if h.Broadcaster != nil {
		if frame, ok := h.Broadcaster.LastFrame(); ok {
			if err := writeFrame(ctx, conn, frame); err != nil {
				return
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case payload, ok := <-sub.C():
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := writeFrame(ctx, conn, payload); err != nil {
				if h.Logger != nil && !errors.Is(err, context.Canceled) {
					h.Logger.Debug("websocket write failed", zap.Error(err))
				}
				return
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}
