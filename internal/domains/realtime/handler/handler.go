package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/realtime"
	"library-backend/internal/shared/response"
	"library-backend/pkg/logger"
)

type Handler struct {
	hub       *realtime.Hub
	heartbeat time.Duration
}

func NewHandler(hub *realtime.Hub, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &Handler{hub: hub, heartbeat: heartbeat}
}

// Stream - GET /api/v1/realtime/stream
// Server-Sent Events. Nothing is replayed: clients fetch current counts after connecting.
func (h *Handler) Stream(c *gin.Context) {
	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-sub.Done():
			logger.Debug("realtime observer evicted")
			c.SSEvent("evicted", gin.H{"reason": "slow consumer", "reconnect": true})
			return false
		case evt := <-sub.Events():
			c.SSEvent(evt.Name, evt)
			return true
		case t := <-ticker.C:
			c.SSEvent("heartbeat", gin.H{"at": t.UTC()})
			return true
		}
	})
}

// Presence - GET /api/v1/realtime/presence
func (h *Handler) Presence(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"online": h.hub.Online()})
}
