package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/anonto42/inkwell/backend/internal/realtime"
	"github.com/gin-contrib/sse"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	eventConnected    = "connected"
	eventNotification = "notification"
	eventHeartbeat    = "heartbeat"
)

// StreamHandler serves the per-user notification event stream
type StreamHandler struct {
	registry  *realtime.Registry
	heartbeat time.Duration
	queueSize int
	log       *logrus.Logger
}

// NewStreamHandler creates a StreamHandler. heartbeat is how long a stream may
// stay idle before a heartbeat event is sent.
func NewStreamHandler(registry *realtime.Registry, heartbeat time.Duration, queueSize int, log *logrus.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &StreamHandler{
		registry:  registry,
		heartbeat: heartbeat,
		queueSize: queueSize,
		log:       log,
	}
}

// RegisterStreamRoutes registers the event stream route behind its own authentication
func (h *StreamHandler) RegisterStreamRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/sse/notifications", h.StreamNotifications, auth)
}

// StreamNotifications holds the connection open and forwards the caller's
// notifications as server-sent events until the client goes away.
func (h *StreamHandler) StreamNotifications(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	queue := realtime.NewQueue(h.queueSize)
	h.registry.AddConnection(userID, queue)
	defer h.registry.RemoveConnection(userID, queue)

	log := h.log.WithFields(logrus.Fields{
		"recipient_id":  userID,
		"connection_id": queue.ID(),
	})
	log.Info("notification stream opened")
	defer log.Info("notification stream closed")

	if err := h.emit(res, eventConnected, map[string]string{"message": "Connected to notifications"}); err != nil {
		log.WithError(err).Debug("client gone before connected event")
		return nil
	}

	ctx := c.Request().Context()
	timer := time.NewTimer(h.heartbeat)
	defer timer.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return nil
		case <-queue.Dropped():
			log.Warn("stream fell behind, closing so the client can reconnect")
			return nil
		case payload := <-queue.Messages():
			err = h.emit(res, eventNotification, json.RawMessage(payload))
		case <-timer.C:
			err = h.emit(res, eventHeartbeat, map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)})
		}
		if err != nil {
			log.WithError(err).Debug("stream write failed")
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		timer.Reset(h.heartbeat)
	}
}

func (h *StreamHandler) emit(res *echo.Response, event string, data any) error {
	if err := sse.Encode(res, sse.Event{Event: event, Data: data}); err != nil {
		return err
	}
	res.Flush()
	return nil
}
