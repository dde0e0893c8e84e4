package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// BrokerClient exposes the raw broker client for health probes
type BrokerClient interface {
	Client() *redis.Client
}

// HealthHandler reports service and broker status
type HealthHandler struct {
	broker BrokerClient
}

// NewHealthHandler creates a HealthHandler
func NewHealthHandler(broker BrokerClient) *HealthHandler {
	return &HealthHandler{broker: broker}
}

func (h *HealthHandler) HealthCheck(c echo.Context) error {
	status := http.StatusOK
	brokerStatus := "up"

	client := h.broker.Client()
	if client == nil {
		status, brokerStatus = http.StatusServiceUnavailable, "disconnected"
	} else {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			status, brokerStatus = http.StatusServiceUnavailable, "unreachable"
		}
	}

	health := "healthy"
	if status != http.StatusOK {
		health = "degraded"
	}
	return c.JSON(status, map[string]string{
		"status":  health,
		"service": "inkwell-api",
		"broker":  brokerStatus,
	})
}
