package api

import (
	"context"
	"net/http"
	"time"

	xhttp "TechMart/pkg/http"
	xlogger "TechMart/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Subscriber upgrades a request into a live event subscription.
type Subscriber interface {
	ServeWS(w http.ResponseWriter, r *http.Request) error
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// SystemHandler serves /health and the WebSocket endpoint.
type SystemHandler struct {
	logger  *xlogger.Logger
	ws      Subscriber
	checks  map[string]HealthCheck
	timeout time.Duration
}

func NewSystemHandler(logger *xlogger.Logger, ws Subscriber, checks map[string]HealthCheck) *SystemHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &SystemHandler{logger: logger, ws: ws, checks: checks, timeout: 2 * time.Second}
}

func (h *SystemHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	if h.ws != nil {
		e.GET("/ws", h.WebSocket)
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *SystemHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res := healthResponse{Status: "healthy"}
	status := http.StatusOK
	if len(h.checks) > 0 {
		res.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("health check failed", xlogger.String("check", name), xlogger.Error(err))
			res.Checks[name] = err.Error()
			res.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[name] = "ok"
	}
	return xhttp.DataResponse(c, status, res)
}

// WebSocket hands the connection to the hub. Upgrade failures have already
// been answered by the upgrader.
func (h *SystemHandler) WebSocket(c echo.Context) error {
	if err := h.ws.ServeWS(c.Response(), c.Request()); err != nil {
		h.logger.Debug("websocket subscription refused", xlogger.Error(err))
	}
	return nil
}
