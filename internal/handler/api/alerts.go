package api

import (
	"context"

	"TechMart/internal/domain/models"
	xhttp "TechMart/pkg/http"
	xlogger "TechMart/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AlertStore is satisfied by the alert repository.
type AlertStore interface {
	ListAlerts(ctx context.Context, resolved *bool, limit int) ([]models.Alert, error)
	ResolveAlert(ctx context.Context, id int64) error
}

type AlertsHandler struct {
	logger *xlogger.Logger
	store  AlertStore
}

func NewAlertsHandler(logger *xlogger.Logger, store AlertStore) *AlertsHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AlertsHandler{logger: logger, store: store}
}

func (h *AlertsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/alerts")
	g.GET("", h.List)
	g.POST("/:id/resolve", h.Resolve)
}

func (h *AlertsHandler) List(c echo.Context) error {
	req := &models.AlertListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.store.ListAlerts(c.Request().Context(), &req.Resolved, req.Limit)
	if err != nil {
		h.logger.Error("list alerts error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *AlertsHandler) Resolve(c echo.Context) error {
	req := &models.AlertPathRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.store.ResolveAlert(c.Request().Context(), req.ID); err != nil {
		appErr := toAppError(err)
		if appErr.Status >= 500 {
			h.logger.Error("resolve alert error", xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"id": req.ID, "resolved": true})
}
