package api

import (
	"context"

	"TechMart/internal/domain/models"
	xhttp "TechMart/pkg/http"
	xlogger "TechMart/pkg/logger"

	"github.com/labstack/echo/v4"
)

// InventoryService is what the inventory endpoints call into.
type InventoryService interface {
	ForecastProduct(ctx context.Context, productID int64, horizonDays int) (*models.ProductForecast, error)
	GenerateSuggestion(ctx context.Context, productID int64) (*models.ReorderSuggestion, error)
	ListSuggestions(ctx context.Context, status models.SuggestionStatus, skip, limit int) ([]models.SuggestionView, error)
	ApproveSuggestion(ctx context.Context, id int64) (*models.ReorderSuggestion, error)
	RejectSuggestion(ctx context.Context, id int64) (*models.ReorderSuggestion, error)
	MarkOrdered(ctx context.Context, id int64) (*models.ReorderSuggestion, error)
	LowStock(ctx context.Context, threshold *int) ([]models.Product, error)
	AdjustStock(ctx context.Context, productID int64, change int, reason string) (*models.StockAdjustment, error)
}

type InventoryHandler struct {
	logger *xlogger.Logger
	svc    InventoryService
}

func NewInventoryHandler(logger *xlogger.Logger, svc InventoryService) *InventoryHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &InventoryHandler{logger: logger, svc: svc}
}

func (h *InventoryHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/inventory")
	g.GET("/predictions/:product_id", h.Predictions)
	g.POST("/generate-reorder-suggestion/:product_id", h.GenerateSuggestion)
	g.GET("/reorder-suggestions", h.ListSuggestions)
	g.POST("/reorder-suggestions/:id/approve", h.transition("approve", h.svc.ApproveSuggestion))
	g.POST("/reorder-suggestions/:id/reject", h.transition("reject", h.svc.RejectSuggestion))
	g.POST("/reorder-suggestions/:id/order", h.transition("order", h.svc.MarkOrdered))
	g.GET("/low-stock", h.LowStock)
	g.POST("/:product_id/stock", h.UpdateStock)
}

func (h *InventoryHandler) Predictions(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.svc.ForecastProduct(c.Request().Context(), req.ProductID, req.HorizonDays)
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *InventoryHandler) GenerateSuggestion(c echo.Context) error {
	req := &models.ProductPathRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := h.svc.GenerateSuggestion(c.Request().Context(), req.ProductID)
	if err != nil {
		return h.fail(c, "generate suggestion", err)
	}
	return xhttp.CreatedResponse(c, s)
}

func (h *InventoryHandler) ListSuggestions(c echo.Context) error {
	req := &models.SuggestionListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.svc.ListSuggestions(c.Request().Context(), models.SuggestionStatus(req.Status), req.Skip, req.Limit)
	if err != nil {
		return h.fail(c, "list suggestions", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *InventoryHandler) transition(action string, fn func(context.Context, int64) (*models.ReorderSuggestion, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := &models.SuggestionPathRequest{}
		if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
			return xhttp.BadRequestResponse(c, verr)
		}
		s, err := fn(c.Request().Context(), req.ID)
		if err != nil {
			return h.fail(c, action+" suggestion", err)
		}
		return xhttp.SuccessResponse(c, s)
	}
}

func (h *InventoryHandler) LowStock(c echo.Context) error {
	req := &models.LowStockRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.svc.LowStock(c.Request().Context(), req.Threshold)
	if err != nil {
		return h.fail(c, "low stock", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// UpdateStock adds (positive) or removes (negative) stock.
func (h *InventoryHandler) UpdateStock(c echo.Context) error {
	req := &models.StockUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	adj, err := h.svc.AdjustStock(c.Request().Context(), req.ProductID, req.QuantityChange, req.Reason)
	if err != nil {
		return h.fail(c, "update stock", err)
	}
	return xhttp.SuccessResponse(c, adj)
}

func (h *InventoryHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= 500 {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
