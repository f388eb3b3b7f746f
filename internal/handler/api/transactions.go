package api

import (
	"context"

	"TechMart/internal/domain/models"
	"TechMart/internal/usecase"
	xhttp "TechMart/pkg/http"
	xlogger "TechMart/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type FraudService interface {
	AnalyzeTransaction(ctx context.Context, customerID int64, amount decimal.Decimal, ip string) (models.FraudVerdict, error)
	Statistics(ctx context.Context, hours int) (models.FraudStatistics, error)
	CheckVelocity(ctx context.Context, customerID int64, windowMinutes, threshold int) (usecase.VelocityCheck, error)
	SuspiciousTransactions(ctx context.Context, hours, skip, limit int) ([]models.SuspiciousTransaction, error)
}

type TransactionsHandler struct {
	logger *xlogger.Logger
	svc    FraudService
}

func NewTransactionsHandler(logger *xlogger.Logger, svc FraudService) *TransactionsHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &TransactionsHandler{logger: logger, svc: svc}
}

func (h *TransactionsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/transactions")
	g.POST("/analyze", h.Analyze)
	g.GET("/fraud-stats", h.FraudStats)
	g.GET("/velocity/:customer_id", h.Velocity)
	g.GET("/suspicious", h.Suspicious)
}

func (h *TransactionsHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeTransactionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.IPAddress == "" {
		req.IPAddress = c.RealIP()
	}
	v, err := h.svc.AnalyzeTransaction(c.Request().Context(), req.CustomerID, decimal.NewFromFloat(req.Amount), req.IPAddress)
	if err != nil {
		h.logger.Error("analyze transaction usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, v)
}

func (h *TransactionsHandler) FraudStats(c echo.Context) error {
	req := &models.FraudStatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	stats, err := h.svc.Statistics(c.Request().Context(), req.Hours)
	if err != nil {
		h.logger.Error("fraud stats usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, stats)
}

func (h *TransactionsHandler) Velocity(c echo.Context) error {
	req := &models.VelocityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.svc.CheckVelocity(c.Request().Context(), req.CustomerID, req.WindowMinutes, req.Threshold)
	if err != nil {
		h.logger.Error("velocity usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *TransactionsHandler) Suspicious(c echo.Context) error {
	req := &models.SuspiciousListRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.svc.SuspiciousTransactions(c.Request().Context(), req.Hours, req.Skip, req.Limit)
	if err != nil {
		h.logger.Error("suspicious transactions usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
