package api

import (
	xhttp "TechMart/pkg/http"

	"github.com/labstack/echo/v4"
)

// Router mounts every API handler on one Echo instance.
type Router struct {
	handlers []xhttp.Handler
}

func NewRouter(inventory *InventoryHandler, transactions *TransactionsHandler, alerts *AlertsHandler, system *SystemHandler) *Router {
	return &Router{handlers: []xhttp.Handler{inventory, transactions, alerts, system}}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}
