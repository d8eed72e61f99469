// Package router builds the Echo instance: global middleware, the error
// handler and the route table.
package router

import (
	"net/http"

	"github.com/deppfellow/carsales/internal/handler"
	"github.com/deppfellow/carsales/internal/middleware"
	"github.com/deppfellow/carsales/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter registers every route. Reads are public; writes need a valid
// X-API-Key and are rate limited per client.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	api := router.Group("/api")
	registerSaleRoutes(api, h.Sales, middlewares)

	return router
}

func registerSaleRoutes(api *echo.Group, h *handler.SaleHandler, m *middleware.Middlewares) {
	sales := api.Group("/sales")

	sales.GET("", handler.Handle(h.Handler, h.ListSales, http.StatusOK, &handler.ListSalesRequest{}))
	sales.GET("/:id", handler.Handle(h.Handler, h.GetSale, http.StatusOK, &handler.GetSaleRequest{}))

	write := []echo.MiddlewareFunc{m.Auth.RequireAPIKey, m.RateLimit.LimitWrites()}

	sales.POST("", handler.Handle(h.Handler, h.CreateSale, http.StatusCreated, &handler.CreateSaleRequest{}), write...)
	sales.PUT("/:id", handler.HandleNoContent(h.Handler, h.UpdateSale, http.StatusNoContent, &handler.UpdateSaleRequest{}), write...)
	sales.DELETE("/:id", handler.HandleNoContent(h.Handler, h.DeleteSale, http.StatusNoContent, &handler.GetSaleRequest{}), write...)
}
