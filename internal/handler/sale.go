package handler

import (
	"context"
	"strconv"

	"github.com/deppfellow/carsales/internal/errs"
	"github.com/deppfellow/carsales/internal/model"
	"github.com/deppfellow/carsales/internal/server"
	"github.com/labstack/echo/v4"
)

// SaleService is the business layer behind the sale endpoints. It is
// implemented by *service.SaleService.
type SaleService interface {
	ListSales(ctx context.Context, f model.SalesFilter) (model.PagedResult[model.SaleView], error)
	GetSale(ctx context.Context, id int64) (*model.SaleView, error)
	CreateSale(ctx context.Context, in model.SaleInput) (*model.SaleView, error)
	UpdateSale(ctx context.Context, id int64, in model.SaleInput) (bool, error)
	DeleteSale(ctx context.Context, id int64) (bool, error)
}

type SaleHandler struct {
	Handler
	sales SaleService
}

func NewSaleHandler(s *server.Server, sales SaleService) *SaleHandler {
	return &SaleHandler{
		Handler: NewHandler(s),
		sales:   sales,
	}
}

func (h *SaleHandler) ListSales(c echo.Context, req *ListSalesRequest) (model.PagedResult[model.SaleView], error) {
	return h.sales.ListSales(c.Request().Context(), req.Filter())
}

func (h *SaleHandler) GetSale(c echo.Context, req *GetSaleRequest) (*model.SaleView, error) {
	sale, err := h.sales.GetSale(c.Request().Context(), req.ID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, errs.NewSaleNotFoundError(req.ID)
	}
	return sale, nil
}

// CreateSale responds with the stored sale and its URL in Location.
func (h *SaleHandler) CreateSale(c echo.Context, req *CreateSaleRequest) (*model.SaleView, error) {
	sale, err := h.sales.CreateSale(c.Request().Context(), req.SaleInput)
	if err != nil {
		return nil, err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/api/sales/"+strconv.FormatInt(sale.ID, 10))
	return sale, nil
}

func (h *SaleHandler) UpdateSale(c echo.Context, req *UpdateSaleRequest) error {
	updated, err := h.sales.UpdateSale(c.Request().Context(), req.ID, req.SaleInput)
	if err != nil {
		return err
	}
	if !updated {
		return errs.NewSaleNotFoundError(req.ID)
	}
	return nil
}

func (h *SaleHandler) DeleteSale(c echo.Context, req *GetSaleRequest) error {
	removed, err := h.sales.DeleteSale(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	if !removed {
		return errs.NewSaleNotFoundError(req.ID)
	}
	return nil
}
