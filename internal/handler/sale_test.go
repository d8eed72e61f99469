package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/carsales/internal/config"
	"github.com/deppfellow/carsales/internal/errs"
	"github.com/deppfellow/carsales/internal/middleware"
	"github.com/deppfellow/carsales/internal/model"
	"github.com/deppfellow/carsales/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSales struct {
	sales      map[int64]model.SaleView
	nextID     int64
	lastFilter model.SalesFilter
	lastID     int64
	lastInput  model.SaleInput
	err        error
}

func newFakeSales() *fakeSales {
	return &fakeSales{sales: map[int64]model.SaleView{}, nextID: 100}
}

func (f *fakeSales) ListSales(_ context.Context, filter model.SalesFilter) (model.PagedResult[model.SaleView], error) {
	f.lastFilter = filter
	if f.err != nil {
		return model.PagedResult[model.SaleView]{}, f.err
	}
	var items []model.SaleView
	for _, s := range f.sales {
		items = append(items, s)
	}
	return model.NewPagedResult(items, filter.Page, filter.PageSize, len(items)), nil
}

func (f *fakeSales) GetSale(_ context.Context, id int64) (*model.SaleView, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sales[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeSales) CreateSale(_ context.Context, in model.SaleInput) (*model.SaleView, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	f.lastInput = in
	s := model.SaleView{
		ID:           f.nextID,
		Manufacturer: in.Manufacturer,
		Model:        in.Model,
		EngineSize:   in.EngineSize,
		FuelType:     in.FuelType,
		Year:         in.Year,
		Mileage:      in.Mileage,
		Price:        in.Price,
	}
	f.sales[s.ID] = s
	return &s, nil
}

func (f *fakeSales) UpdateSale(_ context.Context, id int64, in model.SaleInput) (bool, error) {
	f.lastID, f.lastInput = id, in
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.sales[id]
	return ok, nil
}

func (f *fakeSales) DeleteSale(_ context.Context, id int64) (bool, error) {
	f.lastID = id
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.sales[id]
	delete(f.sales, id)
	return ok, nil
}

func newTestServer() *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{Primary: config.Primary{Env: "test"}},
		Logger: &logger,
	}
}

func newSalesEcho(sales SaleService) *echo.Echo {
	s := newTestServer()
	h := NewSaleHandler(s, sales)

	e := echo.New()
	e.HTTPErrorHandler = middleware.NewGlobalMiddlewares(s).GlobalErrorHandler

	e.GET("/api/sales", Handle(h.Handler, h.ListSales, http.StatusOK, &ListSalesRequest{}))
	e.GET("/api/sales/:id", Handle(h.Handler, h.GetSale, http.StatusOK, &GetSaleRequest{}))
	e.POST("/api/sales", Handle(h.Handler, h.CreateSale, http.StatusCreated, &CreateSaleRequest{}))
	e.PUT("/api/sales/:id", HandleNoContent(h.Handler, h.UpdateSale, http.StatusNoContent, &UpdateSaleRequest{}))
	e.DELETE("/api/sales/:id", HandleNoContent(h.Handler, h.DeleteSale, http.StatusNoContent, &GetSaleRequest{}))
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()
	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const corollaJSON = `{"manufacturer":"Toyota","model":"Corolla","engineSize":2.0,"fuelType":"Petrol","year":2020,"mileage":50000,"price":15000.00}`

func TestCreateSale_Created(t *testing.T) {
	sales := newFakeSales()
	e := newSalesEcho(sales)

	rec := serve(e, http.MethodPost, "/api/sales", corollaJSON)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/api/sales/101", rec.Header().Get(echo.HeaderLocation))

	var view model.SaleView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, int64(101), view.ID)
	assert.Equal(t, "Corolla", view.Model)
	assert.True(t, view.Price.Equal(decimal.NewFromInt(15000)))
	require.NotNil(t, sales.lastInput.Mileage)
	assert.Equal(t, 50000, *sales.lastInput.Mileage)
}

func TestCreateSale_ValidationFailsBeforeService(t *testing.T) {
	sales := newFakeSales()
	e := newSalesEcho(sales)

	rec := serve(e, http.MethodPost, "/api/sales",
		`{"manufacturer":"  ","model":"Corolla","engineSize":25,"fuelType":"Petrol","year":1800,"price":-1}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)

	fields := map[string]string{}
	for _, fe := range body.Errors {
		fields[fe.Field] = fe.Error
	}
	assert.Equal(t, "is required", fields["manufacturer"])
	assert.Equal(t, "must be at most 20", fields["engineSize"])
	assert.Equal(t, "must be at least 1900", fields["year"])
	assert.Equal(t, "must be at least 0", fields["price"])
	assert.Empty(t, sales.sales)
}

func TestCreateSale_MalformedJSON(t *testing.T) {
	rec := serve(newSalesEcho(newFakeSales()), http.MethodPost, "/api/sales", `{"manufacturer":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSale(t *testing.T) {
	sales := newFakeSales()
	sales.sales[7] = model.SaleView{ID: 7, Manufacturer: "Ford", Model: "Focus"}
	e := newSalesEcho(sales)

	t.Run("found", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/api/sales/7", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var view model.SaleView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, "Focus", view.Model)
	})

	t.Run("missing", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/api/sales/8", "")
		require.Equal(t, http.StatusNotFound, rec.Code)

		body := decodeError(t, rec)
		assert.Equal(t, errs.SaleNotFoundCode, body.Code)
		assert.Equal(t, "Sale with id 8 not found.", body.Message)
	})

	t.Run("non numeric id", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/api/sales/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero id", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/api/sales/0", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateSale(t *testing.T) {
	sales := newFakeSales()
	sales.sales[5] = model.SaleView{ID: 5}
	e := newSalesEcho(sales)

	t.Run("path id wins over body", func(t *testing.T) {
		body := strings.Replace(corollaJSON, "{", `{"id":99,`, 1)
		rec := serve(e, http.MethodPut, "/api/sales/5", body)

		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		assert.Empty(t, rec.Body.String())
		assert.Equal(t, int64(5), sales.lastID)
		assert.Equal(t, "Toyota", sales.lastInput.Manufacturer)
	})

	t.Run("missing", func(t *testing.T) {
		rec := serve(e, http.MethodPut, "/api/sales/6", corollaJSON)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, errs.SaleNotFoundCode, decodeError(t, rec).Code)
	})
}

func TestDeleteSale(t *testing.T) {
	sales := newFakeSales()
	sales.sales[3] = model.SaleView{ID: 3}
	e := newSalesEcho(sales)

	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodDelete, "/api/sales/3", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodDelete, "/api/sales/3", "").Code)
}

func TestListSales_QueryBinding(t *testing.T) {
	sales := newFakeSales()
	e := newSalesEcho(sales)

	rec := serve(e, http.MethodGet,
		"/api/sales?manufacturer=ford&year=2019&priceMin=10000&priceMax=20000.5&mileageMax=80000&page=x&pageSize=50&sortBy=price&sortDir=DESC", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	f := sales.lastFilter
	assert.Equal(t, "ford", f.Manufacturer)
	require.NotNil(t, f.Year)
	assert.Equal(t, 2019, *f.Year)
	require.NotNil(t, f.PriceMin)
	assert.Equal(t, "10000", f.PriceMin.String())
	require.NotNil(t, f.PriceMax)
	assert.Equal(t, "20000.5", f.PriceMax.String())
	require.NotNil(t, f.MileageMax)
	assert.Nil(t, f.MileageMin)
	assert.Nil(t, f.EngineSizeMin)
	assert.Equal(t, model.DefaultPage, f.Page)
	assert.Equal(t, 50, f.PageSize)
	assert.Equal(t, "price", f.SortBy)
	assert.Equal(t, "DESC", f.SortDir)

	var page model.PagedResult[model.SaleView]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.NotNil(t, page.Items)
}

func TestListSales_Defaults(t *testing.T) {
	sales := newFakeSales()
	rec := serve(newSalesEcho(sales), http.MethodGet, "/api/sales", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.NewSalesFilter(), sales.lastFilter)
}

func TestListSales_BadNumericFilter(t *testing.T) {
	sales := newFakeSales()
	rec := serve(newSalesEcho(sales), http.MethodGet, "/api/sales?year=twenty&priceMin=cheap", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	require.Len(t, body.Errors, 2)
	assert.Equal(t, "year", body.Errors[0].Field)
	assert.Equal(t, "priceMin", body.Errors[1].Field)
}

func TestListSales_StoreError(t *testing.T) {
	sales := newFakeSales()
	sales.err = errors.New("connection refused")

	rec := serve(newSalesEcho(sales), http.MethodGet, "/api/sales", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestNewRequest_ReturnsFreshValue(t *testing.T) {
	proto := &GetSaleRequest{ID: 42}

	first := newRequest(proto)
	second := newRequest(proto)

	assert.Zero(t, first.ID)
	assert.NotSame(t, proto, first)
	assert.NotSame(t, first, second)
}
