package handler

import (
	"strconv"
	"strings"

	"github.com/deppfellow/carsales/internal/model"
	"github.com/deppfellow/carsales/internal/validation"
	"github.com/shopspring/decimal"
)

// ListSalesRequest carries the query string of GET /api/sales.
//
// Numeric filters are strings so an unparsable value can be reported per
// field. Paging and sorting never fail: bad values fall back to defaults.
type ListSalesRequest struct {
	Manufacturer  string `query:"manufacturer" validate:"max=100"`
	Model         string `query:"model" validate:"max=100"`
	FuelType      string `query:"fuelType" validate:"max=50"`
	Year          string `query:"year"`
	EngineSizeMin string `query:"engineSizeMin"`
	EngineSizeMax string `query:"engineSizeMax"`
	MileageMin    string `query:"mileageMin"`
	MileageMax    string `query:"mileageMax"`
	PriceMin      string `query:"priceMin"`
	PriceMax      string `query:"priceMax"`

	Page     string `query:"page"`
	PageSize string `query:"pageSize"`
	SortBy   string `query:"sortBy"`
	SortDir  string `query:"sortDir"`

	filter model.SalesFilter
}

// Validate parses the query into a filter, available from Filter afterwards.
func (r *ListSalesRequest) Validate() error {
	if err := validation.Validator().Struct(r); err != nil {
		return err
	}

	p := filterParser{}
	f := model.NewSalesFilter()

	f.Manufacturer = r.Manufacturer
	f.Model = r.Model
	f.FuelType = r.FuelType
	f.Year = p.int("year", r.Year)
	f.EngineSizeMin = p.decimal("engineSizeMin", r.EngineSizeMin)
	f.EngineSizeMax = p.decimal("engineSizeMax", r.EngineSizeMax)
	f.MileageMin = p.int("mileageMin", r.MileageMin)
	f.MileageMax = p.int("mileageMax", r.MileageMax)
	f.PriceMin = p.decimal("priceMin", r.PriceMin)
	f.PriceMax = p.decimal("priceMax", r.PriceMax)

	if len(p.errs) > 0 {
		return p.errs
	}

	f.Page = intOr(r.Page, model.DefaultPage)
	f.PageSize = intOr(r.PageSize, model.DefaultPageSize)
	if r.SortBy != "" {
		f.SortBy = r.SortBy
	}
	if r.SortDir != "" {
		f.SortDir = r.SortDir
	}

	r.filter = f
	return nil
}

func (r *ListSalesRequest) Filter() model.SalesFilter {
	return r.filter
}

// filterParser collects one error per malformed numeric field.
type filterParser struct {
	errs validation.CustomValidationErrors
}

func (p *filterParser) int(field, raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, validation.CustomValidationError{Field: field, Message: "must be a whole number"})
		return nil
	}
	return &v
}

func (p *filterParser) decimal(field, raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		p.errs = append(p.errs, validation.CustomValidationError{Field: field, Message: "must be a number"})
		return nil
	}
	return &v
}

func intOr(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

// GetSaleRequest identifies a sale by path id. DeleteSale uses it too.
type GetSaleRequest struct {
	ID int64 `param:"id" validate:"gte=1"`
}

func (r *GetSaleRequest) Validate() error {
	return validation.Validator().Struct(r)
}

type CreateSaleRequest struct {
	model.SaleInput
}

func (r *CreateSaleRequest) Validate() error {
	return validation.Validator().Struct(r)
}

// UpdateSaleRequest replaces every mutable column of the sale at path id.
type UpdateSaleRequest struct {
	ID int64 `param:"id" json:"-" validate:"gte=1"`
	model.SaleInput
}

func (r *UpdateSaleRequest) Validate() error {
	return validation.Validator().Struct(r)
}
