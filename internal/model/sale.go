// Package model holds the sale types shared by the repository, service
// and handler layers.
package model

import (
	"github.com/shopspring/decimal"
)

// Pagination defaults and bounds for sale listings.
const (
	DefaultPage     = 1
	DefaultPageSize = 25
	MaxPageSize     = 200
)

// SaleView is the read projection of a listing with the names of its
// manufacturer, model and fuel type resolved.
type SaleView struct {
	ID           int64           `json:"id"`
	Manufacturer string          `json:"manufacturer"`
	Model        string          `json:"model"`
	EngineSize   decimal.Decimal `json:"engineSize"`
	FuelType     string          `json:"fuelType"`
	Year         int             `json:"year"`
	Mileage      *int            `json:"mileage"`
	Price        decimal.Decimal `json:"price"`
}

// SalesFilter selects, sorts and paginates sale listings.
//
// Empty strings and nil pointers apply no predicate. Page, PageSize,
// SortBy and SortDir are normalised by the repository, so any value is
// accepted.
type SalesFilter struct {
	Manufacturer  string
	Model         string
	FuelType      string
	Year          *int
	EngineSizeMin *decimal.Decimal
	EngineSizeMax *decimal.Decimal
	MileageMin    *int
	MileageMax    *int
	PriceMin      *decimal.Decimal
	PriceMax      *decimal.Decimal

	Page     int
	PageSize int
	SortBy   string
	SortDir  string
}

// NewSalesFilter returns a filter with the default page, page size and sort.
func NewSalesFilter() SalesFilter {
	return SalesFilter{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
		SortBy:   "id",
		SortDir:  "asc",
	}
}

// SaleInput is the write payload for creating or updating a listing.
// Reference names are resolved to ids inside the write transaction.
type SaleInput struct {
	Manufacturer string          `json:"manufacturer" validate:"required,notblank,max=100"`
	Model        string          `json:"model" validate:"required,notblank,max=100"`
	EngineSize   decimal.Decimal `json:"engineSize" validate:"gte=0,lte=20,decimals=1"`
	FuelType     string          `json:"fuelType" validate:"required,notblank,max=50"`
	Year         int             `json:"year" validate:"gte=1900,lte=2100"`
	Mileage      *int            `json:"mileage" validate:"omitempty,gte=0,lte=2000000"`
	Price        decimal.Decimal `json:"price" validate:"gte=0,lte=10000000,decimals=2"`
}

// PagedResult is one page of items plus the paging numbers that produced it.
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// NewPagedResult computes TotalPages from totalCount and pageSize.
func NewPagedResult[T any](items []T, page, pageSize, totalCount int) PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	size := max(1, pageSize)
	return PagedResult[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: (totalCount + size - 1) / size,
	}
}
