package handler

import (
	"github.com/deppfellow/carsales/internal/server"
	"github.com/deppfellow/carsales/internal/service"
)

// Handlers groups every HTTP handler for the router.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Sales   *SaleHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Sales:   NewSaleHandler(s, services.Sales),
	}
}
