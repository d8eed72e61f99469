package repository

import (
	"time"

	"github.com/deppfellow/carsales/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Sales *SaleRepository
}

// NewRepositories builds every repository on the server's connection pool.
func NewRepositories(s *server.Server) *Repositories {
	slow := time.Duration(s.Config.Database.SlowQueryMS) * time.Millisecond
	return &Repositories{
		Sales: NewSaleRepository(s.DB.Pool, s.Logger, slow),
	}
}
