package service

import (
	"github.com/deppfellow/carsales/internal/lib/job"
	"github.com/deppfellow/carsales/internal/repository"
	"github.com/deppfellow/carsales/internal/server"
)

type Services struct {
	Sales *SaleService
	Job   *job.JobService
}

// NewService builds the services. Sale notifications go through the job
// service when one is running and are dropped otherwise.
func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	var notifier Notifier = NopNotifier{}
	if s.Job != nil {
		notifier = s.Job
	}

	return &Services{
		Sales: NewSaleService(repos.Sales, notifier, s.Logger),
		Job:   s.Job,
	}, nil
}
