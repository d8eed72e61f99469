// Package job runs background work on Asynq, a Redis backed task queue.
//
// The API process enqueues tasks through JobService.Client and the same
// process runs the worker server that consumes them.
package job

import (
	"fmt"

	"github.com/deppfellow/carsales/internal/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// JobService holds the Asynq client (enqueue) and server (workers).
type JobService struct {
	Client *asynq.Client
	server *asynq.Server
	logger *zerolog.Logger

	mailer    saleMailer
	recipient string
}

// NewJobService creates a JobService on the Redis instance from cfg.
//
// Workers are weighted by queue: critical 6, default 3, low 1.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
		Logger:   asynqLogger{logger: logger},
		LogLevel: asynq.WarnLevel,
	})

	return &JobService{
		Client: asynq.NewClient(redisOpt),
		server: server,
		logger: logger,
	}
}

// Start registers the task handlers and starts the workers. It returns
// once the workers are running.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSaleChanged, j.handleSaleChangedTask)

	j.logger.Info().Msg("starting background job server")

	return j.server.Start(mux)
}

// Stop waits for running tasks and closes the Redis connections.
func (j *JobService) Stop() {
	j.logger.Info().Msg("stopping background job server")
	j.server.Shutdown()
	if err := j.Client.Close(); err != nil {
		j.logger.Error().Err(err).Msg("failed to close job client")
	}
}

// asynqLogger routes Asynq's internal logs to zerolog.
type asynqLogger struct {
	logger *zerolog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.logger.Debug().Msg(sprint(args)) }
func (l asynqLogger) Info(args ...any)  { l.logger.Info().Msg(sprint(args)) }
func (l asynqLogger) Warn(args ...any)  { l.logger.Warn().Msg(sprint(args)) }
func (l asynqLogger) Error(args ...any) { l.logger.Error().Msg(sprint(args)) }
func (l asynqLogger) Fatal(args ...any) { l.logger.Fatal().Msg(sprint(args)) }

func sprint(args []any) string {
	return fmt.Sprint(args...)
}
