// internal/common/camunda/worker.go
package camunda

import (
	"fmt"
	"time"

	"actuator-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler processes one activated job and reports the outcome to the broker itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// WorkerOptions are the per task type polling settings.
type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

// Worker is an open job subscription for one task type.
type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker on client that dispatches jobs to handler.
func NewWorker(client zbc.Client, opts WorkerOptions, handler JobHandler, log logger.Logger) *Worker {
	step := client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(handler.Handle).
		Name(fmt.Sprintf("%s-worker", opts.TaskType))
	if opts.MaxJobsActive > 0 {
		step = step.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}

	w := &Worker{
		worker:   step.Open(),
		logger:   log,
		taskType: opts.TaskType,
	}
	log.Info("Worker started", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})
	return w
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Close stops polling and waits for in-flight jobs.
func (w *Worker) Close() {
	w.logger.Info("Stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
