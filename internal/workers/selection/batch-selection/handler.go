// internal/workers/selection/batch-selection/handler.go
package batchselection

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"actuator-workers/internal/common/errors"
	"actuator-workers/internal/common/logger"
	"actuator-workers/internal/common/metrics"
	"actuator-workers/internal/common/observability"
	"actuator-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const reportTimeout = 10 * time.Second

const TaskType = "batch-selection"

// BatchSelector evaluates a list of JSON selection requests.
type BatchSelector interface {
	BatchSelection(ctx context.Context, payloads []json.RawMessage) *models.BatchResult
}

type Handler struct {
	config   *Config
	selector BatchSelector
	errors   *errors.ErrorHandler
	obs      *observability.Observability
	logger   logger.Logger
}

func NewHandler(config *Config, selector BatchSelector, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		selector: selector,
		errors:   errors.NewErrorHandler(log),
		obs:      obs,
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	status := "completed"
	output, err := h.process(ctx, job)

	// Outcome commands are sent on their own deadline, independent of the job timeout.
	sendCtx, sendCancel := context.WithTimeout(context.Background(), reportTimeout)
	defer sendCancel()

	if err != nil {
		status = "failed"
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
		h.errors.HandleJobError(sendCtx, client, job, err)
	} else {
		h.completeJob(sendCtx, client, job, output)
		metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	}

	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.obs.RecordJobProcessed(sendCtx, TaskType, status)
	h.obs.RecordJobDuration(sendCtx, TaskType, elapsed, status)
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
	}
	return h.Execute(ctx, &input)
}

// Execute evaluates every request. Individual failures are reported in the
// output; only a malformed batch is an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Requests == nil {
		return nil, errors.NewInvalidRequestError("requests is required")
	}
	if len(input.Requests) > h.config.MaxBatchSize {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf(
			"batch of %d requests exceeds the limit of %d", len(input.Requests), h.config.MaxBatchSize))
	}

	result := h.selector.BatchSelection(ctx, input.Requests)
	if err := ctx.Err(); err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("batch interrupted: %w", err))
	}
	return &Output{BatchResult: *result}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		h.errors.HandleJobError(ctx, client, job, errors.NewInternalError(err))
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":    job.Key,
		"total":     output.Total,
		"succeeded": len(output.Succeeded),
		"failed":    len(output.Failed),
	})
}
