// internal/workers/selection/calculate-selection/handler.go
package calculateselection

import (
	"context"
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

const TaskType = "calculate-selection"

// Selector evaluates one JSON selection request.
type Selector interface {
	CalculateSelectionJSON(ctx context.Context, payload []byte) (*models.SelectionResult, error)
}

type Handler struct {
	config   *Config
	selector Selector
	errors   *errors.ErrorHandler
	obs      *observability.Observability
	logger   logger.Logger
}

// NewHandler wires a handler. obs may be nil.
func NewHandler(config *Config, selector Selector, obs *observability.Observability, log logger.Logger) *Handler {
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
	output, err := h.Execute(ctx, []byte(job.Variables))

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

// Execute runs the selection. NO_MATCHING_ACTUATOR is a business outcome and
// yields an unsuccessful Output instead of an error.
func (h *Handler) Execute(ctx context.Context, payload []byte) (*Output, error) {
	result, err := h.selector.CalculateSelectionJSON(ctx, payload)
	if err != nil {
		stdErr, ok := errors.AsStandard(err)
		if !ok || stdErr.Code != errors.ErrCodeNoMatchingActuator {
			return nil, err
		}
		out := &Output{
			Success:     false,
			Results:     []models.SelectionResultItem{},
			Suggestions: stdErr.Suggestions(),
			Message:     stdErr.Details,
		}
		if result != nil {
			out.RequestID = result.RequestID
			out.Warnings = result.Warnings
			out.CandidateCount = result.CandidateCount
		}
		return out, nil
	}

	return &Output{
		Success:        true,
		RequestID:      result.RequestID,
		Results:        result.Results,
		BestChoice:     result.BestChoice,
		Warnings:       result.Warnings,
		CandidateCount: result.CandidateCount,
	}, nil
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

	fields := map[string]interface{}{
		"jobKey":     job.Key,
		"requestId":  output.RequestID,
		"success":    output.Success,
		"candidates": output.CandidateCount,
		"results":    len(output.Results),
	}
	if output.BestChoice != nil {
		fields["bestChoice"] = output.BestChoice.FinalModelName
	}
	h.logger.Info("job completed", fields)
}
