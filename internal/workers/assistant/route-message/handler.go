// internal/workers/assistant/route-message/handler.go
package routemessage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"careescapes-workers/internal/common/errors"
	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/common/metrics"
	"careescapes-workers/internal/common/validation"
	"careescapes-workers/internal/conversation/router"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "assistant.route-message"
)

// Assistant answers one message within a session.
type Assistant interface {
	HandleMessage(ctx context.Context, sessionID, message string) (router.Reply, error)
}

type Handler struct {
	config       *Config
	assistant    Assistant
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

var inputSchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"sessionId": {Type: "string", MinLength: validation.IntPtr(1)},
		"message":   {Type: "string"},
	},
	Required: []string{"sessionId", "message"},
}

func NewHandler(config *Config, assistant Assistant, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		assistant:    assistant,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.process(ctx, job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

// process parses and executes one job's variables and records the worker
// job metrics for it.
func (h *Handler) process(ctx context.Context, variables string) (*Output, error) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	input, err := ParseInput(variables)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode(err)).Inc()
		return nil, err
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode(err)).Inc()
		return nil, err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	return output, nil
}

func errorCode(err error) string {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return "UNKNOWN"
}

// ParseInput decodes and validates the job variables.
func ParseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}

	result := validation.ValidateInput(raw, inputSchema)
	if !result.Valid {
		return nil, errors.NewInputParsingFailedError(fmt.Errorf("invalid job variables: %s", strings.Join(result.GetErrorMessages(), "; ")))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	reply, err := h.assistant.HandleMessage(ctx, input.SessionID, input.Message)
	if err != nil {
		return nil, err
	}

	h.logger.Info("message routed", map[string]interface{}{
		"sessionId": input.SessionID,
		"intent":    reply.Intent,
		"source":    reply.Source,
		"status":    reply.Status,
	})

	return &Output{
		Reply:    reply.Text,
		Intent:   string(reply.Intent),
		Source:   reply.Source,
		Status:   string(reply.Status),
		Entities: reply.Entities,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
