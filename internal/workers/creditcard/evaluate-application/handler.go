// internal/workers/creditcard/evaluate-application/handler.go
package evaluateapplication

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "card-decision-workers/internal/common/errors"
	"card-decision-workers/internal/common/logger"
	"card-decision-workers/internal/common/metrics"
	"card-decision-workers/internal/common/observability"
	"card-decision-workers/internal/common/validation"
	"card-decision-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "evaluate-credit-card-application"
)

// decisionNamespace scopes decision references generated by this worker.
var decisionNamespace = uuid.MustParse("6f1c2a4e-58b7-4d4b-9a43-0d2f6c1e7b90")

type Handler struct {
	config     *Config
	engine     *scoring.Engine
	validator  *validation.Validator
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

// NewHandler wires the handler. validator and obs may be nil.
func NewHandler(config *Config, engine *scoring.Engine, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		engine:     engine,
		validator:  validator,
		obs:        obs,
		errHandler: apperrors.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	start := time.Now()

	input, err := h.decode(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, start, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, start, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"error": err,
		})
		return
	}
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

// decode validates the raw variables against the registry schema, when one
// is configured, and unmarshals them.
func (h *Handler) decode(variables string) (*Input, error) {
	if h.validator != nil {
		res, err := h.validator.ValidateJSON(variables)
		if err != nil {
			return nil, apperrors.NewParseError(err)
		}
		if !res.Valid {
			return nil, apperrors.NewPayloadValidationError(res.Summary()).
				WithMetadata("validationErrors", res.Errors)
		}
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewParseError(err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewEvaluationFailedError("", fmt.Errorf("input cannot be nil"))
	}

	ctx, span := h.obs.StartSpan(ctx, "credit-card.evaluate",
		attribute.String("application.id", input.ApplicationID),
	)
	defer span.End()

	asOf, err := h.evaluationDate(input.EvaluationDate)
	if err != nil {
		return nil, apperrors.NewPayloadValidationError(err.Error())
	}
	if asOf.IsZero() {
		asOf = h.engine.Now().In(h.config.Location)
	}

	req := &scoring.Request{
		Applicant:      input.Applicant,
		Obligations:    input.Obligations,
		PrecomputedDBR: input.DBR,
		CBS:            input.CBSSummary,
		AsOf:           asOf,
	}
	if req.Applicant.ApplicationID == "" {
		req.Applicant.ApplicationID = input.ApplicationID
	}

	result := h.engine.Evaluate(req)

	ref, err := decisionReference(input.ApplicationID, req)
	if err != nil {
		return nil, apperrors.NewEvaluationFailedError(input.ApplicationID, err)
	}

	span.SetAttributes(
		attribute.String("decision", string(result.Decision)),
		attribute.Float64("final_score", result.FinalScore),
		attribute.Int("hard_stops", len(result.HardStops)),
	)
	h.record(ctx, result)

	h.logger.Info("application evaluated", map[string]interface{}{
		"applicationId":     input.ApplicationID,
		"decisionReference": ref,
		"decision":          result.Decision,
		"finalScore":        result.FinalScore,
		"relationship":      result.Relationship,
		"hardStops":         len(result.HardStops),
	})

	return &Output{
		DecisionReference: ref,
		EvaluatedAt:       req.AsOf.Format(time.RFC3339),
		DecisionResult:    result,
	}, nil
}

// evaluationDate accepts RFC3339 or a bare date in the configured zone.
// An empty value returns the zero time.
func (h *Handler) evaluationDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, h.config.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("evaluationDate %q: expected YYYY-MM-DD or RFC3339", raw)
	}
	return t, nil
}

func (h *Handler) record(ctx context.Context, result *scoring.DecisionResult) {
	metrics.CardDecisions.WithLabelValues(string(result.Decision), string(result.Relationship)).Inc()
	metrics.CardFinalScore.Observe(result.FinalScore)
	for _, hs := range result.HardStops {
		metrics.CardHardStops.WithLabelValues(string(hs.Module)).Inc()
	}
	h.obs.RecordDecision(ctx, string(result.Decision), string(result.Relationship), result.FinalScore)
}

// decisionReference is stable for identical inputs.
func decisionReference(applicationID string, req *scoring.Request) (string, error) {
	canonical, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	name := append([]byte(applicationID+"|"), canonical...)
	return uuid.NewSHA1(decisionNamespace, name).String(), nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) {
	bpmnErr := h.errHandler.HandleJobError(ctx, client, job, err)
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
