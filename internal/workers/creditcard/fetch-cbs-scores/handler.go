// internal/workers/creditcard/fetch-cbs-scores/handler.go
package fetchcbsscores

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	apperrors "card-decision-workers/internal/common/errors"
	"card-decision-workers/internal/common/logger"
	"card-decision-workers/internal/common/metrics"
	"card-decision-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	TaskType = "fetch-cbs-scores"
)

var (
	ErrCBSNotFound = errors.New("CBS_NOT_FOUND")
)

type Handler struct {
	config     *Config
	client     *elasticsearch.Client
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		client:     client,
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewParseError(err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
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
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || strings.TrimSpace(input.ApplicationID) == "" {
		return nil, apperrors.NewPayloadValidationError("applicationId is required")
	}
	id := strings.TrimSpace(input.ApplicationID)

	doc, source, err := h.lookup(ctx, id, strings.TrimSpace(input.CNIC))
	switch {
	case errors.Is(err, ErrCBSNotFound):
		h.logger.Info("no CBS summary on file", map[string]interface{}{"applicationId": id})
		metrics.DataFallbacks.WithLabelValues("cbs").Inc()
		return fallbackOutput(), nil
	case err != nil:
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewCBSLookupTimeoutError(id)
		}
		if !h.config.UseFallbackOnError {
			return nil, apperrors.NewCBSLookupFailedError(id, err)
		}
		h.logger.Warn("CBS lookup failed, serving fallback scores", map[string]interface{}{
			"applicationId": id,
			"error":         err,
		})
		metrics.DataFallbacks.WithLabelValues("cbs").Inc()
		return fallbackOutput(), nil
	}

	return &Output{
		CBSSummary: scoring.CBSSummary{
			ApplicationScore:     clampScore(doc.ApplicationScore),
			BehavioralScore:      clampScore(doc.BehavioralScore),
			ApplicationBreakdown: doc.ApplicationBreakdown,
			BehavioralBreakdown:  doc.BehavioralBreakdown,
		},
		ScoreSource: source,
		ReportedAt:  doc.ReportedAt,
	}, nil
}

// lookup tries the document keyed by application id first, then the most
// recent summary for the CNIC.
func (h *Handler) lookup(ctx context.Context, applicationID, cnic string) (*cbsDocument, string, error) {
	if h.client == nil {
		return nil, "", errors.New("elasticsearch not configured")
	}

	doc, err := h.getByApplication(ctx, applicationID)
	if err == nil {
		return doc, ScoreSourceApplication, nil
	}
	if !errors.Is(err, ErrCBSNotFound) || cnic == "" {
		return nil, "", err
	}

	doc, err = h.searchByCNIC(ctx, cnic)
	if err != nil {
		return nil, "", err
	}
	return doc, ScoreSourceCNIC, nil
}

func (h *Handler) getByApplication(ctx context.Context, id string) (*cbsDocument, error) {
	res, err := h.client.Get(h.config.Index, id, h.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get cbs document: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrCBSNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("get cbs document: %s", res.Status())
	}

	var body getResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode cbs document: %w", err)
	}
	if !body.Found {
		return nil, ErrCBSNotFound
	}
	return &body.Source, nil
}

func (h *Handler) searchByCNIC(ctx context.Context, cnic string) (*cbsDocument, error) {
	query := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"term": map[string]interface{}{"cnic": cnic},
		},
		"sort": []interface{}{
			map[string]interface{}{"reported_at": map[string]interface{}{"order": "desc", "unmapped_type": "date"}},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("encode cbs query: %w", err)
	}

	res, err := h.client.Search(
		h.client.Search.WithContext(ctx),
		h.client.Search.WithIndex(h.config.Index),
		h.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search cbs summaries: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrCBSNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("search cbs summaries: %s", responseError(res))
	}

	var body searchResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode cbs search: %w", err)
	}
	if len(body.Hits.Hits) == 0 {
		return nil, ErrCBSNotFound
	}
	return &body.Hits.Hits[0].Source, nil
}

func responseError(res *esapi.Response) string {
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&e); err != nil || e.Error.Type == "" {
		return res.Status()
	}
	return e.Error.Type + ": " + e.Error.Reason
}

func fallbackOutput() *Output {
	return &Output{
		CBSSummary: scoring.CBSSummary{
			ApplicationScore:     FallbackScore,
			BehavioralScore:      FallbackScore,
			ApplicationBreakdown: map[string]interface{}{},
			BehavioralBreakdown:  map[string]interface{}{},
		},
		ScoreSource: ScoreSourceFallback,
	}
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	bpmnErr := h.errHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
