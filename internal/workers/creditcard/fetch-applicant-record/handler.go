// internal/workers/creditcard/fetch-applicant-record/handler.go
package fetchapplicantrecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "card-decision-workers/internal/common/errors"
	"card-decision-workers/internal/common/logger"
	"card-decision-workers/internal/common/metrics"
	"card-decision-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "fetch-applicant-record"

	cacheKeyPrefix = "applicant:record:"
)

var (
	ErrApplicantNotFound = errors.New("APPLICANT_NOT_FOUND")
)

const applicantQuery = `SELECT application_id, full_name, cnic, date_of_birth, age, employment_type, occupation,
       is_retired, net_monthly_income, gross_monthly_income, monthly_deductions, employment_tenure_years,
       is_existing_customer, salary_transfer_flag, current_address, office_address, cluster,
       blacklisted, credit_card_30k_list, negative_list, eamvu_submitted
FROM applicants WHERE application_id = $1`

const obligationsQuery = `SELECT existing_emis, credit_card_limit, outstanding_balance, proposed_loan_amount,
       proposed_tenure_months, annual_interest_rate
FROM applicant_obligations WHERE application_id = $1`

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redis *redis.Client, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		redis:      redis,
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

	if cached := h.readCache(ctx, id); cached != nil {
		cached.RecordSource = SourceCache
		return cached, nil
	}

	applicant, err := h.queryApplicant(ctx, id)
	if err != nil {
		if !h.config.UseFallbackOnError {
			return nil, apperrors.NewApplicantFetchFailedError(id, err)
		}
		h.logger.Warn("serving fallback applicant", map[string]interface{}{
			"applicationId": id,
			"error":         err,
		})
		metrics.DataFallbacks.WithLabelValues("applicant").Inc()
		return &Output{
			Applicant:         FallbackApplicant(id),
			RecordSource:      SourceFallback,
			ObligationsSource: ObligationsUnavailable,
		}, nil
	}

	out := &Output{
		Applicant:         applicant,
		RecordSource:      SourceDatabase,
		ObligationsSource: SourceDatabase,
	}

	obligations, err := h.queryObligations(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		out.ObligationsSource = ObligationsMissing
	case err != nil:
		if !h.config.UseFallbackOnError {
			return nil, apperrors.NewObligationsFetchFailedError(id, err)
		}
		h.logger.Warn("obligations unavailable", map[string]interface{}{
			"applicationId": id,
			"error":         err,
		})
		metrics.DataFallbacks.WithLabelValues("obligations").Inc()
		out.ObligationsSource = ObligationsUnavailable
		// A partial read is not cached.
		return out, nil
	default:
		out.Obligations = obligations
	}

	h.writeCache(ctx, id, out)

	h.logger.Info("applicant record loaded", map[string]interface{}{
		"applicationId":     id,
		"obligationsSource": out.ObligationsSource,
	})
	return out, nil
}

func (h *Handler) readCache(ctx context.Context, id string) *Output {
	if h.redis == nil {
		return nil
	}
	val, err := h.redis.Get(ctx, cacheKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("applicant cache read failed", map[string]interface{}{
			"applicationId": id,
			"error":         apperrors.NewCacheUnavailableError(err),
		})
		return nil
	}

	var out Output
	if err := json.Unmarshal([]byte(val), &out); err != nil || out.Applicant == nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &out
}

func (h *Handler) writeCache(ctx context.Context, id string, out *Output) {
	if h.redis == nil || h.config.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, cacheKeyPrefix+id, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("applicant cache write failed", map[string]interface{}{
			"applicationId": id,
			"error":         err,
		})
	}
}

func (h *Handler) queryApplicant(ctx context.Context, id string) (*scoring.ApplicantRecord, error) {
	if h.db == nil {
		return nil, errors.New("database not configured")
	}

	var (
		a                         scoring.ApplicantRecord
		dob                       sql.NullTime
		isRetired, existing       bool
		currentAddr, officeAddr   []byte
		blacklisted, cc30k        string
		negativeList, eamvuStatus string
	)
	err := h.db.QueryRowContext(ctx, applicantQuery, id).Scan(
		&a.ApplicationID, &a.FullName, &a.CNIC, &dob, &a.Age, &a.EmploymentType, &a.Occupation,
		&isRetired, &a.NetMonthlyIncome, &a.GrossMonthlyIncome, &a.MonthlyDeductions, &a.EmploymentTenureYears,
		&existing, &a.SalaryTransferFlag, &currentAddr, &officeAddr, &a.Cluster,
		&blacklisted, &cc30k, &negativeList, &eamvuStatus,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrApplicantNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query applicant: %w", err)
	}

	if dob.Valid {
		a.DateOfBirth = dob.Time.Format("2006-01-02")
	}
	a.IsRetired = isRetired
	a.IsExistingCustomer = existing
	// List flags are stored as the upstream sent them and parsed at scoring time.
	a.Blacklisted = blacklisted
	a.CreditCard30kList = cc30k
	a.NegativeList = negativeList
	a.EAMVUSubmitted = eamvuStatus

	if err := decodeAddress(currentAddr, &a.CurrentAddress); err != nil {
		return nil, fmt.Errorf("decode current_address: %w", err)
	}
	if err := decodeAddress(officeAddr, &a.OfficeAddress); err != nil {
		return nil, fmt.Errorf("decode office_address: %w", err)
	}
	return &a, nil
}

func (h *Handler) queryObligations(ctx context.Context, id string) (*scoring.ObligationsInput, error) {
	var o scoring.ObligationsInput
	err := h.db.QueryRowContext(ctx, obligationsQuery, id).Scan(
		&o.ExistingEMIs, &o.CreditCardLimit, &o.OutstandingBalance, &o.ProposedLoanAmount,
		&o.ProposedTenureMonths, &o.AnnualInterestRate,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func decodeAddress(raw []byte, dst *scoring.Address) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	bpmnErr := h.errHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
