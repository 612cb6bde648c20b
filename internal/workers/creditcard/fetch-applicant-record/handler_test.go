// internal/workers/creditcard/fetch-applicant-record/handler_test.go
package fetchapplicantrecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"card-decision-workers/internal/common/config"
	apperrors "card-decision-workers/internal/common/errors"
	"card-decision-workers/internal/common/logger"
	"card-decision-workers/internal/scoring"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var applicantColumns = []string{
	"application_id", "full_name", "cnic", "date_of_birth", "age", "employment_type", "occupation",
	"is_retired", "net_monthly_income", "gross_monthly_income", "monthly_deductions", "employment_tenure_years",
	"is_existing_customer", "salary_transfer_flag", "current_address", "office_address", "cluster",
	"blacklisted", "credit_card_30k_list", "negative_list", "eamvu_submitted",
}

var obligationColumns = []string{
	"existing_emis", "credit_card_limit", "outstanding_balance", "proposed_loan_amount",
	"proposed_tenure_months", "annual_interest_rate",
}

func createTestConfig(fallback bool) *Config {
	return &Config{
		Timeout:            5 * time.Second,
		CacheTTL:           5 * time.Minute,
		UseFallbackOnError: fallback,
	}
}

func applicantRow(id string) *sqlmock.Rows {
	return sqlmock.NewRows(applicantColumns).AddRow(
		id, "Ayesha Khan", "42101-1234567-1", time.Date(1990, 5, 10, 0, 0, 0, 0, time.UTC), 35, "permanent", "Software Engineer",
		false, 150000.0, 180000.0, 0.0, 6.0,
		true, "salary_transfer", []byte(`{"house":"House 14","district":"DHA Phase 6","city":"Karachi"}`), []byte(`{"city":"Karachi"}`), "FEDERAL",
		"false", "no", "0", "Y",
	)
}

func expectApplicant(mock sqlmock.Sqlmock, id string) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM applicants WHERE application_id = $1")).
		WithArgs(id).
		WillReturnRows(applicantRow(id))
}

func expectObligations(mock sqlmock.Sqlmock, id string) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM applicant_obligations WHERE application_id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(obligationColumns).AddRow(10000.0, 200000.0, 0.0, 0.0, 0, 0.0))
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute_DatabaseThenCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mr, rdb := newMiniRedis(t)

	expectApplicant(mock, "APP-1001")
	expectObligations(mock, "APP-1001")

	h := NewHandler(createTestConfig(true), db, rdb, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-1001"})
	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, out.RecordSource)
	assert.Equal(t, SourceDatabase, out.ObligationsSource)
	assert.Equal(t, "1990-05-10", out.Applicant.DateOfBirth)
	assert.Equal(t, "DHA Phase 6", out.Applicant.CurrentAddress.District)
	assert.Equal(t, scoring.RelationshipETB, out.Applicant.Relationship())
	require.NotNil(t, out.Obligations)
	assert.Equal(t, 200000.0, out.Obligations.CreditCardLimit)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.True(t, mr.Exists("applicant:record:APP-1001"))
	assert.Equal(t, 5*time.Minute, mr.TTL("applicant:record:APP-1001"))

	// Second read is served from Redis without touching Postgres.
	cached, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-1001"})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, cached.RecordSource)
	assert.Equal(t, "Ayesha Khan", cached.Applicant.FullName)
	assert.True(t, scoring.ParseBool(cached.Applicant.EAMVUSubmitted))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MissingObligations(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	_, rdb := newMiniRedis(t)

	expectApplicant(mock, "APP-2")
	mock.ExpectQuery(regexp.QuoteMeta("FROM applicant_obligations")).
		WithArgs("APP-2").
		WillReturnError(sql.ErrNoRows)

	h := NewHandler(createTestConfig(false), db, rdb, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-2"})

	require.NoError(t, err)
	assert.Nil(t, out.Obligations)
	assert.Equal(t, ObligationsMissing, out.ObligationsSource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_SourceFailures(t *testing.T) {
	tests := []struct {
		name              string
		fallback          bool
		setup             func(mock sqlmock.Sqlmock)
		wantCode          apperrors.ErrorCode
		wantRecordSource  string
		wantObligationSrc string
	}{
		{
			name:     "applicant query fails with fallback",
			fallback: true,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM applicants")).WillReturnError(errors.New("connection refused"))
			},
			wantRecordSource:  SourceFallback,
			wantObligationSrc: ObligationsUnavailable,
		},
		{
			name:     "applicant missing with fallback",
			fallback: true,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM applicants")).WillReturnError(sql.ErrNoRows)
			},
			wantRecordSource:  SourceFallback,
			wantObligationSrc: ObligationsUnavailable,
		},
		{
			name:     "applicant query fails without fallback",
			fallback: false,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM applicants")).WillReturnError(errors.New("connection refused"))
			},
			wantCode: apperrors.ErrCodeApplicantFetchFailed,
		},
		{
			name:     "obligations query fails with fallback",
			fallback: true,
			setup: func(mock sqlmock.Sqlmock) {
				expectApplicant(mock, "APP-3")
				mock.ExpectQuery(regexp.QuoteMeta("FROM applicant_obligations")).WillReturnError(errors.New("timeout"))
			},
			wantRecordSource:  SourceDatabase,
			wantObligationSrc: ObligationsUnavailable,
		},
		{
			name:     "obligations query fails without fallback",
			fallback: false,
			setup: func(mock sqlmock.Sqlmock) {
				expectApplicant(mock, "APP-3")
				mock.ExpectQuery(regexp.QuoteMeta("FROM applicant_obligations")).WillReturnError(errors.New("timeout"))
			},
			wantCode: apperrors.ErrCodeObligationsFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			mr, rdb := newMiniRedis(t)
			tt.setup(mock)

			h := NewHandler(createTestConfig(tt.fallback), db, rdb, logger.NewTestLogger(t))
			out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-3"})

			if tt.wantCode != "" {
				require.Error(t, err)
				stdErr, ok := apperrors.AsStandardError(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantCode, stdErr.Code)
				assert.True(t, stdErr.Retryable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRecordSource, out.RecordSource)
			assert.Equal(t, tt.wantObligationSrc, out.ObligationsSource)
			assert.Nil(t, out.Obligations)
			assert.False(t, mr.Exists("applicant:record:APP-3"), "degraded reads must not be cached")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_FallbackApplicantScoresNeutral(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectQuery(regexp.QuoteMeta("FROM applicants")).WillReturnError(errors.New("down"))

	h := NewHandler(createTestConfig(true), db, nil, logger.NewNoOpLogger())
	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-9"})
	require.NoError(t, err)

	a := out.Applicant
	assert.Equal(t, "APP-9", a.ApplicationID)
	assert.Equal(t, 30, a.Age)
	assert.Equal(t, scoring.RelationshipNTB, a.Relationship())
	assert.False(t, scoring.ParseBool(a.Blacklisted))
	assert.Zero(t, a.NetMonthlyIncome)
}

func TestHandler_Execute_CacheErrorFallsThroughToDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rdb, redisMock := redismock.NewClientMock()
	redisMock.ExpectGet("applicant:record:APP-4").SetErr(errors.New("redis: connection pool timeout"))

	expectApplicant(mock, "APP-4")
	expectObligations(mock, "APP-4")

	cfg := createTestConfig(true)
	cfg.CacheTTL = 0 // caching disabled; only the read is exercised
	h := NewHandler(cfg, db, rdb, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-4"})

	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, out.RecordSource)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_CorruptCacheEntryIgnored(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mr, rdb := newMiniRedis(t)
	require.NoError(t, mr.Set("applicant:record:APP-5", "{not json"))

	expectApplicant(mock, "APP-5")
	expectObligations(mock, "APP-5")

	h := NewHandler(createTestConfig(true), db, rdb, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-5"})

	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, out.RecordSource)

	raw, err := mr.Get("applicant:record:APP-5")
	require.NoError(t, err)
	var cached Output
	assert.NoError(t, json.Unmarshal([]byte(raw), &cached))
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := NewHandler(createTestConfig(true), nil, nil, logger.NewNoOpLogger())

	for _, input := range []*Input{nil, {ApplicationID: ""}, {ApplicationID: "   "}} {
		_, err := h.Execute(context.Background(), input)
		stdErr, ok := apperrors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodePayloadValidationFailed, stdErr.Code)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(&config.Config{
		Cache:   config.CacheConfig{ApplicantTTL: 120},
		Scoring: config.ScoringConfig{UseFallbackOnError: true},
	})

	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.UseFallbackOnError)
}
