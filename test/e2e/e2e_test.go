// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"card-decision-workers/internal/common/camunda"
	"card-decision-workers/internal/common/config"
	"card-decision-workers/internal/common/database"
	"card-decision-workers/internal/common/logger"
	"card-decision-workers/internal/scoring"
	evaluate "card-decision-workers/internal/workers/creditcard/evaluate-application"
	fetchapplicant "card-decision-workers/internal/workers/creditcard/fetch-applicant-record"
	fetchcbs "card-decision-workers/internal/workers/creditcard/fetch-cbs-scores"
	notify "card-decision-workers/internal/workers/creditcard/notify-risk-review"
	"card-decision-workers/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const e2eApplicationID = "E2E-APP-0001"

// TestCreditCardDecisionFlow runs the four workers in process order against
// live Postgres, Redis, Elasticsearch and Zeebe. It is skipped unless
// E2E_ZEEBE_ADDRESS is set.
func TestCreditCardDecisionFlow(t *testing.T) {
	gateway := os.Getenv("E2E_ZEEBE_ADDRESS")
	if gateway == "" {
		t.Skip("E2E_ZEEBE_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Camunda.BrokerAddress = gateway
	log := logger.NewTestLogger(t)

	// --- connectivity ---
	zc, err := camunda.NewClient(ctx, cfg.Camunda)
	require.NoError(t, err, "zeebe topology request failed")
	defer zc.Close()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.Ping(ctx))
	require.NoError(t, pg.EnsureSchema(ctx))

	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx))

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	require.NoError(t, es.Ping(ctx))
	require.NoError(t, es.EnsureCBSIndex(ctx, cfg.Database.Elasticsearch.CBSIndex))

	seed(t, ctx, pg, rdb, es, cfg.Database.Elasticsearch.CBSIndex)

	// --- fetch-applicant-record ---
	applicant, err := fetchapplicant.NewHandler(fetchapplicant.LoadConfig(cfg), pg.DB, rdb.Client, log).
		Execute(ctx, &fetchapplicant.Input{ApplicationID: e2eApplicationID})
	require.NoError(t, err)
	assert.Equal(t, fetchapplicant.SourceDatabase, applicant.RecordSource)
	require.NotNil(t, applicant.Obligations)

	// --- fetch-cbs-scores ---
	cbs, err := fetchcbs.NewHandler(fetchcbs.LoadConfig(cfg), es.Client, log).
		Execute(ctx, &fetchcbs.Input{ApplicationID: e2eApplicationID})
	require.NoError(t, err)
	assert.Equal(t, fetchcbs.ScoreSourceApplication, cbs.ScoreSource)

	// --- evaluate-credit-card-application ---
	reg, err := registry.LoadRegistry(filepath.Join("..", "..", cfg.Registry.Path))
	require.NoError(t, err)
	validator, err := reg.InputValidator(evaluate.TaskType)
	require.NoError(t, err)
	evalCfg, err := evaluate.LoadConfig(cfg.Scoring)
	require.NoError(t, err)

	decision, err := evaluate.NewHandler(evalCfg, scoring.NewEngine(), validator, nil, log).
		Execute(ctx, &evaluate.Input{
			ApplicationID:  e2eApplicationID,
			Applicant:      *applicant.Applicant,
			Obligations:    applicant.Obligations,
			CBSSummary:     cbs.CBSSummary,
			EvaluationDate: "2026-01-15",
		})
	require.NoError(t, err)
	require.NotNil(t, decision.DecisionResult)
	assert.NotEmpty(t, decision.DecisionReference)
	assert.Empty(t, decision.DecisionResult.HardStops)
	assert.NotEqual(t, scoring.DecisionDeclined, decision.DecisionResult.Decision)
	assert.Equal(t, "2026-01-15T00:00:00+05:00", decision.EvaluatedAt)

	// --- notify-risk-review (disabled in the default configuration) ---
	out, err := notify.NewHandler(notify.LoadConfig(cfg.RiskReview), nil, nil, log).
		Execute(ctx, &notify.Input{
			ApplicationID:     e2eApplicationID,
			DecisionReference: decision.DecisionReference,
			DecisionResult:    decision.DecisionResult,
		})
	require.NoError(t, err)
	if notify.ReferralReason(decision.DecisionResult) == "" {
		assert.Equal(t, notify.StatusSkipped, out.Status)
	} else {
		assert.Equal(t, notify.StatusDisabled, out.Status)
	}
}

func seed(t *testing.T, ctx context.Context, pg *database.PostgresClient, rdb *database.RedisClient, es *database.ElasticsearchClient, index string) {
	t.Helper()

	_, err := pg.DB.ExecContext(ctx, `
INSERT INTO applicants (application_id, full_name, cnic, date_of_birth, employment_type, occupation,
    net_monthly_income, gross_monthly_income, employment_tenure_years, is_existing_customer,
    salary_transfer_flag, current_address, office_address, cluster, eamvu_submitted)
VALUES ($1, 'E2E Applicant', '42101-0000000-1', '1990-05-10', 'permanent', 'Engineer',
    150000, 180000, 6, TRUE, 'salary_transfer',
    '{"house":"House 14","district":"DHA Phase 6","city":"Karachi"}', '{"city":"Karachi"}', 'FEDERAL', 'Y')
ON CONFLICT (application_id) DO NOTHING`, e2eApplicationID)
	require.NoError(t, err)

	_, err = pg.DB.ExecContext(ctx, `
INSERT INTO applicant_obligations (application_id, existing_emis, credit_card_limit)
VALUES ($1, 10000, 200000)
ON CONFLICT (application_id) DO NOTHING`, e2eApplicationID)
	require.NoError(t, err)

	require.NoError(t, rdb.Client.Del(ctx, "applicant:record:"+e2eApplicationID).Err())

	res, err := es.Client.Index(index,
		strings.NewReader(`{"application_id":"`+e2eApplicationID+`","cnic":"42101-0000000-1","application_score":80,"behavioral_score":70,"reported_at":"2026-01-10T08:00:00Z"}`),
		es.Client.Index.WithDocumentID(e2eApplicationID),
		es.Client.Index.WithRefresh("true"),
		es.Client.Index.WithContext(ctx),
	)
	require.NoError(t, err)
	defer res.Body.Close()
	require.False(t, res.IsError(), res.String())
}
