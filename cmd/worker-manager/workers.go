// cmd/worker-manager/workers.go
package main

import (
	"context"
	"fmt"

	awsclient "card-decision-workers/internal/common/aws"
	"card-decision-workers/internal/common/camunda"
	"card-decision-workers/internal/common/config"
	"card-decision-workers/internal/common/database"
	"card-decision-workers/internal/common/logger"
	"card-decision-workers/internal/common/observability"
	"card-decision-workers/internal/scoring"
	evaluate "card-decision-workers/internal/workers/creditcard/evaluate-application"
	fetchapplicant "card-decision-workers/internal/workers/creditcard/fetch-applicant-record"
	fetchcbs "card-decision-workers/internal/workers/creditcard/fetch-cbs-scores"
	notify "card-decision-workers/internal/workers/creditcard/notify-risk-review"
	"card-decision-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

type deps struct {
	cfg      *config.Config
	zeebe    *camunda.Client
	pg       *database.PostgresClient
	redis    *database.RedisClient
	es       *database.ElasticsearchClient
	obs      *observability.Observability
	registry *registry.ActivityRegistry
	log      logger.Logger
}

// taskTypes lists the served task types in process order.
var taskTypes = []string{fetchapplicant.TaskType, fetchcbs.TaskType, evaluate.TaskType, notify.TaskType}

// enabledTaskTypes filters taskTypes through the workers config section.
func enabledTaskTypes(cfg *config.Config, log logger.Logger) []string {
	var enabled []string
	for _, taskType := range taskTypes {
		if !config.IsWorkerEnabled(cfg, taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
			continue
		}
		enabled = append(enabled, taskType)
	}
	return enabled
}

// registerWorkers builds a handler and opens a job worker for every enabled
// task type. Disabled task types get no handler, so their clients are never
// configured.
func registerWorkers(ctx context.Context, d deps) ([]worker.JobWorker, error) {
	var workers []worker.JobWorker
	for _, taskType := range enabledTaskTypes(d.cfg, d.log) {
		h, err := buildHandler(ctx, d, taskType)
		if err != nil {
			for _, jw := range workers {
				jw.Close()
			}
			return nil, fmt.Errorf("%s: %w", taskType, err)
		}

		wcfg := config.GetWorkerConfig(d.cfg, taskType)
		if err := applyActivity(d.registry, taskType, &wcfg); err != nil {
			d.log.Warn("activity registry entry not applied", map[string]interface{}{"taskType": taskType, "error": err.Error()})
		}
		if jw := camunda.StartWorker(d.zeebe, taskType, wcfg, h, d.log); jw != nil {
			workers = append(workers, jw)
		}
	}

	d.log.Info("workers registered", map[string]interface{}{"count": len(workers)})
	return workers, nil
}

func buildHandler(ctx context.Context, d deps, taskType string) (camunda.JobHandler, error) {
	switch taskType {
	case fetchapplicant.TaskType:
		return fetchapplicant.NewHandler(fetchapplicant.LoadConfig(d.cfg), d.pg.DB, d.redis.Client, d.log).Handle, nil
	case fetchcbs.TaskType:
		return fetchcbs.NewHandler(fetchcbs.LoadConfig(d.cfg), d.es.Client, d.log).Handle, nil
	case evaluate.TaskType:
		evalCfg, err := evaluate.LoadConfig(d.cfg.Scoring)
		if err != nil {
			return nil, err
		}
		validator, err := d.registry.InputValidator(evaluate.TaskType)
		if err != nil {
			return nil, fmt.Errorf("input schema: %w", err)
		}
		return evaluate.NewHandler(evalCfg, scoring.NewEngine(), validator, d.obs, d.log).Handle, nil
	case notify.TaskType:
		h, err := newNotifyHandler(ctx, d)
		if err != nil {
			return nil, err
		}
		return h.Handle, nil
	}
	return nil, fmt.Errorf("no handler for task type %s", taskType)
}

// applyActivity fills an unset job timeout from the registry entry and
// reports entries that are missing or not marked implemented.
func applyActivity(reg *registry.ActivityRegistry, taskType string, wcfg *config.WorkerConfig) error {
	a, err := reg.FindByTaskType(taskType)
	if err != nil {
		return err
	}
	if wcfg.Timeout <= 0 {
		d, err := a.TimeoutDuration()
		if err != nil {
			return err
		}
		wcfg.Timeout = int(d.Milliseconds())
	}
	if !a.Implemented() {
		return fmt.Errorf("activity %s is %s", a.ID, a.ImplementationStatus)
	}
	return nil
}

func newNotifyHandler(ctx context.Context, d deps) (*notify.Handler, error) {
	rr := d.cfg.RiskReview
	if !rr.Enabled {
		return notify.NewHandler(notify.LoadConfig(rr), nil, nil, d.log), nil
	}
	awsCfg, err := awsclient.LoadConfig(ctx, rr.Region)
	if err != nil {
		return nil, err
	}
	return notify.NewHandler(notify.LoadConfig(rr), awsclient.NewSESClient(awsCfg), awsclient.NewSNSClient(awsCfg), d.log), nil
}
