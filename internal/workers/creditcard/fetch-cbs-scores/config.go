// internal/workers/creditcard/fetch-cbs-scores/config.go
package fetchcbsscores

import (
	"time"

	"card-decision-workers/internal/common/config"
)

type Config struct {
	Timeout            time.Duration
	Index              string
	UseFallbackOnError bool
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:            10 * time.Second,
		Index:              cfg.Database.Elasticsearch.CBSIndex,
		UseFallbackOnError: cfg.Scoring.UseFallbackOnError,
	}
}
