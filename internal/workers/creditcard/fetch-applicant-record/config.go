// internal/workers/creditcard/fetch-applicant-record/config.go
package fetchapplicantrecord

import (
	"time"

	"card-decision-workers/internal/common/config"
)

type Config struct {
	Timeout            time.Duration
	CacheTTL           time.Duration
	UseFallbackOnError bool
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:            10 * time.Second,
		CacheTTL:           cfg.Cache.ApplicantTTLDuration(),
		UseFallbackOnError: cfg.Scoring.UseFallbackOnError,
	}
}
