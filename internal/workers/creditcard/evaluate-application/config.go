// internal/workers/creditcard/evaluate-application/config.go
package evaluateapplication

import (
	"fmt"
	"time"

	"card-decision-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	// Location interprets date-only evaluation dates.
	Location *time.Location
}

func LoadConfig(scoring config.ScoringConfig) (*Config, error) {
	loc := time.UTC
	if scoring.Timezone != "" {
		l, err := time.LoadLocation(scoring.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", scoring.Timezone, err)
		}
		loc = l
	}
	return &Config{
		Timeout:  10 * time.Second,
		Location: loc,
	}, nil
}
