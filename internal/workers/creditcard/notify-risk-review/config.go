// internal/workers/creditcard/notify-risk-review/config.go
package notifyriskreview

import (
	"time"

	"card-decision-workers/internal/common/config"
)

type Config struct {
	Timeout   time.Duration
	Enabled   bool
	FromEmail string
	ToEmail   string
	TopicARN  string
}

func LoadConfig(cfg config.RiskReviewConfig) *Config {
	return &Config{
		Timeout:   15 * time.Second,
		Enabled:   cfg.Enabled,
		FromEmail: cfg.FromEmail,
		ToEmail:   cfg.ToEmail,
		TopicARN:  cfg.TopicARN,
	}
}
