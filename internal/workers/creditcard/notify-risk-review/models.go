// internal/workers/creditcard/notify-risk-review/models.go
package notifyriskreview

import "card-decision-workers/internal/scoring"

type Input struct {
	ApplicationID     string                  `json:"applicationId"`
	DecisionReference string                  `json:"decisionReference,omitempty"`
	DecisionResult    *scoring.DecisionResult `json:"decisionResult"`
}

type Output struct {
	NotificationID string   `json:"notificationId,omitempty"`
	Status         string   `json:"status"`
	Reason         string   `json:"reason,omitempty"`
	Channels       []string `json:"channels"`
	FailedChannels []string `json:"failedChannels,omitempty"`
	SentAt         string   `json:"sentAt,omitempty"`
}

const (
	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"

	ChannelEmail = "email"
	ChannelSNS   = "sns"

	ReasonConditionalDecision = "conditional decision requires manager review"
)
