// internal/workers/creditcard/notify-risk-review/handler.go
package notifyriskreview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	awsclient "card-decision-workers/internal/common/aws"
	apperrors "card-decision-workers/internal/common/errors"
	"card-decision-workers/internal/common/logger"
	"card-decision-workers/internal/common/metrics"
	"card-decision-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-risk-review"
)

var notificationNamespace = uuid.MustParse("b3d0c7a2-1e4f-4f6a-8c55-2a9e7d41f0c3")

var emailBody = template.Must(template.New("rru").Parse(`Application {{.ApplicationID}} requires risk review.

Reason:          {{.Reason}}
Decision:        {{.Result.Decision}} ({{.Result.RiskLevel}} risk)
Final score:     {{printf "%.2f" .Result.FinalScore}}
Relationship:    {{.Result.Relationship}}
Action required: {{.Result.ActionRequired}}
{{- with .Result.DBR}}
DBR:             {{printf "%.2f" .DBRPercent}}% against {{printf "%.0f" .Threshold}}% ({{.Status}})
{{- end}}
{{- range .Result.HardStops}}
Hard stop:       {{.Module}}: {{.Reason}}
{{- end}}
{{- range .Result.Warnings}}
Warning:         {{.Module}}: {{.Message}}
{{- end}}

Decision reference: {{.DecisionReference}}
`))

type Handler struct {
	config     *Config
	ses        awsclient.SESService
	sns        awsclient.SNSService
	now        func() time.Time
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, ses awsclient.SESService, sns awsclient.SNSService, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		ses:        ses,
		sns:        sns,
		now:        time.Now,
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
	if input == nil || strings.TrimSpace(input.ApplicationID) == "" || input.DecisionResult == nil {
		return nil, apperrors.NewPayloadValidationError("applicationId and decisionResult are required")
	}

	reason := ReferralReason(input.DecisionResult)
	if reason == "" {
		return &Output{Status: StatusSkipped, Channels: []string{}}, nil
	}
	if !h.config.Enabled {
		h.logger.Info("risk review referral suppressed", map[string]interface{}{
			"applicationId": input.ApplicationID,
			"reason":        reason,
		})
		return &Output{Status: StatusDisabled, Reason: reason, Channels: []string{}}, nil
	}

	notificationID := uuid.NewSHA1(notificationNamespace,
		[]byte(input.ApplicationID+"|"+input.DecisionReference)).String()
	subject := fmt.Sprintf("Risk review: application %s (%s)", input.ApplicationID, input.DecisionResult.Decision)

	var body bytes.Buffer
	if err := emailBody.Execute(&body, map[string]interface{}{
		"ApplicationID":     input.ApplicationID,
		"DecisionReference": input.DecisionReference,
		"Reason":            reason,
		"Result":            input.DecisionResult,
	}); err != nil {
		return nil, apperrors.NewRiskReviewNotifyFailedError(ChannelEmail, err)
	}

	channels := []string{}

	if h.ses != nil && h.config.ToEmail != "" {
		_, err := h.ses.SendEmail(ctx, awsclient.TextEmail(h.config.FromEmail, h.config.ToEmail, subject, body.String()))
		if err != nil {
			metrics.RiskReviewNotifications.WithLabelValues(ChannelEmail, "failed").Inc()
			return nil, apperrors.NewRiskReviewNotifyFailedError(ChannelEmail, err).
				WithMetadata("applicationId", input.ApplicationID)
		}
		metrics.RiskReviewNotifications.WithLabelValues(ChannelEmail, "sent").Inc()
		channels = append(channels, ChannelEmail)
	}

	if h.sns != nil && h.config.TopicARN != "" {
		msg, err := json.Marshal(map[string]interface{}{
			"notificationId":    notificationID,
			"applicationId":     input.ApplicationID,
			"decisionReference": input.DecisionReference,
			"reason":            reason,
			"decision":          input.DecisionResult.Decision,
			"riskLevel":         input.DecisionResult.RiskLevel,
			"finalScore":        input.DecisionResult.FinalScore,
		})
		if err != nil {
			return nil, apperrors.NewRiskReviewNotifyFailedError(ChannelSNS, err)
		}
		_, err = h.sns.Publish(ctx, awsclient.TopicMessage(h.config.TopicARN, subject, string(msg), map[string]string{
			"decision":  string(input.DecisionResult.Decision),
			"riskLevel": string(input.DecisionResult.RiskLevel),
		}))
		if err != nil {
			metrics.RiskReviewNotifications.WithLabelValues(ChannelSNS, "failed").Inc()
			if len(channels) == 0 {
				return nil, apperrors.NewRiskReviewNotifyFailedError(ChannelSNS, err).
					WithMetadata("applicationId", input.ApplicationID)
			}
			// A retry would resend the email, so report what got through instead.
			h.logger.Warn("risk review topic publish failed after email delivery", map[string]interface{}{
				"applicationId":  input.ApplicationID,
				"notificationId": notificationID,
				"error":          err.Error(),
			})
			return &Output{
				NotificationID: notificationID,
				Status:         StatusPartial,
				Reason:         reason,
				Channels:       channels,
				FailedChannels: []string{ChannelSNS},
				SentAt:         h.now().UTC().Format(time.RFC3339),
			}, nil
		}
		metrics.RiskReviewNotifications.WithLabelValues(ChannelSNS, "sent").Inc()
		channels = append(channels, ChannelSNS)
	}

	if len(channels) == 0 {
		h.logger.Warn("risk review enabled but no channel configured", map[string]interface{}{
			"applicationId": input.ApplicationID,
		})
		return &Output{Status: StatusSkipped, Reason: reason, Channels: channels}, nil
	}

	h.logger.Info("risk review unit notified", map[string]interface{}{
		"applicationId":  input.ApplicationID,
		"notificationId": notificationID,
		"channels":       channels,
		"reason":         reason,
	})

	return &Output{
		NotificationID: notificationID,
		Status:         StatusSent,
		Reason:         reason,
		Channels:       channels,
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}, nil
}

// ReferralReason explains why a decision goes to the risk review unit, or
// returns "" when it does not.
func ReferralReason(res *scoring.DecisionResult) string {
	if res == nil {
		return ""
	}
	if res.DBR != nil && res.DBR.Status == scoring.DBRStatusConditionalFail {
		return string(scoring.DBRStatusConditionalFail)
	}
	for _, w := range res.Warnings {
		if w.Code == scoring.FlagRRUReferral {
			return string(scoring.DBRStatusConditionalFail)
		}
	}
	if res.Decision == scoring.DecisionConditional {
		return ReasonConditionalDecision
	}
	return ""
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	bpmnErr := h.errHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
