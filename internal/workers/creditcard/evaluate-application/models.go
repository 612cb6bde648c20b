// internal/workers/creditcard/evaluate-application/models.go
package evaluateapplication

import "card-decision-workers/internal/scoring"

type Input struct {
	ApplicationID  string                    `json:"applicationId"`
	Applicant      scoring.ApplicantRecord   `json:"applicant"`
	Obligations    *scoring.ObligationsInput `json:"obligations,omitempty"`
	DBR            *scoring.DBRCalculation   `json:"dbr,omitempty"`
	CBSSummary     scoring.CBSSummary        `json:"cbsSummary"`
	EvaluationDate string                    `json:"evaluationDate,omitempty"`
}

type Output struct {
	DecisionReference string                  `json:"decisionReference"`
	EvaluatedAt       string                  `json:"evaluatedAt"`
	DecisionResult    *scoring.DecisionResult `json:"decisionResult"`
}
