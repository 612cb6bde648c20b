// internal/workers/creditcard/fetch-cbs-scores/models.go
package fetchcbsscores

import "card-decision-workers/internal/scoring"

type Input struct {
	ApplicationID string `json:"applicationId"`
	CNIC          string `json:"cnic,omitempty"`
}

type Output struct {
	CBSSummary  scoring.CBSSummary `json:"cbsSummary"`
	ScoreSource string             `json:"scoreSource"`
	ReportedAt  string             `json:"reportedAt,omitempty"`
}

const (
	ScoreSourceApplication = "application"
	ScoreSourceCNIC        = "cnic"
	ScoreSourceFallback    = "fallback"

	// FallbackScore is used for both bureau scores when none are on file.
	FallbackScore = 50.0
)

// cbsDocument is the stored shape of one bureau summary.
type cbsDocument struct {
	ApplicationID        string                 `json:"application_id"`
	CNIC                 string                 `json:"cnic"`
	ApplicationScore     float64                `json:"application_score"`
	BehavioralScore      float64                `json:"behavioral_score"`
	ApplicationBreakdown map[string]interface{} `json:"application_breakdown,omitempty"`
	BehavioralBreakdown  map[string]interface{} `json:"behavioral_breakdown,omitempty"`
	ReportedAt           string                 `json:"reported_at,omitempty"`
}

type getResponse struct {
	Found  bool        `json:"found"`
	Source cbsDocument `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source cbsDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
