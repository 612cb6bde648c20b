// internal/workers/creditcard/fetch-applicant-record/models.go
package fetchapplicantrecord

import "card-decision-workers/internal/scoring"

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	Applicant         *scoring.ApplicantRecord  `json:"applicant"`
	Obligations       *scoring.ObligationsInput `json:"obligations"`
	RecordSource      string                    `json:"recordSource"`
	ObligationsSource string                    `json:"obligationsSource"`
}

const (
	SourceCache    = "cache"
	SourceDatabase = "database"
	SourceFallback = "fallback"

	ObligationsMissing     = "missing"
	ObligationsUnavailable = "unavailable"
)

// FallbackApplicant is served when the record cannot be read: a salaried
// NTB applicant aged 30 with no income and no list hits.
func FallbackApplicant(applicationID string) *scoring.ApplicantRecord {
	return &scoring.ApplicantRecord{
		ApplicationID:      applicationID,
		Age:                30,
		EmploymentType:     "permanent",
		IsRetired:          false,
		IsExistingCustomer: false,
		SalaryTransferFlag: "non_salary_transfer",
		Blacklisted:        false,
		CreditCard30kList:  false,
		NegativeList:       false,
		EAMVUSubmitted:     false,
	}
}
