package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncomeEvaluator_Evaluate(t *testing.T) {
	tests := []struct {
		name      string
		applicant ApplicantRecord
		wantScore float64
		wantNote  string
	}{
		{
			name: "permanent salary transfer ETB meets threshold",
			applicant: ApplicantRecord{
				EmploymentType:        "permanent",
				SalaryTransferFlag:    "salary_transfer",
				IsExistingCustomer:    true,
				NetMonthlyIncome:      42000,
				GrossMonthlyIncome:    50000,
				EmploymentTenureYears: 4,
			},
			wantScore: 97,
		},
		{
			name: "permanent salary transfer NTB below threshold",
			applicant: ApplicantRecord{
				EmploymentType:        "employed",
				SalaryTransferFlag:    "salary_transfer",
				NetMonthlyIncome:      42000,
				GrossMonthlyIncome:    50000,
				EmploymentTenureYears: 4,
			},
			wantScore: 37,
		},
		{
			name: "permanent non salary transfer NTB at threshold",
			applicant: ApplicantRecord{
				EmploymentType:        "Salaried",
				SalaryTransferFlag:    "non_salary_transfer",
				NetMonthlyIncome:      50000,
				GrossMonthlyIncome:    80000,
				EmploymentTenureYears: 1,
			},
			wantScore: 88,
		},
		{
			name: "contractual non salary transfer ETB below threshold",
			applicant: ApplicantRecord{
				EmploymentType:        "contractual",
				IsExistingCustomer:    "Y",
				NetMonthlyIncome:      64000,
				GrossMonthlyIncome:    100000,
				EmploymentTenureYears: 0.5,
			},
			wantScore: 20,
		},
		{
			name: "contractual salary transfer NTB meets threshold",
			applicant: ApplicantRecord{
				EmploymentType:        "contract",
				SalaryTransferFlag:    "Salary Transfer",
				NetMonthlyIncome:      65000,
				GrossMonthlyIncome:    70000,
				EmploymentTenureYears: 3,
			},
			wantScore: 97,
		},
		{
			name: "business NTB below threshold",
			applicant: ApplicantRecord{
				EmploymentType:        "business",
				NetMonthlyIncome:      110000,
				GrossMonthlyIncome:    200000,
				EmploymentTenureYears: 10,
			},
			wantScore: 25,
		},
		{
			name: "self-employed ETB meets threshold",
			applicant: ApplicantRecord{
				EmploymentType:        "self-employed",
				IsExistingCustomer:    true,
				NetMonthlyIncome:      100000,
				GrossMonthlyIncome:    110000,
				EmploymentTenureYears: 5,
			},
			wantScore: 100,
		},
		{
			name: "probation skips threshold",
			applicant: ApplicantRecord{
				EmploymentType:        "probation",
				NetMonthlyIncome:      500000,
				GrossMonthlyIncome:    600000,
				EmploymentTenureYears: 0,
			},
			wantScore: 25,
			wantNote:  "probation: income threshold skipped, assessed through DBR",
		},
		{
			name: "unknown employment type",
			applicant: ApplicantRecord{
				EmploymentType:        "freelancer",
				NetMonthlyIncome:      500000,
				GrossMonthlyIncome:    500000,
				EmploymentTenureYears: 2,
			},
			wantScore: 33,
		},
		{
			name: "stability not measurable",
			applicant: ApplicantRecord{
				EmploymentType:     "permanent",
				SalaryTransferFlag: "salary_transfer",
				IsExistingCustomer: true,
				NetMonthlyIncome:   45000,
			},
			wantScore: 60,
			wantNote:  "income stability not measurable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IncomeEvaluator{}.Evaluate(createTestRequest(tt.applicant))

			assert.Equal(t, tt.wantScore, got.RawScore)
			assert.Nil(t, got.HardStop)
			if tt.wantNote != "" {
				assert.Contains(t, got.Notes, tt.wantNote)
			}
		})
	}
}

func TestStabilityComponent(t *testing.T) {
	tests := []struct {
		net, gross float64
		want       float64
	}{
		{84, 100, 25},
		{80, 100, 25},
		{60, 100, 20},
		{59, 100, 10},
		{0, 100, 0},
		{100, 0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stabilityComponent(newScore(ModuleIncome), tt.net, tt.gross), "net=%v gross=%v", tt.net, tt.gross)
	}
}

func TestClassifyEmployment(t *testing.T) {
	tests := map[string]employmentCategory{
		"permanent":          employmentPermanent,
		"Permanent Employee": employmentPermanent,
		"employed":           employmentPermanent,
		"contractual":        employmentContractual,
		"self-employed":      employmentSelf,
		"Self Employed":      employmentSelf,
		"BUSINESS":           employmentSelf,
		"probation":          employmentProbation,
		"":                   employmentUnknown,
		"student":            employmentUnknown,
	}

	for raw, want := range tests {
		assert.Equal(t, want, classifyEmployment(raw), raw)
	}
}
