// internal/scoring/types.go
package scoring

import "time"

// Module identifies one scored component of a decision.
type Module string

const (
	ModuleAge         Module = "age"
	ModuleCity        Module = "city"
	ModuleIncome      Module = "income"
	ModuleSPU         Module = "spu"
	ModuleEAMVU       Module = "eamvu"
	ModuleDBR         Module = "dbr"
	ModuleApplication Module = "application"
	ModuleBehavioral  Module = "behavioral"
)

// Modules lists every module in reporting order.
var Modules = []Module{
	ModuleAge,
	ModuleCity,
	ModuleIncome,
	ModuleSPU,
	ModuleEAMVU,
	ModuleDBR,
	ModuleApplication,
	ModuleBehavioral,
}

type Relationship string

const (
	RelationshipETB Relationship = "ETB"
	RelationshipNTB Relationship = "NTB"
)

type Decision string

const (
	DecisionApproved    Decision = "APPROVED"
	DecisionConditional Decision = "CONDITIONAL"
	DecisionDeclined    Decision = "DECLINED"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Flag codes raised by evaluators.
const (
	FlagAnnexureA     = "AnnexureA"
	FlagBlacklist     = "BLACKLIST"
	FlagCreditCard30k = "CREDITCARD_30K"
	FlagNegativeList  = "NEGATIVE_LIST"
	FlagDBRFail       = "DBR_FAIL"
	FlagRRUReferral   = "RRU_REFERRAL"
	FlagNoDBRData     = "NO_DBR_DATA"
)

type Address struct {
	House      string `json:"house,omitempty"`
	Street     string `json:"street,omitempty"`
	District   string `json:"district,omitempty"`
	Landmark   string `json:"landmark,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

func (a Address) lines() []string {
	return []string{a.House, a.Street, a.District, a.Landmark, a.City, a.PostalCode}
}

// ApplicantRecord is the per-decision applicant input. Boolean-like fields
// accept whatever the upstream system sends (bool, 0/1, "yes", "Y", ...).
type ApplicantRecord struct {
	ApplicationID string `json:"applicationId"`
	FullName      string `json:"fullName,omitempty"`
	CNIC          string `json:"cnic,omitempty"`

	DateOfBirth    string      `json:"dateOfBirth,omitempty"`
	Age            int         `json:"age"`
	EmploymentType string      `json:"employmentType"`
	Occupation     string      `json:"occupation,omitempty"`
	IsRetired      interface{} `json:"isRetired,omitempty"`

	NetMonthlyIncome      float64 `json:"netMonthlyIncome"`
	GrossMonthlyIncome    float64 `json:"grossMonthlyIncome"`
	MonthlyDeductions     float64 `json:"monthlyDeductions,omitempty"`
	EmploymentTenureYears float64 `json:"employmentTenureYears"`

	IsExistingCustomer interface{} `json:"isExistingCustomer"`
	SalaryTransferFlag string      `json:"salaryTransferFlag"`

	CurrentAddress Address `json:"currentAddress"`
	OfficeAddress  Address `json:"officeAddress"`
	Cluster        string  `json:"cluster,omitempty"`

	Blacklisted       interface{} `json:"blacklisted,omitempty"`
	CreditCard30kList interface{} `json:"creditCard30kList,omitempty"`
	NegativeList      interface{} `json:"negativeList,omitempty"`
	EAMVUSubmitted    interface{} `json:"eamvuSubmitted,omitempty"`
}

// Relationship reports ETB when the applicant already banks with us.
func (a *ApplicantRecord) Relationship() Relationship {
	if ParseBool(a.IsExistingCustomer) {
		return RelationshipETB
	}
	return RelationshipNTB
}

// ObligationsInput carries the raw debt-burden inputs.
type ObligationsInput struct {
	ExistingEMIs         float64 `json:"existingEmis"`
	CreditCardLimit      float64 `json:"creditCardLimit"`
	OutstandingBalance   float64 `json:"outstandingBalance"`
	ProposedLoanAmount   float64 `json:"proposedLoanAmount"`
	ProposedTenureMonths int     `json:"proposedTenureMonths"`
	AnnualInterestRate   float64 `json:"annualInterestRate"`
	ApplicantAge         int     `json:"applicantAge,omitempty"`
}

// CBSSummary holds the externally computed bureau scores.
type CBSSummary struct {
	ApplicationScore     float64                `json:"applicationScore"`
	BehavioralScore      float64                `json:"behavioralScore"`
	ApplicationBreakdown map[string]interface{} `json:"applicationBreakdown,omitempty"`
	BehavioralBreakdown  map[string]interface{} `json:"behavioralBreakdown,omitempty"`
}

// Request is everything one decision run needs. AsOf anchors age
// derivation; identical requests always produce identical results.
type Request struct {
	Applicant      ApplicantRecord   `json:"applicant"`
	Obligations    *ObligationsInput `json:"obligations,omitempty"`
	PrecomputedDBR *DBRCalculation   `json:"dbr,omitempty"`
	CBS            CBSSummary        `json:"cbsSummary"`
	AsOf           time.Time         `json:"evaluationDate"`

	// Stage A result, resolved once per Engine.Evaluate.
	resolvedDBR *DBRCalculation
	dbrResolved bool
}

type HardStop struct {
	Module Module `json:"module"`
	Reason string `json:"reason"`
}

type Warning struct {
	Module  Module `json:"module"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecisionResult is the final aggregate returned to the caller.
type DecisionResult struct {
	FinalScore     float64                `json:"finalScore"`
	Decision       Decision               `json:"decision"`
	RiskLevel      RiskLevel              `json:"riskLevel"`
	ActionRequired string                 `json:"actionRequired"`
	Relationship   Relationship           `json:"relationship"`
	ModuleScores   map[Module]ModuleScore `json:"moduleScores"`
	HardStops      []HardStop             `json:"hardStops"`
	Warnings       []Warning              `json:"warnings"`
	DBR            *DBRCalculation        `json:"dbr,omitempty"`
}
