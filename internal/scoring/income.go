package scoring

import (
	"fmt"
	"strings"
)

type employmentCategory string

const (
	employmentPermanent   employmentCategory = "permanent"
	employmentContractual employmentCategory = "contractual"
	employmentSelf        employmentCategory = "self-employed/business"
	employmentProbation   employmentCategory = "probation"
	employmentUnknown     employmentCategory = "unknown"
)

const (
	thresholdPoints = 60
	stabilityMax    = 25
	tenureMax       = 15
)

// minimumNetIncome holds the threshold for each salary-transfer and
// relationship combination.
type minimumNetIncome struct {
	transferETB, transferNTB       float64
	nonTransferETB, nonTransferNTB float64
}

func (m minimumNetIncome) lookup(salaryTransfer bool, rel Relationship) float64 {
	switch {
	case salaryTransfer && rel == RelationshipETB:
		return m.transferETB
	case salaryTransfer:
		return m.transferNTB
	case rel == RelationshipETB:
		return m.nonTransferETB
	default:
		return m.nonTransferNTB
	}
}

var incomeThresholds = map[employmentCategory]minimumNetIncome{
	employmentPermanent:   {40000, 45000, 45000, 50000},
	employmentContractual: {60000, 65000, 65000, 70000},
	employmentSelf:        {100000, 120000, 100000, 120000},
}

// IncomeEvaluator scores income threshold, stability and tenure.
type IncomeEvaluator struct{}

func (IncomeEvaluator) Module() Module { return ModuleIncome }

func (IncomeEvaluator) Evaluate(req *Request) ModuleScore {
	b := newScore(ModuleIncome)
	a := &req.Applicant

	threshold := thresholdComponent(b, a)
	stability := stabilityComponent(b, a.NetMonthlyIncome, a.GrossMonthlyIncome)
	tenure := tenureComponent(b, a.EmploymentTenureYears)

	b.detail("threshold", threshold).detail("stability", stability).detail("tenure", tenure)
	return b.ok(threshold + stability + tenure)
}

func thresholdComponent(b *scoreBuilder, a *ApplicantRecord) float64 {
	category := classifyEmployment(a.EmploymentType)
	switch category {
	case employmentProbation:
		b.note("probation: income threshold skipped, assessed through DBR")
		return 0
	case employmentUnknown:
		b.note(fmt.Sprintf("employment type %q not recognised: income threshold not met", a.EmploymentType))
		return 0
	}

	transfer := isSalaryTransfer(a.SalaryTransferFlag)
	rel := a.Relationship()
	minimum := incomeThresholds[category].lookup(transfer, rel)
	label := fmt.Sprintf("%s, %s, %s", category, transferLabel(transfer), rel)

	if a.NetMonthlyIncome >= minimum {
		b.note(fmt.Sprintf("net income %.0f meets minimum %.0f (%s) (+%d)", a.NetMonthlyIncome, minimum, label, thresholdPoints))
		return thresholdPoints
	}
	b.note(fmt.Sprintf("net income %.0f below minimum %.0f (%s)", a.NetMonthlyIncome, minimum, label))
	return 0
}

func stabilityComponent(b *scoreBuilder, net, gross float64) float64 {
	if net <= 0 || gross <= 0 {
		b.note("income stability not measurable")
		return 0
	}
	ratio := net / gross
	var pts float64
	switch {
	case ratio >= 0.8:
		pts = stabilityMax
	case ratio >= 0.6:
		pts = 20
	default:
		pts = 10
	}
	b.note(fmt.Sprintf("net/gross ratio %.2f (+%.0f)", ratio, pts))
	return pts
}

func tenureComponent(b *scoreBuilder, years float64) float64 {
	var pts float64
	switch {
	case years >= 5:
		pts = tenureMax
	case years >= 3:
		pts = 12
	case years >= 1:
		pts = 8
	}
	b.note(fmt.Sprintf("employment tenure %.1f years (+%.0f)", years, pts))
	return pts
}

func classifyEmployment(raw string) employmentCategory {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case t == "":
		return employmentUnknown
	case strings.Contains(t, "self") || strings.Contains(t, "business"):
		return employmentSelf
	case strings.Contains(t, "probation"):
		return employmentProbation
	case strings.Contains(t, "contract"):
		return employmentContractual
	case strings.Contains(t, "permanent") || strings.Contains(t, "salaried") || t == "employed":
		return employmentPermanent
	}
	return employmentUnknown
}

func isSalaryTransfer(flag string) bool {
	f := strings.ToLower(strings.TrimSpace(flag))
	f = strings.NewReplacer(" ", "_", "-", "_").Replace(f)
	return f == "salary_transfer" || f == "st"
}

func transferLabel(transfer bool) string {
	if transfer {
		return "salary transfer"
	}
	return "non-salary transfer"
}
