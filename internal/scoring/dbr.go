package scoring

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type DBRStatus string

const (
	DBRStatusPass            DBRStatus = "pass"
	DBRStatusFail            DBRStatus = "fail"
	DBRStatusConditionalFail DBRStatus = "conditionally fail - redirect to RRU"
)

// Net income sources, in fallback order.
const (
	IncomeSourceNet                = "net"
	IncomeSourceGrossLessDeduction = "gross_less_deductions"
	IncomeSourceGross              = "gross"
	IncomeSourceDefault            = "default"
)

// DefaultNetIncome is used when no income figure is usable.
const DefaultNetIncome = 25000

const (
	rruAgeLimit  = 65
	emiPrecision = 18
)

var (
	hundred         = decimal.NewFromInt(100)
	twelve          = decimal.NewFromInt(12)
	cardLimitFactor = decimal.RequireFromString("0.05")
)

// DBRCalculation is the Stage A result: the ratio, the dynamic threshold
// and the pass/fail status.
type DBRCalculation struct {
	NetIncome             float64   `json:"netIncome"`
	IncomeSource          string    `json:"incomeSource"`
	ExistingEMIs          float64   `json:"existingEmis"`
	CardObligation        float64   `json:"cardObligation"`
	OutstandingObligation float64   `json:"outstandingObligation"`
	ProposedEMI           float64   `json:"proposedEmi"`
	TotalObligations      float64   `json:"totalObligations"`
	DBRPercent            float64   `json:"dbrPercent"`
	IncomeBandScore       int       `json:"incomeBandScore"`
	ObligationsBandScore  int       `json:"obligationsBandScore"`
	Threshold             float64   `json:"threshold"`
	Status                DBRStatus `json:"status"`
}

// CalculateDBR runs Stage A for the applicant's income and obligations.
// It never fails: missing income falls back through the documented chain.
func CalculateDBR(a *ApplicantRecord, obl ObligationsInput, age int) *DBRCalculation {
	net, source := resolveNetIncome(a)

	existing := nonNegative(obl.ExistingEMIs).Round(2)
	card := nonNegative(obl.CreditCardLimit).Mul(cardLimitFactor).Round(2)
	outstanding := nonNegative(obl.OutstandingBalance).Div(twelve).Round(2)
	emi := AmortizedEMI(obl.ProposedLoanAmount, obl.AnnualInterestRate, obl.ProposedTenureMonths)
	total := existing.Add(card).Add(outstanding).Add(emi)

	pct := total.Div(net).Mul(hundred).Round(2)

	calc := &DBRCalculation{
		NetIncome:             net.InexactFloat64(),
		IncomeSource:          source,
		ExistingEMIs:          existing.InexactFloat64(),
		CardObligation:        card.InexactFloat64(),
		OutstandingObligation: outstanding.InexactFloat64(),
		ProposedEMI:           emi.InexactFloat64(),
		TotalObligations:      total.InexactFloat64(),
		DBRPercent:            pct.InexactFloat64(),
	}
	calc.IncomeBandScore = incomeBand(calc.NetIncome)
	calc.ObligationsBandScore = obligationsBand(calc.TotalObligations)
	calc.Threshold = dynamicThreshold(calc.IncomeBandScore, calc.ObligationsBandScore)

	calc.Status = DBRStatusFail
	if calc.DBRPercent <= calc.Threshold {
		calc.Status = DBRStatusPass
		if age > rruAgeLimit {
			calc.Status = DBRStatusConditionalFail
		}
	}
	return calc
}

// AmortizedEMI returns the monthly instalment for a loan, rounded to 2 dp.
// Zero-rate loans amortize linearly and a zero tenure has no instalment.
func AmortizedEMI(principal, annualRatePct float64, months int) decimal.Decimal {
	if months <= 0 || principal <= 0 {
		return decimal.Zero
	}
	p := decimal.NewFromFloat(principal)
	n := decimal.NewFromInt(int64(months))
	if annualRatePct <= 0 {
		return p.Div(n).Round(2)
	}

	one := decimal.NewFromInt(1)
	r := decimal.NewFromFloat(annualRatePct).Div(twelve).Div(hundred)
	growth := compoundGrowth(one.Add(r), months)
	return p.Mul(r).Mul(growth).Div(growth.Sub(one)).Round(2)
}

// growthCeiling caps the compounded factor. Past it growth/(growth-1) is 1
// far beyond the 2 dp of an instalment.
var growthCeiling = decimal.New(1, 40)

// compoundGrowth raises base (>= 1) to n by repeated squaring, saturating at
// growthCeiling.
func compoundGrowth(base decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base).Round(emiPrecision)
		}
		n >>= 1
		if n > 0 {
			base = base.Mul(base).Round(emiPrecision)
		}
		if result.GreaterThan(growthCeiling) || (n > 0 && base.GreaterThan(growthCeiling)) {
			return growthCeiling
		}
	}
	return result
}

func resolveNetIncome(a *ApplicantRecord) (decimal.Decimal, string) {
	if a.NetMonthlyIncome > 0 {
		return decimal.NewFromFloat(a.NetMonthlyIncome), IncomeSourceNet
	}
	if diff := a.GrossMonthlyIncome - a.MonthlyDeductions; a.GrossMonthlyIncome > 0 && a.MonthlyDeductions > 0 && diff > 0 {
		return decimal.NewFromFloat(a.GrossMonthlyIncome).Sub(decimal.NewFromFloat(a.MonthlyDeductions)), IncomeSourceGrossLessDeduction
	}
	if a.GrossMonthlyIncome > 0 {
		return decimal.NewFromFloat(a.GrossMonthlyIncome), IncomeSourceGross
	}
	return decimal.NewFromInt(DefaultNetIncome), IncomeSourceDefault
}

func incomeBand(net float64) int {
	switch {
	case net <= 10000:
		return 10
	case net <= 100000:
		return 20
	case net <= 1000000:
		return 30
	}
	return 40
}

func obligationsBand(total float64) int {
	switch {
	case total <= 10000:
		return 50
	case total <= 100000:
		return 40
	case total <= 1000000:
		return 30
	case total <= 10000000:
		return 20
	}
	return 10
}

func dynamicThreshold(incomeScore, obligationsScore int) float64 {
	avg := float64(incomeScore+obligationsScore) / 2
	switch {
	case avg >= 40:
		return 30
	case avg >= 30:
		return 35
	case avg >= 20:
		return 40
	}
	return 45
}

func nonNegative(v float64) decimal.Decimal {
	if v <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// ResolveDBR returns the Stage A result for a request: the upstream
// calculation when supplied, otherwise one computed from the obligations.
// It returns nil when neither is available.
func ResolveDBR(req *Request) *DBRCalculation {
	if req.dbrResolved {
		return req.resolvedDBR
	}
	if req.PrecomputedDBR != nil {
		calc := *req.PrecomputedDBR
		calc.Status = normalizeDBRStatus(calc.Status, calc.DBRPercent, calc.Threshold)
		return &calc
	}
	if req.Obligations == nil {
		return nil
	}

	age := req.Obligations.ApplicantAge
	if age <= 0 {
		age, _ = applicantAge(&req.Applicant, req.AsOf)
	}
	return CalculateDBR(&req.Applicant, *req.Obligations, age)
}

func normalizeDBRStatus(s DBRStatus, pct, threshold float64) DBRStatus {
	v := strings.ToLower(strings.TrimSpace(string(s)))
	switch {
	case v == string(DBRStatusPass):
		return DBRStatusPass
	case strings.HasPrefix(v, "conditional"):
		return DBRStatusConditionalFail
	case v == string(DBRStatusFail):
		return DBRStatusFail
	}
	if threshold > 0 && pct <= threshold {
		return DBRStatusPass
	}
	return DBRStatusFail
}

// DBREvaluator turns the Stage A calculation into points.
type DBREvaluator struct{}

func (DBREvaluator) Module() Module { return ModuleDBR }

func (DBREvaluator) Evaluate(req *Request) ModuleScore {
	b := newScore(ModuleDBR)
	calc := ResolveDBR(req)
	if calc == nil {
		return b.flag(FlagNoDBRData).note("no DBR data available").ok(0)
	}

	b.detail("dbrPercent", calc.DBRPercent).
		detail("threshold", calc.Threshold).
		detail("status", string(calc.Status))

	switch calc.Status {
	case DBRStatusConditionalFail:
		b.flag(FlagDBRFail).flag(FlagRRUReferral)
		b.note(fmt.Sprintf("DBR %.2f%% within threshold %.0f%% but applicant over %d", calc.DBRPercent, calc.Threshold, rruAgeLimit))
		return b.stop(string(DBRStatusConditionalFail))
	case DBRStatusFail:
		b.flag(FlagDBRFail)
		return b.stop(fmt.Sprintf("DBR %.2f%% exceeds threshold %.0f%%", calc.DBRPercent, calc.Threshold))
	}

	pts := dbrPoints(calc.DBRPercent)
	b.note(fmt.Sprintf("DBR %.2f%% within threshold %.0f%% (%.0f points)", calc.DBRPercent, calc.Threshold, pts))
	return b.ok(pts)
}

func dbrPoints(pct float64) float64 {
	switch {
	case pct <= 10:
		return 100
	case pct <= 20:
		return 75
	case pct <= 30:
		return 50
	case pct <= 40:
		return 25
	}
	return 0
}
