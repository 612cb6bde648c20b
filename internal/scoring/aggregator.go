package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	ActionProceed = "Proceed with card issuance"
	ActionReview  = "Requires manager review"
	ActionDecline = "Decline; consider alternative products"
)

// Decision floors apply to the unrounded weighted sum; FinalScore is only
// rounded for reporting.
var (
	approvedFloor    = decimal.NewFromInt(70)
	conditionalFloor = decimal.NewFromInt(50)
)

// Weights maps each module to its share of the final score.
type Weights map[Module]decimal.Decimal

func mustWeights(w map[Module]string) Weights {
	out := make(Weights, len(w))
	for m, v := range w {
		out[m] = decimal.RequireFromString(v)
	}
	return out
}

var relationshipWeights = map[Relationship]Weights{
	RelationshipETB: mustWeights(map[Module]string{
		ModuleDBR:         "0.55",
		ModuleAge:         "0.05",
		ModuleCity:        "0.05",
		ModuleIncome:      "0.10",
		ModuleSPU:         "0.05",
		ModuleEAMVU:       "0.05",
		ModuleApplication: "0.10",
		ModuleBehavioral:  "0.05",
	}),
	RelationshipNTB: mustWeights(map[Module]string{
		ModuleDBR:         "0.55",
		ModuleAge:         "0.05",
		ModuleCity:        "0.05",
		ModuleIncome:      "0.10",
		ModuleSPU:         "0.05",
		ModuleEAMVU:       "0.05",
		ModuleApplication: "0.15",
		ModuleBehavioral:  "0.00",
	}),
}

// criticalModules force a decline when they carry a hard stop.
var criticalModules = []Module{ModuleAge, ModuleSPU, ModuleDBR}

// WeightsFor returns a copy of the weight table for a relationship.
// Anything other than ETB uses the NTB table.
func WeightsFor(rel Relationship) Weights {
	src, ok := relationshipWeights[rel]
	if !ok {
		src = relationshipWeights[RelationshipNTB]
	}
	out := make(Weights, len(src))
	for m, w := range src {
		out[m] = w
	}
	return out
}

// Sum totals the weights; every shipped table sums to exactly one.
func (w Weights) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range w {
		total = total.Add(v)
	}
	return total
}

// Aggregator combines module scores into a decision.
type Aggregator struct{}

// Aggregate weights the module scores, applies critical hard stops and
// buckets the result. Missing modules contribute zero.
func (Aggregator) Aggregate(rel Relationship, scores map[Module]ModuleScore) *DecisionResult {
	weights := WeightsFor(rel)

	total := decimal.Zero
	for _, m := range Modules {
		s, ok := scores[m]
		if !ok {
			continue
		}
		total = total.Add(decimal.NewFromFloat(s.RawScore).Mul(weights[m]))
	}
	final := clamp(total.Round(2).InexactFloat64(), 0, 100)

	res := &DecisionResult{
		FinalScore:   final,
		Relationship: rel,
		ModuleScores: make(map[Module]ModuleScore, len(scores)),
		HardStops:    []HardStop{},
		Warnings:     collectWarnings(scores),
	}
	for m, s := range scores {
		res.ModuleScores[m] = s
	}

	for _, m := range criticalModules {
		if s, ok := scores[m]; ok && s.Stopped() {
			res.HardStops = append(res.HardStops, *s.HardStop)
		}
	}

	switch {
	case len(res.HardStops) > 0:
		res.Decision, res.RiskLevel, res.ActionRequired = DecisionDeclined, RiskHigh, ActionDecline
	case total.GreaterThanOrEqual(approvedFloor):
		res.Decision, res.RiskLevel, res.ActionRequired = DecisionApproved, RiskLow, ActionProceed
	case total.GreaterThanOrEqual(conditionalFloor):
		res.Decision, res.RiskLevel, res.ActionRequired = DecisionConditional, RiskMedium, ActionReview
	default:
		res.Decision, res.RiskLevel, res.ActionRequired = DecisionDeclined, RiskHigh, ActionDecline
	}
	return res
}

func collectWarnings(scores map[Module]ModuleScore) []Warning {
	warnings := []Warning{}
	for _, m := range Modules {
		s, ok := scores[m]
		if !ok {
			continue
		}
		if s.HasFlag(FlagNoDBRData) {
			warnings = append(warnings, Warning{
				Module:  m,
				Code:    FlagNoDBRData,
				Message: "debt burden ratio could not be calculated; DBR scored 0",
			})
		}
		if s.HasFlag(FlagRRUReferral) {
			warnings = append(warnings, Warning{
				Module:  m,
				Code:    FlagRRUReferral,
				Message: fmt.Sprintf("%s: route to risk review unit", DBRStatusConditionalFail),
			})
		}
	}
	return warnings
}
