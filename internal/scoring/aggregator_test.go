package scoring

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformScores(v float64) map[Module]ModuleScore {
	scores := make(map[Module]ModuleScore, len(Modules))
	for _, m := range Modules {
		scores[m] = newScore(m).ok(v)
	}
	return scores
}

func withScore(scores map[Module]ModuleScore, m Module, v float64) map[Module]ModuleScore {
	scores[m] = newScore(m).ok(v)
	return scores
}

func scenarioScores() map[Module]ModuleScore {
	return map[Module]ModuleScore{
		ModuleAge:         newScore(ModuleAge).ok(100),
		ModuleCity:        newScore(ModuleCity).ok(70),
		ModuleIncome:      newScore(ModuleIncome).ok(97),
		ModuleSPU:         newScore(ModuleSPU).ok(100),
		ModuleEAMVU:       newScore(ModuleEAMVU).ok(100),
		ModuleDBR:         newScore(ModuleDBR).ok(75),
		ModuleApplication: newScore(ModuleApplication).ok(80),
		ModuleBehavioral:  newScore(ModuleBehavioral).ok(60),
	}
}

func TestWeights_SumToOne(t *testing.T) {
	for _, rel := range []Relationship{RelationshipETB, RelationshipNTB} {
		w := WeightsFor(rel)
		assert.True(t, decimal.NewFromInt(1).Equal(w.Sum()), "%s weights sum to %s", rel, w.Sum())
		assert.Len(t, w, len(Modules))
	}
}

func TestWeightsFor_ReturnsCopy(t *testing.T) {
	w := WeightsFor(RelationshipETB)
	w[ModuleDBR] = decimal.Zero

	assert.True(t, decimal.RequireFromString("0.55").Equal(WeightsFor(RelationshipETB)[ModuleDBR]))
}

func TestAggregator_Aggregate(t *testing.T) {
	tests := []struct {
		name         string
		rel          Relationship
		scores       map[Module]ModuleScore
		wantScore    float64
		wantDecision Decision
		wantRisk     RiskLevel
		wantAction   string
	}{
		{
			name:         "ETB weighted sum approves",
			rel:          RelationshipETB,
			scores:       scenarioScores(),
			wantScore:    80.45,
			wantDecision: DecisionApproved,
			wantRisk:     RiskLow,
			wantAction:   ActionProceed,
		},
		{
			name:         "NTB ignores behavioral score",
			rel:          RelationshipNTB,
			scores:       scenarioScores(),
			wantScore:    81.45,
			wantDecision: DecisionApproved,
			wantRisk:     RiskLow,
			wantAction:   ActionProceed,
		},
		{
			name:         "exactly 70 approves",
			rel:          RelationshipETB,
			scores:       uniformScores(70),
			wantScore:    70,
			wantDecision: DecisionApproved,
			wantRisk:     RiskLow,
			wantAction:   ActionProceed,
		},
		{
			name:         "just under 70 is conditional",
			rel:          RelationshipNTB,
			scores:       uniformScores(69.99),
			wantScore:    69.99,
			wantDecision: DecisionConditional,
			wantRisk:     RiskMedium,
			wantAction:   ActionReview,
		},
		{
			name:         "sum rounding up to 70 stays conditional",
			rel:          RelationshipETB,
			scores:       withScore(uniformScores(70), ModuleApplication, 69.96),
			wantScore:    70,
			wantDecision: DecisionConditional,
			wantRisk:     RiskMedium,
			wantAction:   ActionReview,
		},
		{
			name:         "sum rounding up to 50 declines",
			rel:          RelationshipETB,
			scores:       withScore(uniformScores(50), ModuleApplication, 49.96),
			wantScore:    50,
			wantDecision: DecisionDeclined,
			wantRisk:     RiskHigh,
			wantAction:   ActionDecline,
		},
		{
			name:         "exactly 50 is conditional",
			rel:          RelationshipETB,
			scores:       uniformScores(50),
			wantScore:    50,
			wantDecision: DecisionConditional,
			wantRisk:     RiskMedium,
			wantAction:   ActionReview,
		},
		{
			name:         "under 50 declines",
			rel:          RelationshipETB,
			scores:       uniformScores(49.99),
			wantScore:    49.99,
			wantDecision: DecisionDeclined,
			wantRisk:     RiskHigh,
			wantAction:   ActionDecline,
		},
		{
			name:         "missing modules count as zero",
			rel:          RelationshipETB,
			scores:       map[Module]ModuleScore{ModuleDBR: newScore(ModuleDBR).ok(100)},
			wantScore:    55,
			wantDecision: DecisionConditional,
			wantRisk:     RiskMedium,
			wantAction:   ActionReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregator{}.Aggregate(tt.rel, tt.scores)

			assert.Equal(t, tt.wantScore, got.FinalScore)
			assert.Equal(t, tt.wantDecision, got.Decision)
			assert.Equal(t, tt.wantRisk, got.RiskLevel)
			assert.Equal(t, tt.wantAction, got.ActionRequired)
			assert.Equal(t, tt.rel, got.Relationship)
			assert.Empty(t, got.HardStops)
		})
	}
}

func TestAggregator_HardStopOverridesScore(t *testing.T) {
	for _, m := range criticalModules {
		t.Run(string(m), func(t *testing.T) {
			scores := uniformScores(100)
			scores[m] = newScore(m).stop("blocked")

			got := Aggregator{}.Aggregate(RelationshipETB, scores)

			assert.Equal(t, DecisionDeclined, got.Decision)
			assert.Equal(t, RiskHigh, got.RiskLevel)
			assert.Equal(t, ActionDecline, got.ActionRequired)
			assert.Greater(t, got.FinalScore, float64(40))
			require.Len(t, got.HardStops, 1)
			assert.Equal(t, HardStop{Module: m, Reason: "blocked"}, got.HardStops[0])
		})
	}
}

func TestAggregator_HardStopsInModuleOrder(t *testing.T) {
	scores := uniformScores(100)
	scores[ModuleDBR] = newScore(ModuleDBR).stop("dbr")
	scores[ModuleAge] = newScore(ModuleAge).stop("age")

	got := Aggregator{}.Aggregate(RelationshipNTB, scores)

	require.Len(t, got.HardStops, 2)
	assert.Equal(t, ModuleAge, got.HardStops[0].Module)
	assert.Equal(t, ModuleDBR, got.HardStops[1].Module)
}

func TestAggregator_SurfacesDBRWarnings(t *testing.T) {
	scores := uniformScores(100)
	scores[ModuleDBR] = newScore(ModuleDBR).flag(FlagNoDBRData).ok(0)

	got := Aggregator{}.Aggregate(RelationshipETB, scores)

	assert.Empty(t, got.HardStops)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, FlagNoDBRData, got.Warnings[0].Code)
	assert.Equal(t, ModuleDBR, got.Warnings[0].Module)
	assert.Equal(t, float64(45), got.FinalScore)
	assert.Equal(t, DecisionDeclined, got.Decision)
}

func TestAggregator_ClampsFinalScore(t *testing.T) {
	scores := uniformScores(100)
	scores[ModuleApplication] = ModuleScore{Module: ModuleApplication, RawScore: 500}

	got := Aggregator{}.Aggregate(RelationshipETB, scores)

	assert.Equal(t, float64(100), got.FinalScore)
}
