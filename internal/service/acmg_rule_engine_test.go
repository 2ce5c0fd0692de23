package service

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vci-pathogenicity-calculator/internal/domain"
)

func met(code string) domain.Evaluation {
	return domain.Evaluation{Criteria: domain.CriterionCode(code), CriteriaStatus: domain.MET}
}

func metAs(code string, modifier domain.Strength) domain.Evaluation {
	return domain.Evaluation{Criteria: domain.CriterionCode(code), CriteriaStatus: domain.MET, CriteriaModifier: modifier}
}

func notMet(code string) domain.Evaluation {
	return domain.Evaluation{Criteria: domain.CriterionCode(code), CriteriaStatus: domain.NOT_MET}
}

func notEvaluated(code string) domain.Evaluation {
	return domain.Evaluation{Criteria: domain.CriterionCode(code), CriteriaStatus: domain.NOT_EVALUATED}
}

func TestClassifyEmptyInput(t *testing.T) {
	assert.Nil(t, Classify(nil))
	assert.Nil(t, Classify([]domain.Evaluation{}))
	assert.Nil(t, NewACMGAMPRuleEngine().Evaluate(nil))
}

func TestClassifyNothingEvaluated(t *testing.T) {
	result := Classify([]domain.Evaluation{notEvaluated("PVS1"), notEvaluated("BA1")})
	require.NotNil(t, result)
	assert.Equal(t, domain.NOT_EVALUATED_ASSERTION, result.Assertion)
	assert.Empty(t, result.PathogenicSummary)
	assert.Empty(t, result.BenignSummary)
}

func TestClassifyExamples(t *testing.T) {
	tests := []struct {
		name        string
		evaluations []domain.Evaluation
		assertion   domain.Assertion
		pathogenic  map[string]int
		benign      map[string]int
	}{
		{
			name:        "very strong plus strong",
			evaluations: []domain.Evaluation{met("PVS1"), met("PS1")},
			assertion:   domain.PATHOGENIC,
			pathogenic:  map[string]int{"Very strong": 1, "Strong": 1},
			benign:      map[string]int{},
		},
		{
			name:        "three moderate",
			evaluations: []domain.Evaluation{met("PM1"), met("PM2"), met("PM3")},
			assertion:   domain.LIKELY_PATHOGENIC,
			pathogenic:  map[string]int{"Moderate": 3},
			benign:      map[string]int{},
		},
		{
			name:        "stand-alone against moderate",
			evaluations: []domain.Evaluation{met("BA1"), met("PM1")},
			assertion:   domain.UNCERTAIN_CONFLICTING,
			pathogenic:  map[string]int{"Moderate": 1},
			benign:      map[string]int{"Stand alone": 1},
		},
		{
			name:        "only not-met",
			evaluations: []domain.Evaluation{notMet("BP1")},
			assertion:   domain.UNCERTAIN_INSUFFICIENT,
			pathogenic:  map[string]int{},
			benign:      map[string]int{},
		},
		{
			name:        "supporting promoted to strong",
			evaluations: []domain.Evaluation{metAs("PP1", domain.STRONG)},
			assertion:   domain.UNCERTAIN_INSUFFICIENT,
			pathogenic:  map[string]int{"Strong": 1},
			benign:      map[string]int{},
		},
		{
			name:        "benign stand-alone",
			evaluations: []domain.Evaluation{met("BA1"), notMet("PVS1")},
			assertion:   domain.BENIGN,
			pathogenic:  map[string]int{},
			benign:      map[string]int{"Stand alone": 1},
		},
		{
			name:        "two benign supporting",
			evaluations: []domain.Evaluation{met("BP4"), met("BP7")},
			assertion:   domain.LIKELY_BENIGN,
			pathogenic:  map[string]int{},
			benign:      map[string]int{"Supporting": 2},
		},
		{
			name:        "conflict without any rule firing",
			evaluations: []domain.Evaluation{met("PP3"), met("BP7")},
			assertion:   domain.UNCERTAIN_INSUFFICIENT,
			pathogenic:  map[string]int{"Supporting": 1},
			benign:      map[string]int{"Supporting": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.evaluations)
			require.NotNil(t, result)
			assert.Equal(t, tt.assertion, result.Assertion)
			assert.Equal(t, tt.pathogenic, result.PathogenicSummary)
			assert.Equal(t, tt.benign, result.BenignSummary)
		})
	}
}

func TestCombinationRules(t *testing.T) {
	tests := []struct {
		rule  string
		holds domain.StrengthCounts
		fails domain.StrengthCounts
	}{
		{"pvs>=2", domain.StrengthCounts{PVS: 2}, domain.StrengthCounts{PVS: 1}},
		{"pvs1+ps>=1", domain.StrengthCounts{PVS: 1, PS: 3}, domain.StrengthCounts{PVS: 2, PS: 1}},
		{"pvs1+pm>=2", domain.StrengthCounts{PVS: 1, PM: 2}, domain.StrengthCounts{PVS: 1, PM: 1}},
		{"pvs1+pm1+pp1", domain.StrengthCounts{PVS: 1, PM: 1, PP: 1}, domain.StrengthCounts{PVS: 1, PM: 1, PP: 2}},
		{"pvs1+pp>=2", domain.StrengthCounts{PVS: 1, PP: 2}, domain.StrengthCounts{PVS: 1, PP: 1}},
		{"ps>=2", domain.StrengthCounts{PS: 2}, domain.StrengthCounts{PS: 1}},
		{"ps1+pm>=3", domain.StrengthCounts{PS: 1, PM: 3}, domain.StrengthCounts{PS: 2, PM: 3}},
		{"ps1+pm2+pp>=2", domain.StrengthCounts{PS: 1, PM: 2, PP: 2}, domain.StrengthCounts{PS: 1, PM: 3, PP: 2}},
		{"ps1+pm1+pp>=4", domain.StrengthCounts{PS: 1, PM: 1, PP: 4}, domain.StrengthCounts{PS: 1, PM: 1, PP: 3}},
		{"pvs1+pm1", domain.StrengthCounts{PVS: 1, PM: 1}, domain.StrengthCounts{PVS: 1, PM: 2}},
		{"ps1+pm1-2", domain.StrengthCounts{PS: 1, PM: 2}, domain.StrengthCounts{PS: 1, PM: 3}},
		{"ps1+pp>=2", domain.StrengthCounts{PS: 1, PP: 2}, domain.StrengthCounts{PS: 1, PP: 1}},
		{"pm>=3", domain.StrengthCounts{PM: 3}, domain.StrengthCounts{PM: 2}},
		{"pm2+pp>=2", domain.StrengthCounts{PM: 2, PP: 2}, domain.StrengthCounts{PM: 3, PP: 2}},
		{"pm1+pp>=4", domain.StrengthCounts{PM: 1, PP: 4}, domain.StrengthCounts{PM: 1, PP: 3}},
		{"ba>=1", domain.StrengthCounts{BA: 1}, domain.StrengthCounts{BS: 1}},
		{"bs>=2", domain.StrengthCounts{BS: 2}, domain.StrengthCounts{BS: 1}},
		{"bs1+bp1", domain.StrengthCounts{BS: 1, BP: 1}, domain.StrengthCounts{BS: 1, BP: 2}},
		{"bp>=2", domain.StrengthCounts{BP: 2}, domain.StrengthCounts{BP: 1}},
	}

	rules := map[string]CombinationRule{}
	for _, r := range CombinationRules() {
		rules[r.Name] = r
	}
	require.Len(t, rules, 19)
	require.Len(t, tests, 19)

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			rule, ok := rules[tt.rule]
			require.True(t, ok, "rule %s missing", tt.rule)
			assert.True(t, rule.Category.IsValid())
			assert.True(t, rule.Holds(tt.holds))
			assert.False(t, rule.Holds(tt.fails))
		})
	}
}

func TestCategoryPrecedence(t *testing.T) {
	// pvs=1, pm=1, pp=1 fires both pvs1+pm1+pp1 and pvs1+pm1
	detail := NewACMGAMPRuleEngine().Evaluate([]domain.Evaluation{met("PVS1"), met("PM2"), met("PP3")})
	require.NotNil(t, detail)
	assert.ElementsMatch(t, []string{"pvs1+pm1+pp1", "pvs1+pm1"}, detail.FiredRules)
	assert.Equal(t, domain.PATHOGENIC, detail.PathogenicAssertion)
	assert.Equal(t, domain.PATHOGENIC, detail.Assertion)

	// ba>=1 outranks bp>=2
	detail = NewACMGAMPRuleEngine().Evaluate([]domain.Evaluation{met("BA1"), met("BP1"), met("BP4")})
	require.NotNil(t, detail)
	assert.ElementsMatch(t, []string{"ba>=1", "bp>=2"}, detail.FiredRules)
	assert.Equal(t, domain.BENIGN, detail.Assertion)
}

func TestContradiction(t *testing.T) {
	detail := NewACMGAMPRuleEngine().Evaluate([]domain.Evaluation{
		met("PVS1"), met("PS3"), met("BS1"),
	})
	require.NotNil(t, detail)
	assert.True(t, detail.Contradict)
	assert.Equal(t, domain.PATHOGENIC, detail.PathogenicAssertion)
	assert.Equal(t, domain.UNCERTAIN_CONFLICTING, detail.Assertion)
}

func TestModifierOverrides(t *testing.T) {
	tests := []struct {
		name     string
		eval     domain.Evaluation
		expected domain.StrengthCounts
	}{
		{"pathogenic very strong", metAs("PM3", domain.VERY_STRONG), domain.StrengthCounts{PVS: 1}},
		{"pathogenic downgraded", metAs("PVS1", domain.MODERATE), domain.StrengthCounts{PM: 1}},
		{"pathogenic supporting", metAs("PS2", domain.SUPPORTING), domain.StrengthCounts{PP: 1}},
		{"benign strong", metAs("BP4", domain.STRONG), domain.StrengthCounts{BS: 1}},
		{"benign stand-alone", metAs("BS1", domain.STAND_ALONE), domain.StrengthCounts{BA: 1}},
		{"benign supporting", metAs("BA1", domain.SUPPORTING), domain.StrengthCounts{BP: 1}},
		{"stand-alone on pathogenic ignored", metAs("PM2", domain.STAND_ALONE), domain.StrengthCounts{}},
		{"moderate on benign ignored", metAs("BP4", domain.MODERATE), domain.StrengthCounts{}},
		{"very strong on benign ignored", metAs("BS3", domain.VERY_STRONG), domain.StrengthCounts{}},
		{"unknown modifier ignored", metAs("PM1", domain.Strength("weak")), domain.StrengthCounts{}},
		{"unknown pathogenic code with modifier", metAs("PX1", domain.STRONG), domain.StrengthCounts{PS: 1}},
		{"unknown code without prefix", met("PX1"), domain.StrengthCounts{}},
		{"garbage code", met("XYZ"), domain.StrengthCounts{}},
		{"prefix fallback", met("PS9"), domain.StrengthCounts{PS: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := NewACMGAMPRuleEngine().Evaluate([]domain.Evaluation{tt.eval})
			require.NotNil(t, detail)
			assert.Equal(t, tt.expected, detail.Counts)
			assert.True(t, detail.Evaluated)
		})
	}
}

func TestUnknownStatusContributesNothing(t *testing.T) {
	detail := NewACMGAMPRuleEngine().Evaluate([]domain.Evaluation{
		{Criteria: "PVS1", CriteriaStatus: "Met"},
		{Criteria: "PS1", CriteriaStatus: ""},
	})
	require.NotNil(t, detail)
	assert.False(t, detail.Evaluated)
	assert.Equal(t, domain.StrengthCounts{}, detail.Counts)
	assert.Equal(t, domain.NOT_EVALUATED_ASSERTION, detail.Assertion)
}

func TestDuplicateCodesLastWriteWins(t *testing.T) {
	result := Classify([]domain.Evaluation{met("PVS1"), met("PS1"), notMet("PVS1")})
	require.NotNil(t, result)
	assert.Equal(t, map[string]int{"Strong": 1}, result.PathogenicSummary)
	assert.Equal(t, domain.UNCERTAIN_INSUFFICIENT, result.Assertion)

	result = Classify([]domain.Evaluation{met("PM2"), met("PM2"), met("PM2")})
	require.NotNil(t, result)
	assert.Equal(t, map[string]int{"Moderate": 1}, result.PathogenicSummary)

	result = Classify([]domain.Evaluation{met("PM2"), metAs("PM2", domain.SUPPORTING)})
	require.NotNil(t, result)
	assert.Equal(t, map[string]int{"Supporting": 1}, result.PathogenicSummary)
}

func TestClassifyIdempotentAndOrderIndependent(t *testing.T) {
	evaluations := []domain.Evaluation{
		met("PVS1"), met("PM2"), metAs("PP3", domain.MODERATE), notMet("BA1"),
		met("BP4"), notEvaluated("PS3"), met("PP1"), notMet("BS1"),
	}
	input := append([]domain.Evaluation(nil), evaluations...)

	first, err := json.Marshal(Classify(evaluations))
	require.NoError(t, err)
	second, err := json.Marshal(Classify(evaluations))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, input, evaluations, "input must not be mutated")

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]domain.Evaluation(nil), evaluations...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got, err := json.Marshal(Classify(shuffled))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(got))
	}
}

func TestNeverSubstantiveWithoutEvaluation(t *testing.T) {
	codes := []string{"PVS1", "PS1", "PM1", "PP1", "BA1", "BS1", "BP1", "XYZ"}
	var evaluations []domain.Evaluation
	for _, c := range codes {
		evaluations = append(evaluations, notEvaluated(c))
	}
	result := Classify(evaluations)
	require.NotNil(t, result)
	assert.Equal(t, domain.NOT_EVALUATED_ASSERTION, result.Assertion)
}

func TestResultJSONShape(t *testing.T) {
	result := Classify([]domain.Evaluation{met("PVS1"), met("PS1"), met("BP7")})
	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"assertion": "Uncertain significance - conflicting evidence",
		"pathogenicSummary": {"Very strong": 1, "Strong": 1},
		"benignSummary": {"Supporting": 1}
	}`, string(data))

	var decoded domain.ClassificationResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *result, decoded)

	data, err = json.Marshal(Classify(nil))
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestFiredRulesFollowTableOrder(t *testing.T) {
	detail := NewACMGAMPRuleEngine().Evaluate([]domain.Evaluation{
		met("PS1"), met("PS2"), met("PM1"), met("PM2"), met("PM4"),
	})
	require.NotNil(t, detail)
	assert.Equal(t, []string{"ps>=2", "pm>=3"}, detail.FiredRules)
	assert.Equal(t, domain.PATHOGENIC, detail.Assertion)
}
