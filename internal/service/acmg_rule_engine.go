package service

import (
	"github.com/vci-pathogenicity-calculator/internal/domain"
)

// CombinationRule is one row of the ACMG/AMP evidence combination table
// (Richards et al. 2015, Table 5).
type CombinationRule struct {
	Name     string
	Category domain.RuleCategory
	Holds    func(c domain.StrengthCounts) bool
}

// combinationRules is evaluated in full on every run; category precedence
// is applied afterwards, never by table order.
var combinationRules = []CombinationRule{
	{"pvs>=2", domain.PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PVS >= 2 }},
	{"pvs1+ps>=1", domain.PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PVS == 1 && c.PS >= 1 }},
	{"pvs1+pm>=2", domain.PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PVS == 1 && c.PM >= 2 }},
	{"pvs1+pm1+pp1", domain.PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PVS == 1 && c.PM == 1 && c.PP == 1 }},
	{"pvs1+pp>=2", domain.PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PVS == 1 && c.PP >= 2 }},
	{"ps>=2", domain.PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PS >= 2 }},
	{"ps1+pm>=3", domain.PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PS == 1 && c.PM >= 3 }},
	{"ps1+pm2+pp>=2", domain.PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PS == 1 && c.PM == 2 && c.PP >= 2 }},
	{"ps1+pm1+pp>=4", domain.PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PS == 1 && c.PM == 1 && c.PP >= 4 }},

	{"pvs1+pm1", domain.LIKELY_PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PVS == 1 && c.PM == 1 }},
	{"ps1+pm1-2", domain.LIKELY_PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PS == 1 && (c.PM == 1 || c.PM == 2) }},
	{"ps1+pp>=2", domain.LIKELY_PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PS == 1 && c.PP >= 2 }},
	{"pm>=3", domain.LIKELY_PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PM >= 3 }},
	{"pm2+pp>=2", domain.LIKELY_PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PM == 2 && c.PP >= 2 }},
	{"pm1+pp>=4", domain.LIKELY_PATHOGENIC_RULE, func(c domain.StrengthCounts) bool { return c.PM == 1 && c.PP >= 4 }},

	{"ba>=1", domain.BENIGN_RULE, func(c domain.StrengthCounts) bool { return c.BA >= 1 }},
	{"bs>=2", domain.BENIGN_RULE, func(c domain.StrengthCounts) bool { return c.BS >= 2 }},

	{"bs1+bp1", domain.LIKELY_BENIGN_RULE, func(c domain.StrengthCounts) bool { return c.BS == 1 && c.BP == 1 }},
	{"bp>=2", domain.LIKELY_BENIGN_RULE, func(c domain.StrengthCounts) bool { return c.BP >= 2 }},
}

// CombinationRules returns a copy of the combination table in table order.
func CombinationRules() []CombinationRule {
	out := make([]CombinationRule, len(combinationRules))
	copy(out, combinationRules)
	return out
}

// ACMGAMPRuleEngine combines curated criteria evaluations into an ACMG/AMP
// assertion. It holds no per-call state and is safe for concurrent use.
type ACMGAMPRuleEngine struct {
	rules []CombinationRule
}

// NewACMGAMPRuleEngine creates an engine over the standard combination table.
func NewACMGAMPRuleEngine() *ACMGAMPRuleEngine {
	return &ACMGAMPRuleEngine{rules: combinationRules}
}

var defaultEngine = NewACMGAMPRuleEngine()

// Classify runs the standard engine. It returns nil for an empty evaluation set.
func Classify(evaluations []domain.Evaluation) *domain.ClassificationResult {
	return defaultEngine.Classify(evaluations)
}

// Classify returns the assertion and evidence summaries for evaluations,
// or nil when there are none.
func (e *ACMGAMPRuleEngine) Classify(evaluations []domain.Evaluation) *domain.ClassificationResult {
	detail := e.Evaluate(evaluations)
	if detail == nil {
		return nil
	}
	return detail.Result()
}

// Evaluate runs the engine and returns the full trace, or nil when there
// are no evaluations.
func (e *ACMGAMPRuleEngine) Evaluate(evaluations []domain.Evaluation) *domain.ClassificationDetail {
	if len(evaluations) == 0 {
		return nil
	}

	detail := &domain.ClassificationDetail{FiredRules: []string{}}
	for _, ev := range latestPerCode(evaluations) {
		switch ev.CriteriaStatus {
		case domain.NOT_MET:
			detail.Evaluated = true
		case domain.MET:
			detail.Evaluated = true
			detail.Counts.Increment(bucketFor(ev.Criteria, ev.CriteriaModifier))
		}
	}

	fired := map[domain.RuleCategory]bool{}
	for _, rule := range e.rules {
		if rule.Holds(detail.Counts) {
			fired[rule.Category] = true
			detail.FiredRules = append(detail.FiredRules, rule.Name)
		}
	}

	switch {
	case fired[domain.PATHOGENIC_RULE]:
		detail.PathogenicAssertion = domain.PATHOGENIC
	case fired[domain.LIKELY_PATHOGENIC_RULE]:
		detail.PathogenicAssertion = domain.LIKELY_PATHOGENIC
	}
	switch {
	case fired[domain.BENIGN_RULE]:
		detail.BenignAssertion = domain.BENIGN
	case fired[domain.LIKELY_BENIGN_RULE]:
		detail.BenignAssertion = domain.LIKELY_BENIGN
	}

	detail.Contradict = detail.Counts.HasPathogenic() && detail.Counts.HasBenign()
	detail.Assertion = finalAssertion(detail)
	return detail
}

func finalAssertion(d *domain.ClassificationDetail) domain.Assertion {
	asserted := d.PathogenicAssertion != "" || d.BenignAssertion != ""
	switch {
	case !d.Evaluated:
		return domain.NOT_EVALUATED_ASSERTION
	case d.Contradict && asserted:
		return domain.UNCERTAIN_CONFLICTING
	case d.PathogenicAssertion != "":
		return d.PathogenicAssertion
	case d.BenignAssertion != "":
		return d.BenignAssertion
	default:
		return domain.UNCERTAIN_INSUFFICIENT
	}
}

// bucketFor resolves the counter a met evaluation increments. Without a
// modifier the code's own prefix decides; with one, the code's side and
// the modifier decide. Anything unresolvable yields NO_BUCKET.
func bucketFor(code domain.CriterionCode, modifier domain.Strength) domain.Bucket {
	if modifier == "" {
		return code.DefaultBucket()
	}
	return domain.BucketFor(code.Side(), modifier)
}

// latestPerCode keeps the last evaluation of each code, in order of first appearance.
func latestPerCode(evaluations []domain.Evaluation) []domain.Evaluation {
	index := make(map[domain.CriterionCode]int, len(evaluations))
	out := make([]domain.Evaluation, 0, len(evaluations))
	for _, ev := range evaluations {
		if i, seen := index[ev.Criteria]; seen {
			out[i] = ev
			continue
		}
		index[ev.Criteria] = len(out)
		out = append(out, ev)
	}
	return out
}
