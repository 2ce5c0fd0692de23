// Package domain contains the core entities used to classify sequence variants
// from curated ACMG/AMP criteria evaluations.
//
// Reference: Richards et al. (2015) Standards and guidelines for the interpretation of sequence variants.
// Genet Med. 17(5):405-24. doi: 10.1038/gim.2015.30
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Side is the direction of evidence a criterion supports.
type Side string

const (
	PATHOGENIC_SIDE Side = "pathogenic"
	BENIGN_SIDE     Side = "benign"
)

// IsValid reports whether the side is one of the two ACMG/AMP evidence directions.
func (s Side) IsValid() bool {
	switch s {
	case PATHOGENIC_SIDE, BENIGN_SIDE:
		return true
	default:
		return false
	}
}

// Strength is the weight of a met criterion. It doubles as the curator's
// strength modifier on an evaluation, where the empty value means "use the
// criterion's default strength".
type Strength string

const (
	VERY_STRONG Strength = "very-strong"
	STRONG      Strength = "strong"
	MODERATE    Strength = "moderate"
	SUPPORTING  Strength = "supporting"
	STAND_ALONE Strength = "stand-alone"
)

// IsValid validates the strength against the five ACMG/AMP levels.
func (s Strength) IsValid() bool {
	switch s {
	case VERY_STRONG, STRONG, MODERATE, SUPPORTING, STAND_ALONE:
		return true
	default:
		return false
	}
}

// ValidFor reports whether the strength exists on the given side.
// Very strong and moderate are pathogenic only, stand-alone is benign only.
func (s Strength) ValidFor(side Side) bool {
	switch side {
	case PATHOGENIC_SIDE:
		return s == VERY_STRONG || s == STRONG || s == MODERATE || s == SUPPORTING
	case BENIGN_SIDE:
		return s == STAND_ALONE || s == STRONG || s == SUPPORTING
	default:
		return false
	}
}

// String returns the string representation of the strength.
func (s Strength) String() string {
	return string(s)
}

// MarshalJSON encodes the empty strength as null so an absent modifier
// survives a JSON round trip.
func (s Strength) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts null as the empty strength.
func (s *Strength) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = ""
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Strength(raw)
	return nil
}

// CriterionStatus is the curator's verdict on a single criterion.
type CriterionStatus string

const (
	MET           CriterionStatus = "met"
	NOT_MET       CriterionStatus = "not-met"
	NOT_EVALUATED CriterionStatus = "not-evaluated"
)

// IsValid validates the status.
func (cs CriterionStatus) IsValid() bool {
	switch cs {
	case MET, NOT_MET, NOT_EVALUATED:
		return true
	default:
		return false
	}
}

// Evaluation is one curated criterion record. It is the atomic unit the
// classification engine consumes.
type Evaluation struct {
	Criteria         CriterionCode   `json:"criteria"`
	CriteriaStatus   CriterionStatus `json:"criteriaStatus"`
	CriteriaModifier Strength        `json:"criteriaModifier"`
}

// Assertion is the final classification label.
type Assertion string

const (
	NOT_EVALUATED_ASSERTION Assertion = ""
	PATHOGENIC              Assertion = "Pathogenic"
	LIKELY_PATHOGENIC       Assertion = "Likely pathogenic"
	UNCERTAIN_CONFLICTING   Assertion = "Uncertain significance - conflicting evidence"
	UNCERTAIN_INSUFFICIENT  Assertion = "Uncertain significance - insufficient evidence"
	LIKELY_BENIGN           Assertion = "Likely benign"
	BENIGN                  Assertion = "Benign"
)

// IsValid validates that the assertion is one the engine can produce.
func (a Assertion) IsValid() bool {
	switch a {
	case NOT_EVALUATED_ASSERTION, PATHOGENIC, LIKELY_PATHOGENIC, UNCERTAIN_CONFLICTING,
		UNCERTAIN_INSUFFICIENT, LIKELY_BENIGN, BENIGN:
		return true
	default:
		return false
	}
}

// String returns the string representation of the assertion.
func (a Assertion) String() string {
	return string(a)
}

// IsUncertain reports whether the assertion is one of the two VUS labels.
func (a Assertion) IsUncertain() bool {
	return a == UNCERTAIN_CONFLICTING || a == UNCERTAIN_INSUFFICIENT
}

// RequiresClinicalAction reports whether the assertion is actionable.
func (a Assertion) RequiresClinicalAction() bool {
	return a == PATHOGENIC || a == LIKELY_PATHOGENIC
}

// LogFields returns structured logging fields for audit trails.
func (a Assertion) LogFields() map[string]any {
	level := "not_evaluated"
	switch {
	case a.RequiresClinicalAction():
		level = "actionable"
	case a.IsUncertain():
		level = "uncertain"
	case a == LIKELY_BENIGN || a == BENIGN:
		level = "non_actionable"
	}
	return map[string]any{
		"assertion":            string(a),
		"classification_level": level,
		"requires_action":      a.RequiresClinicalAction(),
	}
}

// RuleCategory is the outcome a combination rule votes for.
type RuleCategory string

const (
	PATHOGENIC_RULE        RuleCategory = "Pathogenic"
	LIKELY_PATHOGENIC_RULE RuleCategory = "LikelyPathogenic"
	BENIGN_RULE            RuleCategory = "Benign"
	LIKELY_BENIGN_RULE     RuleCategory = "LikelyBenign"
)

// IsValid validates the rule category.
func (rc RuleCategory) IsValid() bool {
	switch rc {
	case PATHOGENIC_RULE, LIKELY_PATHOGENIC_RULE, BENIGN_RULE, LIKELY_BENIGN_RULE:
		return true
	default:
		return false
	}
}

// Assertion maps the category to the label it asserts.
func (rc RuleCategory) Assertion() Assertion {
	switch rc {
	case PATHOGENIC_RULE:
		return PATHOGENIC
	case LIKELY_PATHOGENIC_RULE:
		return LIKELY_PATHOGENIC
	case BENIGN_RULE:
		return BENIGN
	case LIKELY_BENIGN_RULE:
		return LIKELY_BENIGN
	default:
		return NOT_EVALUATED_ASSERTION
	}
}

// Validation errors for evaluation sets
var (
	ErrEmptyEvaluationSet = errors.New("evaluation set is empty")
	ErrUnknownCriterion   = errors.New("unknown ACMG/AMP criterion")
	ErrInvalidStatus      = errors.New("invalid criterion status")
	ErrInvalidModifier    = errors.New("invalid strength modifier")
	ErrDuplicateCriterion = errors.New("duplicate criterion")
	ErrMutuallyExclusive  = errors.New("mutually exclusive criteria met together")

	ErrInvalidModification = errors.New("invalid modified classification")
	ErrMissingReason       = errors.New("modified classification requires a reason")
)
