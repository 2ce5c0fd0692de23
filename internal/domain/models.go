package domain

import (
	"fmt"
)

// IssueKind names the kind of problem found in an evaluation set.
type IssueKind string

const (
	UNKNOWN_CRITERION    IssueKind = "unknown_criterion"
	INVALID_STATUS       IssueKind = "invalid_status"
	INVALID_MODIFIER     IssueKind = "invalid_modifier"
	MODIFIER_NOT_OFFERED IssueKind = "modifier_not_offered"
	DUPLICATE_CRITERION  IssueKind = "duplicate_criterion"
	RETIRED_CRITERION    IssueKind = "retired_criterion"
	EXCLUSIVE_GROUP      IssueKind = "exclusive_group"
	INVALID_MODIFICATION IssueKind = "invalid_modification"
	MISSING_REASON       IssueKind = "missing_reason"
)

// Severity of an issue. Errors describe input the engine silently drops;
// warnings describe input the engine uses but a curator should review.
type Severity string

const (
	SEVERITY_ERROR   Severity = "error"
	SEVERITY_WARNING Severity = "warning"
)

// Issue is a single finding from auditing an evaluation set. Findings about
// the request rather than a record have a negative Index.
type Issue struct {
	Index    int           `json:"index"`
	Criteria CriterionCode `json:"criteria,omitempty"`
	Kind     IssueKind     `json:"kind"`
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
}

// String renders the issue on one line.
func (i Issue) String() string {
	if i.Index < 0 {
		return fmt.Sprintf("[%s] %s: %s", i.Severity, i.Kind, i.Message)
	}
	if i.Criteria == "" {
		return fmt.Sprintf("[%s] #%d %s: %s", i.Severity, i.Index, i.Kind, i.Message)
	}
	return fmt.Sprintf("[%s] #%d %s %s: %s", i.Severity, i.Index, i.Criteria, i.Kind, i.Message)
}

// Sentinel maps the issue kind to the matching domain error.
func (i Issue) Sentinel() error {
	switch i.Kind {
	case UNKNOWN_CRITERION:
		return ErrUnknownCriterion
	case INVALID_STATUS:
		return ErrInvalidStatus
	case INVALID_MODIFIER, MODIFIER_NOT_OFFERED:
		return ErrInvalidModifier
	case DUPLICATE_CRITERION:
		return ErrDuplicateCriterion
	case EXCLUSIVE_GROUP:
		return ErrMutuallyExclusive
	case INVALID_MODIFICATION:
		return ErrInvalidModification
	case MISSING_REASON:
		return ErrMissingReason
	default:
		return nil
	}
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SEVERITY_ERROR {
			return true
		}
	}
	return false
}

// NO_MODIFICATION is the modified-classification label that keeps the
// calculated assertion.
const NO_MODIFICATION Assertion = "No Modification"

// Modification is a curator's provisional override of the calculated
// assertion. A reason is required whenever it overrides.
type Modification struct {
	AlteredClassification Assertion `json:"alteredClassification"`
	Reason                string    `json:"reason,omitempty"`
}

// Overrides reports whether m replaces the calculated assertion.
func (m *Modification) Overrides() bool {
	return m != nil && m.AlteredClassification != NOT_EVALUATED_ASSERTION && m.AlteredClassification != NO_MODIFICATION
}

// ClassificationRequest is an evaluation set with an optional curator
// modification.
type ClassificationRequest struct {
	Evaluations  []Evaluation  `json:"evaluations"`
	Modification *Modification `json:"modification,omitempty"`
}

// Classification is what the classifier service returns for one
// evaluation set: the engine result plus its supporting trace.
// AutoClassification is the calculated assertion; EffectiveClassification
// is the one to report, which differs only under an accepted modification.
type Classification struct {
	Result                  *ClassificationResult `json:"result"`
	AutoClassification      Assertion             `json:"autoClassification"`
	EffectiveClassification Assertion             `json:"effectiveClassification"`
	Modification            *Modification         `json:"modification,omitempty"`
	Counts                  StrengthCounts        `json:"counts"`
	FiredRules              []string              `json:"firedRules"`
	MetCriteria             []string              `json:"metCriteria"`
	Warnings                []Issue               `json:"warnings"`
	Cached                  bool                  `json:"cached"`
}

// Assertion returns the result's assertion, or the empty assertion when
// there is no result.
func (c *Classification) Assertion() Assertion {
	if c == nil || c.Result == nil {
		return NOT_EVALUATED_ASSERTION
	}
	return c.Result.Assertion
}

// Effective returns the assertion to report: the modified classification
// when one was accepted, otherwise the calculated one.
func (c *Classification) Effective() Assertion {
	if c == nil {
		return NOT_EVALUATED_ASSERTION
	}
	if c.Modification.Overrides() {
		return c.Modification.AlteredClassification
	}
	return c.Assertion()
}
