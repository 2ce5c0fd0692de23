package validation

import (
	"fmt"
	"strings"

	"github.com/vci-pathogenicity-calculator/internal/domain"
)

// Audit reports problems in an evaluation set without altering it. Issues
// are ordered by record index, with mutually exclusive group findings last.
func Audit(evaluations []domain.Evaluation) []domain.Issue {
	var issues []domain.Issue
	firstSeen := make(map[domain.CriterionCode]int, len(evaluations))
	latest := make(map[domain.CriterionCode]int, len(evaluations))

	for i, ev := range evaluations {
		issues = append(issues, auditRecord(i, ev)...)

		if prev, dup := firstSeen[ev.Criteria]; dup {
			issues = append(issues, domain.Issue{
				Index:    i,
				Criteria: ev.Criteria,
				Kind:     domain.DUPLICATE_CRITERION,
				Severity: domain.SEVERITY_ERROR,
				Message:  fmt.Sprintf("overrides the evaluation at index %d", prev),
			})
		} else {
			firstSeen[ev.Criteria] = i
		}
		latest[ev.Criteria] = i
	}

	return append(issues, auditExclusiveGroups(evaluations, latest)...)
}

func auditRecord(i int, ev domain.Evaluation) []domain.Issue {
	var issues []domain.Issue
	add := func(kind domain.IssueKind, sev domain.Severity, format string, args ...any) {
		issues = append(issues, domain.Issue{
			Index:    i,
			Criteria: ev.Criteria,
			Kind:     kind,
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if !ev.CriteriaStatus.IsValid() {
		add(domain.INVALID_STATUS, domain.SEVERITY_ERROR,
			"status %q is not one of met, not-met, not-evaluated; record ignored", ev.CriteriaStatus)
	}

	entry, known := domain.LookupCriterion(ev.Criteria)
	switch {
	case !known && ev.Criteria.DefaultBucket() != domain.NO_BUCKET:
		add(domain.UNKNOWN_CRITERION, domain.SEVERITY_ERROR,
			"%q is not an ACMG/AMP criterion; counted as %s by prefix", ev.Criteria, ev.Criteria.DefaultBucket())
	case !known:
		add(domain.UNKNOWN_CRITERION, domain.SEVERITY_ERROR,
			"%q is not an ACMG/AMP criterion", ev.Criteria)
	case entry.Retired:
		add(domain.RETIRED_CRITERION, domain.SEVERITY_WARNING,
			"%s is retired and should not be applied", ev.Criteria)
	}

	if mod := ev.CriteriaModifier; mod != "" {
		side := ev.Criteria.Side()
		switch {
		case !mod.IsValid():
			add(domain.INVALID_MODIFIER, domain.SEVERITY_ERROR, "unknown strength modifier %q", mod)
		case side == "":
			add(domain.INVALID_MODIFIER, domain.SEVERITY_ERROR, "%s cannot apply to a code with no evidence side", mod)
		case !mod.ValidFor(side):
			add(domain.INVALID_MODIFIER, domain.SEVERITY_ERROR, "%s is not a %s strength", mod, side)
		case known && !entry.AllowsModifier(mod):
			add(domain.MODIFIER_NOT_OFFERED, domain.SEVERITY_WARNING,
				"%s is not a selectable modifier for %s", mod, ev.Criteria)
		}
	}

	return issues
}

func auditExclusiveGroups(evaluations []domain.Evaluation, latest map[domain.CriterionCode]int) []domain.Issue {
	var issues []domain.Issue
	for _, group := range domain.ExclusiveGroups() {
		var metCodes []string
		last := -1
		var lastCode domain.CriterionCode
		for _, code := range group {
			idx, ok := latest[code]
			if !ok || evaluations[idx].CriteriaStatus != domain.MET {
				continue
			}
			metCodes = append(metCodes, string(code))
			if idx > last {
				last, lastCode = idx, code
			}
		}
		if len(metCodes) > 1 {
			issues = append(issues, domain.Issue{
				Index:    last,
				Criteria: lastCode,
				Kind:     domain.EXCLUSIVE_GROUP,
				Severity: domain.SEVERITY_WARNING,
				Message:  fmt.Sprintf("only one of %s may be met", strings.Join(metCodes, ", ")),
			})
		}
	}
	return issues
}

// AuditRequest audits the evaluation set and then the modification, if any.
func AuditRequest(req domain.ClassificationRequest) []domain.Issue {
	issues := Audit(req.Evaluations)
	return append(issues, AuditModification(req.Modification)...)
}

// AuditModification checks a curator's modified classification: the label
// must be a classification the engine can produce and an override needs a
// reason. A nil modification or NO_MODIFICATION has nothing to check.
func AuditModification(m *domain.Modification) []domain.Issue {
	if !m.Overrides() {
		return nil
	}
	var issues []domain.Issue
	if !m.AlteredClassification.IsValid() {
		issues = append(issues, domain.Issue{
			Index:    -1,
			Kind:     domain.INVALID_MODIFICATION,
			Severity: domain.SEVERITY_ERROR,
			Message:  fmt.Sprintf("%q is not a classification; modification ignored", m.AlteredClassification),
		})
	}
	if strings.TrimSpace(m.Reason) == "" {
		issues = append(issues, domain.Issue{
			Index:    -1,
			Kind:     domain.MISSING_REASON,
			Severity: domain.SEVERITY_ERROR,
			Message:  fmt.Sprintf("changing the classification to %q requires a reason; modification ignored", m.AlteredClassification),
		})
	}
	return issues
}

// Errors converts the error-severity issues into a ValidationErrors value,
// or returns nil if there are none.
func Errors(issues []domain.Issue) error {
	var errs domain.ValidationErrors
	for _, issue := range issues {
		if issue.Severity != domain.SEVERITY_ERROR {
			continue
		}
		field := fmt.Sprintf("evaluations[%d].%s", issue.Index, issueField(issue.Kind))
		if issue.Index < 0 {
			field = "modification." + issueField(issue.Kind)
		}
		errs = append(errs, domain.NewValidationError(field, issue.Message, string(issue.Criteria), issue.Sentinel()))
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func issueField(kind domain.IssueKind) string {
	switch kind {
	case domain.INVALID_STATUS:
		return "criteriaStatus"
	case domain.INVALID_MODIFIER, domain.MODIFIER_NOT_OFFERED:
		return "criteriaModifier"
	case domain.INVALID_MODIFICATION:
		return "alteredClassification"
	case domain.MISSING_REASON:
		return "reason"
	default:
		return "criteria"
	}
}
