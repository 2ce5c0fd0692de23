package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/vci-pathogenicity-calculator/internal/domain"
	"github.com/vci-pathogenicity-calculator/internal/service"
)

const (
	toolClassify     = "classify_evaluations"
	toolValidate     = "validate_evaluations"
	toolListCriteria = "list_criteria"
)

// EvaluationInput is one criterion evaluation as supplied by a client.
type EvaluationInput struct {
	Criteria         string  `json:"criteria" jsonschema:"ACMG/AMP criterion code, e.g. PVS1 or BP4"`
	CriteriaStatus   string  `json:"criteriaStatus" jsonschema:"one of met, not-met, not-evaluated"`
	CriteriaModifier *string `json:"criteriaModifier,omitempty" jsonschema:"optional strength override: very-strong, strong, moderate, supporting or stand-alone"`
}

// ModificationInput is a curator's override of the calculated classification.
type ModificationInput struct {
	AlteredClassification string `json:"alteredClassification" jsonschema:"classification to report instead of the calculated one, or No Modification"`
	Reason                string `json:"reason,omitempty" jsonschema:"why the classification was changed; required when it is"`
}

// EvaluationSetParams defines parameters shared by the classify and validate tools
type EvaluationSetParams struct {
	Evaluations  []EvaluationInput  `json:"evaluations" jsonschema:"the curated criterion evaluations for one variant"`
	Modification *ModificationInput `json:"modification,omitempty" jsonschema:"optional curator override of the calculated classification"`
}

// ClassifyResult defines the result structure for the classify tool
type ClassifyResult struct {
	Assertion      domain.Assertion       `json:"assertion"`
	Effective      domain.Assertion       `json:"effective_assertion"`
	Classification *domain.Classification `json:"classification,omitempty"`
	ProcessingTime string                 `json:"processing_time"`
}

// ValidateResult defines the result structure for the validate tool
type ValidateResult struct {
	Valid  bool           `json:"valid"`
	Issues []domain.Issue `json:"issues"`
}

// ListCriteriaParams defines parameters for the list_criteria tool
type ListCriteriaParams struct {
	Side string `json:"side,omitempty" jsonschema:"restrict to pathogenic or benign criteria"`
}

// RuleInfo describes one evidence combination rule.
type RuleInfo struct {
	Name     string              `json:"name"`
	Category domain.RuleCategory `json:"category"`
}

// ListCriteriaResult defines the result structure for the list_criteria tool
type ListCriteriaResult struct {
	Criteria         []domain.Criterion       `json:"criteria"`
	ExclusiveGroups  [][]domain.CriterionCode `json:"exclusive_groups"`
	CombinationRules []RuleInfo               `json:"combination_rules"`
}

func (s *Server) handleClassify(ctx context.Context, _ *mcp.CallToolRequest, params EvaluationSetParams) (*mcp.CallToolResult, ClassifyResult, error) {
	start := time.Now()
	s.logger.WithFields(logrus.Fields{
		"tool":        toolClassify,
		"evaluations": len(params.Evaluations),
	}).Info("Tool invoked")

	classification, err := s.classifier.ClassifyRequest(ctx, toRequest(params))
	if err != nil {
		return toolError(err), ClassifyResult{}, nil
	}

	result := ClassifyResult{
		Assertion:      classification.Assertion(),
		Effective:      classification.Effective(),
		Classification: classification,
		ProcessingTime: time.Since(start).String(),
	}
	return textResult(result), result, nil
}

func (s *Server) handleValidate(_ context.Context, _ *mcp.CallToolRequest, params EvaluationSetParams) (*mcp.CallToolResult, ValidateResult, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":        toolValidate,
		"evaluations": len(params.Evaluations),
	}).Info("Tool invoked")

	issues := s.classifier.ValidateRequest(toRequest(params))
	result := ValidateResult{
		Valid:  !domain.HasErrors(issues),
		Issues: issues,
	}
	return textResult(result), result, nil
}

func (s *Server) handleListCriteria(_ context.Context, _ *mcp.CallToolRequest, params ListCriteriaParams) (*mcp.CallToolResult, ListCriteriaResult, error) {
	s.logger.WithField("tool", toolListCriteria).Info("Tool invoked")

	side := domain.Side(strings.ToLower(params.Side))
	if side != "" && !side.IsValid() {
		return toolError(fmt.Errorf("unknown side %q: expected pathogenic or benign", params.Side)), ListCriteriaResult{}, nil
	}

	result := ListCriteriaResult{
		Criteria:        []domain.Criterion{},
		ExclusiveGroups: domain.ExclusiveGroups(),
	}
	for _, c := range domain.Criteria() {
		if side == "" || c.Side == side {
			result.Criteria = append(result.Criteria, c)
		}
	}
	for _, rule := range service.CombinationRules() {
		result.CombinationRules = append(result.CombinationRules, RuleInfo{Name: rule.Name, Category: rule.Category})
	}
	return textResult(result), result, nil
}

func toRequest(params EvaluationSetParams) domain.ClassificationRequest {
	req := domain.ClassificationRequest{Evaluations: toEvaluations(params.Evaluations)}
	if m := params.Modification; m != nil {
		req.Modification = &domain.Modification{
			AlteredClassification: domain.Assertion(m.AlteredClassification),
			Reason:                m.Reason,
		}
	}
	return req
}

func toEvaluations(in []EvaluationInput) []domain.Evaluation {
	out := make([]domain.Evaluation, 0, len(in))
	for _, ev := range in {
		e := domain.Evaluation{
			Criteria:       domain.CriterionCode(ev.Criteria),
			CriteriaStatus: domain.CriterionStatus(ev.CriteriaStatus),
		}
		if ev.CriteriaModifier != nil {
			e.CriteriaModifier = domain.Strength(*ev.CriteriaModifier)
		}
		out = append(out, e)
	}
	return out
}

// textResult renders v as indented JSON text content.
func textResult(v any) *mcp.CallToolResult {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(fmt.Errorf("failed to encode result: %w", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
	}
}

// toolError reports a failure as an error result rather than a protocol error.
func toolError(err error) *mcp.CallToolResult {
	msg := err.Error()
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		lines := make([]string, 0, len(verrs)+1)
		lines = append(lines, "evaluation set failed validation:")
		for _, v := range verrs {
			lines = append(lines, fmt.Sprintf("- %s: %s", v.Field, v.Message))
		}
		msg = strings.Join(lines, "\n")
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
