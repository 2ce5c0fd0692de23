package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vci-pathogenicity-calculator/internal/domain"
)

func TestParseEvaluations(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []domain.Evaluation
		err      error
	}{
		{
			name:  "bare array",
			input: `[{"criteria":"PVS1","criteriaStatus":"met","criteriaModifier":null}]`,
			expected: []domain.Evaluation{
				{Criteria: "PVS1", CriteriaStatus: domain.MET},
			},
		},
		{
			name:  "envelope",
			input: `{"evaluations":[{"criteria":"PM2","criteriaStatus":"met","criteriaModifier":"supporting"},{"criteria":"BA1","criteriaStatus":"not-met"}]}`,
			expected: []domain.Evaluation{
				{Criteria: "PM2", CriteriaStatus: domain.MET, CriteriaModifier: domain.SUPPORTING},
				{Criteria: "BA1", CriteriaStatus: domain.NOT_MET},
			},
		},
		{
			name:     "empty array",
			input:    `[]`,
			expected: []domain.Evaluation{},
		},
		{
			name:  "unknown values pass structural check",
			input: `[{"criteria":"XYZ","criteriaStatus":"maybe","criteriaModifier":"weak"}]`,
			expected: []domain.Evaluation{
				{Criteria: "XYZ", CriteriaStatus: "maybe", CriteriaModifier: "weak"},
			},
		},
		{name: "not json", input: `[{"criteria":`, err: ErrMalformedDocument},
		{name: "scalar", input: `"PVS1"`, err: ErrSchemaViolation},
		{name: "missing status", input: `[{"criteria":"PVS1"}]`, err: ErrSchemaViolation},
		{name: "numeric criteria", input: `[{"criteria":1,"criteriaStatus":"met"}]`, err: ErrSchemaViolation},
		{name: "numeric modifier", input: `[{"criteria":"PS1","criteriaStatus":"met","criteriaModifier":2}]`, err: ErrSchemaViolation},
		{name: "envelope without evaluations", input: `{"items":[]}`, err: ErrSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvaluations([]byte(tt.input))
			if tt.err != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.err), "expected %v, got %v", tt.err, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func kinds(issues []domain.Issue) []domain.IssueKind {
	out := make([]domain.IssueKind, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}

func TestAuditCleanSet(t *testing.T) {
	issues := Audit([]domain.Evaluation{
		{Criteria: "PVS1", CriteriaStatus: domain.MET},
		{Criteria: "PM2", CriteriaStatus: domain.MET, CriteriaModifier: domain.SUPPORTING},
		{Criteria: "BA1", CriteriaStatus: domain.NOT_MET},
		{Criteria: "PS3", CriteriaStatus: domain.NOT_EVALUATED},
	})
	assert.Empty(t, issues)
	assert.Nil(t, Errors(issues))
}

func TestAuditRecordIssues(t *testing.T) {
	tests := []struct {
		name     string
		eval     domain.Evaluation
		kinds    []domain.IssueKind
		severity domain.Severity
	}{
		{"unknown code", domain.Evaluation{Criteria: "PS9", CriteriaStatus: domain.MET}, []domain.IssueKind{domain.UNKNOWN_CRITERION}, domain.SEVERITY_ERROR},
		{"bad status", domain.Evaluation{Criteria: "PS1", CriteriaStatus: "Met"}, []domain.IssueKind{domain.INVALID_STATUS}, domain.SEVERITY_ERROR},
		{"unknown modifier", domain.Evaluation{Criteria: "PS1", CriteriaStatus: domain.MET, CriteriaModifier: "weak"}, []domain.IssueKind{domain.INVALID_MODIFIER}, domain.SEVERITY_ERROR},
		{"wrong side modifier", domain.Evaluation{Criteria: "BS1", CriteriaStatus: domain.MET, CriteriaModifier: domain.MODERATE}, []domain.IssueKind{domain.INVALID_MODIFIER}, domain.SEVERITY_ERROR},
		{"modifier not offered", domain.Evaluation{Criteria: "PS1", CriteriaStatus: domain.MET, CriteriaModifier: domain.VERY_STRONG}, []domain.IssueKind{domain.MODIFIER_NOT_OFFERED}, domain.SEVERITY_WARNING},
		{"retired", domain.Evaluation{Criteria: "PP5", CriteriaStatus: domain.MET}, []domain.IssueKind{domain.RETIRED_CRITERION}, domain.SEVERITY_WARNING},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Audit([]domain.Evaluation{tt.eval})
			require.Equal(t, tt.kinds, kinds(issues))
			assert.Equal(t, tt.severity, issues[0].Severity)
			assert.Equal(t, 0, issues[0].Index)
			assert.Equal(t, tt.eval.Criteria, issues[0].Criteria)
			assert.NotEmpty(t, issues[0].Message)
		})
	}
}

func TestAuditDuplicates(t *testing.T) {
	issues := Audit([]domain.Evaluation{
		{Criteria: "PM2", CriteriaStatus: domain.MET},
		{Criteria: "PVS1", CriteriaStatus: domain.MET},
		{Criteria: "PM2", CriteriaStatus: domain.NOT_MET},
	})
	require.Len(t, issues, 1)
	assert.Equal(t, domain.DUPLICATE_CRITERION, issues[0].Kind)
	assert.Equal(t, 2, issues[0].Index)
	assert.Contains(t, issues[0].Message, "index 0")
}

func TestAuditExclusiveGroups(t *testing.T) {
	issues := Audit([]domain.Evaluation{
		{Criteria: "PM2", CriteriaStatus: domain.MET},
		{Criteria: "PP3", CriteriaStatus: domain.MET},
		{Criteria: "BA1", CriteriaStatus: domain.MET},
		{Criteria: "BP4", CriteriaStatus: domain.NOT_MET},
	})
	require.Equal(t, []domain.IssueKind{domain.EXCLUSIVE_GROUP}, kinds(issues))
	assert.Equal(t, 2, issues[0].Index)
	assert.Equal(t, domain.CriterionCode("BA1"), issues[0].Criteria)
	assert.Equal(t, "only one of BA1, PM2 may be met", issues[0].Message)
	assert.Nil(t, Errors(issues))

	// a later not-met overrides the earlier met record
	issues = Audit([]domain.Evaluation{
		{Criteria: "PP3", CriteriaStatus: domain.MET},
		{Criteria: "BP4", CriteriaStatus: domain.MET},
		{Criteria: "PP3", CriteriaStatus: domain.NOT_MET},
	})
	assert.Equal(t, []domain.IssueKind{domain.DUPLICATE_CRITERION}, kinds(issues))
}

func TestErrors(t *testing.T) {
	issues := Audit([]domain.Evaluation{
		{Criteria: "XYZ", CriteriaStatus: domain.MET},
		{Criteria: "PP5", CriteriaStatus: domain.MET},
		{Criteria: "PM1", CriteriaStatus: "unknown"},
	})
	require.True(t, domain.HasErrors(issues))

	err := Errors(issues)
	require.Error(t, err)

	var verrs domain.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, "evaluations[0].criteria", verrs[0].Field)
	assert.Equal(t, "evaluations[2].criteriaStatus", verrs[1].Field)
	assert.True(t, errors.Is(err, domain.ErrUnknownCriterion))
	assert.True(t, errors.Is(err, domain.ErrInvalidStatus))
	assert.False(t, errors.Is(err, domain.ErrDuplicateCriterion))
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest([]byte(`{
		"evaluations": [{"criteria":"PVS1","criteriaStatus":"met"}],
		"modification": {"alteredClassification": "Pathogenic", "reason": "functional data"}
	}`))
	require.NoError(t, err)
	assert.Len(t, req.Evaluations, 1)
	require.NotNil(t, req.Modification)
	assert.Equal(t, domain.PATHOGENIC, req.Modification.AlteredClassification)
	assert.Equal(t, "functional data", req.Modification.Reason)

	req, err = ParseRequest([]byte(`[{"criteria":"PVS1","criteriaStatus":"met"}]`))
	require.NoError(t, err)
	assert.Nil(t, req.Modification)

	_, err = ParseRequest([]byte(`{"evaluations": [], "modification": {"reason": 7}}`))
	assert.ErrorIs(t, err, ErrSchemaViolation)
}

func TestAuditModification(t *testing.T) {
	tests := []struct {
		name         string
		modification *domain.Modification
		expected     []domain.IssueKind
	}{
		{name: "none", modification: nil, expected: []domain.IssueKind{}},
		{name: "no modification label", modification: &domain.Modification{AlteredClassification: domain.NO_MODIFICATION}, expected: []domain.IssueKind{}},
		{name: "override with reason", modification: &domain.Modification{AlteredClassification: domain.LIKELY_BENIGN, Reason: "population data"}, expected: []domain.IssueKind{}},
		{name: "override without reason", modification: &domain.Modification{AlteredClassification: domain.LIKELY_BENIGN}, expected: []domain.IssueKind{domain.MISSING_REASON}},
		{name: "unknown label", modification: &domain.Modification{AlteredClassification: "VUS", Reason: "short form"}, expected: []domain.IssueKind{domain.INVALID_MODIFICATION}},
		{name: "unknown label without reason", modification: &domain.Modification{AlteredClassification: "VUS"}, expected: []domain.IssueKind{domain.INVALID_MODIFICATION, domain.MISSING_REASON}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, kinds(AuditModification(tt.modification)))
		})
	}
}

func TestErrorsModificationFields(t *testing.T) {
	err := Errors(AuditRequest(domain.ClassificationRequest{
		Evaluations:  []domain.Evaluation{{Criteria: "PVS1", CriteriaStatus: domain.MET}},
		Modification: &domain.Modification{AlteredClassification: "VUS"},
	}))

	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	assert.Equal(t, "modification.alteredClassification", verrs[0].Field)
	assert.Equal(t, "modification.reason", verrs[1].Field)
	assert.ErrorIs(t, err, domain.ErrInvalidModification)
	assert.ErrorIs(t, err, domain.ErrMissingReason)
}
