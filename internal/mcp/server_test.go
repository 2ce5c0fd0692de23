package mcp

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vci-pathogenicity-calculator/internal/domain"
	"github.com/vci-pathogenicity-calculator/internal/service"
)

func newTestServer(strict bool) *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	classifier := service.NewClassifierService(logger, service.WithStrictValidation(strict))
	return NewServer(classifier, WithLogger(logger), WithImplementation("vci-classifier-test", "v0.0.1"))
}

func ptr(s string) *string { return &s }

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewServer(t *testing.T) {
	s := newTestServer(false)
	assert.NotNil(t, s.mcpServer)
	assert.Equal(t, "vci-classifier-test", s.info.Name)
	assert.Equal(t, "v0.0.1", s.info.Version)
	assert.NotNil(t, s.HTTPHandler())
}

func TestClassifyTool(t *testing.T) {
	s := newTestServer(false)
	params := EvaluationSetParams{Evaluations: []EvaluationInput{
		{Criteria: "PS2", CriteriaStatus: "met", CriteriaModifier: ptr("very-strong")},
		{Criteria: "PM2", CriteriaStatus: "met"},
		{Criteria: "BS1", CriteriaStatus: "not-met"},
	}}

	res, out, err := s.handleClassify(context.Background(), nil, params)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, domain.LIKELY_PATHOGENIC, out.Assertion)
	require.NotNil(t, out.Classification)
	assert.Equal(t, 1, out.Classification.Counts.PVS)
	assert.Equal(t, 1, out.Classification.Counts.PM)
	assert.Equal(t, []string{"pvs1+pm1"}, out.Classification.FiredRules)
	assert.Equal(t, []string{"PM2", "PS2_very-strong"}, out.Classification.MetCriteria)
	assert.Empty(t, out.Classification.Warnings)

	var decoded ClassifyResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &decoded))
	assert.Equal(t, out.Assertion, decoded.Assertion)
}

func TestClassifyToolModification(t *testing.T) {
	s := newTestServer(true)
	evaluations := []EvaluationInput{
		{Criteria: "PVS1", CriteriaStatus: "met"},
		{Criteria: "PM2", CriteriaStatus: "met"},
	}

	res, out, err := s.handleClassify(context.Background(), nil, EvaluationSetParams{
		Evaluations:  evaluations,
		Modification: &ModificationInput{AlteredClassification: "Pathogenic", Reason: "segregation in three affected relatives"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, domain.LIKELY_PATHOGENIC, out.Assertion)
	assert.Equal(t, domain.PATHOGENIC, out.Effective)

	res, _, err = s.handleClassify(context.Background(), nil, EvaluationSetParams{
		Evaluations:  evaluations,
		Modification: &ModificationInput{AlteredClassification: "Pathogenic"},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "modification.reason")
}

func TestClassifyToolEmptySet(t *testing.T) {
	s := newTestServer(false)

	res, out, err := s.handleClassify(context.Background(), nil, EvaluationSetParams{})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, domain.NOT_EVALUATED_ASSERTION, out.Assertion)
	assert.Nil(t, out.Classification.Result)
}

func TestClassifyToolStrictRejects(t *testing.T) {
	s := newTestServer(true)
	params := EvaluationSetParams{Evaluations: []EvaluationInput{
		{Criteria: "PVS1", CriteriaStatus: "met"},
		{Criteria: "PVS1", CriteriaStatus: "not-met"},
	}}

	res, out, err := s.handleClassify(context.Background(), nil, params)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Nil(t, out.Classification)
	text := resultText(t, res)
	assert.Contains(t, text, "evaluation set failed validation")
	assert.Contains(t, text, "evaluations[1].criteria")
}

func TestClassifyToolCancelled(t *testing.T) {
	s := newTestServer(false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, _, err := s.handleClassify(ctx, nil, EvaluationSetParams{Evaluations: []EvaluationInput{
		{Criteria: "BA1", CriteriaStatus: "met"},
	}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), context.Canceled.Error())
}

func TestValidateTool(t *testing.T) {
	s := newTestServer(false)
	params := EvaluationSetParams{Evaluations: []EvaluationInput{
		{Criteria: "BA1", CriteriaStatus: "met"},
		{Criteria: "PM2", CriteriaStatus: "met"},
		{Criteria: "BP4", CriteriaStatus: "met", CriteriaModifier: ptr("moderate")},
	}}

	res, out, err := s.handleValidate(context.Background(), nil, params)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.False(t, out.Valid)

	kinds := make([]domain.IssueKind, 0, len(out.Issues))
	for _, issue := range out.Issues {
		kinds = append(kinds, issue.Kind)
	}
	assert.Equal(t, []domain.IssueKind{domain.INVALID_MODIFIER, domain.EXCLUSIVE_GROUP}, kinds)
}

func TestListCriteriaTool(t *testing.T) {
	s := newTestServer(false)

	_, all, err := s.handleListCriteria(context.Background(), nil, ListCriteriaParams{})
	require.NoError(t, err)
	assert.Len(t, all.Criteria, len(domain.Criteria()))
	assert.Len(t, all.CombinationRules, 19)

	_, benign, err := s.handleListCriteria(context.Background(), nil, ListCriteriaParams{Side: "Benign"})
	require.NoError(t, err)
	require.NotEmpty(t, benign.Criteria)
	for _, c := range benign.Criteria {
		assert.Equal(t, domain.BENIGN_SIDE, c.Side)
	}

	res, _, err := s.handleListCriteria(context.Background(), nil, ListCriteriaParams{Side: "neutral"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
