package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vci-pathogenicity-calculator/internal/domain"
	"github.com/vci-pathogenicity-calculator/internal/middleware"
	"github.com/vci-pathogenicity-calculator/internal/service"
	"github.com/vci-pathogenicity-calculator/internal/validation"
)

// CriteriaResponse describes the criteria catalog and the rule set.
type CriteriaResponse struct {
	Criteria         []domain.Criterion       `json:"criteria"`
	ExclusiveGroups  [][]domain.CriterionCode `json:"exclusiveGroups"`
	CombinationRules []RuleSummary            `json:"combinationRules"`
}

// RuleSummary names one combination rule and the category it fires into.
type RuleSummary struct {
	Name     string              `json:"name"`
	Category domain.RuleCategory `json:"category"`
}

// ValidateResponse is returned by the validate endpoint.
type ValidateResponse struct {
	Valid  bool           `json:"valid"`
	Issues []domain.Issue `json:"issues"`
}

// handleHealth returns the health status of the service
func (s *Server) handleHealth(c *gin.Context) {
	cfg := s.configManager.GetConfig()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   cfg.MCP.ServerVersion,
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"stats":     s.classifier.Stats(),
	})
}

func (s *Server) handleListCriteria(c *gin.Context) {
	rules := service.CombinationRules()
	summaries := make([]RuleSummary, 0, len(rules))
	for _, r := range rules {
		summaries = append(summaries, RuleSummary{Name: r.Name, Category: r.Category})
	}
	c.JSON(http.StatusOK, CriteriaResponse{
		Criteria:         domain.Criteria(),
		ExclusiveGroups:  domain.ExclusiveGroups(),
		CombinationRules: summaries,
	})
}

func (s *Server) handleGetCriterion(c *gin.Context) {
	code := domain.CriterionCode(strings.ToUpper(c.Param("code")))
	criterion, ok := domain.LookupCriterion(code)
	if !ok {
		s.abortWithError(c, http.StatusNotFound, domain.ErrNotFound, "Unknown criterion", gin.H{"code": c.Param("code")})
		return
	}
	c.JSON(http.StatusOK, criterion)
}

func (s *Server) handleClassify(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}

	classification, err := s.classifier.ClassifyRequest(c.Request.Context(), req)
	if err != nil {
		s.handleClassifyError(c, err)
		return
	}
	c.JSON(http.StatusOK, classification)
}

func (s *Server) handleValidate(c *gin.Context) {
	req, ok := s.bindRequest(c)
	if !ok {
		return
	}

	issues := s.classifier.ValidateRequest(req)
	c.JSON(http.StatusOK, ValidateResponse{
		Valid:  !domain.HasErrors(issues),
		Issues: issues,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.classifier.Stats())
}

// bindRequest reads and schema-checks the request body. On failure the
// response has already been written.
func (s *Server) bindRequest(c *gin.Context) (domain.ClassificationRequest, bool) {
	var req domain.ClassificationRequest
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.abortWithError(c, http.StatusRequestEntityTooLarge, domain.ErrInvalidInput, "Request body too large", gin.H{"limit": tooLarge.Limit})
			return req, false
		}
		s.abortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Failed to read request body", nil)
		return req, false
	}

	req, err = validation.ParseRequest(body)
	if err != nil {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrInvalidInput, "Invalid evaluation set", gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

func (s *Server) handleClassifyError(c *gin.Context, err error) {
	status, apiErr := s.classifyError(err, middleware.CorrelationIDFromContext(c))
	c.AbortWithStatusJSON(status, apiErr)
}

// classifyError maps a classifier error to an HTTP status and error body.
func (s *Server) classifyError(err error, requestID string) (int, *domain.APIError) {
	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, domain.NewAPIError(domain.ErrValidation, "Evaluation set failed validation", verrs, requestID)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, domain.NewAPIError(domain.ErrTimeout, "Request timed out", nil, requestID)
	default:
		s.logger.WithError(err).WithField("correlation_id", requestID).Error("Classification failed")
		return http.StatusInternalServerError, domain.NewAPIError(domain.ErrInternalServer, "Classification failed", nil, requestID)
	}
}

func (s *Server) abortWithError(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, middleware.CorrelationIDFromContext(c)))
}
