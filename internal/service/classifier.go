package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vci-pathogenicity-calculator/internal/cache"
	"github.com/vci-pathogenicity-calculator/internal/domain"
	"github.com/vci-pathogenicity-calculator/internal/validation"
)

// ClassifierService audits evaluation sets, runs the rule engine and
// memoises its results.
type ClassifierService struct {
	logger *logrus.Logger
	engine *ACMGAMPRuleEngine
	cache  *cache.ResultCache
	strict bool

	classifications atomic.Int64
	rejected        atomic.Int64
}

// ServiceStats summarises classifier activity
type ServiceStats struct {
	Classifications int64        `json:"classifications"`
	Rejected        int64        `json:"rejected"`
	StrictMode      bool         `json:"strict_mode"`
	Cache           *cache.Stats `json:"cache,omitempty"`
}

// Option configures a ClassifierService
type Option func(*ClassifierService)

// WithCache memoises engine results in c.
func WithCache(c *cache.ResultCache) Option {
	return func(s *ClassifierService) {
		s.cache = c
	}
}

// WithStrictValidation rejects evaluation sets with error-severity issues
// instead of classifying them.
func WithStrictValidation(strict bool) Option {
	return func(s *ClassifierService) {
		s.strict = strict
	}
}

// NewClassifierService creates a new classifier service
func NewClassifierService(logger *logrus.Logger, opts ...Option) *ClassifierService {
	s := &ClassifierService{
		logger: logger,
		engine: NewACMGAMPRuleEngine(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ domain.Classifier = (*ClassifierService)(nil)

// Classify audits and classifies one evaluation set. In strict mode any
// error-severity issue rejects the set with domain.ValidationErrors;
// otherwise issues are returned alongside the result as warnings.
func (s *ClassifierService) Classify(ctx context.Context, evaluations []domain.Evaluation) (*domain.Classification, error) {
	return s.ClassifyRequest(ctx, domain.ClassificationRequest{Evaluations: evaluations})
}

// ClassifyRequest is Classify with an optional curator modification. An
// accepted modification sets the effective classification; a rejected one
// is dropped with a warning, or rejects the request in strict mode.
func (s *ClassifierService) ClassifyRequest(ctx context.Context, req domain.ClassificationRequest) (*domain.Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	evaluations := req.Evaluations

	issues := validation.AuditRequest(req)
	if s.strict && domain.HasErrors(issues) {
		s.rejected.Add(1)
		err := validation.Errors(issues)
		s.logger.WithFields(logrus.Fields{
			"evaluations": len(evaluations),
			"issues":      len(issues),
		}).WithError(err).Warn("Rejected evaluation set")
		return nil, err
	}
	for _, issue := range issues {
		s.logger.WithFields(logrus.Fields{
			"index":    issue.Index,
			"criteria": issue.Criteria,
			"kind":     issue.Kind,
			"severity": issue.Severity,
		}).Warn(issue.Message)
	}

	if issues == nil {
		issues = []domain.Issue{}
	}
	classification := &domain.Classification{
		FiredRules:  []string{},
		MetCriteria: []string{},
		Warnings:    issues,
	}
	if req.Modification.Overrides() && len(validation.AuditModification(req.Modification)) == 0 {
		mod := *req.Modification
		classification.Modification = &mod
	}
	if len(evaluations) == 0 {
		classification.EffectiveClassification = classification.Effective()
		return classification, nil
	}

	deduped := latestPerCode(evaluations)
	detail, cached := s.evaluate(ctx, deduped)

	classification.Result = detail.Result()
	classification.AutoClassification = classification.Assertion()
	classification.EffectiveClassification = classification.Effective()
	classification.Counts = detail.Counts
	classification.FiredRules = append(classification.FiredRules, detail.FiredRules...)
	classification.MetCriteria = metCriteriaLabels(deduped)
	classification.Cached = cached
	s.classifications.Add(1)

	s.logger.WithFields(logrus.Fields{
		"evaluations":     len(evaluations),
		"fired_rules":     detail.FiredRules,
		"counts":          detail.Counts,
		"contradict":      detail.Contradict,
		"cached":          cached,
		"processing_time": time.Since(start),
		"effective":       classification.EffectiveClassification,
	}).WithFields(detail.Assertion.LogFields()).Info("Classification completed")

	return classification, nil
}

// Validate audits an evaluation set without classifying it.
func (s *ClassifierService) Validate(evaluations []domain.Evaluation) []domain.Issue {
	return s.ValidateRequest(domain.ClassificationRequest{Evaluations: evaluations})
}

// ValidateRequest audits an evaluation set and its modification.
func (s *ClassifierService) ValidateRequest(req domain.ClassificationRequest) []domain.Issue {
	issues := validation.AuditRequest(req)
	if issues == nil {
		return []domain.Issue{}
	}
	return issues
}

// Stats returns classifier and cache statistics.
func (s *ClassifierService) Stats() ServiceStats {
	stats := ServiceStats{
		Classifications: s.classifications.Load(),
		Rejected:        s.rejected.Load(),
		StrictMode:      s.strict,
	}
	if s.cache != nil {
		cs := s.cache.Stats()
		stats.Cache = &cs
	}
	return stats
}

func (s *ClassifierService) evaluate(ctx context.Context, deduped []domain.Evaluation) (*domain.ClassificationDetail, bool) {
	if s.cache == nil {
		return s.engine.Evaluate(deduped), false
	}
	key := Fingerprint(deduped)
	if detail, ok := s.cache.Get(ctx, key); ok {
		return detail, true
	}
	detail := s.engine.Evaluate(deduped)
	s.cache.Set(ctx, key, detail)
	return detail, false
}

// Fingerprint returns an order-independent key for an evaluation set.
// Duplicate codes are reduced to their last record first.
func Fingerprint(evaluations []domain.Evaluation) string {
	deduped := latestPerCode(evaluations)
	sort.Slice(deduped, func(i, j int) bool {
		return deduped[i].Criteria < deduped[j].Criteria
	})
	// JSON escapes any separator a field may contain
	payload, _ := json.Marshal(deduped)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// metCriteriaLabels lists met codes in CODE or CODE_modifier form, sorted.
func metCriteriaLabels(deduped []domain.Evaluation) []string {
	labels := make([]string, 0, len(deduped))
	for _, ev := range deduped {
		if ev.CriteriaStatus != domain.MET {
			continue
		}
		label := string(ev.Criteria)
		if ev.CriteriaModifier != "" {
			label += "_" + string(ev.CriteriaModifier)
		}
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
