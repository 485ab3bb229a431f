// Package service exposes the symptom intake operations to the HTTP and MCP
// surfaces: text analysis, wellness plan generation and the combined
// assessment that is recorded in history.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/history"
	"github.com/symptom-intake-server/internal/recommendation"
	"github.com/symptom-intake-server/pkg/external"
)

// AssessmentService ties the NLP pipeline, the recommendation engine and the
// assessment history together.
type AssessmentService struct {
	processor domain.SymptomProcessor
	planner   domain.PlanGenerator
	history   history.Store
	caps      external.Capabilities
	logger    *logrus.Logger
}

// Assessment is the result of a combined analyze-and-plan call.
type Assessment struct {
	ID        uuid.UUID              `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Analysis  *domain.AnalysisResult `json:"analysis"`
	Plan      *domain.WellnessPlan   `json:"plan"`
}

// Status reports which optional backends the pipeline is using.
type Status struct {
	AdvancedNLP            bool                  `json:"advanced_nlp"`
	ChatBackend            bool                  `json:"chat_backend"`
	RecommendationsEnabled bool                  `json:"recommendations_enabled"`
	Capabilities           external.Capabilities `json:"capabilities"`
	HistoryCount           int64                 `json:"history_count"`
}

// NewAssessmentService creates the service. planner may be nil, in which case
// plan generation is disabled and the basic plan is served.
func NewAssessmentService(
	processor domain.SymptomProcessor,
	planner domain.PlanGenerator,
	store history.Store,
	caps external.Capabilities,
	logger *logrus.Logger,
) *AssessmentService {
	return &AssessmentService{
		processor: processor,
		planner:   planner,
		history:   store,
		caps:      caps,
		logger:    logger,
	}
}

// ProcessSymptoms analyzes text. The only error is domain.ErrEmptyInput.
func (s *AssessmentService) ProcessSymptoms(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	return s.processor.Process(ctx, text)
}

// GenerateWellnessPlan builds a plan for analysis. It never fails.
func (s *AssessmentService) GenerateWellnessPlan(ctx context.Context, analysis *domain.AnalysisResult, uctx *domain.UserContext) *domain.WellnessPlan {
	if s.planner != nil {
		return s.planner.Generate(ctx, analysis, uctx)
	}

	plan := recommendation.BasicPlan()
	if analysis != nil {
		recommendation.ApplyEmergencyOverride(plan, analysis.Intent)
		plan.NLPConfidence = analysis.Confidence
	}
	return plan
}

// Assess runs analysis and plan generation and records the result. History
// failures are logged and do not fail the call.
func (s *AssessmentService) Assess(ctx context.Context, text string, uctx *domain.UserContext) (*Assessment, error) {
	analysis, err := s.ProcessSymptoms(ctx, text)
	if err != nil {
		return nil, err
	}
	plan := s.GenerateWellnessPlan(ctx, analysis, uctx)

	record := history.NewRecord(analysis, plan)
	if s.history != nil {
		if err := s.history.Append(ctx, record); err != nil {
			s.logger.WithError(err).WithField("assessment_id", record.ID).Warn("Failed to record assessment history")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"assessment_id":     record.ID,
		"intent":            analysis.Intent,
		"processing_method": analysis.ProcessingMethod,
		"model_used":        plan.ModelUsed,
	}).Info("Assessment completed")

	return &Assessment{
		ID:        record.ID,
		CreatedAt: record.CreatedAt,
		Analysis:  analysis,
		Plan:      plan,
	}, nil
}

// RecentAssessments returns up to limit history records, newest first.
func (s *AssessmentService) RecentAssessments(ctx context.Context, limit int) ([]*history.Record, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(ctx, limit)
}

// GetAssessment returns one history record or domain.ErrNotFound.
func (s *AssessmentService) GetAssessment(ctx context.Context, id uuid.UUID) (*history.Record, error) {
	if s.history == nil {
		return nil, domain.ErrNotFound
	}
	return s.history.Get(ctx, id)
}

// Capabilities reports pipeline status.
func (s *AssessmentService) Capabilities(ctx context.Context) Status {
	st := Status{
		AdvancedNLP:            s.caps.EntityRecognition,
		ChatBackend:            s.caps.ChatCompletion,
		RecommendationsEnabled: s.planner != nil,
		Capabilities:           s.caps,
	}
	if s.history != nil {
		count, err := s.history.Count(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to count assessment history")
		}
		st.HistoryCount = count
	}
	return st
}
