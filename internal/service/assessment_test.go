package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/history"
	"github.com/symptom-intake-server/internal/knowledge"
	"github.com/symptom-intake-server/internal/nlp"
	"github.com/symptom-intake-server/internal/recommendation"
	"github.com/symptom-intake-server/pkg/external"
)

type failingStore struct {
	history.Store
}

func (failingStore) Append(context.Context, *history.Record) error {
	return errors.New("disk full")
}

func (failingStore) Count(context.Context) (int64, error) {
	return 0, errors.New("disk full")
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(store history.Store, withPlanner bool) *AssessmentService {
	logger := quietLogger()
	pipeline := nlp.NewPipeline(knowledge.Default(), nil, external.Capabilities{}, logger)
	var planner domain.PlanGenerator
	if withPlanner {
		planner = recommendation.NewEngine(nil, external.Capabilities{}, logger)
	}
	return NewAssessmentService(pipeline, planner, store, external.Capabilities{}, logger)
}

func TestAssessmentService_ProcessSymptoms(t *testing.T) {
	svc := newTestService(history.NewMemoryStore(10), true)

	_, err := svc.ProcessSymptoms(context.Background(), "   ")
	assert.True(t, errors.Is(err, domain.ErrEmptyInput))

	result, err := svc.ProcessSymptoms(context.Background(), "tired")
	require.NoError(t, err)
	assert.Equal(t, 1, result.EntityCount)
}

func TestAssessmentService_Assess(t *testing.T) {
	store := history.NewMemoryStore(10)
	svc := newTestService(store, true)
	ctx := context.Background()

	a, err := svc.Assess(ctx, "I've been feeling really tired and dizzy for the past few days", nil)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, domain.IntentSymptomCheck, a.Analysis.Intent)
	assert.Equal(t, domain.ModelAdvancedRuleBased, a.Plan.ModelUsed)
	assert.True(t, a.Plan.Complete())

	rec, err := svc.GetAssessment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Analysis.OriginalText, rec.InputText)

	recent, err := svc.RecentAssessments(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, a.ID, recent[0].ID)

	_, err = svc.Assess(ctx, "", nil)
	assert.True(t, errors.Is(err, domain.ErrEmptyInput))
	count, _ := store.Count(ctx)
	assert.Equal(t, int64(1), count, "failed assessments are not recorded")
}

func TestAssessmentService_HistoryFailureIsNotSurfaced(t *testing.T) {
	svc := newTestService(failingStore{Store: history.NewMemoryStore(1)}, true)

	a, err := svc.Assess(context.Background(), "headache and nausea", nil)
	require.NoError(t, err)
	assert.True(t, a.Plan.Complete())

	status := svc.Capabilities(context.Background())
	assert.Equal(t, int64(0), status.HistoryCount)
}

func TestAssessmentService_RecommendationsDisabled(t *testing.T) {
	svc := newTestService(history.NewMemoryStore(10), false)
	ctx := context.Background()

	analysis, err := svc.ProcessSymptoms(ctx, "I feel tired all day")
	require.NoError(t, err)
	plan := svc.GenerateWellnessPlan(ctx, analysis, nil)
	assert.Equal(t, domain.ModelBasicFallback, plan.ModelUsed)
	assert.Equal(t, analysis.Confidence, plan.NLPConfidence)
	assert.True(t, plan.Complete())

	emergency, err := svc.ProcessSymptoms(ctx, "I have chest pain")
	require.NoError(t, err)
	plan = svc.GenerateWellnessPlan(ctx, emergency, nil)
	assert.Equal(t, recommendation.EmergencyPrecautions, plan.Precautions)
	assert.Equal(t, recommendation.EmergencyGuidance, plan.MedicationGuidance)

	assert.False(t, svc.Capabilities(ctx).RecommendationsEnabled)
}

func TestAssessmentService_EmergencyScenario(t *testing.T) {
	svc := newTestService(history.NewMemoryStore(10), true)

	a, err := svc.Assess(context.Background(), "I have chest pain", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.IntentEmergency, a.Analysis.Intent)
	assert.Contains(t, a.Plan.Precautions, "SEEK IMMEDIATE MEDICAL ATTENTION")
}

func TestAssessmentService_NoHistory(t *testing.T) {
	svc := newTestService(nil, true)
	ctx := context.Background()

	_, err := svc.Assess(ctx, "feeling tired", nil)
	require.NoError(t, err)

	_, err = svc.GetAssessment(ctx, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	recent, err := svc.RecentAssessments(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestAssessmentService_Capabilities(t *testing.T) {
	logger := quietLogger()
	caps := external.Capabilities{EntityRecognition: true, ChatCompletion: true, ChatModel: "mistral:7b"}
	pipeline := nlp.NewPipeline(knowledge.Default(), nil, caps, logger)
	svc := NewAssessmentService(pipeline, recommendation.NewEngine(nil, caps, logger), history.NewMemoryStore(5), caps, logger)

	_, err := svc.Assess(context.Background(), "tired today", nil)
	require.NoError(t, err)

	status := svc.Capabilities(context.Background())
	assert.True(t, status.AdvancedNLP)
	assert.True(t, status.ChatBackend)
	assert.True(t, status.RecommendationsEnabled)
	assert.Equal(t, "mistral:7b", status.Capabilities.ChatModel)
	assert.Equal(t, int64(1), status.HistoryCount)
}
