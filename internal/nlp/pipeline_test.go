package nlp

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/knowledge"
	"github.com/symptom-intake-server/pkg/external"
)

type fakeRecognizer struct {
	entities []domain.MedicalEntity
	err      error
	panicMsg string
	calls    int
}

func (f *fakeRecognizer) RecognizeEntities(_ context.Context, _ string) ([]domain.MedicalEntity, error) {
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.entities, f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var advancedCaps = external.Capabilities{EntityRecognition: true, ConceptLinking: true}

const sampleText = "I've been feeling really tired and dizzy for the past few days"

func TestPipeline_EmptyInput(t *testing.T) {
	p := NewPipeline(knowledge.Default(), nil, external.Capabilities{}, quietLogger())

	for _, input := range []string{"", "   ", "\n\t"} {
		result, err := p.Process(context.Background(), input)
		assert.Nil(t, result)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrEmptyInput))
	}

	result, err := p.Process(context.Background(), "tired")
	require.NoError(t, err)
	assert.Equal(t, 1, result.EntityCount)
}

func TestPipeline_RuleBased(t *testing.T) {
	p := NewPipeline(knowledge.Default(), nil, external.Capabilities{}, quietLogger())
	assert.False(t, p.AdvancedEnabled())

	result, err := p.Process(context.Background(), sampleText)
	require.NoError(t, err)

	assert.Equal(t, sampleText, result.OriginalText)
	assert.Equal(t, domain.MethodRuleBasedFallback, result.ProcessingMethod)
	assert.Equal(t, domain.IntentSymptomCheck, result.Intent)
	assert.Equal(t, []string{"tired", "dizzy"}, texts(result.MedicalEntities))
	assert.Equal(t, 2, result.EntityCount)
	assert.InDelta(t, (0.3+0.9+0.8)/3, result.Confidence, 1e-9)
	require.Len(t, result.ProbableConditions, 5)
	assert.Equal(t, "Orthostatic Hypotension", result.ProbableConditions[0].Condition)
}

func TestPipeline_Advanced(t *testing.T) {
	rec := &fakeRecognizer{entities: []domain.MedicalEntity{
		{Text: "tired", Label: domain.LabelSymptom, Start: 25, End: 30, ConceptID: "C0015672", Confidence: 0.91},
		{Text: "Tired", Label: domain.LabelSymptom, Start: 25, End: 30, Confidence: 0.5},
		{Text: "dizzy", Label: domain.LabelSymptom, Start: 35, End: 40, Confidence: 0.88},
	}}
	p := NewPipeline(knowledge.Default(), rec, advancedCaps, quietLogger())
	assert.True(t, p.AdvancedEnabled())

	result, err := p.Process(context.Background(), sampleText)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, domain.MethodAdvancedNLP, result.ProcessingMethod)
	assert.Equal(t, []string{"tired", "dizzy"}, texts(result.MedicalEntities))
	assert.Equal(t, 2, result.EntityCount)
	assert.Equal(t, 0.91, result.MedicalEntities[0].Confidence)
}

func TestPipeline_CapabilityOffSkipsRecognizer(t *testing.T) {
	rec := &fakeRecognizer{entities: []domain.MedicalEntity{{Text: "fever", Start: 0, End: 5}}}
	p := NewPipeline(knowledge.Default(), rec, external.Capabilities{}, quietLogger())

	result, err := p.Process(context.Background(), sampleText)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.calls)
	assert.Equal(t, domain.MethodRuleBasedFallback, result.ProcessingMethod)
}

func TestPipeline_FallsBackOnBackendFailure(t *testing.T) {
	tests := []struct {
		name string
		rec  *fakeRecognizer
	}{
		{"recognizer error", &fakeRecognizer{err: errors.New("connection refused")}},
		{"panic", &fakeRecognizer{panicMsg: "model not loaded"}},
		{"span past end of text", &fakeRecognizer{entities: []domain.MedicalEntity{{Text: "tired", Start: 25, End: 500}}}},
		{"inverted span", &fakeRecognizer{entities: []domain.MedicalEntity{{Text: "tired", Start: 30, End: 25}}}},
		{"blank text", &fakeRecognizer{entities: []domain.MedicalEntity{{Text: " ", Start: 0, End: 1}}}},
		{"confidence out of range", &fakeRecognizer{entities: []domain.MedicalEntity{{Text: "tired", Start: 25, End: 30, Confidence: 1.5}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(knowledge.Default(), tt.rec, advancedCaps, quietLogger())

			result, err := p.Process(context.Background(), sampleText)
			require.NoError(t, err)
			assert.Equal(t, 1, tt.rec.calls)
			assert.Equal(t, domain.MethodRuleBasedFallback, result.ProcessingMethod)
			assert.Equal(t, []string{"tired", "dizzy"}, texts(result.MedicalEntities))
		})
	}
}

func TestPipeline_AdvancedErrorsAreBackendErrors(t *testing.T) {
	rec := &fakeRecognizer{panicMsg: "boom"}
	p := NewPipeline(knowledge.Default(), rec, advancedCaps, quietLogger())

	_, err := p.advanced(context.Background(), sampleText)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBackendUnavailable))

	var be *domain.BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, external.BackendEntity, be.Backend)
}

func TestPipeline_Idempotent(t *testing.T) {
	p := NewPipeline(knowledge.Default(), nil, external.Capabilities{}, quietLogger())

	first, err := p.Process(context.Background(), "Headache with nausea and back pain since Monday")
	require.NoError(t, err)
	second, err := p.Process(context.Background(), "Headache with nausea and back pain since Monday")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPipeline_ResultInvariants(t *testing.T) {
	p := NewPipeline(knowledge.Default(), nil, external.Capabilities{}, quietLogger())

	inputs := []string{
		sampleText,
		"I have chest pain and difficulty breathing",
		"What is a good diet for energy?",
		"fatigue fatigue tired headache headache nausea anxiety back pain dizzy",
		"Nothing relevant here at all",
	}
	for _, input := range inputs {
		result, err := p.Process(context.Background(), input)
		require.NoError(t, err, input)

		assert.Equal(t, len(result.MedicalEntities), result.EntityCount, input)
		assert.GreaterOrEqual(t, result.Confidence, 0.2, input)
		assert.LessOrEqual(t, result.Confidence, 1.0, input)
		assert.LessOrEqual(t, len(result.ProbableConditions), MaxConditions, input)
		for _, c := range result.ProbableConditions {
			assert.LessOrEqual(t, c.ProbabilityScore, MaxConditionScore, input)
			assert.Greater(t, c.ProbabilityScore, 0.0, input)
		}

		seen := map[string]bool{}
		for _, e := range result.MedicalEntities {
			assert.False(t, seen[e.Key()], "duplicate entity %q in %q", e.Text, input)
			seen[e.Key()] = true
		}
	}
}

func TestPipeline_EmergencyIntent(t *testing.T) {
	p := NewPipeline(knowledge.Default(), nil, external.Capabilities{}, quietLogger())

	result, err := p.Process(context.Background(), "I have chest pain and difficulty breathing")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentEmergency, result.Intent)
	assert.Equal(t, []string{"difficulty breathing", "chest pain"}, texts(result.MedicalEntities))
}
