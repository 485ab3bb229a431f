package nlp

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/knowledge"
	"github.com/symptom-intake-server/pkg/external"
)

// Pipeline produces an AnalysisResult from free text. It uses the external
// entity backend when the capability flags allow it and falls back to the
// lexicon matcher when that path fails. Both paths return the same shape.
type Pipeline struct {
	matcher    *Matcher
	intents    *IntentClassifier
	conditions *ConditionMapper
	recognizer domain.EntityRecognizer
	caps       external.Capabilities
	logger     *logrus.Logger
}

// NewPipeline creates a pipeline. recognizer may be nil, in which case only
// the rule-based path runs regardless of caps.
func NewPipeline(base *knowledge.Base, recognizer domain.EntityRecognizer, caps external.Capabilities, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		matcher:    NewMatcher(base),
		intents:    NewIntentClassifier(base),
		conditions: NewConditionMapper(base),
		recognizer: recognizer,
		caps:       caps,
		logger:     logger,
	}
}

// AdvancedEnabled reports whether Process will try the entity backend first.
func (p *Pipeline) AdvancedEnabled() bool {
	return p.recognizer != nil && p.caps.EntityRecognition
}

// Capabilities returns the flags the pipeline was built with.
func (p *Pipeline) Capabilities() external.Capabilities {
	return p.caps
}

// Process analyzes text. The only error it returns is *domain.EmptyInputError
// for empty or whitespace-only input.
func (p *Pipeline) Process(ctx context.Context, text string) (*domain.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &domain.EmptyInputError{Length: len(text)}
	}

	if p.AdvancedEnabled() {
		result, err := p.advanced(ctx, text)
		if err == nil {
			p.logResult(result)
			return result, nil
		}
		p.logger.WithError(err).Warn("Advanced entity extraction failed, falling back to rule-based processing")
	}

	result := p.ruleBased(text)
	p.logResult(result)
	return result, nil
}

// advanced runs the backend path. Every failure, including malformed entities
// and panics in the recognizer, is returned as a *domain.BackendError.
func (p *Pipeline) advanced(ctx context.Context, text string) (result *domain.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = domain.NewBackendError(external.BackendEntity, "recognize", fmt.Errorf("panic: %v", r))
		}
	}()

	entities, err := p.recognizer.RecognizeEntities(ctx, text)
	if err != nil {
		return nil, domain.NewBackendError(external.BackendEntity, "recognize", err)
	}
	if err := validateEntities(entities, text); err != nil {
		return nil, domain.NewBackendError(external.BackendEntity, "validate", err)
	}

	return p.assemble(text, Dedupe(entities), domain.MethodAdvancedNLP), nil
}

func (p *Pipeline) ruleBased(text string) *domain.AnalysisResult {
	return p.assemble(text, Dedupe(p.matcher.Match(text)), domain.MethodRuleBasedFallback)
}

func (p *Pipeline) assemble(text string, entities []domain.MedicalEntity, method domain.ProcessingMethod) *domain.AnalysisResult {
	intent := p.intents.Classify(text)
	return &domain.AnalysisResult{
		OriginalText:       text,
		Intent:             intent,
		MedicalEntities:    entities,
		ProbableConditions: p.conditions.Map(entities, text),
		EntityCount:        len(entities),
		Confidence:         EstimateConfidence(entities, intent),
		ProcessingMethod:   method,
	}
}

func (p *Pipeline) logResult(result *domain.AnalysisResult) {
	p.logger.WithFields(logrus.Fields{
		"processing_method": result.ProcessingMethod,
		"intent":            result.Intent,
		"entity_count":      result.EntityCount,
		"condition_count":   len(result.ProbableConditions),
		"confidence":        result.Confidence,
	}).Info("Symptom text analyzed")
}

// validateEntities rejects backend entities that cannot be placed in text.
// Optional fields (concept id, description) may be absent.
func validateEntities(entities []domain.MedicalEntity, text string) error {
	length := utf8.RuneCountInString(text)
	for i, e := range entities {
		if strings.TrimSpace(e.Text) == "" {
			return fmt.Errorf("entity %d has empty text", i)
		}
		if e.Start < 0 || e.End <= e.Start || e.End > length {
			return fmt.Errorf("entity %d (%q) has invalid span [%d,%d) for text of length %d", i, e.Text, e.Start, e.End, length)
		}
		if e.Confidence < 0 || e.Confidence > 1 {
			return fmt.Errorf("entity %d (%q) has confidence %v outside [0,1]", i, e.Text, e.Confidence)
		}
	}
	return nil
}
