// Package recommendation turns an analysis into a six-section wellness plan.
// The engine tries the chat backend when one is available, falls back to the
// rule-based generator, and as a last resort returns a static plan.
package recommendation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/pkg/external"
)

// Engine generates wellness plans. Generate never fails.
type Engine struct {
	chat   domain.ChatCompleter
	caps   external.Capabilities
	rules  SectionGenerator
	logger *logrus.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithSectionGenerator replaces the rule-based generator.
func WithSectionGenerator(g SectionGenerator) Option {
	return func(e *Engine) {
		e.rules = g
	}
}

// NewEngine creates an engine. chat may be nil; the chat path only runs when
// chat is set and caps reports the backend reachable.
func NewEngine(chat domain.ChatCompleter, caps external.Capabilities, logger *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		chat:   chat,
		caps:   caps,
		rules:  NewRuleBasedGenerator(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ChatEnabled reports whether Generate will try the chat backend first.
func (e *Engine) ChatEnabled() bool {
	return e.chat != nil && e.caps.ChatCompletion
}

// Generate builds a plan for analysis. uctx is optional; invalid fields are
// dropped rather than rejected.
func (e *Engine) Generate(ctx context.Context, analysis *domain.AnalysisResult, uctx *domain.UserContext) *domain.WellnessPlan {
	start := time.Now()
	if analysis == nil {
		analysis = &domain.AnalysisResult{Intent: domain.IntentSymptomCheck}
	}
	uctx = uctx.Sanitized()

	plan := e.compose(ctx, analysis, uctx)
	ApplyEmergencyOverride(plan, analysis.Intent)

	plan.GenerationTimeMs = time.Since(start).Milliseconds()
	plan.NLPConfidence = analysis.Confidence
	plan.ChatBackendAvailable = e.ChatEnabled()

	e.logger.WithFields(logrus.Fields{
		"model_used":         plan.ModelUsed,
		"intent":             analysis.Intent,
		"generation_time_ms": plan.GenerationTimeMs,
	}).Info("Wellness plan generated")
	return plan
}

func (e *Engine) compose(ctx context.Context, analysis *domain.AnalysisResult, uctx *domain.UserContext) *domain.WellnessPlan {
	if !e.ChatEnabled() {
		return e.ruleBased(analysis, uctx, domain.ModelAdvancedRuleBased)
	}

	plan, err := e.generateWithChat(ctx, analysis, uctx)
	if err == nil {
		return plan
	}
	e.logger.WithError(err).Warn("Chat generation failed, using rule-based recommendations")
	return e.ruleBased(analysis, uctx, domain.ModelAdvancedRulesFallback)
}

func (e *Engine) generateWithChat(ctx context.Context, analysis *domain.AnalysisResult, uctx *domain.UserContext) (plan *domain.WellnessPlan, err error) {
	defer func() {
		if r := recover(); r != nil {
			plan = nil
			err = domain.NewBackendError(external.BackendChat, "complete", fmt.Errorf("panic: %v", r))
		}
	}()

	raw, err := e.chat.Complete(ctx, SystemPrompt, BuildPrompt(analysis, uctx))
	if err != nil {
		return nil, err
	}
	plan = ParseCompletion(raw).plan()
	plan.ModelUsed = e.chat.Model()
	return plan, nil
}

func (e *Engine) ruleBased(analysis *domain.AnalysisResult, uctx *domain.UserContext, model string) *domain.WellnessPlan {
	plan, err := e.tryRules(analysis, uctx)
	if err != nil {
		e.logger.WithError(err).Error("Rule-based generation failed, returning static plan")
		return StaticPlan()
	}
	plan.ModelUsed = model
	return plan
}

func (e *Engine) tryRules(analysis *domain.AnalysisResult, uctx *domain.UserContext) (plan *domain.WellnessPlan, err error) {
	defer func() {
		if r := recover(); r != nil {
			plan = nil
			err = &domain.GenerationFailure{Reason: fmt.Sprint(r)}
		}
	}()

	plan = e.rules.Generate(analysis.MedicalEntities, analysis.ProbableConditions, analysis.Intent, analysis.OriginalText, uctx).plan()
	if !plan.Complete() {
		return nil, &domain.GenerationFailure{Reason: "plan has empty sections"}
	}
	return plan, nil
}
