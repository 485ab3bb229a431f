package domain

import (
	"context"
)

// EntityRecognizer delegates entity recognition and concept linking to an external backend
type EntityRecognizer interface {
	RecognizeEntities(ctx context.Context, text string) ([]MedicalEntity, error)
}

// ChatCompleter sends a single system+user exchange to a chat-completion backend
type ChatCompleter interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Model() string
}

// SymptomProcessor turns free text into an AnalysisResult
type SymptomProcessor interface {
	Process(ctx context.Context, text string) (*AnalysisResult, error)
}

// PlanGenerator turns an AnalysisResult into a WellnessPlan. It never fails.
type PlanGenerator interface {
	Generate(ctx context.Context, analysis *AnalysisResult, userCtx *UserContext) *WellnessPlan
}
