package nlp

import (
	"strings"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/knowledge"
)

// IntentClassifier assigns one of three intents by keyword priority:
// emergency, then symptom_check, then general_inquiry, defaulting to
// symptom_check. Negation is not detected, so "no chest pain" is an emergency.
type IntentClassifier struct {
	emergency []string
	symptom   []string
	question  []string
}

// NewIntentClassifier creates a classifier over the keyword sets in base.
func NewIntentClassifier(base *knowledge.Base) *IntentClassifier {
	return &IntentClassifier{
		emergency: base.EmergencyKeywords(),
		symptom:   base.SymptomKeywords(),
		question:  base.QuestionKeywords(),
	}
}

// Classify returns the intent of text.
func (c *IntentClassifier) Classify(text string) domain.Intent {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, c.emergency):
		return domain.IntentEmergency
	case containsAny(lower, c.symptom):
		return domain.IntentSymptomCheck
	case containsAny(lower, c.question):
		return domain.IntentGeneralInquiry
	default:
		return domain.IntentSymptomCheck
	}
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
