package nlp

import (
	"math"

	"github.com/symptom-intake-server/internal/domain"
)

const (
	noEntityConfidence = 0.3
	minConfidence      = 0.2
	maxConfidence      = 1.0
)

var intentConfidence = map[domain.Intent]float64{
	domain.IntentSymptomCheck:   0.9,
	domain.IntentEmergency:      0.95,
	domain.IntentGeneralInquiry: 0.7,
}

// EstimateConfidence scores an analysis from its entity count, intent and
// whether any entity carries a concept id. The result is in [0.2, 1.0].
func EstimateConfidence(entities []domain.MedicalEntity, intent domain.Intent) float64 {
	if len(entities) == 0 {
		return noEntityConfidence
	}

	entityScore := math.Min(0.8, float64(len(entities))*0.15)

	intentScore, ok := intentConfidence[intent]
	if !ok {
		intentScore = 0.6
	}

	qualityScore := 0.6
	for _, e := range entities {
		if e.HasConcept() {
			qualityScore = 0.8
			break
		}
	}

	final := (entityScore + intentScore + qualityScore) / 3
	return math.Min(maxConfidence, math.Max(minConfidence, final))
}
