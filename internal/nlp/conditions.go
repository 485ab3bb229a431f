package nlp

import (
	"math"
	"sort"
	"strings"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/knowledge"
)

const (
	// MaxConditionScore caps aggregated condition probabilities.
	MaxConditionScore = 0.95
	// MaxConditions is the number of candidates kept after ranking.
	MaxConditions = 5
	// corroborationWeight scales evidence added to an already-scored condition.
	corroborationWeight = 0.5
)

// ConditionMapper ranks candidate conditions from recognized entities.
type ConditionMapper struct {
	table []knowledge.SymptomConditions
}

// NewConditionMapper creates a mapper over the condition table in base.
func NewConditionMapper(base *knowledge.Base) *ConditionMapper {
	return &ConditionMapper{table: base.Conditions()}
}

// Map scores every condition linked to an entity whose text contains, or is
// contained in, a table symptom. The first piece of evidence for a condition
// sets its score to the base probability; each further piece adds half its
// base probability, capped at MaxConditionScore. Results are sorted by score
// (ties keep discovery order) and truncated to MaxConditions.
//
// SupportingEntities is the same for every candidate: the number of entities
// whose text contains any table symptom. It is not a per-condition count.
// The text argument is accepted for interface stability and is not used.
func (m *ConditionMapper) Map(entities []domain.MedicalEntity, _ string) []domain.ConditionCandidate {
	scores := make(map[string]float64)
	var order []string

	for _, e := range entities {
		key := e.Key()
		if key == "" {
			continue
		}
		for _, row := range m.table {
			if !strings.Contains(key, row.Symptom) && !strings.Contains(row.Symptom, key) {
				continue
			}
			for _, cw := range row.Conditions {
				current, ok := scores[cw.Condition]
				if !ok {
					scores[cw.Condition] = math.Min(MaxConditionScore, cw.Probability)
					order = append(order, cw.Condition)
					continue
				}
				scores[cw.Condition] = math.Min(MaxConditionScore, current+cw.Probability*corroborationWeight)
			}
		}
	}

	supporting := m.supportingCount(entities)

	candidates := make([]domain.ConditionCandidate, 0, len(order))
	for _, name := range order {
		candidates = append(candidates, domain.ConditionCandidate{
			Condition:          name,
			ProbabilityScore:   scores[name],
			SupportingEntities: supporting,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ProbabilityScore > candidates[j].ProbabilityScore
	})
	if len(candidates) > MaxConditions {
		candidates = candidates[:MaxConditions]
	}
	return candidates
}

func (m *ConditionMapper) supportingCount(entities []domain.MedicalEntity) int {
	n := 0
	for _, e := range entities {
		key := e.Key()
		if key == "" {
			continue
		}
		for _, row := range m.table {
			if strings.Contains(key, row.Symptom) {
				n++
				break
			}
		}
	}
	return n
}
