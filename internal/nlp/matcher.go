// Package nlp extracts entities, intent and candidate conditions from free text.
//
// The rule-based pieces (Matcher, IntentClassifier, ConditionMapper and
// EstimateConfidence) are pure functions over a knowledge.Base. Pipeline ties
// them together and decides whether an external entity backend is used.
package nlp

import (
	"strings"
	"unicode/utf8"

	"github.com/symptom-intake-server/internal/domain"
	"github.com/symptom-intake-server/internal/knowledge"
)

// RuleBasedConfidence is the fixed confidence given to lexicon matches.
const RuleBasedConfidence = 0.7

// Matcher finds lexicon keywords in text.
type Matcher struct {
	base *knowledge.Base
}

// NewMatcher creates a matcher over base.
func NewMatcher(base *knowledge.Base) *Matcher {
	return &Matcher{base: base}
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Match returns the lexicon entities found in text, longest keyword first.
//
// Each keyword claims its first occurrence that does not overlap a span
// claimed by a longer keyword, so "chest pain" suppresses "chest" and "pain"
// at the same position. Matching is case-insensitive and literal; there is no
// word-boundary check. Offsets are in characters (runes).
func (m *Matcher) Match(text string) []domain.MedicalEntity {
	lower := strings.ToLower(text)
	// Lowercasing maps rune to rune but can change byte widths, so the
	// original-case surface is cut by rune offsets.
	runes := []rune(text)

	var (
		claimed  []span
		entities []domain.MedicalEntity
		seen     = make(map[string]bool)
	)

	for _, key := range m.base.KeysByLength() {
		if seen[key] {
			continue
		}
		found, ok := firstFree(lower, key, claimed)
		if !ok {
			continue
		}
		claimed = append(claimed, found)
		seen[key] = true

		entry, _ := m.base.Lookup(key)
		start := utf8.RuneCountInString(lower[:found.start])
		end := start + utf8.RuneCountInString(key)
		entities = append(entities, domain.MedicalEntity{
			Text:               string(runes[start:end]),
			Label:              entry.Label,
			Start:              start,
			End:                end,
			ConceptID:          entry.ConceptID,
			ConceptDescription: entry.Description,
			Confidence:         RuleBasedConfidence,
		})
	}
	return entities
}

// firstFree returns the byte span of the first occurrence of key in s that
// does not overlap any claimed span.
func firstFree(s, key string, claimed []span) (span, bool) {
	offset := 0
	for offset <= len(s)-len(key) {
		idx := strings.Index(s[offset:], key)
		if idx < 0 {
			return span{}, false
		}
		candidate := span{start: offset + idx, end: offset + idx + len(key)}
		free := true
		for _, c := range claimed {
			if candidate.overlaps(c) {
				free = false
				break
			}
		}
		if free {
			return candidate, true
		}
		_, size := utf8.DecodeRuneInString(s[candidate.start:])
		offset = candidate.start + size
	}
	return span{}, false
}

// Dedupe drops entities whose normalized text was already seen, keeping the
// first occurrence. Entities with empty text are dropped.
func Dedupe(entities []domain.MedicalEntity) []domain.MedicalEntity {
	seen := make(map[string]bool, len(entities))
	out := make([]domain.MedicalEntity, 0, len(entities))
	for _, e := range entities {
		key := e.Key()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}
