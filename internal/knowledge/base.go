// Package knowledge holds the read-only tables the extraction stage matches
// against: the entity lexicon, the symptom to condition probability table and
// the intent keyword sets.
//
// A Base is built once and never written afterwards, so it is safe to share
// across goroutines without locking. Accessors hand out copies.
package knowledge

import (
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/symptom-intake-server/internal/domain"
)

// LexiconEntry describes what a surface keyword means.
type LexiconEntry struct {
	Keyword     string
	Label       domain.EntityLabel
	ConceptID   string
	Description string
}

// ConditionWeight is one condition associated with a symptom key.
type ConditionWeight struct {
	Condition   string
	Probability float64
}

// SymptomConditions is one row of the condition table.
type SymptomConditions struct {
	Symptom    string
	Conditions []ConditionWeight
}

// Base is the immutable set of static tables.
type Base struct {
	lexicon       []LexiconEntry
	byKeyword     map[string]LexiconEntry
	keysByLength  []string
	conditions    []SymptomConditions
	emergencyTerm []string
	symptomTerm   []string
	questionTerm  []string
}

var (
	defaultOnce sync.Once
	defaultBase *Base
)

// Default returns the process-wide Base, building it on first use.
func Default() *Base {
	defaultOnce.Do(func() {
		defaultBase = New(defaultLexicon, defaultConditions, emergencyKeywords, symptomKeywords, questionKeywords)
	})
	return defaultBase
}

// New builds a Base from the given tables. Inputs are copied. Later lexicon
// entries with a keyword already seen are ignored.
func New(lexicon []LexiconEntry, conditions []SymptomConditions, emergency, symptom, question []string) *Base {
	b := &Base{
		byKeyword:     make(map[string]LexiconEntry, len(lexicon)),
		emergencyTerm: append([]string(nil), emergency...),
		symptomTerm:   append([]string(nil), symptom...),
		questionTerm:  append([]string(nil), question...),
	}

	for _, e := range lexicon {
		if _, dup := b.byKeyword[e.Keyword]; dup || e.Keyword == "" {
			continue
		}
		b.byKeyword[e.Keyword] = e
		b.lexicon = append(b.lexicon, e)
		b.keysByLength = append(b.keysByLength, e.Keyword)
	}
	// Longest first; equal lengths keep declaration order.
	sort.SliceStable(b.keysByLength, func(i, j int) bool {
		return utf8.RuneCountInString(b.keysByLength[i]) > utf8.RuneCountInString(b.keysByLength[j])
	})

	for _, row := range conditions {
		b.conditions = append(b.conditions, SymptomConditions{
			Symptom:    row.Symptom,
			Conditions: append([]ConditionWeight(nil), row.Conditions...),
		})
	}
	return b
}

// Lexicon returns the lexicon in declaration order.
func (b *Base) Lexicon() []LexiconEntry {
	return append([]LexiconEntry(nil), b.lexicon...)
}

// KeysByLength returns lexicon keywords ordered longest first.
func (b *Base) KeysByLength() []string {
	return append([]string(nil), b.keysByLength...)
}

// Lookup returns the lexicon entry for an exact lowercase keyword.
func (b *Base) Lookup(keyword string) (LexiconEntry, bool) {
	e, ok := b.byKeyword[keyword]
	return e, ok
}

// Conditions returns the symptom to condition table in declaration order.
func (b *Base) Conditions() []SymptomConditions {
	out := make([]SymptomConditions, len(b.conditions))
	for i, row := range b.conditions {
		out[i] = SymptomConditions{
			Symptom:    row.Symptom,
			Conditions: append([]ConditionWeight(nil), row.Conditions...),
		}
	}
	return out
}

// EmergencyKeywords returns the terms that force the emergency intent.
func (b *Base) EmergencyKeywords() []string {
	return append([]string(nil), b.emergencyTerm...)
}

// SymptomKeywords returns the terms that indicate a symptom check.
func (b *Base) SymptomKeywords() []string {
	return append([]string(nil), b.symptomTerm...)
}

// QuestionKeywords returns the terms that indicate a general inquiry.
func (b *Base) QuestionKeywords() []string {
	return append([]string(nil), b.questionTerm...)
}
