// Package domain contains the core entities shared by the symptom intake pipeline:
// extracted medical entities, candidate conditions, the per-request analysis record
// and the wellness plan generated from it.
//
// All values here are request-scoped. They are created once by the component that
// owns them and treated as read-only by everything downstream.
package domain

import (
	"errors"
	"strings"
)

// Intent is the coarse purpose of a user's message.
type Intent string

const (
	IntentEmergency      Intent = "emergency"
	IntentSymptomCheck   Intent = "symptom_check"
	IntentGeneralInquiry Intent = "general_inquiry"
)

// EntityLabel is the semantic category of a recognized span.
type EntityLabel string

const (
	LabelSymptom EntityLabel = "SYMPTOM"
	LabelAnatomy EntityLabel = "ANATOMY"
	LabelUnknown EntityLabel = "UNKNOWN"
)

// ProcessingMethod records which extraction path produced an AnalysisResult.
type ProcessingMethod string

const (
	MethodAdvancedNLP       ProcessingMethod = "advanced_nlp"
	MethodRuleBasedFallback ProcessingMethod = "rule_based_fallback"
)

// Provenance labels for WellnessPlan.ModelUsed. A successful chat completion
// records the backend's model name instead.
const (
	ModelAdvancedRulesFallback = "advanced_rules_fallback"
	ModelAdvancedRuleBased     = "advanced_rule_based"
	ModelEmergencyFallback     = "emergency_fallback"
	ModelBasicFallback         = "basic_fallback"
)

// Gender values accepted in a UserContext.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// MaxAge is the upper bound accepted for UserContext.Age.
const MaxAge = 120

// ErrNotFound is returned by history lookups for unknown ids.
var ErrNotFound = errors.New("not found")

// IsValid reports whether the intent is one of the three known values.
func (i Intent) IsValid() bool {
	switch i {
	case IntentEmergency, IntentSymptomCheck, IntentGeneralInquiry:
		return true
	default:
		return false
	}
}

// String returns the wire form of the intent.
func (i Intent) String() string {
	return string(i)
}

// String returns the wire form of the label.
func (l EntityLabel) String() string {
	return string(l)
}

// NormalizeLabel maps a backend-supplied label to an EntityLabel. Labels are
// upper-cased; empty labels become LabelUnknown. Labels outside the known set
// are kept as-is so backend categories survive.
func NormalizeLabel(raw string) EntityLabel {
	label := strings.ToUpper(strings.TrimSpace(raw))
	if label == "" {
		return LabelUnknown
	}
	return EntityLabel(label)
}

// MedicalEntity is a recognized span of the input text.
type MedicalEntity struct {
	Text               string      `json:"text"`
	Label              EntityLabel `json:"label"`
	Start              int         `json:"start"`
	End                int         `json:"end"`
	ConceptID          string      `json:"concept_id,omitempty"`
	ConceptDescription string      `json:"concept_description,omitempty"`
	Confidence         float64     `json:"confidence"`
}

// HasConcept reports whether the entity was resolved to a concept identifier.
func (e MedicalEntity) HasConcept() bool {
	return e.ConceptID != ""
}

// Key returns the normalized surface form used for matching and deduplication.
func (e MedicalEntity) Key() string {
	return strings.ToLower(strings.TrimSpace(e.Text))
}

// ConditionCandidate is a hypothesized condition with its aggregated score.
type ConditionCandidate struct {
	Condition          string  `json:"condition"`
	ProbabilityScore   float64 `json:"probability_score"`
	SupportingEntities int     `json:"supporting_entities"`
}

// AnalysisResult is the output of the NLP stage for one request.
type AnalysisResult struct {
	OriginalText       string               `json:"original_text"`
	Intent             Intent               `json:"intent"`
	MedicalEntities    []MedicalEntity      `json:"medical_entities"`
	ProbableConditions []ConditionCandidate `json:"probable_conditions"`
	EntityCount        int                  `json:"entity_count"`
	Confidence         float64              `json:"confidence"`
	ProcessingMethod   ProcessingMethod     `json:"processing_method"`
}

// UserContext is optional advisory input for plan generation.
type UserContext struct {
	Age                *int     `json:"age,omitempty"`
	Gender             string   `json:"gender,omitempty"`
	ExistingConditions []string `json:"existing_conditions,omitempty"`
}

// Validate checks the context against the accepted ranges. A nil context is valid.
func (u *UserContext) Validate() error {
	if u == nil {
		return nil
	}
	if u.Age != nil && (*u.Age < 1 || *u.Age > MaxAge) {
		return NewValidationError("age", "must be between 1 and 120", *u.Age)
	}
	switch strings.ToLower(u.Gender) {
	case "", GenderMale, GenderFemale, GenderOther:
	default:
		return NewValidationError("gender", "must be one of male, female, other", u.Gender)
	}
	return nil
}

// Sanitized returns a copy holding only the fields that pass validation.
// Core components call this instead of Validate so that malformed context
// never causes a failure.
func (u *UserContext) Sanitized() *UserContext {
	if u == nil {
		return nil
	}
	out := &UserContext{}
	if u.Age != nil && *u.Age >= 1 && *u.Age <= MaxAge {
		age := *u.Age
		out.Age = &age
	}
	switch g := strings.ToLower(strings.TrimSpace(u.Gender)); g {
	case GenderMale, GenderFemale, GenderOther:
		out.Gender = g
	}
	seen := make(map[string]bool, len(u.ExistingConditions))
	for _, c := range u.ExistingConditions {
		c = strings.TrimSpace(c)
		if c == "" || seen[strings.ToLower(c)] {
			continue
		}
		seen[strings.ToLower(c)] = true
		out.ExistingConditions = append(out.ExistingConditions, c)
	}
	return out
}

// WellnessPlan is the six-section recommendation plus generation metadata.
type WellnessPlan struct {
	ConditionSummary     string  `json:"condition_summary"`
	Precautions          string  `json:"precautions"`
	YogaPlan             string  `json:"yoga_plan"`
	DietPlan             string  `json:"diet_plan"`
	LifestyleTips        string  `json:"lifestyle_tips"`
	MedicationGuidance   string  `json:"medication_guidance"`
	ModelUsed            string  `json:"model_used"`
	GenerationTimeMs     int64   `json:"generation_time_ms"`
	NLPConfidence        float64 `json:"nlp_confidence"`
	ChatBackendAvailable bool    `json:"chat_backend_available"`
	RawResponse          string  `json:"raw_response,omitempty"`
}

// Complete reports whether all six plan sections are non-empty.
func (p *WellnessPlan) Complete() bool {
	if p == nil {
		return false
	}
	for _, section := range []string{
		p.ConditionSummary, p.Precautions, p.YogaPlan,
		p.DietPlan, p.LifestyleTips, p.MedicationGuidance,
	} {
		if strings.TrimSpace(section) == "" {
			return false
		}
	}
	return true
}
