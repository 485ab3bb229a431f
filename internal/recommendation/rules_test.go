package recommendation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-intake-server/internal/domain"
)

func symptomEntities(texts ...string) []domain.MedicalEntity {
	out := make([]domain.MedicalEntity, len(texts))
	for i, t := range texts {
		out[i] = domain.MedicalEntity{Text: t, Label: domain.LabelSymptom}
	}
	return out
}

func assertConsult(t *testing.T, s PlanSections) {
	t.Helper()
	assert.Contains(t, strings.ToLower(s.Precautions), ConsultDirective)
	assert.Contains(t, strings.ToLower(s.MedicationGuidance), ConsultDirective)
}

func TestRuleBasedGenerator_TiredAndDizzy(t *testing.T) {
	g := NewRuleBasedGenerator()
	conditions := []domain.ConditionCandidate{
		{Condition: "Orthostatic Hypotension", ProbabilityScore: 0.35, SupportingEntities: 2},
		{Condition: "Iron Deficiency Anemia", ProbabilityScore: 0.3, SupportingEntities: 2},
	}

	s := g.Generate(symptomEntities("tired", "dizzy"), conditions, domain.IntentSymptomCheck, "", nil)

	assert.True(t, strings.HasPrefix(s.ConditionSummary,
		"Based on your reported symptoms (tired, dizzy), you may be experiencing orthostatic hypotension or related conditions (confidence: 35%)."))
	assert.Contains(t, s.ConditionSummary, "Fatigue can be related")
	assert.NotContains(t, s.ConditionSummary, "Dizziness often relates", "only the first insight is used")
	assert.True(t, strings.HasSuffix(s.ConditionSummary, "should not replace professional medical evaluation."))

	assert.Contains(t, s.YogaPlan, "Legs-Up-Wall pose")
	assert.Contains(t, s.YogaPlan, "Tree Pose (Vrksasana)")
	assert.Less(t, strings.Index(s.YogaPlan, "Legs-Up-Wall"), strings.Index(s.YogaPlan, "Tree Pose"))

	assert.Contains(t, s.Precautions, "Avoid driving or operating machinery")
	assert.Contains(t, s.DietPlan, "iron-rich foods")
	assert.Contains(t, s.DietPlan, "potassium-rich foods")
	assert.Contains(t, s.MedicationGuidance, "For dizziness:")
	assert.Contains(t, s.MedicationGuidance, "For persistent fatigue:")
	assert.Equal(t, "Generated using advanced rule-based system with 2 medical entities", s.RawResponse)
	assertConsult(t, s)
}

func TestRuleBasedGenerator_Baselines(t *testing.T) {
	g := NewRuleBasedGenerator()

	s := g.Generate(nil, nil, domain.IntentGeneralInquiry, "what should I eat?", nil)

	assert.Equal(t, noSymptomSummary, s.ConditionSummary)
	assert.True(t, strings.HasPrefix(s.Precautions, "Monitor your symptoms closely"))
	assert.True(t, strings.HasPrefix(s.YogaPlan, "Practice gentle, mindful movement"))
	assert.True(t, strings.HasSuffix(s.YogaPlan, "worsens symptoms."))
	assert.True(t, strings.HasPrefix(s.DietPlan, "Follow a balanced, whole-foods diet"))
	assert.True(t, strings.HasPrefix(s.LifestyleTips, "Prioritize 7-9 hours"))
	assert.True(t, strings.HasPrefix(s.MedicationGuidance, "Schedule a medical consultation"))
	assert.NotContains(t, s.MedicationGuidance, "For dizziness:")
	assertConsult(t, s)
}

func TestRuleBasedGenerator_EmergencyIntent(t *testing.T) {
	g := NewRuleBasedGenerator()

	s := g.Generate(symptomEntities("headache"), nil, domain.IntentEmergency, "", nil)

	assert.Equal(t, EmergencyPrecautions, s.Precautions)
	assert.Equal(t, EmergencyGuidance, s.MedicationGuidance)
	assert.Contains(t, s.YogaPlan, "neck stretches")
	assertConsult(t, s)
}

func TestRuleBasedGenerator_ChestPainEscalatesOnAnyLabel(t *testing.T) {
	g := NewRuleBasedGenerator()
	entities := []domain.MedicalEntity{
		{Text: "Chest Pain", Label: domain.LabelUnknown},
		{Text: "headache", Label: domain.LabelSymptom},
	}

	s := g.Generate(entities, nil, domain.IntentSymptomCheck, "", nil)

	assert.Contains(t, s.Precautions, "Chest pain and breathing difficulties require immediate medical evaluation")
	assert.True(t, strings.HasPrefix(s.MedicationGuidance, "Seek immediate emergency medical care"))
	assertConsult(t, s)
}

func TestRuleBasedGenerator_CategoryOrder(t *testing.T) {
	g := NewRuleBasedGenerator()

	s := g.Generate(symptomEntities("anxious", "back pain", "headache", "fatigue"), nil, domain.IntentSymptomCheck, "", nil)

	order := []string{"Legs-Up-Wall", "neck stretches", "Hip Flexor", "4-7-8 breathing"}
	last := -1
	for _, marker := range order {
		idx := strings.Index(s.YogaPlan, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}

	assert.Contains(t, s.LifestyleTips, "worry journal")
	assert.Contains(t, s.DietPlan, "omega-3")
	assert.NotContains(t, s.DietPlan, "ginger")
}

func TestRuleBasedGenerator_SleepCategory(t *testing.T) {
	g := NewRuleBasedGenerator()

	s := g.Generate(symptomEntities("trouble sleeping"), nil, domain.IntentSymptomCheck, "", nil)

	assert.Contains(t, s.YogaPlan, "4-7-8 breathing")
	assert.Contains(t, s.LifestyleTips, "worry journal")
	assert.NotContains(t, s.DietPlan, "omega-3")
}

func TestRuleBasedGenerator_AnatomyLabelsIgnoredForCategories(t *testing.T) {
	g := NewRuleBasedGenerator()
	entities := []domain.MedicalEntity{{Text: "headache", Label: domain.LabelAnatomy}}

	s := g.Generate(entities, nil, domain.IntentSymptomCheck, "", nil)

	assert.NotContains(t, s.YogaPlan, "neck stretches")
	assert.Equal(t, noSymptomSummary, s.ConditionSummary)
}

func TestRuleBasedGenerator_PainAndFever(t *testing.T) {
	g := NewRuleBasedGenerator()

	s := g.Generate(symptomEntities("pain", "fever"), nil, domain.IntentSymptomCheck, "", nil)

	assert.Contains(t, s.Precautions, "For severe or worsening pain")
	assert.Contains(t, s.Precautions, "101.3°F (38.5°C)")
	assert.True(t, strings.HasSuffix(s.Precautions, "interfere with your daily activities."))
}

func TestRuleBasedGenerator_UrgentPhrase(t *testing.T) {
	g := NewRuleBasedGenerator()

	s := g.Generate(symptomEntities("severe pain"), nil, domain.IntentSymptomCheck, "", nil)
	assert.True(t, strings.HasPrefix(s.MedicationGuidance, "Seek medical care within 24 hours"))

	s = g.Generate(symptomEntities("headache"), nil, domain.IntentSymptomCheck, "", nil)
	assert.NotContains(t, s.MedicationGuidance, "within 24 hours")
}

func TestRuleBasedGenerator_SummaryLimitsSymptomsAndConditionsOnly(t *testing.T) {
	g := NewRuleBasedGenerator()

	s := g.Generate(symptomEntities("Nausea", "cough", "fever", "headache"), nil, domain.IntentSymptomCheck, "", nil)
	assert.True(t, strings.HasPrefix(s.ConditionSummary,
		"Based on your reported symptoms (nausea, cough, fever), you may be experiencing general health concerns"))
	assert.Contains(t, s.ConditionSummary, "Headaches commonly result")

	conditions := []domain.ConditionCandidate{{Condition: "Tension Headache", ProbabilityScore: 0.4}}
	s = g.Generate(nil, conditions, domain.IntentSymptomCheck, "", nil)
	assert.True(t, strings.HasPrefix(s.ConditionSummary,
		"Based on your description, you may be experiencing tension headache or related conditions (confidence: 40%)."))
}

func TestRuleBasedGenerator_UserContext(t *testing.T) {
	g := NewRuleBasedGenerator()
	age := 70
	uctx := &domain.UserContext{Age: &age, ExistingConditions: []string{"diabetes", " ", "Diabetes", "asthma"}}

	s := g.Generate(symptomEntities("dizzy"), nil, domain.IntentSymptomCheck, "", uctx)
	assert.Contains(t, s.Precautions, "At 65 or older")
	assert.Contains(t, s.MedicationGuidance, "(diabetes, asthma)")

	invalid := 500
	s = g.Generate(symptomEntities("dizzy"), nil, domain.IntentSymptomCheck, "", &domain.UserContext{Age: &invalid})
	assert.NotContains(t, s.Precautions, "At 65 or older")
}

func TestRuleBasedGenerator_Deterministic(t *testing.T) {
	g := NewRuleBasedGenerator()
	entities := symptomEntities("headache", "nausea")

	assert.Equal(t,
		g.Generate(entities, nil, domain.IntentSymptomCheck, "", nil),
		g.Generate(entities, nil, domain.IntentSymptomCheck, "", nil))
}
