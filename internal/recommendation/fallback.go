package recommendation

import "github.com/symptom-intake-server/internal/domain"

// StaticPlan is the hardcoded plan returned when rule-based generation
// itself fails.
func StaticPlan() *domain.WellnessPlan {
	return &domain.WellnessPlan{
		ConditionSummary:   "Thank you for sharing your health concerns. Due to technical limitations, a basic analysis was performed.",
		Precautions:        "Monitor your symptoms and consult a healthcare provider if concerns persist or worsen.",
		YogaPlan:           "Practice gentle movement and breathing exercises as comfortable for you.",
		DietPlan:           "Focus on a balanced diet with plenty of fruits, vegetables, and adequate hydration.",
		LifestyleTips:      "Maintain regular sleep schedule, manage stress, and stay physically active as appropriate.",
		MedicationGuidance: "Consult a healthcare provider for proper medical evaluation and any treatment recommendations.",
		ModelUsed:          domain.ModelEmergencyFallback,
	}
}

// BasicPlan is served when plan generation is switched off by configuration.
func BasicPlan() *domain.WellnessPlan {
	return &domain.WellnessPlan{
		ConditionSummary:   "Basic analysis completed with limited functionality.",
		Precautions:        "Consult a healthcare provider for proper medical evaluation.",
		YogaPlan:           "Practice gentle movement as tolerated.",
		DietPlan:           "Follow a balanced, nutritious diet.",
		LifestyleTips:      "Maintain good sleep and stress management.",
		MedicationGuidance: "Consult a healthcare provider for medical evaluation.",
		ModelUsed:          domain.ModelBasicFallback,
	}
}

// ApplyEmergencyOverride replaces the precautions and medication guidance
// with the emergency directives when the analysis intent is emergency.
func ApplyEmergencyOverride(plan *domain.WellnessPlan, intent domain.Intent) {
	if plan == nil || intent != domain.IntentEmergency {
		return
	}
	plan.Precautions = EmergencyPrecautions
	plan.MedicationGuidance = EmergencyGuidance
}
