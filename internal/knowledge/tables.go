package knowledge

import "github.com/symptom-intake-server/internal/domain"

var defaultLexicon = []LexiconEntry{
	{"tired", domain.LabelSymptom, "C0015672", "Fatigue"},
	{"fatigue", domain.LabelSymptom, "C0015672", "Fatigue"},
	{"dizzy", domain.LabelSymptom, "C0012833", "Dizziness"},
	{"dizziness", domain.LabelSymptom, "C0012833", "Dizziness"},
	{"headache", domain.LabelSymptom, "C0018681", "Headache"},
	{"nausea", domain.LabelSymptom, "C0027497", "Nausea"},
	{"nauseous", domain.LabelSymptom, "C0027497", "Nausea"},
	{"fever", domain.LabelSymptom, "C0015967", "Fever"},
	{"pain", domain.LabelSymptom, "C0030193", "Pain"},
	{"ache", domain.LabelSymptom, "C0030193", "Pain"},
	{"cough", domain.LabelSymptom, "C0010200", "Cough"},
	{"chest pain", domain.LabelSymptom, "C0008031", "Chest Pain"},
	{"back pain", domain.LabelSymptom, "C0004604", "Back Pain"},
	{"stomach pain", domain.LabelSymptom, "C0024905", "Abdominal Pain"},
	{"anxious", domain.LabelSymptom, "C0003467", "Anxiety"},
	{"anxiety", domain.LabelSymptom, "C0003467", "Anxiety"},
	{"insomnia", domain.LabelSymptom, "C0917801", "Insomnia"},
	{"trouble sleeping", domain.LabelSymptom, "C0917801", "Sleep Disorder"},
	{"difficulty breathing", domain.LabelSymptom, "C0013404", "Dyspnea"},

	{"head", domain.LabelAnatomy, "C0018670", "Head"},
	{"chest", domain.LabelAnatomy, "C0817096", "Chest"},
	{"back", domain.LabelAnatomy, "C0004600", "Back"},
	{"stomach", domain.LabelAnatomy, "C0038351", "Stomach"},
	{"heart", domain.LabelAnatomy, "C0018787", "Heart"},
}

var defaultConditions = []SymptomConditions{
	{"fatigue", []ConditionWeight{
		{"Iron Deficiency Anemia", 0.3},
		{"Hypothyroidism", 0.25},
		{"Sleep Disorder", 0.2},
		{"Depression", 0.15},
	}},
	{"tired", []ConditionWeight{
		{"Iron Deficiency Anemia", 0.3},
		{"Sleep Disorder", 0.25},
		{"Hypothyroidism", 0.2},
	}},
	{"dizziness", []ConditionWeight{
		{"Orthostatic Hypotension", 0.35},
		{"Inner Ear Problem", 0.25},
		{"Dehydration", 0.2},
		{"Anemia", 0.15},
	}},
	{"dizzy", []ConditionWeight{
		{"Orthostatic Hypotension", 0.35},
		{"Dehydration", 0.25},
		{"Inner Ear Problem", 0.2},
	}},
	{"headache", []ConditionWeight{
		{"Tension Headache", 0.4},
		{"Migraine", 0.25},
		{"Eye Strain", 0.2},
		{"Dehydration", 0.15},
	}},
	{"nausea", []ConditionWeight{
		{"Gastroenteritis", 0.3},
		{"Motion Sickness", 0.25},
		{"Migraine", 0.2},
		{"Food Poisoning", 0.15},
	}},
	{"chest pain", []ConditionWeight{
		{"Muscle Strain", 0.3},
		{"Gastroesophageal Reflux", 0.25},
		{"Anxiety", 0.2},
		{"Cardiac Issue (Requires Evaluation)", 0.25},
	}},
	{"back pain", []ConditionWeight{
		{"Muscle Strain", 0.4},
		{"Poor Posture", 0.3},
		{"Herniated Disc", 0.2},
		{"Arthritis", 0.1},
	}},
	{"anxiety", []ConditionWeight{
		{"Generalized Anxiety Disorder", 0.35},
		{"Stress Response", 0.3},
		{"Panic Disorder", 0.2},
		{"Depression with Anxiety", 0.15},
	}},
}

var emergencyKeywords = []string{
	"chest pain", "difficulty breathing", "severe pain", "emergency", "urgent",
	"unconscious", "bleeding", "stroke", "heart attack", "seizure", "choking", "overdose",
}

var symptomKeywords = []string{
	"feel", "feeling", "pain", "hurt", "ache", "tired", "dizzy", "nausea", "headache",
	"fever", "cough", "symptoms", "sick", "unwell", "discomfort", "problem",
}

var questionKeywords = []string{
	"what", "how", "why", "when", "where", "?", "explain",
}
