package recommendation

import (
	"fmt"
	"strings"

	"github.com/symptom-intake-server/internal/domain"
)

// ConsultDirective must appear in every precautions and medication guidance
// text the generator produces.
const ConsultDirective = "consult a healthcare provider"

const (
	// EmergencyPrecautions replaces the precautions section for emergencies.
	EmergencyPrecautions = "SEEK IMMEDIATE MEDICAL ATTENTION - Your symptoms may indicate a medical emergency. " +
		"Call emergency services or visit the nearest emergency room immediately. " +
		"After emergency care, consult a healthcare provider for follow-up."
	// EmergencyGuidance replaces the medication guidance section for emergencies.
	EmergencyGuidance = "This appears to be a medical emergency. Call 911 or emergency services immediately. " +
		"Do not drive yourself - call for emergency transportation. " +
		"Once you are safe, consult a healthcare provider about follow-up care."
)

// PlanSections is the six-section body of a wellness plan without metadata.
type PlanSections struct {
	ConditionSummary   string
	Precautions        string
	YogaPlan           string
	DietPlan           string
	LifestyleTips      string
	MedicationGuidance string
	RawResponse        string
}

func (s PlanSections) plan() *domain.WellnessPlan {
	return &domain.WellnessPlan{
		ConditionSummary:   s.ConditionSummary,
		Precautions:        s.Precautions,
		YogaPlan:           s.YogaPlan,
		DietPlan:           s.DietPlan,
		LifestyleTips:      s.LifestyleTips,
		MedicationGuidance: s.MedicationGuidance,
		RawResponse:        s.RawResponse,
	}
}

// SectionGenerator composes plan sections from an analysis.
type SectionGenerator interface {
	Generate(entities []domain.MedicalEntity, conditions []domain.ConditionCandidate, intent domain.Intent, originalText string, uctx *domain.UserContext) PlanSections
}

type category int

const (
	catFatigue category = iota
	catDizziness
	catHeadache
	catNausea
	catBackPain
	catAnxiety
	catSleep
	catChestBreathing
	catPain
	catFever
)

var categoryTerms = map[category][]string{
	catFatigue:        {"tired", "fatigue"},
	catDizziness:      {"dizzy", "dizziness"},
	catHeadache:       {"headache"},
	catNausea:         {"nausea", "nauseous"},
	catBackPain:       {"back pain"},
	catAnxiety:        {"anxiety", "anxious"},
	catSleep:          {"trouble sleeping", "insomnia"},
	catChestBreathing: {"chest pain", "difficulty breathing"},
	catPain:           {"pain", "severe"},
	catFever:          {"fever"},
}

var urgentPhrases = []string{"severe pain", "high fever", "persistent vomiting"}

// symptoms holds the lowercased entity texts a plan is keyed on. Categories
// match on SYMPTOM-labeled texts, except chest pain and breathing, which
// escalate on any label.
type symptoms struct {
	list     []string
	symptom  map[string]bool
	anyLabel map[string]bool
}

func newSymptoms(entities []domain.MedicalEntity) symptoms {
	s := symptoms{symptom: map[string]bool{}, anyLabel: map[string]bool{}}
	for _, e := range entities {
		key := e.Key()
		if key == "" {
			continue
		}
		s.anyLabel[key] = true
		if domain.NormalizeLabel(string(e.Label)) == domain.LabelSymptom {
			if !s.symptom[key] {
				s.list = append(s.list, key)
			}
			s.symptom[key] = true
		}
	}
	return s
}

func (s symptoms) has(c category) bool {
	set := s.symptom
	if c == catChestBreathing {
		set = s.anyLabel
	}
	for _, term := range categoryTerms[c] {
		if set[term] {
			return true
		}
	}
	return false
}

func (s symptoms) hasAny(cs ...category) bool {
	for _, c := range cs {
		if s.has(c) {
			return true
		}
	}
	return false
}

func (s symptoms) mentions(phrases []string) bool {
	joined := strings.Join(s.list, " ")
	for _, p := range phrases {
		if strings.Contains(joined, p) {
			return true
		}
	}
	return false
}

func (s symptoms) empty() bool {
	return len(s.list) == 0
}

// RuleBasedGenerator builds plans from fixed sentence fragments selected by
// symptom category. It has no state and no external dependency.
type RuleBasedGenerator struct{}

// NewRuleBasedGenerator creates a generator.
func NewRuleBasedGenerator() *RuleBasedGenerator {
	return &RuleBasedGenerator{}
}

// Generate composes all six sections. Fragments stack in a fixed category
// order and every section keeps its baseline sentences.
func (g *RuleBasedGenerator) Generate(entities []domain.MedicalEntity, conditions []domain.ConditionCandidate, intent domain.Intent, _ string, uctx *domain.UserContext) PlanSections {
	s := newSymptoms(entities)
	uctx = uctx.Sanitized()

	return PlanSections{
		ConditionSummary:   conditionSummary(s, conditions),
		Precautions:        precautions(s, intent, uctx),
		YogaPlan:           yogaPlan(s),
		DietPlan:           dietPlan(s),
		LifestyleTips:      lifestyleTips(s),
		MedicationGuidance: medicalGuidance(s, intent, uctx),
		RawResponse:        fmt.Sprintf("Generated using advanced rule-based system with %d medical entities", len(entities)),
	}
}

const noSymptomSummary = "Thank you for sharing your health concerns. While specific medical symptoms weren't clearly identified in your description, " +
	"your overall wellness is important and the following recommendations may help support your general health."

const summaryDisclaimer = " This assessment is for informational purposes only and should not replace professional medical evaluation."

var summaryInsights = []struct {
	cat  category
	text string
}{
	{catFatigue, " Fatigue can be related to various factors including sleep quality, nutrition, stress levels, or underlying medical conditions."},
	{catDizziness, " Dizziness often relates to blood pressure changes, dehydration, inner ear issues, or medication effects."},
	{catHeadache, " Headaches commonly result from tension, eye strain, dehydration, or stress, though other causes should be considered."},
	{catNausea, " Nausea can indicate digestive issues, motion sensitivity, medication effects, or other medical conditions."},
	{catAnxiety, " Anxiety symptoms can be managed through lifestyle changes, stress reduction techniques, and professional support when needed."},
}

func conditionSummary(s symptoms, conditions []domain.ConditionCandidate) string {
	if s.empty() && len(conditions) == 0 {
		return noSymptomSummary
	}

	var b strings.Builder
	if !s.empty() {
		primary := s.list
		if len(primary) > 3 {
			primary = primary[:3]
		}
		fmt.Fprintf(&b, "Based on your reported symptoms (%s)", strings.Join(primary, ", "))
	} else {
		b.WriteString("Based on your description")
	}

	if len(conditions) > 0 {
		top := conditions[0]
		fmt.Fprintf(&b, ", you may be experiencing %s or related conditions (confidence: %.0f%%)",
			strings.ToLower(top.Condition), top.ProbabilityScore*100)
	} else {
		b.WriteString(", you may be experiencing general health concerns that could benefit from lifestyle modifications")
	}
	b.WriteString(".")

	for _, in := range summaryInsights {
		if s.has(in.cat) {
			b.WriteString(in.text)
			break
		}
	}

	b.WriteString(summaryDisclaimer)
	return b.String()
}

func precautions(s symptoms, intent domain.Intent, uctx *domain.UserContext) string {
	if intent == domain.IntentEmergency {
		return EmergencyPrecautions
	}

	out := []string{"Monitor your symptoms closely and note any changes in intensity, frequency, or new symptoms that develop."}

	if s.has(catChestBreathing) {
		out = append(out, "Chest pain and breathing difficulties require immediate medical evaluation. Do not delay seeking emergency care.")
	}
	if s.has(catDizziness) {
		out = append(out,
			"Avoid driving or operating machinery until dizziness resolves completely.",
			"Move slowly when changing positions (lying to sitting, sitting to standing) to prevent falls.",
			"Stay well-hydrated and avoid alcohol.",
		)
	}
	if s.has(catPain) {
		out = append(out, "For severe or worsening pain, seek medical evaluation promptly rather than waiting.")
	}
	if s.has(catFever) {
		out = append(out, "Monitor your temperature regularly and seek medical care if fever exceeds 101.3°F (38.5°C) or persists.")
	}
	if uctx != nil && uctx.Age != nil && *uctx.Age >= 65 {
		out = append(out, "At 65 or older, symptoms can progress faster, so arrange a check-up sooner rather than later.")
	}

	out = append(out, "Consult a healthcare provider if symptoms persist for more than 3-5 days, worsen significantly, or interfere with your daily activities.")
	return strings.Join(out, " ")
}

func yogaPlan(s symptoms) string {
	out := []string{
		"Practice gentle, mindful movement for 15-20 minutes daily, focusing on breath awareness and body comfort.",
		"Begin with basic grounding poses: Mountain Pose (Tadasana) for stability and Child's Pose (Balasana) for relaxation.",
	}

	if s.has(catFatigue) {
		out = append(out,
			"Try gentle energizing sequences: Cat-Cow stretches (Marjaryasana-Bitilasana) to mobilize the spine.",
			"Practice Legs-Up-Wall pose (Viparita Karani) for 5-10 minutes to improve circulation and reduce fatigue.",
			"Include gentle backbends like Camel Pose (Ustrasana) modification against a wall to boost energy.",
			"End with Corpse Pose (Savasana) for complete relaxation and restoration.",
		)
	}
	if s.has(catDizziness) {
		out = append(out,
			"Focus on seated or grounding poses initially: Easy Pose (Sukhasana) with spinal breathing.",
			"Practice Tree Pose (Vrksasana) near a wall for balance training once dizziness improves.",
			"Avoid rapid movements, inversions, and quick transitions between poses.",
			"Include neck and shoulder releases to address potential cervical spine contributions.",
		)
	}
	if s.has(catHeadache) {
		out = append(out,
			"Practice gentle neck stretches and shoulder rolls to release tension.",
			"Try Forward Fold (Uttanasana) modification with hands on blocks for mild inversion benefits.",
			"Include Eye Yoga: gentle eye movements and palming to reduce eye strain.",
			"Practice Supported Fish Pose (Matsyasana) with bolster to open chest and neck area.",
		)
	}
	if s.has(catBackPain) {
		out = append(out,
			"Focus on spine mobility: Cat-Cow stretches and gentle spinal twists in seated position.",
			"Practice Hip Flexor stretches: Low Lunge (Anjaneyasana) modifications.",
			"Strengthen core gently: Modified Plank and Bridge Pose (Setu Bandhasana).",
			"End with Knee-to-Chest pose (Apanasana) and gentle spinal twists.",
		)
	}
	if s.hasAny(catAnxiety, catSleep) {
		out = append(out,
			"Emphasize breathwork: Practice 4-7-8 breathing (inhale 4, hold 7, exhale 8 counts).",
			"Include restorative poses: Supported Child's Pose and Reclined Butterfly (Supta Baddha Konasana).",
			"Practice gentle forward folds for introspection: Seated Forward Fold (Paschimottanasana).",
			"End with extended Savasana (15-20 minutes) with body scan meditation.",
		)
	}

	out = append(out, "Always listen to your body, move within comfortable ranges, and stop if any pose causes pain or worsens symptoms.")
	return strings.Join(out, " ")
}

func dietPlan(s symptoms) string {
	out := []string{
		"Follow a balanced, whole-foods diet emphasizing fresh fruits, vegetables, whole grains, lean proteins, and healthy fats.",
		"Maintain consistent meal timing with balanced portions to support stable blood sugar and energy levels.",
		"Stay adequately hydrated with 8-10 glasses of water daily, adjusting for activity level and climate.",
	}

	if s.has(catFatigue) {
		out = append(out,
			"Include iron-rich foods: lean red meat, poultry, fish, lentils, spinach, and pumpkin seeds.",
			"Add vitamin B12 sources: fish, eggs, dairy, nutritional yeast, and fortified plant milks.",
			"Consume complex carbohydrates for sustained energy: quinoa, brown rice, sweet potatoes, and oats.",
			"Include magnesium-rich foods: almonds, avocados, dark chocolate, and leafy greens.",
			"Consider vitamin D assessment and foods like fatty fish, egg yolks, and fortified foods.",
		)
	}
	if s.has(catDizziness) {
		out = append(out,
			"Maintain stable blood sugar with balanced meals every 3-4 hours containing protein, healthy fats, and complex carbs.",
			"Limit caffeine and alcohol, which can affect blood pressure and hydration status.",
			"Include potassium-rich foods: bananas, oranges, potatoes, and yogurt for blood pressure support.",
			"Ensure adequate sodium intake (within healthy limits) especially if you exercise or sweat frequently.",
		)
	}
	if s.has(catHeadache) {
		out = append(out,
			"Identify and avoid potential trigger foods: aged cheeses, processed meats, artificial sweeteners, and MSG.",
			"Include magnesium-rich foods: nuts, seeds, dark leafy greens, and dark chocolate.",
			"Maintain regular meal timing to prevent hunger-triggered headaches.",
			"Stay well-hydrated as dehydration is a common headache trigger.",
			"Consider riboflavin (B2) sources: dairy, eggs, leafy greens, and almonds.",
		)
	}
	if s.has(catNausea) {
		out = append(out,
			"Try ginger: fresh ginger tea, crystallized ginger, or ginger supplements for nausea relief.",
			"Eat small, frequent meals with bland, easily digestible foods: crackers, toast, rice, bananas.",
			"Include electrolyte-rich foods: coconut water, broths, and fruits if tolerated.",
			"Avoid greasy, spicy, or strong-smelling foods that may worsen nausea.",
			"Consider peppermint tea or aromatherapy for additional nausea relief.",
		)
	}
	if s.has(catAnxiety) {
		out = append(out,
			"Include omega-3 fatty acids: fatty fish, walnuts, chia seeds, and flaxseeds for brain health.",
			"Consume magnesium and B-vitamin rich foods: leafy greens, nuts, seeds, and whole grains.",
			"Limit caffeine and sugar which can worsen anxiety symptoms in sensitive individuals.",
			"Include probiotics: yogurt, kefir, fermented foods for gut-brain axis support.",
			"Consider L-theanine sources: green tea for calm, focused energy.",
		)
	}

	out = append(out,
		"Include anti-inflammatory foods: berries, fatty fish, turmeric, and colorful vegetables.",
		"Limit processed foods, excessive sugar, and trans fats which can negatively impact energy and mood.",
	)
	return strings.Join(out, " ")
}

func lifestyleTips(s symptoms) string {
	out := []string{
		"Prioritize 7-9 hours of quality sleep nightly with a consistent sleep schedule, even on weekends.",
		"Create an optimal sleep environment: dark, cool (65-68°F), quiet room with comfortable bedding.",
		"Establish a relaxing bedtime routine: dim lights, avoid screens 1 hour before bed, try reading or gentle stretching.",
		"Practice stress reduction techniques: deep breathing exercises, progressive muscle relaxation, or mindfulness meditation for 10-15 minutes daily.",
		"Maintain work-life balance with clear boundaries between work and personal time.",
	}

	if s.has(catFatigue) {
		out = append(out,
			"Optimize your sleep hygiene: avoid caffeine after 2 PM, limit alcohol, and keep a sleep diary to identify patterns.",
			"Consider strategic 20-30 minute power naps before 3 PM if needed, but avoid longer or later naps.",
			"Gradually increase physical activity as tolerated - even 10-15 minutes of walking can boost energy.",
			"Evaluate your workspace ergonomics and take regular breaks from sedentary activities.",
		)
	}
	if s.has(catHeadache) {
		out = append(out,
			"Implement the 20-20-20 rule for screen work: every 20 minutes, look at something 20 feet away for 20 seconds.",
			"Ensure proper lighting at your workspace and consider blue light filtering glasses.",
			"Maintain good posture, especially neck and shoulder alignment during desk work.",
			"Practice regular stress management as tension is a common headache trigger.",
		)
	}
	if s.hasAny(catAnxiety, catSleep) {
		out = append(out,
			"Establish a daily relaxation practice such as guided meditation.",
			"Limit news consumption and social media exposure, especially before bedtime.",
			"Create a worry journal: write down concerns earlier in the day to prevent bedtime rumination.",
			"Consider professional counseling or therapy for additional anxiety management strategies.",
		)
	}
	if s.has(catBackPain) {
		out = append(out,
			"Evaluate and improve your workspace ergonomics: proper chair height, monitor position, and keyboard placement.",
			"Take movement breaks every 30-60 minutes if you have a desk job.",
			"Focus on core strengthening exercises and proper lifting techniques in daily activities.",
			"Consider your sleep surface - ensure your mattress and pillows provide adequate support.",
		)
	}

	out = append(out,
		"Incorporate regular physical activity: aim for 150 minutes of moderate exercise weekly, as appropriate for your condition.",
		"Spend time outdoors daily for natural light exposure and fresh air when possible.",
		"Maintain social connections and seek support from friends, family, or support groups when dealing with health concerns.",
		"Create a calm, organized living environment that supports relaxation and well-being.",
	)
	return strings.Join(out, " ")
}

func medicalGuidance(s symptoms, intent domain.Intent, uctx *domain.UserContext) string {
	if intent == domain.IntentEmergency {
		return EmergencyGuidance
	}

	var out []string
	if s.has(catChestBreathing) {
		out = append(out, "Seek immediate emergency medical care for chest pain or difficulty breathing. Call 911 or go to the nearest emergency room.")
	}
	if s.mentions(urgentPhrases) {
		out = append(out, "Seek medical care within 24 hours for severe or rapidly worsening symptoms.")
	}

	out = append(out,
		"Schedule a medical consultation if symptoms persist for more than 5-7 days without improvement.",
		"Consult a healthcare provider if symptoms significantly worsen or new concerning symptoms develop.",
		"Seek medical evaluation if symptoms interfere with your daily activities, work, or sleep quality.",
	)

	if s.has(catDizziness) {
		out = append(out, "For dizziness: seek care if accompanied by hearing changes, severe headache, chest pain, or if episodes are frequent or severe.")
	}
	if s.has(catHeadache) {
		out = append(out, "For headaches: seek immediate care if sudden, severe, or accompanied by fever, stiff neck, vision changes, or confusion.")
	}
	if s.has(catFatigue) {
		out = append(out, "For persistent fatigue: consider medical evaluation to rule out conditions like anemia, thyroid disorders, or sleep disorders.")
	}
	if uctx != nil && len(uctx.ExistingConditions) > 0 {
		out = append(out, fmt.Sprintf("Mention your existing conditions (%s) at every visit, since they can change how these symptoms are assessed.",
			strings.Join(uctx.ExistingConditions, ", ")))
	}

	out = append(out,
		"Consider consulting specialists as recommended by your primary care provider (cardiologist, neurologist, etc.).",
		"Don't hesitate to seek a second opinion if you have ongoing concerns about your symptoms or treatment plan.",
		"Remember: This guidance is educational only and should not replace your clinical judgment or professional medical advice.",
		"Always trust your instincts - if something feels seriously wrong, seek medical care promptly regardless of these general guidelines.",
	)
	return strings.Join(out, " ")
}
