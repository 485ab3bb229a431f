package recommendation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/symptom-intake-server/internal/domain"
)

// SystemPrompt is the instruction sent with every chat request.
const SystemPrompt = "You are a medical wellness advisor providing evidence-based health recommendations."

const summaryExcerptRunes = 200

// Default sections used when a completion does not carry its own.
const (
	defaultChatPrecautions = "Monitor your symptoms and consult a healthcare provider."
	defaultChatYoga        = "Practice gentle yoga as tolerated."
	defaultChatDiet        = "Follow a balanced, nutritious diet."
	defaultChatLifestyle   = "Maintain good sleep and stress management."
	defaultChatGuidance    = "Consult a healthcare provider for medical evaluation."
)

// Section headings requested from the chat backend, in reply order.
var sectionHeadings = []struct {
	heading string
	assign  func(*PlanSections, string)
}{
	{"CONDITION SUMMARY", func(s *PlanSections, v string) { s.ConditionSummary = v }},
	{"PRECAUTIONS", func(s *PlanSections, v string) { s.Precautions = v }},
	{"YOGA", func(s *PlanSections, v string) { s.YogaPlan = v }},
	{"DIET", func(s *PlanSections, v string) { s.DietPlan = v }},
	{"LIFESTYLE", func(s *PlanSections, v string) { s.LifestyleTips = v }},
	{"MEDICAL GUIDANCE", func(s *PlanSections, v string) { s.MedicationGuidance = v }},
}

// BuildPrompt renders the user prompt for one analysis.
func BuildPrompt(analysis *domain.AnalysisResult, uctx *domain.UserContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Medical analysis for: %s\n\n", analysis.OriginalText)
	fmt.Fprintf(&b, "Intent: %s\n", analysis.Intent)

	if len(analysis.MedicalEntities) > 0 {
		names := make([]string, 0, len(analysis.MedicalEntities))
		for _, e := range analysis.MedicalEntities {
			names = append(names, fmt.Sprintf("%s (%s)", e.Text, e.Label))
		}
		fmt.Fprintf(&b, "Detected entities: %s\n", strings.Join(names, ", "))
	}
	if len(analysis.ProbableConditions) > 0 {
		names := make([]string, 0, len(analysis.ProbableConditions))
		for _, c := range analysis.ProbableConditions {
			names = append(names, fmt.Sprintf("%s %.0f%%", c.Condition, c.ProbabilityScore*100))
		}
		fmt.Fprintf(&b, "Possible conditions: %s\n", strings.Join(names, ", "))
	}

	if uctx != nil {
		if uctx.Age != nil {
			fmt.Fprintf(&b, "Age: %d\n", *uctx.Age)
		}
		if uctx.Gender != "" {
			fmt.Fprintf(&b, "Gender: %s\n", uctx.Gender)
		}
		if len(uctx.ExistingConditions) > 0 {
			fmt.Fprintf(&b, "Existing conditions: %s\n", strings.Join(uctx.ExistingConditions, ", "))
		}
	}

	b.WriteString("\nReply with these sections, each starting on its own line with the heading followed by a colon: ")
	headings := make([]string, len(sectionHeadings))
	for i, h := range sectionHeadings {
		headings[i] = h.heading
	}
	b.WriteString(strings.Join(headings, ", "))
	b.WriteString(".")
	return b.String()
}

// ParseCompletion maps a free-text completion onto plan sections. Headed
// sections are used when present; anything missing falls back to a fixed
// default, and the summary falls back to an excerpt of the raw text.
func ParseCompletion(raw string) PlanSections {
	sections := parseHeadedSections(raw)

	out := PlanSections{RawResponse: raw}
	for _, h := range sectionHeadings {
		if v := sections[h.heading]; v != "" {
			h.assign(&out, v)
		}
	}

	if out.ConditionSummary == "" {
		out.ConditionSummary = excerpt(raw, summaryExcerptRunes)
	}
	if out.Precautions == "" {
		out.Precautions = defaultChatPrecautions
	}
	if out.YogaPlan == "" {
		out.YogaPlan = defaultChatYoga
	}
	if out.DietPlan == "" {
		out.DietPlan = defaultChatDiet
	}
	if out.LifestyleTips == "" {
		out.LifestyleTips = defaultChatLifestyle
	}
	if out.MedicationGuidance == "" {
		out.MedicationGuidance = defaultChatGuidance
	}

	out.Precautions = ensureConsult(out.Precautions, defaultChatPrecautions)
	out.MedicationGuidance = ensureConsult(out.MedicationGuidance, defaultChatGuidance)
	return out
}

func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s + "..."
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func ensureConsult(text, fallback string) string {
	if strings.Contains(strings.ToLower(text), ConsultDirective) {
		return text
	}
	return strings.TrimSpace(text) + " " + fallback
}

// parseHeadedSections splits text on lines that begin with a known heading,
// ignoring markdown emphasis and leading '#' marks.
func parseHeadedSections(raw string) map[string]string {
	out := make(map[string]string)
	current := ""
	var buf []string

	flush := func() {
		if current != "" {
			if v := strings.TrimSpace(strings.Join(buf, " ")); v != "" {
				out[current] = v
			}
		}
		buf = buf[:0]
	}

	for _, line := range strings.Split(raw, "\n") {
		heading, rest, ok := matchHeading(line)
		if ok {
			flush()
			current = heading
			if rest != "" {
				buf = append(buf, rest)
			}
			continue
		}
		if current != "" {
			if t := strings.TrimSpace(line); t != "" {
				buf = append(buf, t)
			}
		}
	}
	flush()
	return out
}

func matchHeading(line string) (heading, rest string, ok bool) {
	trimmed := strings.TrimLeft(strings.TrimSpace(line), "#* ")
	colon := strings.Index(trimmed, ":")
	if colon < 0 {
		return "", "", false
	}
	label := strings.ToUpper(strings.Trim(trimmed[:colon], "* "))
	for _, h := range sectionHeadings {
		if label == h.heading {
			return h.heading, strings.TrimSpace(strings.TrimLeft(trimmed[colon+1:], "* ")), true
		}
	}
	return "", "", false
}
