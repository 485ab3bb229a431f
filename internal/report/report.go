// Package report renders an assessment as the plain-text report offered for
// download.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/symptom-intake-server/internal/history"
)

// ContentType is the media type of a rendered report.
const ContentType = "text/plain; charset=utf-8"

const notAvailable = "N/A"

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"orNA": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return notAvailable
		}
		return s
	},
}).Parse(`AI WELLNESS ASSISTANT - MEDICAL ANALYSIS REPORT
Generated: {{.Generated}}
Assessment ID: {{.ID}}
System: Medical AI Pipeline with Smart Fallbacks

INPUT: {{.Input}}

NLP ANALYSIS:
- Intent: {{orNA .Intent}}
- Confidence: {{percent .Confidence}}
- Medical Entities: {{.EntityCount}}{{range .Entities}}
  * {{.}}{{end}}
- Probable Conditions: {{len .Conditions}}{{range .Conditions}}
  * {{.}}{{end}}

WELLNESS RECOMMENDATIONS:

CONDITION SUMMARY:
{{orNA .Plan.ConditionSummary}}

SAFETY PRECAUTIONS:
{{orNA .Plan.Precautions}}

YOGA & PHYSICAL ACTIVITIES:
{{orNA .Plan.YogaPlan}}

NUTRITIONAL RECOMMENDATIONS:
{{orNA .Plan.DietPlan}}

LIFESTYLE MODIFICATIONS:
{{orNA .Plan.LifestyleTips}}

MEDICAL CONSULTATION GUIDANCE:
{{orNA .Plan.MedicationGuidance}}

SYSTEM INFORMATION:
- Processing Method: {{orNA .Method}}
- AI Model/System: {{orNA .Plan.ModelUsed}}
- Generation Time: {{.Plan.GenerationTimeMs}}ms

DISCLAIMER:
This analysis is for educational and wellness guidance purposes only.
Always consult qualified healthcare professionals for medical diagnosis and treatment.
`))

type planView struct {
	ConditionSummary   string
	Precautions        string
	YogaPlan           string
	DietPlan           string
	LifestyleTips      string
	MedicationGuidance string
	ModelUsed          string
	GenerationTimeMs   int64
}

type view struct {
	Generated   string
	ID          string
	Input       string
	Intent      string
	Confidence  float64
	EntityCount int
	Entities    []string
	Conditions  []string
	Method      string
	Plan        planView
}

func newView(r *history.Record) view {
	v := view{
		Generated:   r.CreatedAt.Format("2006-01-02 15:04:05"),
		ID:          r.ID.String(),
		Input:       r.InputText,
		Intent:      string(r.Intent),
		Confidence:  r.Confidence,
		EntityCount: r.EntityCount,
		Method:      string(r.ProcessingMethod),
	}
	if a := r.Analysis; a != nil {
		for _, e := range a.MedicalEntities {
			line := fmt.Sprintf("%s (%s)", e.Text, e.Label)
			if e.HasConcept() {
				line += fmt.Sprintf(" [%s %s]", e.ConceptID, e.ConceptDescription)
			}
			v.Entities = append(v.Entities, line)
		}
		for _, c := range a.ProbableConditions {
			v.Conditions = append(v.Conditions, fmt.Sprintf("%s: %.0f%%", c.Condition, c.ProbabilityScore*100))
		}
	}
	if p := r.Plan; p != nil {
		v.Plan = planView{
			ConditionSummary:   p.ConditionSummary,
			Precautions:        p.Precautions,
			YogaPlan:           p.YogaPlan,
			DietPlan:           p.DietPlan,
			LifestyleTips:      p.LifestyleTips,
			MedicationGuidance: p.MedicationGuidance,
			ModelUsed:          p.ModelUsed,
			GenerationTimeMs:   p.GenerationTimeMs,
		}
	}
	return v
}

// Render writes the report for r to w.
func Render(w io.Writer, r *history.Record) error {
	if r == nil {
		return fmt.Errorf("no assessment to render")
	}
	if err := reportTemplate.Execute(w, newView(r)); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// String renders the report for r into a string.
func String(r *history.Record) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FileName returns the download name for a report generated at t.
func FileName(t time.Time) string {
	return "medical_analysis_" + t.Format("20060102_150405") + ".txt"
}
