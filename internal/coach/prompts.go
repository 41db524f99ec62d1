package coach

import (
	"bytes"
	"strings"
	"text/template"
)

const (
	// Extraction prompt: re-emit an arbitrary program text as the structured plan shape
	extractionPromptTmplStr = `You convert workout programs into structured data.

Read the program below and return ONLY valid JSON in this EXACT format:
{
  "weeks": [
    {
      "week": 1,
      "days": [
        {
          "day": 1,
          "label": "Push Day",
          "exercises": [
            {"name": "Push-ups", "sets": 3, "reps": 10, "rest_seconds": 60, "timed": false}
          ]
        }
      ]
    }
  ]
}

RULES:
- Keep every week, day and exercise in the original order.
- For time-based exercises put the duration in seconds into "reps" and set "timed" to true.
- Skip warm-up, cool-down, stretching and notes.
- Do not invent exercises that are not in the program.

PROGRAM:
{{.Program}}`

	// Compact prompt for the fallback model
	compactExtractionPromptTmplStr = `Return ONLY JSON {"weeks":[{"week":1,"days":[{"day":1,"label":"","exercises":[{"name":"","sets":3,"reps":10,"rest_seconds":60}]}]}]} for this workout program. Main exercises only.

{{.Program}}`

	// Regeneration prompt for unstructured change requests
	regenerationPromptTmplStr = `You are an expert strength and conditioning coach rewriting a client's workout program.

CLIENT REQUEST: "{{.Request}}"

HARD CONSTRAINTS:
- Exactly {{.Days}} training days per week.
- Available equipment: {{.Equipment}}.
{{- range .Restrictions}}
- Restriction: {{.}}.
{{- end}}
{{- if .Forbidden}}
- Never use exercises that need: {{join .Forbidden ", "}}.
{{- end}}

CURRENT PROGRAM:
{{.Current}}

Return the complete new program in this markdown format and nothing else:

## Week 1

### Day 1: <label>
**Main Workout:**
- <Exercise>: <sets> sets x <reps> reps, Rest: <seconds> seconds
- <Timed exercise>: <sets> sets x <seconds> seconds, Rest: <seconds> seconds`
)

var promptFuncs = template.FuncMap{"join": strings.Join}

var (
	extractionTmpl        = template.Must(template.New("extraction").Parse(extractionPromptTmplStr))
	compactExtractionTmpl = template.Must(template.New("compact_extraction").Parse(compactExtractionPromptTmplStr))
	regenerationTmpl      = template.Must(template.New("regeneration").Funcs(promptFuncs).Parse(regenerationPromptTmplStr))
)

type extractionPromptContext struct {
	Program string
}

// RegenerationContext holds the constraints for a full program rewrite
type RegenerationContext struct {
	Request      string
	Days         int
	Equipment    string
	Restrictions []string
	Forbidden    []string
	Current      string
}

func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
