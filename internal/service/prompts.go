package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

const generationPromptTmplStr = `You are an experienced strength and conditioning coach.
Write a {{.Weeks}}-week workout program for this client.

Client profile:
- Gender: {{.Profile.Gender}}
- Age: {{.Profile.Age}}
- Goal: {{.Profile.Goal}}
- Experience: {{.Profile.Experience}}
- Training days per week: {{.Profile.DaysPerWeek}}
- Equipment: {{.Profile.Equipment}}
- Preferred style: {{.Profile.Style}}
{{- range .Restrictions}}
- Restriction: {{.}}
{{- end}}
{{if .Snippets}}
Coaching notes you may use:
{{- range .Snippets}}
- {{.}}
{{- end}}
{{end}}
Use exactly this markdown format and nothing else:

## Week 1
### Day 1: <label>
**Main Workout:**
- <Exercise>: <sets> sets x <reps> reps, Rest: <seconds> seconds
- <Exercise>: <sets> sets x <seconds> seconds, Rest: <seconds> seconds

Rules:
- Exactly {{.Profile.DaysPerWeek}} days in every week.
- Every exercise line must give sets, reps or seconds, and rest.
- Do not add warm-up or cool-down sections.`

const progressNotePromptTmplStr = `You are a supportive fitness coach. The client reported progress:
"{{.Message}}"

Reply in two or three sentences: acknowledge the progress specifically and give one concrete suggestion for their next session. No markdown.`

const answerPromptTmplStr = `You are a knowledgeable fitness coach answering a client's question.

Question: {{.Message}}
{{if .Plan}}
The client's current plan:
{{.Plan}}
{{end}}
{{- if .Snippets}}
Reference notes:
{{- range .Snippets}}
- {{.}}
{{- end}}
{{end}}
Answer in at most five sentences. Stay specific to the client's plan when it is relevant. No markdown headings.`

const insightsPromptTmplStr = `You are a fitness coach reviewing a client's training over the period {{.Period}}.

- Workouts: {{.Summary.TotalWorkouts}} ({{printf "%.1f" .Summary.WeeklyFrequency}} per week)
- Total time: {{.Summary.TotalTimeMinutes}} minutes
- Exercise completion rate: {{printf "%.1f" .Summary.CompletionRate}}%
- Intensity trend: {{.Trend}}
- Current streak: {{.Streak}} days
{{- if .Top}}
- Strongest exercises: {{join .Top ", "}}
{{- end}}
{{- if .Struggling}}
- Struggling with: {{join .Struggling ", "}}
{{- end}}

Write three short sentences of insight and one recommendation. Plain text.`

var promptFuncs = template.FuncMap{"join": strings.Join}

var (
	generationTmpl   = template.Must(template.New("generation").Funcs(promptFuncs).Parse(generationPromptTmplStr))
	progressNoteTmpl = template.Must(template.New("progress_note").Parse(progressNotePromptTmplStr))
	answerTmpl       = template.Must(template.New("answer").Parse(answerPromptTmplStr))
	insightsTmpl     = template.Must(template.New("insights").Funcs(promptFuncs).Parse(insightsPromptTmplStr))
)

type generationPromptContext struct {
	Profile      *domain.UserProfile
	Weeks        int
	Restrictions []string
	Snippets     []string
}

type messagePromptContext struct {
	Message  string
	Plan     string
	Snippets []string
}

type insightsPromptContext struct {
	Period     string
	Summary    domain.DashboardSummary
	Trend      string
	Streak     int
	Top        []string
	Struggling []string
}

func renderPrompt(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// complete renders tmpl and calls the completer under timeout. A blank answer
// counts as a failure.
func complete(ctx context.Context, completer domain.TextCompleter, timeout time.Duration, tmpl *template.Template, data interface{}) (string, error) {
	if completer == nil {
		return "", domain.ErrUpstreamUnavailable
	}
	prompt, err := renderPrompt(tmpl, data)
	if err != nil {
		return "", err
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := completer.Complete(callCtx, domain.CompletionRequest{Prompt: prompt})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrUpstreamUnavailable)
	}
	return out, nil
}

// retrieve fetches snippets under timeout. Failures yield no snippets.
func retrieve(ctx context.Context, retriever domain.ContextRetriever, timeout time.Duration, query string, k int) []string {
	if retriever == nil || k <= 0 {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snippets, err := retriever.Retrieve(callCtx, query, k)
	if err != nil {
		return nil
	}
	return snippets
}
