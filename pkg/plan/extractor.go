package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

// maxTaskLen bounds stored task descriptions. Longer descriptions are
// cut to 197 characters plus an ellipsis.
const maxTaskLen = 200

var (
	dayMarkerRe = regexp.MustCompile(`(?i)day\s*(\d+)\s*:`)

	conditionRe = regexp.MustCompile(`(?i)back\s*pain|neck\s*pain|stress|anxiety|injury|muscle|joint`)

	// Ordered plan-title patterns. The first one captures the explicit
	// "<N>-Day ... Plan" phrasing; the second settles for any title
	// ending in Plan/Management/Program.
	titleRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+)-day\s+([^:\n]*?(?:plan|management|program))`),
		regexp.MustCompile(`(?i)([^:\n]*?(?:plan|management|program))`),
	}

	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
)

// analyzePrompt asks the model to decide whether a message warrants a
// structured plan and, if so, to emit one as a fenced JSON block.
var analyzePrompt = prompts.NewPromptTemplate(`You are a physician specializing in creating personalized health plans.

A user has mentioned a health condition or concern. Your task is to:
1. Analyze if this requires a structured plan with daily tasks
2. If yes, create a comprehensive plan with specific daily tasks

Health conditions that typically need structured plans include pain
conditions, mobility issues, stress or anxiety management, sleep
disorders, recovery from injuries, chronic conditions requiring daily
management, and fitness goals.

User's message: "{{.user_message}}"

Context from previous conversations:
{{.context}}

If this message indicates a health condition that would benefit from a structured plan, respond with:
`+"```json"+`
{
    "needs_plan": true,
    "condition": "brief description of the condition",
    "plan_name": "descriptive plan name",
    "timeline_days": 7,
    "tasks": [
        "Task 1 - specific actionable task",
        "Task 2 - specific actionable task",
        "Task 3 - specific actionable task"
    ]
}
`+"```"+`

If this is just a general health question or doesn't need a structured plan, respond with:
`+"```json"+`
{
    "needs_plan": false,
    "reason": "explanation why no plan is needed"
}
`+"```"+`

Guidelines: maximum 7 days timeline, 5-8 specific actionable daily
tasks, evidence-based, realistic and achievable. Be strict about when
plans are needed.`, []string{"user_message", "context"})

// ExtractFromResponse scans generated specialist text for a repeating
// "Day N: description" pattern and assembles a structured plan from it.
// No model call is involved. Day blocks beyond the seventh are dropped
// along with the timeline cap, so the task count always equals
// TimelineDays.
func ExtractFromResponse(text string) ExtractionResult {
	markers := dayMarkerRe.FindAllStringSubmatchIndex(text, -1)
	if len(markers) == 0 {
		return ExtractionResult{HasPlan: false, Reason: "no daily tasks found in response"}
	}

	timeline := len(markers)
	if timeline > MaxTimelineDays {
		timeline = MaxTimelineDays
	}

	tasks := make([]string, 0, timeline)
	for i, m := range markers[:timeline] {
		dayNum := text[m[2]:m[3]]
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		desc := normalizeTask(text[m[1]:end])
		tasks = append(tasks, fmt.Sprintf("Day %s: %s", dayNum, desc))
	}

	condition := "health condition"
	if m := conditionRe.FindString(strings.ToLower(text)); m != "" {
		condition = m
	}

	return ExtractionResult{
		HasPlan:      true,
		Condition:    condition,
		PlanName:     guessPlanName(text),
		TimelineDays: timeline,
		Tasks:        tasks,
	}
}

// normalizeTask collapses whitespace and truncates overlong descriptions.
func normalizeTask(s string) string {
	clean := strings.Join(strings.Fields(s), " ")
	if len(clean) > maxTaskLen {
		clean = clean[:maxTaskLen-3] + "..."
	}
	return clean
}

// guessPlanName looks for a plan title in the text, falling back to a
// generic name.
func guessPlanName(text string) string {
	for i, re := range titleRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if i == 0 {
			return strings.TrimSpace(fmt.Sprintf("%s-Day %s", m[1], strings.TrimSpace(m[2])))
		}
		return strings.TrimSpace(m[1])
	}
	return "Health Management Plan"
}

// AnalyzeMessage asks the model whether the user's message warrants a
// structured plan. The model's answer is located as a fenced JSON block
// and parsed; any malformed or missing block surfaces as a
// HasPlan=false result, never as an error past this boundary.
func AnalyzeMessage(ctx context.Context, llm llms.Model, message, contextText string) ExtractionResult {
	prompt, err := analyzePrompt.Format(map[string]any{
		"user_message": message,
		"context":      contextText,
	})
	if err != nil {
		return ExtractionResult{HasPlan: false, Reason: fmt.Sprintf("prompt build failed: %v", err)}
	}

	response, err := llms.GenerateFromSinglePrompt(ctx, llm, prompt)
	if err != nil {
		return ExtractionResult{HasPlan: false, Reason: fmt.Sprintf("model call failed: %v", err)}
	}

	return ParseExtraction(response)
}

// ParseExtraction locates a fenced JSON block in model output and
// decodes it into an ExtractionResult, clamping the timeline.
func ParseExtraction(response string) ExtractionResult {
	m := fencedJSONRe.FindStringSubmatch(response)
	if m == nil {
		return ExtractionResult{HasPlan: false, Reason: "no JSON block found in response"}
	}

	var result ExtractionResult
	if err := json.Unmarshal([]byte(m[1]), &result); err != nil {
		return ExtractionResult{HasPlan: false, Reason: fmt.Sprintf("JSON parsing error: %v", err)}
	}

	if result.HasPlan {
		result.TimelineDays = ClampTimeline(result.TimelineDays)
	}
	return result
}
