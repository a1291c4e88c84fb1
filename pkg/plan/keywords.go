package plan

import "strings"

// Keyword sets driving intent classification and progress reconciliation.
// Membership is a case-insensitive substring test, not a word-boundary
// match, so a keyword embedded in a longer word also matches ("end" in
// "weekend"). That looseness is inherited behavior and callers rely on
// it staying cheap; widening it to tokenized matching would change
// which messages trigger each intent.

// DeactivationKeywords mark a request to stop an active plan.
var DeactivationKeywords = []string{
	"deactivate", "stop", "quit", "cancel", "inactive",
	"don't want", "no longer", "end",
}

// ProgressKeywords mark a progress report or a request to mark tasks done.
var ProgressKeywords = []string{
	"mark", "progress", "completed", "finished", "done", "update", "track",
}

// CompletionIndicators are generic confirmation words used by the
// reconciler's heuristic mode.
var CompletionIndicators = []string{
	"done", "completed", "finished", "did", "yes", "✅", "✓", "all", "everything",
}

// NegativeIndicators are recognized but currently unused for unmarking:
// the reconciler never skips or reverts a completion because of them.
var NegativeIndicators = []string{
	"didn't", "couldn't", "missed", "no", "skipped", "❌", "✗",
}

// HealthConditionKeywords flag messages that may warrant a structured plan.
var HealthConditionKeywords = []string{
	// Pain conditions
	"back pain", "neck pain", "shoulder pain", "knee pain", "hip pain", "joint pain",
	"headache", "migraine", "muscle pain", "chronic pain", "sciatica",
	"pain", "ache", "aching", "hurt", "hurts", "hurting", "sore", "soreness",

	// Mobility and physical issues
	"stiff", "stiffness", "mobility", "flexibility", "range of motion", "posture",
	"injured", "injury", "sprain", "strain", "pulled muscle", "tight muscles",

	// Mental health and stress
	"stress", "stressed", "anxiety", "anxious", "depression", "depressed",
	"overwhelmed", "burnout", "sleep problems", "insomnia", "tired", "fatigue",
	"mental health", "mood", "irritable", "restless",

	// Fitness and recovery
	"fitness goals", "weight loss", "strength training", "cardio",
	"recovery", "rehabilitation", "physical therapy", "exercise",
	"workout", "training", "fitness",

	// Chronic conditions
	"diabetes", "hypertension", "high blood pressure", "cholesterol",
	"arthritis", "fibromyalgia", "chronic fatigue", "chronic condition",

	// General symptoms
	"dizzy", "nausea", "weakness", "swollen", "inflammation",
	"breathing problems", "chest pain", "irregular heartbeat",
}

// ContainsAny reports whether the lowercased text contains any keyword
// from the set as a substring.
func ContainsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// CountIndicators returns how many distinct keywords from the set appear
// in the lowercased text.
func CountIndicators(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}
