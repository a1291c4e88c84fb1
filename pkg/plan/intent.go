package plan

// Intent is the coarse classification of an incoming chat message.
type Intent int

const (
	// IntentPlain is a message with no plan-related signal.
	IntentPlain Intent = iota
	// IntentDeactivate asks to stop an active plan.
	IntentDeactivate
	// IntentProgressReport reports task completions or asks to mark them.
	IntentProgressReport
	// IntentPlanCandidate mentions a health condition that may warrant a plan.
	IntentPlanCandidate
)

// String returns the string representation of the intent.
func (i Intent) String() string {
	switch i {
	case IntentDeactivate:
		return "deactivate"
	case IntentProgressReport:
		return "progress_report"
	case IntentPlanCandidate:
		return "plan_candidate"
	default:
		return "plain"
	}
}

// intentRules is the ordered decision table for classification. The
// first rule whose keyword set matches wins, so deactivation outranks
// progress, which outranks plan creation.
var intentRules = []struct {
	keywords []string
	intent   Intent
}{
	{DeactivationKeywords, IntentDeactivate},
	{ProgressKeywords, IntentProgressReport},
	{HealthConditionKeywords, IntentPlanCandidate},
}

// Classify determines the intent of a message. It is a pure function
// over the static keyword sets; no state is read or written.
func Classify(text string) Intent {
	for _, rule := range intentRules {
		if ContainsAny(text, rule.keywords) {
			return rule.intent
		}
	}
	return IntentPlain
}
