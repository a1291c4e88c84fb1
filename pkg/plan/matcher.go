package plan

import "strings"

// minKeywordLen is the length a word must exceed to count toward a
// plan match. Shorter words ("the", "my", "for") carry no signal.
const minKeywordLen = 3

// SignificantWords lowercases the text, splits it on whitespace and
// keeps the words longer than minKeywordLen.
func SignificantWords(text string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if len(w) > minKeywordLen {
			words = append(words, w)
		}
	}
	return words
}

// FindMatchingPlan returns the first plan whose condition or name shares
// a significant word with the text, or nil when none matches. Plans are
// checked in the order given (the store returns newest-first) and the
// first hit wins; there is no scoring. A plan whose condition and name
// contain only short words can never match.
func FindMatchingPlan(text string, plans []Plan) *Plan {
	lower := strings.ToLower(text)
	for i := range plans {
		p := &plans[i]
		candidates := SignificantWords(p.Condition + " " + p.Name)
		for _, word := range candidates {
			if strings.Contains(lower, word) {
				return p
			}
		}
	}
	return nil
}

// FindPlanByCondition matches a condition filter against active plans:
// any significant word of the filter appearing in a plan's condition
// selects that plan.
func FindPlanByCondition(condition string, plans []Plan) *Plan {
	for i := range plans {
		p := &plans[i]
		planCondition := strings.ToLower(p.Condition)
		for _, word := range SignificantWords(condition) {
			if strings.Contains(planCondition, word) {
				return p
			}
		}
	}
	return nil
}
