package survey

import "sort"

// IsVisible evaluates a question's show_if rules against the current answers.
// A question with no rules is always visible; a rule whose trigger question is
// unanswered hides the question until the trigger is answered.
func IsVisible(q Question, answers map[string]any) bool {
	if len(q.Rules) == 0 {
		return true
	}
	for _, rule := range q.Rules {
		if rule.Type != "show_if" {
			continue
		}
		if rule.TriggerQuestionCode == "" || rule.TriggerValue == nil {
			continue
		}
		trigger, ok := answers[rule.TriggerQuestionCode]
		if !ok || !Answered(trigger) {
			return false
		}
		scalar := Scalar(trigger)
		op := rule.Operator
		if op == "" {
			op = "eq"
		}
		switch op {
		case "in":
			if !valueIn(scalar, rule.TriggerValue) {
				return false
			}
		case "neq":
			if equalScalar(scalar, rule.TriggerValue) {
				return false
			}
		default: // eq
			if !equalScalar(scalar, rule.TriggerValue) {
				return false
			}
		}
	}
	return true
}

// VisibleRequired returns the required question codes currently visible given
// the answers. Conditionally hidden questions never count as missing.
func VisibleRequired(def *Definition, answers map[string]any) map[string]struct{} {
	out := map[string]struct{}{}
	if def == nil {
		return out
	}
	for _, item := range def.Questions() {
		q := item.Question
		if !q.IsRequired || q.AllowSkip {
			continue
		}
		if IsVisible(q, answers) {
			out[q.Code] = struct{}{}
		}
	}
	return out
}

// MissingRequired lists visible required questions with no usable answer.
func MissingRequired(def *Definition, answers map[string]any) []string {
	var missing []string
	for code := range VisibleRequired(def, answers) {
		if !Answered(answers[code]) {
			missing = append(missing, code)
		}
	}
	sort.Strings(missing)
	return missing
}

func valueIn(scalar any, candidates any) bool {
	list, ok := candidates.([]any)
	if !ok {
		return equalScalar(scalar, candidates)
	}
	for _, c := range list {
		if equalScalar(scalar, c) {
			return true
		}
	}
	return false
}

// equalScalar compares answer scalars the way JSON round-tripping delivers
// them: strings as strings, numbers as float64.
func equalScalar(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as == bs
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	}
	return 0, false
}
