package survey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSurveyDefinition is returned by Validate when a definition cannot
// be published. The matching core assumes definitions passed this check and
// does not re-validate.
var ErrInvalidSurveyDefinition = errors.New("invalid survey definition")

type ValidationIssue struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrInvalidSurveyDefinition.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s at %s", issue.Code, issue.Path))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidSurveyDefinition.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSurveyDefinition }

var (
	validResponseTypes = map[string]struct{}{
		ResponseLikert: {}, ResponseSingleSelect: {}, ResponseForcedChoice: {},
	}
	validUsages    = map[string]struct{}{UsageScoring: {}, UsageCopyOnly: {}}
	validOperators = map[string]struct{}{"eq": {}, "neq": {}, "in": {}, "not_in": {}}
)

// Validate checks a definition before publication: unique screen keys and
// question codes, known response types and usages, resolvable option-set
// references, well-formed forced-choice pairs (exactly two options, values A
// and B) and visibility rules that point at existing questions with values the
// trigger question can actually produce.
func Validate(def *Definition) error {
	var issues []ValidationIssue
	add := func(code, path, message string) {
		issues = append(issues, ValidationIssue{Code: code, Path: path, Message: message})
	}

	if def == nil {
		return &ValidationError{Issues: []ValidationIssue{{Code: "invalid_schema", Path: "", Message: "definition is nil"}}}
	}
	if strings.TrimSpace(def.Survey.Slug) == "" {
		add("missing_slug", "survey.slug", "survey slug is required")
	}
	if def.Survey.Version <= 0 {
		add("invalid_version", "survey.version", "survey version must be positive")
	}

	seenScreens := map[string]struct{}{}
	seenCodes := map[string]struct{}{}
	// code -> allowed option values (nil when unconstrained)
	questionOptions := map[string]map[string]struct{}{}

	for si, screen := range def.Screens {
		screenPath := fmt.Sprintf("screens[%d]", si)
		key := strings.TrimSpace(screen.Key)
		if key == "" {
			add("missing_screen_key", screenPath+".key", "screen key is required")
		} else if _, dup := seenScreens[key]; dup {
			add("duplicate_screen_key", screenPath+".key", fmt.Sprintf("duplicate screen key %q", key))
		} else {
			seenScreens[key] = struct{}{}
		}

		for ii, item := range screen.Items {
			itemPath := fmt.Sprintf("%s.items[%d]", screenPath, ii)
			q := item.Question
			code := strings.TrimSpace(q.Code)
			if code == "" {
				add("missing_question_code", itemPath+".question.code", "question code is required")
				continue
			}
			if _, dup := seenCodes[code]; dup {
				add("duplicate_question_code", itemPath+".question.code", fmt.Sprintf("duplicate question code %q", code))
			} else {
				seenCodes[code] = struct{}{}
			}

			if q.ResponseType != "" {
				if _, ok := validResponseTypes[q.ResponseType]; !ok {
					add("invalid_response_type", itemPath+".question.response_type",
						fmt.Sprintf("response_type %q is not supported", q.ResponseType))
				}
			}
			if _, ok := validUsages[q.Usage]; !ok {
				add("invalid_usage", itemPath+".question.usage",
					fmt.Sprintf("usage %q must be SCORING or COPY_ONLY", q.Usage))
			}

			opts := def.ResolveOptions(item)
			if len(item.Options) > 0 && opts == nil {
				add("missing_option_set", itemPath+".options", "option-set reference does not resolve")
			}
			if len(opts) > 0 {
				values := map[string]struct{}{}
				for _, o := range opts {
					values[o.Value] = struct{}{}
				}
				questionOptions[code] = values
			}

			if q.ResponseType == ResponseForcedChoice {
				if len(opts) != 2 {
					add("invalid_forced_choice_options", itemPath+".options",
						"forced_choice_pair must define exactly 2 options")
				} else {
					values := map[string]struct{}{opts[0].Value: {}, opts[1].Value: {}}
					if _, a := values["A"]; !a {
						add("invalid_forced_choice_values", itemPath+".options",
							"forced_choice_pair option values must be exactly 'A' and 'B'")
					} else if _, b := values["B"]; !b {
						add("invalid_forced_choice_values", itemPath+".options",
							"forced_choice_pair option values must be exactly 'A' and 'B'")
					}
					for _, o := range opts {
						if strings.TrimSpace(o.Label) == "" {
							add("invalid_forced_choice_labels", itemPath+".options",
								"forced_choice_pair labels must be non-empty")
						}
					}
				}
			}
		}
	}

	// Rules are validated in a second pass so forward references to questions
	// declared on later screens are legal.
	for si, screen := range def.Screens {
		for ii, item := range screen.Items {
			for ri, rule := range item.Question.Rules {
				rulePath := fmt.Sprintf("screens[%d].items[%d].rules[%d]", si, ii, ri)
				if rule.Type != "show_if" {
					continue
				}
				if _, ok := seenCodes[rule.TriggerQuestionCode]; !ok {
					add("unknown_trigger_question_code", rulePath+".trigger_question_code",
						fmt.Sprintf("trigger question code %q not found", rule.TriggerQuestionCode))
				}
				op := rule.Operator
				if op == "" {
					op = "eq"
				}
				if _, ok := validOperators[op]; !ok {
					add("invalid_operator", rulePath+".operator", fmt.Sprintf("operator %q is not supported", op))
					continue
				}
				switch op {
				case "eq", "neq":
					if _, isList := rule.TriggerValue.([]any); isList {
						add("invalid_trigger_value_shape", rulePath+".trigger_value",
							"trigger_value must be a scalar for eq/neq")
						continue
					}
					checkTriggerValue(rule.TriggerQuestionCode, rule.TriggerValue, questionOptions, rulePath, add)
				case "in", "not_in":
					list, isList := rule.TriggerValue.([]any)
					if !isList {
						add("invalid_trigger_value_shape", rulePath+".trigger_value",
							"trigger_value must be an array for in/not_in")
						continue
					}
					for _, v := range list {
						checkTriggerValue(rule.TriggerQuestionCode, v, questionOptions, rulePath, add)
					}
				}
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

func checkTriggerValue(code string, value any, questionOptions map[string]map[string]struct{}, rulePath string, add func(code, path, message string)) {
	allowed := questionOptions[code]
	if len(allowed) == 0 {
		return
	}
	s, ok := value.(string)
	if !ok {
		return
	}
	if _, ok := allowed[s]; !ok {
		add("invalid_trigger_value", rulePath+".trigger_value",
			fmt.Sprintf("trigger_value %q is not a valid option for %q", s, code))
	}
}
