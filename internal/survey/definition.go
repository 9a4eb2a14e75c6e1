package survey

import (
	"encoding/json"
	"strings"
)

// Response types accepted by the survey runtime.
const (
	ResponseLikert       = "likert_1_5"
	ResponseSingleSelect = "single_select"
	ResponseForcedChoice = "forced_choice_pair"
	ResponseFreeText     = "free_text"
)

// Question usage. COPY_ONLY answers are retained verbatim for copy generation
// and never enter a scoring dimension.
const (
	UsageScoring  = "SCORING"
	UsageCopyOnly = "COPY_ONLY"
)

type Meta struct {
	Slug    string `json:"slug"`
	Version int    `json:"version"`
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type VisibilityRule struct {
	Type                string `json:"type"`
	TriggerQuestionCode string `json:"trigger_question_code"`
	Operator            string `json:"operator,omitempty"`
	TriggerValue        any    `json:"trigger_value"`
}

type Question struct {
	Code         string           `json:"code"`
	Text         string           `json:"text"`
	ResponseType string           `json:"response_type"`
	IsRequired   bool             `json:"is_required"`
	AllowSkip    bool             `json:"allow_skip"`
	ReverseCoded bool             `json:"reverse_coded"`
	Usage        string           `json:"usage"`
	RegionTag    string           `json:"region_tag"`
	Rules        []VisibilityRule `json:"rules,omitempty"`
}

// Item.Options is either an inline option list or a string key into the
// definition's option_sets.
type Item struct {
	Question Question        `json:"question"`
	Options  json.RawMessage `json:"options,omitempty"`
}

type Screen struct {
	Key   string `json:"key"`
	Title string `json:"title,omitempty"`
	Items []Item `json:"items"`
}

type Definition struct {
	Survey     Meta                `json:"survey"`
	OptionSets map[string][]Option `json:"option_sets,omitempty"`
	Screens    []Screen            `json:"screens"`
}

func ParseDefinition(raw []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// ResolveOptions returns the option list for an item, following an option-set
// reference when the payload is a bare string.
func (d *Definition) ResolveOptions(item Item) []Option {
	if len(item.Options) == 0 {
		return nil
	}
	var ref string
	if err := json.Unmarshal(item.Options, &ref); err == nil {
		return d.OptionSets[strings.TrimSpace(ref)]
	}
	var opts []Option
	if err := json.Unmarshal(item.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// Questions walks screens in order and yields every item with a non-empty code.
func (d *Definition) Questions() []Item {
	var out []Item
	for _, screen := range d.Screens {
		for _, item := range screen.Items {
			if strings.TrimSpace(item.Question.Code) == "" {
				continue
			}
			out = append(out, item)
		}
	}
	return out
}

// Scalar unwraps the {"value": ...} envelope some clients submit and returns
// the raw answer otherwise.
func Scalar(v any) any {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m["value"]; ok {
			return inner
		}
	}
	return v
}

// Answered reports whether a scalar answer counts as present.
func Answered(v any) bool {
	s := Scalar(v)
	if s == nil {
		return false
	}
	if str, ok := s.(string); ok && strings.TrimSpace(str) == "" {
		return false
	}
	return true
}
