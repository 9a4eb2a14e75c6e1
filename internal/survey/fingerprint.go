package survey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Fingerprint identifies a published definition by content. Cosmetic key
// ordering and option-list ordering do not change the hash.
type Fingerprint struct {
	Slug    string `json:"slug"`
	Version int    `json:"version"`
	Hash    string `json:"hash"`
}

func ComputeFingerprint(def *Definition) Fingerprint {
	if def == nil {
		return Fingerprint{}
	}
	return Fingerprint{
		Slug:    def.Survey.Slug,
		Version: def.Survey.Version,
		Hash:    SHA256Hex(def),
	}
}

// CanonicalJSON round-trips the value through generic JSON, normalizes option
// lists into (value,label) order and emits compact JSON with sorted keys.
func CanonicalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	out, err := json.Marshal(normalize(generic))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func SHA256Hex(v any) string {
	canon, err := CanonicalJSON(v)
	if err != nil {
		// Marshal of already-round-tripped JSON cannot fail; v came from a
		// parsed definition.
		canon = fmt.Sprintf("%v", v)
	}
	sum := sha256.Sum256([]byte(canon))
	return hex.EncodeToString(sum[:])
}

// normalize sorts option lists so reordering choices does not alter a hash.
// encoding/json already emits map keys sorted.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		normalized := make([]any, 0, len(t))
		for _, item := range t {
			normalized = append(normalized, normalize(item))
		}
		if isOptionList(t) {
			sort.SliceStable(normalized, func(i, j int) bool {
				a := normalized[i].(map[string]any)
				b := normalized[j].(map[string]any)
				av, bv := fmt.Sprint(a["value"]), fmt.Sprint(b["value"])
				if av != bv {
					return av < bv
				}
				return fmt.Sprint(a["label"]) < fmt.Sprint(b["label"])
			})
		}
		return normalized
	default:
		return v
	}
}

func isOptionList(items []any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := m["value"]; !ok {
			return false
		}
		if _, ok := m["label"]; !ok {
			return false
		}
	}
	return true
}

// QuestionSemanticsHash hashes only the fields that change a question's
// meaning: prompt, response type, resolved options, validation flags and
// scoring metadata. Ordinal position and screen grouping are excluded so a
// purely cosmetic move never invalidates prior answers.
func QuestionSemanticsHash(q Question, options []Option) string {
	rules := q.Rules
	if rules == nil {
		rules = []VisibilityRule{}
	}
	payload := map[string]any{
		"prompt":  q.Text,
		"type":    q.ResponseType,
		"options": options,
		"validation": map[string]any{
			"is_required": q.IsRequired,
			"allow_skip":  q.AllowSkip,
			"rules":       rules,
		},
		"scoring": map[string]any{
			"usage":         q.Usage,
			"reverse_coded": q.ReverseCoded,
			"region_tag":    q.RegionTag,
		},
	}
	return SHA256Hex(payload)
}

// IndexEntry is the per-question view reconciliation and trait computation
// work from.
type IndexEntry struct {
	Question      Question
	ScreenKey     string
	Required      bool // is_required, minus allow_skip
	SemanticsHash string
}

type QuestionIndex map[string]IndexEntry

func BuildQuestionIndex(def *Definition) QuestionIndex {
	out := QuestionIndex{}
	if def == nil {
		return out
	}
	for _, screen := range def.Screens {
		for _, item := range screen.Items {
			code := item.Question.Code
			if code == "" {
				continue
			}
			out[code] = IndexEntry{
				Question:      item.Question,
				ScreenKey:     screen.Key,
				Required:      item.Question.IsRequired && !item.Question.AllowSkip,
				SemanticsHash: QuestionSemanticsHash(item.Question, def.ResolveOptions(item)),
			}
		}
	}
	return out
}

// RequiredCodes returns the sorted set of effectively required question codes.
func (qi QuestionIndex) RequiredCodes() []string {
	var out []string
	for code, entry := range qi {
		if entry.Required {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}
