package survey

import (
	"encoding/json"
	"testing"
)

const baseDefinition = `{
  "survey": {"slug": "match-core-v3", "version": 1},
  "option_sets": {
    "agree_5": [
      {"value": "1", "label": "Strongly disagree"},
      {"value": "2", "label": "Disagree"},
      {"value": "3", "label": "Neutral"},
      {"value": "4", "label": "Agree"},
      {"value": "5", "label": "Strongly agree"}
    ]
  },
  "screens": [
    {
      "key": "values",
      "title": "Values",
      "items": [
        {
          "question": {
            "code": "values_honesty",
            "text": "Honesty matters more to me than comfort.",
            "response_type": "likert_1_5",
            "is_required": true,
            "usage": "SCORING",
            "region_tag": "values"
          },
          "options": "agree_5"
        },
        {
          "question": {
            "code": "kids_intent",
            "text": "Do you want children?",
            "response_type": "single_select",
            "is_required": true,
            "usage": "SCORING",
            "region_tag": "life_goals"
          },
          "options": [
            {"value": "yes", "label": "Yes"},
            {"value": "no", "label": "No"},
            {"value": "unsure", "label": "Not sure yet"}
          ]
        }
      ]
    }
  ]
}`

func mustParse(t *testing.T, raw string) *Definition {
	t.Helper()
	def, err := ParseDefinition([]byte(raw))
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	return def
}

func TestFingerprintStableAcrossKeyOrder(t *testing.T) {
	def := mustParse(t, baseDefinition)

	// Round-trip through a generic map so JSON key order differs from the
	// original payload.
	var generic map[string]any
	if err := json.Unmarshal([]byte(baseDefinition), &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	reordered, err := json.Marshal(generic)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	def2 := mustParse(t, string(reordered))

	a := ComputeFingerprint(def)
	b := ComputeFingerprint(def2)
	if a.Hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if a.Hash != b.Hash {
		t.Fatalf("key order changed fingerprint: %s vs %s", a.Hash, b.Hash)
	}
	if a.Slug != "match-core-v3" || a.Version != 1 {
		t.Fatalf("unexpected fingerprint meta: %+v", a)
	}
}

func TestFingerprintStableAcrossOptionOrder(t *testing.T) {
	def := mustParse(t, baseDefinition)

	shuffled := mustParse(t, baseDefinition)
	opts := shuffled.OptionSets["agree_5"]
	for i, j := 0, len(opts)-1; i < j; i, j = i+1, j-1 {
		opts[i], opts[j] = opts[j], opts[i]
	}

	if ComputeFingerprint(def).Hash != ComputeFingerprint(shuffled).Hash {
		t.Fatal("option order changed fingerprint")
	}
}

func TestFingerprintChangesOnContent(t *testing.T) {
	def := mustParse(t, baseDefinition)
	changed := mustParse(t, baseDefinition)
	changed.Screens[0].Items[0].Question.Text = "Honesty matters most."

	if ComputeFingerprint(def).Hash == ComputeFingerprint(changed).Hash {
		t.Fatal("prompt change did not alter fingerprint")
	}
}

func TestQuestionSemanticsHash(t *testing.T) {
	def := mustParse(t, baseDefinition)
	idx := BuildQuestionIndex(def)

	base, ok := idx["values_honesty"]
	if !ok {
		t.Fatal("values_honesty missing from index")
	}

	cases := []struct {
		name     string
		mutate   func(d *Definition)
		wantSame bool
	}{
		{
			name:     "identical definition",
			mutate:   func(d *Definition) {},
			wantSame: true,
		},
		{
			name: "moved to a later screen",
			mutate: func(d *Definition) {
				item := d.Screens[0].Items[0]
				d.Screens[0].Items = d.Screens[0].Items[1:]
				d.Screens = append(d.Screens, Screen{Key: "extra", Items: []Item{item}})
			},
			wantSame: true,
		},
		{
			name: "options reordered",
			mutate: func(d *Definition) {
				opts := d.OptionSets["agree_5"]
				opts[0], opts[len(opts)-1] = opts[len(opts)-1], opts[0]
			},
			wantSame: true,
		},
		{
			name: "prompt reworded",
			mutate: func(d *Definition) {
				d.Screens[0].Items[0].Question.Text = "Honesty beats comfort."
			},
			wantSame: false,
		},
		{
			name: "response type changed",
			mutate: func(d *Definition) {
				d.Screens[0].Items[0].Question.ResponseType = ResponseSingleSelect
			},
			wantSame: false,
		},
		{
			name: "required flag flipped",
			mutate: func(d *Definition) {
				d.Screens[0].Items[0].Question.IsRequired = false
			},
			wantSame: false,
		},
		{
			name: "reverse coding flipped",
			mutate: func(d *Definition) {
				d.Screens[0].Items[0].Question.ReverseCoded = true
			},
			wantSame: false,
		},
		{
			name: "option label changed",
			mutate: func(d *Definition) {
				d.OptionSets["agree_5"][2].Label = "Neither"
			},
			wantSame: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mutated := mustParse(t, baseDefinition)
			tc.mutate(mutated)
			entry, ok := BuildQuestionIndex(mutated)["values_honesty"]
			if !ok {
				t.Fatal("values_honesty missing after mutation")
			}
			same := entry.SemanticsHash == base.SemanticsHash
			if same != tc.wantSame {
				t.Fatalf("wantSame=%v, got same=%v", tc.wantSame, same)
			}
		})
	}
}

func TestBuildQuestionIndexRequired(t *testing.T) {
	raw := `{
	  "survey": {"slug": "s", "version": 1},
	  "screens": [{"key": "one", "items": [
	    {"question": {"code": "a", "response_type": "likert_1_5", "is_required": true, "usage": "SCORING"}},
	    {"question": {"code": "b", "response_type": "likert_1_5", "is_required": true, "allow_skip": true, "usage": "SCORING"}},
	    {"question": {"code": "c", "response_type": "likert_1_5", "usage": "COPY_ONLY"}}
	  ]}]
	}`
	idx := BuildQuestionIndex(mustParse(t, raw))

	required := idx.RequiredCodes()
	if len(required) != 1 || required[0] != "a" {
		t.Fatalf("required codes = %v, want [a]", required)
	}
	if idx["b"].Required {
		t.Fatal("allow_skip question counted as required")
	}
	if idx["a"].ScreenKey != "one" {
		t.Fatalf("screen key = %q", idx["a"].ScreenKey)
	}
}
