package traits

import (
	"testing"

	"github.com/yungbote/matchweek-backend/internal/survey"
)

func legacyDefinition() *survey.Definition {
	items := []survey.Item{
		likertItem("BF_O_01", false),
		likertItem("BF_O_02", false),
		likertItem("BF_E_01", false),
		likertItem("BF_N_01", true),
		likertItem("CR_01", false),
		likertItem("CR_02", false),
		likertItem("MOD_KIDS_IMPORTANCE", false),
		likertItem("MOD_KIDS_FLEXIBILITY", false),
		selectItem("LA_KIDS_01"),
	}
	return &survey.Definition{
		Survey:  survey.Meta{Slug: "match-core-v2", Version: 4},
		Screens: []survey.Screen{{Key: "core", Items: items}},
	}
}

func TestComputeLegacySchedule(t *testing.T) {
	answers := map[string]any{
		"BF_O_01":              float64(5),
		"BF_O_02":              float64(3),
		"BF_E_01":              float64(1),
		"BF_N_01":              float64(1), // reverse coded
		"CR_01":                float64(5),
		"CR_02":                float64(2),
		"MOD_KIDS_IMPORTANCE":  float64(5),
		"MOD_KIDS_FLEXIBILITY": float64(1),
		"LA_KIDS_01":           "probably_not",
	}

	profile, err := Compute(legacyDefinition(), answers)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	p, ok := profile.(*ProfileV2)
	if !ok {
		t.Fatalf("expected *ProfileV2, got %T", profile)
	}
	if p.SchemaVersion() != SchemaLegacy {
		t.Fatalf("schema version = %d", p.SchemaVersion())
	}

	approx(t, "openness", p.Big5["openness"], 0.75)         // mean(1.0, 0.5)
	approx(t, "extraversion", p.Big5["extraversion"], 0.0)
	approx(t, "neuroticism", p.Big5["neuroticism"], 1.0)    // reversed 1 -> 1.0
	approx(t, "agreeableness default", p.Big5["agreeableness"], 0.5)

	approx(t, "repair_willingness", p.ConflictRepair["repair_willingness"], 1.0)
	approx(t, "escalation", p.ConflictRepair["escalation"], 0.25)
	approx(t, "cooldown_need default", p.ConflictRepair["cooldown_need"], 0.5)

	kids := p.Modifiers["kids"]
	approx(t, "kids importance", kids.Importance, 1.0)
	approx(t, "kids flexibility", kids.Flexibility, 0.0)

	if p.KidsIntent() != "probably_not" {
		t.Fatalf("kids intent = %q", p.KidsIntent())
	}
	// Legacy profiles expose no flat dimensions.
	approx(t, "dimension fallback", p.Dimension("escalation", 0.5), 0.5)
}

func TestComputeLegacyDefaults(t *testing.T) {
	profile, err := Compute(legacyDefinition(), map[string]any{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	p := profile.(*ProfileV2)
	for axis, v := range p.Big5 {
		if v != 0.5 {
			t.Fatalf("axis %s = %v, want 0.5", axis, v)
		}
	}
	if p.KidsIntent() != "unsure" {
		t.Fatalf("kids intent = %q", p.KidsIntent())
	}
}

func TestComputeDispatchesBySlugVersion(t *testing.T) {
	def := legacyDefinition()
	def.Survey.Slug = CurrentSurveySlug
	def.Survey.Version = CurrentSurveyVersion

	profile, err := Compute(def, map[string]any{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if _, ok := profile.(*ProfileV3); !ok {
		t.Fatalf("current slug/version should use the v3 schedule, got %T", profile)
	}
}
