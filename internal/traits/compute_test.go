package traits

import (
	"errors"
	"math"
	"testing"

	"github.com/yungbote/matchweek-backend/internal/survey"
)

func likertItem(code string, reverse bool) survey.Item {
	return survey.Item{Question: survey.Question{
		Code:         code,
		ResponseType: survey.ResponseLikert,
		ReverseCoded: reverse,
		Usage:        survey.UsageScoring,
		RegionTag:    "GLOBAL",
	}}
}

func selectItem(code string) survey.Item {
	return survey.Item{Question: survey.Question{
		Code:         code,
		ResponseType: survey.ResponseSingleSelect,
		Usage:        survey.UsageScoring,
		RegionTag:    "GLOBAL",
	}}
}

func forcedChoiceItem(code string) survey.Item {
	return survey.Item{Question: survey.Question{
		Code:         code,
		ResponseType: survey.ResponseForcedChoice,
		Usage:        survey.UsageScoring,
		RegionTag:    "GLOBAL",
	}}
}

func copyItem(code, regionTag string) survey.Item {
	return survey.Item{Question: survey.Question{
		Code:         code,
		ResponseType: survey.ResponseFreeText,
		Usage:        survey.UsageCopyOnly,
		RegionTag:    regionTag,
	}}
}

func currentDefinition() *survey.Definition {
	return &survey.Definition{
		Survey: survey.Meta{Slug: CurrentSurveySlug, Version: CurrentSurveyVersion},
		Screens: []survey.Screen{{
			Key: "core",
			Items: []survey.Item{
				likertItem("OPN_01", false),
				likertItem("OPN_02", false),
				likertItem("EXT_01", false),
				likertItem("EXT_02", true),
				likertItem("REP_04", false),
				likertItem("REP_10", false),
				likertItem("ATT_02", false),
				likertItem("ER_01", false),
				selectItem("KIDS_01"),
				selectItem("KIDS_02"),
				forcedChoiceItem("FC_01"),
				forcedChoiceItem("FC_08"),
				copyItem("VIBE_SATURDAY", "GLOBAL"),
				copyItem("CBS_CLUB", "CBS_NYC"),
			},
		}},
	}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestComputeCurrentSchedule(t *testing.T) {
	def := currentDefinition()
	answers := map[string]any{
		"OPN_01":        float64(5),
		"OPN_02":        float64(3),
		"EXT_01":        float64(4),
		"EXT_02":        float64(4), // reverse coded
		"REP_04":        float64(1),
		"REP_10":        float64(2),
		"ATT_02":        float64(5),
		"ER_01":         "4",
		"KIDS_01":       "yes",
		"KIDS_02":       "0_3_years",
		"FC_01":         "B",
		"FC_08":         "A",
		"VIBE_SATURDAY": "long walk, no plan",
		"CBS_CLUB":      "wine society",
	}

	profile, err := Compute(def, answers)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	p, ok := profile.(*ProfileV3)
	if !ok {
		t.Fatalf("expected *ProfileV3, got %T", profile)
	}
	if p.SchemaVersion() != SchemaCurrent {
		t.Fatalf("schema version = %d", p.SchemaVersion())
	}

	approx(t, "openness", p.BigFive.Openness, 0.75)        // mean(1.0, 0.5)
	approx(t, "extraversion", p.BigFive.Extraversion, 0.5) // mean(0.75, reversed 0.25)
	approx(t, "escalation", p.Conflict.Escalation, 0.125)  // mean(0.0, 0.25)
	approx(t, "reassurance_need", p.Attachment.ReassuranceNeed, 1.0)
	approx(t, "stability", p.EmotionalRegulation.Stability, 0.75) // "4" coerced

	// Unanswered dimensions sit at the neutral midpoint.
	approx(t, "withdrawal default", p.Conflict.Withdrawal, 0.5)
	approx(t, "structure default", p.Conflict.Structure, 0.5)
	approx(t, "conscientiousness default", p.BigFive.Conscientiousness, 0.5)

	if p.KidsIntent() != "yes" {
		t.Fatalf("kids intent = %q", p.KidsIntent())
	}
	approx(t, "kids_timeline_value", p.Dimension("kids_timeline_value", -1), 1.0)

	approx(t, "stability_vs_novelty", p.Tradeoffs.StabilityVsNovelty, 1.0)
	approx(t, "save_vs_spend", p.Tradeoffs.SaveVsSpend, 0.0)
	approx(t, "unanswered forced choice", p.Tradeoffs.DirectVsGradual, 0.5)

	if p.CopyOnly.Vibe["VIBE_SATURDAY"] != "long walk, no plan" {
		t.Fatalf("vibe copy = %v", p.CopyOnly.Vibe)
	}
	if p.CopyOnly.School["CBS_CLUB"] != "wine society" {
		t.Fatalf("school copy = %v", p.CopyOnly.School)
	}
	if _, ok := p.Dimensions["VIBE_SATURDAY"]; ok {
		t.Fatal("copy-only answer leaked into scoring dimensions")
	}
}

func TestComputeKidsTimelineClearedWhenNotWanted(t *testing.T) {
	def := currentDefinition()
	answers := map[string]any{
		"KIDS_01": "no",
		"KIDS_02": "0_3_years",
	}
	profile, err := Compute(def, answers)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	p := profile.(*ProfileV3)
	if p.Life.KidsTimeline != "" {
		t.Fatalf("timeline not cleared: %q", p.Life.KidsTimeline)
	}
	approx(t, "kids_timeline_value", p.Dimension("kids_timeline_value", -1), 0.5)
}

func TestComputeKidsIntentDefaultsUnsure(t *testing.T) {
	profile, err := Compute(currentDefinition(), map[string]any{})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if profile.KidsIntent() != "unsure" {
		t.Fatalf("kids intent = %q", profile.KidsIntent())
	}
}

func TestComputeMissingRequiredAborts(t *testing.T) {
	def := currentDefinition()
	def.Screens[0].Items[0].Question.IsRequired = true // OPN_01
	def.Screens[0].Items[8].Question.IsRequired = true // KIDS_01

	_, err := Compute(def, map[string]any{"OPN_01": float64(4)})
	if err == nil {
		t.Fatal("expected missing-required error")
	}
	var missingErr *MissingRequiredAnswersError
	if !errors.As(err, &missingErr) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if len(missingErr.Codes) != 1 || missingErr.Codes[0] != "KIDS_01" {
		t.Fatalf("missing codes = %v", missingErr.Codes)
	}
}

func TestComputeIgnoresOutOfRangeLikert(t *testing.T) {
	def := currentDefinition()
	answers := map[string]any{
		"OPN_01": float64(9),
		"OPN_02": "not a number",
	}
	profile, err := Compute(def, answers)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	p := profile.(*ProfileV3)
	approx(t, "openness", p.BigFive.Openness, 0.5)
}

func TestComputeUnwrapsValueEnvelope(t *testing.T) {
	def := currentDefinition()
	answers := map[string]any{
		"ATT_02": map[string]any{"value": float64(5)},
	}
	profile, err := Compute(def, answers)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	approx(t, "reassurance_need", profile.(*ProfileV3).Attachment.ReassuranceNeed, 1.0)
}
