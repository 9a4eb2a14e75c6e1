package traits

import (
	"encoding/json"
	"testing"
)

func TestDecodeCurrentProfile(t *testing.T) {
	src := &ProfileV3{
		TraitsVersion: SchemaCurrent,
		SurveySlug:    CurrentSurveySlug,
		SurveyVersion: CurrentSurveyVersion,
		Life:          Life{KidsIntent: "probably"},
		Dimensions:    map[string]float64{"escalation": 0.2},
	}
	raw, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	profile, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	p, ok := profile.(*ProfileV3)
	if !ok {
		t.Fatalf("expected *ProfileV3, got %T", profile)
	}
	if p.KidsIntent() != "probably" {
		t.Fatalf("kids intent = %q", p.KidsIntent())
	}
	if p.Dimension("escalation", 0.5) != 0.2 {
		t.Fatalf("escalation = %v", p.Dimension("escalation", 0.5))
	}
}

func TestDecodeLegacyProfile(t *testing.T) {
	raw := []byte(`{
	  "traits_version": 2,
	  "big5": {"openness": 0.8},
	  "conflict_repair": {"escalation": 0.3},
	  "life_constraints": {"kids_preference": "no"}
	}`)
	profile, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	p, ok := profile.(*ProfileV2)
	if !ok {
		t.Fatalf("expected *ProfileV2, got %T", profile)
	}
	if p.KidsIntent() != "no" {
		t.Fatalf("kids intent = %q", p.KidsIntent())
	}
	if p.Big5["openness"] != 0.8 {
		t.Fatalf("openness = %v", p.Big5["openness"])
	}
}

func TestDecodeRejectsUnknownSchema(t *testing.T) {
	if _, err := Decode([]byte(`{"traits_version": 7}`)); err == nil {
		t.Fatal("expected error for unknown schema version")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
