package traits

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yungbote/matchweek-backend/internal/survey"
)

// Slug/version pair that selects the current aggregation schedule. Anything
// else falls back to the legacy schedule.
const (
	CurrentSurveySlug    = "match-core-v3"
	CurrentSurveyVersion = 1
)

// MissingRequiredAnswersError aborts trait computation entirely; no partial
// profile is ever produced.
type MissingRequiredAnswersError struct {
	Codes []string
}

func (e *MissingRequiredAnswersError) Error() string {
	return fmt.Sprintf("missing required answers: %s", strings.Join(e.Codes, ", "))
}

// Compute converts raw answers into a trait profile, selecting the
// aggregation schedule by the definition's (slug, version).
func Compute(def *survey.Definition, answers map[string]any) (Profile, error) {
	if def != nil && def.Survey.Slug == CurrentSurveySlug && def.Survey.Version == CurrentSurveyVersion {
		return computeV3(def, answers)
	}
	return computeLegacy(def, answers)
}

func coerceLikert(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f < 1.0 || f > 5.0 {
		return 0, false
	}
	return f, true
}

// normalizeLikert maps 1..5 onto [0,1], inverted for reverse-coded items.
func normalizeLikert(v any, reverse bool) (float64, bool) {
	f, ok := coerceLikert(v)
	if !ok {
		return 0, false
	}
	out := (f - 1.0) / 4.0
	if reverse {
		out = 1.0 - out
	}
	return round6(out), true
}

func forcedChoiceValue(v any) (float64, bool) {
	switch v {
	case "A":
		return 0.0, true
	case "B":
		return 1.0, true
	}
	return 0, false
}

func meanOf(values []float64, def float64) float64 {
	if len(values) == 0 {
		return def
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return round6(sum / float64(len(values)))
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func computeV3(def *survey.Definition, answers map[string]any) (*ProfileV3, error) {
	index := survey.BuildQuestionIndex(def)
	if missing := survey.MissingRequired(def, answers); len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingRequiredAnswersError{Codes: missing}
	}

	scoring := map[string]any{}
	copyVibe := map[string]string{}
	copySchool := map[string]string{}
	for code, raw := range answers {
		entry, ok := index[code]
		if !ok {
			continue
		}
		scalar := survey.Scalar(raw)
		q := entry.Question
		if q.Usage == survey.UsageCopyOnly {
			text := ""
			if scalar != nil {
				text = fmt.Sprint(scalar)
			}
			switch {
			case strings.HasPrefix(code, "VIBE_"):
				copyVibe[code] = text
			case q.RegionTag == "CBS_NYC" || strings.HasPrefix(code, "CBS_"):
				copySchool[code] = text
			}
			continue
		}
		if q.Usage == survey.UsageScoring && q.RegionTag == "GLOBAL" {
			scoring[code] = scalar
		}
	}

	likert := func(code string) (float64, bool) {
		reverse := index[code].Question.ReverseCoded
		return normalizeLikert(scoring[code], reverse)
	}
	likertOr := func(code string, def float64) float64 {
		if v, ok := likert(code); ok {
			return v
		}
		return def
	}
	meanCodes := func(codes ...string) float64 {
		var vals []float64
		for _, c := range codes {
			if v, ok := likert(c); ok {
				vals = append(vals, v)
			}
		}
		return meanOf(vals, 0.5)
	}
	fcOr := func(code string, def float64) float64 {
		if v, ok := forcedChoiceValue(scoring[code]); ok {
			return v
		}
		return def
	}

	p := &ProfileV3{
		TraitsVersion: SchemaCurrent,
		SurveySlug:    def.Survey.Slug,
		SurveyVersion: def.Survey.Version,
		BigFive: BigFive{
			Openness:          meanCodes("OPN_01", "OPN_02", "OPN_03"),
			Conscientiousness: meanCodes("CON_01", "CON_02", "CON_03"),
			Extraversion:      meanCodes("EXT_01", "EXT_02", "EXT_03"),
			Agreeableness:     meanCodes("AGR_01", "AGR_02", "AGR_03"),
		},
		Conflict: Conflict{
			Approach:           likertOr("REP_01", 0.5),
			Withdrawal:         meanCodes("REP_02", "REP_05"),
			Escalation:         meanCodes("REP_04", "REP_10"),
			Structure:          likertOr("REP_11", 0.5),
			RepairBelief:       meanCodes("REP_07", "REP_12"),
			AccountabilityNeed: likertOr("REP_08", 0.5),
		},
		Attachment: Attachment{
			ReassuranceNeed:  likertOr("ATT_02", 0.5),
			TextSensitivity:  likertOr("ATT_03", 0.5),
			IndependenceNeed: likertOr("ATT_04", 0.5),
			TrustBaseline:    likertOr("ATT_05", 0.5),
			AloneTimeNeed:    likertOr("ATT_07", 0.5),
			DramaAvoidance:   likertOr("ATT_08", 0.5),
			TestingBehavior:  likertOr("ATT_09", 0.5),
		},
		CopyOnly: CopyOnly{Vibe: copyVibe, School: copySchool},
	}
	p.EmotionalRegulation.Stability = meanCodes("ER_01", "ER_02", "ER_03")

	kidsIntent, _ := scoring["KIDS_01"].(string)
	if kidsIntent == "" {
		kidsIntent = "unsure"
	}
	kidsTimeline, _ := scoring["KIDS_02"].(string)
	if kidsIntent != "yes" && kidsIntent != "probably" {
		kidsTimeline = ""
	}

	p.Life = Life{
		KidsIntent:                   kidsIntent,
		KidsTimeline:                 kidsTimeline,
		RelocationOpenness:           likertOr("LOC_01", 0.5),
		CareerIntensity:              likertOr("CAR_01", 0.5),
		PartnerAchievementPreference: likertOr("CAR_02", 0.5),
		MarriageIntent:               likertOr("MAR_01", 0.5),
		DefineIntentionsEarly:        meanCodes("MAR_02", "MAR_03"),
		WorldviewAlignmentImportance: likertOr("VAL_02", 0.5),
		WorldviewAlignment:           meanCodes("VAL_01", "VAL_03"),
	}

	p.Tradeoffs = Tradeoffs{
		StabilityVsNovelty:  fcOr("FC_01", 0.5),
		IntimateVsGroup:     fcOr("FC_02", 0.5),
		SteadyVsHighs:       fcOr("FC_03", 0.5),
		DirectVsGradual:     fcOr("FC_04", 0.5),
		DefineEarlyVsUnfold: fcOr("FC_05", 0.5),
		FrequentCommVsSpace: fcOr("FC_06", 0.5),
		CareerVsRelation:    fcOr("FC_07", 0.5),
		SaveVsSpend:         fcOr("FC_08", 0.5),
	}

	p.Dimensions = map[string]float64{
		"worldview_alignment":     p.Life.WorldviewAlignment,
		"stability":               p.EmotionalRegulation.Stability,
		"reassurance_need":        p.Attachment.ReassuranceNeed,
		"independence_need":       p.Attachment.IndependenceNeed,
		"text_sensitivity":        p.Attachment.TextSensitivity,
		"drama_avoidance":         p.Attachment.DramaAvoidance,
		"testing_behavior":        p.Attachment.TestingBehavior,
		"approach":                p.Conflict.Approach,
		"withdrawal":              p.Conflict.Withdrawal,
		"escalation":              p.Conflict.Escalation,
		"repair_belief":           p.Conflict.RepairBelief,
		"structure":               p.Conflict.Structure,
		"extraversion":            p.BigFive.Extraversion,
		"conscientiousness":       p.BigFive.Conscientiousness,
		"relocation_openness":     p.Life.RelocationOpenness,
		"career_intensity":        p.Life.CareerIntensity,
		"define_intentions_early": p.Life.DefineIntentionsEarly,
		"kids_timeline_value":     kidsTimelineValue(p.Life.KidsTimeline),
	}

	return p, nil
}

func kidsTimelineValue(timeline string) float64 {
	switch timeline {
	case "0_3_years":
		return 1.0
	case "3_7_years":
		return 0.66
	case "later":
		return 0.33
	case "open":
		return 0.5
	}
	return 0.5
}
