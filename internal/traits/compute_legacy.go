package traits

import (
	"sort"
	"strings"

	"github.com/yungbote/matchweek-backend/internal/survey"
)

// computeLegacy is the v2 aggregation schedule kept for sessions answered
// against pre-match-core definitions: Big-Five axes averaged from BF_* likert
// codes, a categorical kids preference and kids-importance modifiers.
func computeLegacy(def *survey.Definition, answers map[string]any) (*ProfileV2, error) {
	index := survey.BuildQuestionIndex(def)
	if missing := survey.MissingRequired(def, answers); len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingRequiredAnswersError{Codes: missing}
	}

	axes := map[string]string{
		"O": "openness",
		"C": "conscientiousness",
		"E": "extraversion",
		"A": "agreeableness",
		"N": "neuroticism",
	}
	grouped := map[string][]float64{}

	for code, raw := range answers {
		entry, ok := index[code]
		if !ok || entry.Question.ResponseType != survey.ResponseLikert {
			continue
		}
		v, ok := normalizeLikert(survey.Scalar(raw), entry.Question.ReverseCoded)
		if !ok {
			continue
		}
		if !strings.HasPrefix(code, "BF_") {
			continue
		}
		parts := strings.Split(code, "_")
		if len(parts) < 2 {
			continue
		}
		axis, known := axes[parts[1]]
		if !known {
			continue
		}
		grouped[axis] = append(grouped[axis], v)
	}

	big5 := map[string]float64{}
	for _, axis := range axes {
		big5[axis] = meanOf(grouped[axis], 0.5)
	}

	p := &ProfileV2{
		TraitsVersion: SchemaLegacy,
		CopyOnly:      CopyOnly{Vibe: map[string]string{}, School: map[string]string{}},
		Big5:          big5,
		ConflictRepair: map[string]float64{
			"repair_willingness": legacyLikert(index, answers, "CR_01", 0.5),
			"escalation":         legacyLikert(index, answers, "CR_02", 0.5),
			"cooldown_need":      legacyLikert(index, answers, "CR_03", 0.5),
			"grudge_tendency":    legacyLikert(index, answers, "CR_04", 0.5),
		},
		Modifiers: map[string]Modifier{
			"kids": {
				Importance:  legacyLikert(index, answers, "MOD_KIDS_IMPORTANCE", 0.5),
				Flexibility: legacyLikert(index, answers, "MOD_KIDS_FLEXIBILITY", 0.5),
			},
		},
	}
	if def != nil {
		p.SurveySlug = def.Survey.Slug
		p.SurveyVersion = def.Survey.Version
	}
	if kids, ok := survey.Scalar(answers["LA_KIDS_01"]).(string); ok {
		p.LifeConstraints.KidsPreference = kids
	}
	return p, nil
}

func legacyLikert(index survey.QuestionIndex, answers map[string]any, code string, def float64) float64 {
	entry, ok := index[code]
	if !ok {
		return def
	}
	v, ok := normalizeLikert(survey.Scalar(answers[code]), entry.Question.ReverseCoded)
	if !ok {
		return def
	}
	return v
}
