package matching

import (
	"math"

	"github.com/yungbote/matchweek-backend/internal/traits"
)

// Gate and penalty tags recorded in score breakdowns.
const (
	GateKidsHardConflict   = "kids_hard_conflict"
	GateSafetyEscalation   = "safety_escalation_gate"
	PenaltyTwoEscalators   = "two_escalators"
	PenaltyTwoWithdrawers  = "two_withdrawers"
	PenaltyReassuranceUToV = "reassurance_independence_u_to_v"
	PenaltyReassuranceVToU = "reassurance_independence_v_to_u"
)

type Penalty struct {
	Tag        string  `json:"tag"`
	Multiplier float64 `json:"multiplier"`
}

// Breakdown is the explainable decomposition attached to every score. Legacy
// pairs fill the big5/conflict/modifier fields instead of components.
type Breakdown struct {
	KidsHardCheck bool               `json:"kids_hard_check"`
	Gates         []string           `json:"gates"`
	Categories    map[string]float64 `json:"categories"`
	Components    map[string]float64 `json:"components"`
	Penalties     []Penalty          `json:"penalties"`
	BaseScore     float64            `json:"base_score"`

	Big5Similarity     float64 `json:"big5_similarity,omitempty"`
	ConflictSimilarity float64 `json:"conflict_similarity,omitempty"`
	ModifierMultiplier float64 `json:"modifier_multiplier,omitempty"`
}

type CompatibilityScore struct {
	ScoreTotal float64   `json:"score_total"`
	Breakdown  Breakdown `json:"score_breakdown"`
}

// Score is pure and symmetric: Score(a,b) == Score(b,a), total always in
// [0,1]. Hard gates short-circuit with a zero total and an explanatory tag;
// they are valid results, not errors.
func Score(a, b traits.Profile, cfg Config) CompatibilityScore {
	gates := []string{}
	penalties := []Penalty{}

	if kidsHardMismatch(a.KidsIntent(), b.KidsIntent()) {
		return CompatibilityScore{
			ScoreTotal: 0.0,
			Breakdown: Breakdown{
				KidsHardCheck: false,
				Gates:         append(gates, GateKidsHardConflict),
				Categories:    map[string]float64{},
				Components:    map[string]float64{},
				Penalties:     penalties,
			},
		}
	}

	escalationA := a.Dimension("escalation", 0.5)
	escalationB := b.Dimension("escalation", 0.5)
	if escalationA > cfg.EscalationGate && escalationB > cfg.EscalationGate {
		return CompatibilityScore{
			ScoreTotal: 0.0,
			Breakdown: Breakdown{
				KidsHardCheck: true,
				Gates:         append(gates, GateSafetyEscalation),
				Categories:    map[string]float64{},
				Components:    map[string]float64{},
				Penalties:     penalties,
			},
		}
	}

	if a.SchemaVersion() == traits.SchemaLegacy && b.SchemaVersion() == traits.SchemaLegacy {
		return scoreLegacy(a.(*traits.ProfileV2), b.(*traits.ProfileV2), cfg, gates)
	}

	dim := func(p traits.Profile, key string) float64 { return p.Dimension(key, 0.5) }

	valuesSimilarity := sim(dim(a, "worldview_alignment"), dim(b, "worldview_alignment"))
	emoSimilarity := sim(dim(a, "stability"), dim(b, "stability"))

	reassuranceVsIndependence := (comp(dim(a, "reassurance_need"), dim(b, "independence_need"), cfg) +
		comp(dim(b, "reassurance_need"), dim(a, "independence_need"), cfg)) / 2.0
	textSimilarity := sim(dim(a, "text_sensitivity"), dim(b, "text_sensitivity"))
	dramaSimilarity := sim(dim(a, "drama_avoidance"), dim(b, "drama_avoidance"))
	testingSimilarity := sim(dim(a, "testing_behavior"), dim(b, "testing_behavior"))

	approachWithdrawal := (comp(dim(a, "approach"), dim(b, "withdrawal"), cfg) +
		comp(dim(b, "approach"), dim(a, "withdrawal"), cfg)) / 2.0
	escalationRisk := 1.0 - math.Max(escalationA, escalationB)
	repairSimilarity := sim(dim(a, "repair_belief"), dim(b, "repair_belief"))
	structureSimilarity := sim(dim(a, "structure"), dim(b, "structure"))

	extraversionComp := comp(dim(a, "extraversion"), dim(b, "extraversion"), cfg)
	conscientiousnessComp := comp(dim(a, "conscientiousness"), dim(b, "conscientiousness"), cfg)

	relocationSimilarity := sim(dim(a, "relocation_openness"), dim(b, "relocation_openness"))
	careerSimilarity := sim(dim(a, "career_intensity"), dim(b, "career_intensity"))
	intentionsSimilarity := sim(dim(a, "define_intentions_early"), dim(b, "define_intentions_early"))

	kidsTimelineScore := 0.5
	if wantsKids(a.KidsIntent()) && wantsKids(b.KidsIntent()) {
		kidsTimelineScore = sim(dim(a, "kids_timeline_value"), dim(b, "kids_timeline_value"))
	}

	attachmentWeight := cfg.ReassuranceIndependenceWeight + cfg.TextSensitivityWeight +
		cfg.DramaAvoidanceWeight + cfg.TestingBehaviorWeight
	conflictWeight := cfg.ApproachWithdrawalWeight + cfg.EscalationRiskWeight +
		cfg.RepairBeliefWeight + cfg.ConflictStructureWeight
	personalityWeight := cfg.ExtraversionWeight + cfg.ConscientiousnessWeight
	lifeWeight := cfg.RelocationWeight + cfg.CareerIntensityWeight + cfg.IntentionsWeight

	attachmentBucket := (cfg.ReassuranceIndependenceWeight*reassuranceVsIndependence +
		cfg.TextSensitivityWeight*textSimilarity +
		cfg.DramaAvoidanceWeight*dramaSimilarity +
		cfg.TestingBehaviorWeight*testingSimilarity) / attachmentWeight
	conflictBucket := (cfg.ApproachWithdrawalWeight*approachWithdrawal +
		cfg.EscalationRiskWeight*escalationRisk +
		cfg.RepairBeliefWeight*repairSimilarity +
		cfg.ConflictStructureWeight*structureSimilarity) / conflictWeight
	personalityBucket := (cfg.ExtraversionWeight*extraversionComp +
		cfg.ConscientiousnessWeight*conscientiousnessComp) / personalityWeight
	lifeBucket := (cfg.RelocationWeight*relocationSimilarity +
		cfg.CareerIntensityWeight*careerSimilarity +
		cfg.IntentionsWeight*intentionsSimilarity) / lifeWeight

	total := cfg.ValuesWeight*valuesSimilarity +
		cfg.EmotionalStabilityWeight*emoSimilarity +
		cfg.ReassuranceIndependenceWeight*reassuranceVsIndependence +
		cfg.TextSensitivityWeight*textSimilarity +
		cfg.DramaAvoidanceWeight*dramaSimilarity +
		cfg.TestingBehaviorWeight*testingSimilarity +
		cfg.ApproachWithdrawalWeight*approachWithdrawal +
		cfg.EscalationRiskWeight*escalationRisk +
		cfg.RepairBeliefWeight*repairSimilarity +
		cfg.ConflictStructureWeight*structureSimilarity +
		cfg.ExtraversionWeight*extraversionComp +
		cfg.ConscientiousnessWeight*conscientiousnessComp +
		cfg.RelocationWeight*relocationSimilarity +
		cfg.CareerIntensityWeight*careerSimilarity +
		cfg.IntentionsWeight*intentionsSimilarity

	if escalationA > cfg.EscalationPenaltyThreshold && escalationB > cfg.EscalationPenaltyThreshold {
		total *= cfg.EscalationPenaltyMultiplier
		penalties = append(penalties, Penalty{Tag: PenaltyTwoEscalators, Multiplier: cfg.EscalationPenaltyMultiplier})
	}
	if dim(a, "withdrawal") > cfg.WithdrawalPenaltyThreshold && dim(b, "withdrawal") > cfg.WithdrawalPenaltyThreshold {
		total *= cfg.WithdrawalPenaltyMultiplier
		penalties = append(penalties, Penalty{Tag: PenaltyTwoWithdrawers, Multiplier: cfg.WithdrawalPenaltyMultiplier})
	}
	if dim(a, "reassurance_need") > cfg.MismatchPenaltyThreshold && dim(b, "independence_need") > cfg.MismatchPenaltyThreshold {
		total *= cfg.MismatchPenaltyMultiplier
		penalties = append(penalties, Penalty{Tag: PenaltyReassuranceUToV, Multiplier: cfg.MismatchPenaltyMultiplier})
	}
	if dim(b, "reassurance_need") > cfg.MismatchPenaltyThreshold && dim(a, "independence_need") > cfg.MismatchPenaltyThreshold {
		total *= cfg.MismatchPenaltyMultiplier
		penalties = append(penalties, Penalty{Tag: PenaltyReassuranceVToU, Multiplier: cfg.MismatchPenaltyMultiplier})
	}

	total = clamp01(total)

	return CompatibilityScore{
		ScoreTotal: round6(total),
		Breakdown: Breakdown{
			KidsHardCheck: true,
			Gates:         gates,
			Categories: map[string]float64{
				"values_similarity":        round6(valuesSimilarity),
				"attachment_fit":           round6(attachmentBucket),
				"conflict_fit":             round6(conflictBucket),
				"personality_fit":          round6(personalityBucket),
				"life_fit":                 round6(lifeBucket),
				"emotional_similarity":     round6(emoSimilarity),
				"kids_timeline_similarity": round6(kidsTimelineScore),
			},
			Components: map[string]float64{
				"values_similarity":              round6(valuesSimilarity),
				"reassurance_vs_independence":    round6(reassuranceVsIndependence),
				"text_sensitivity_similarity":    round6(textSimilarity),
				"drama_avoidance_similarity":     round6(dramaSimilarity),
				"testing_behavior_similarity":    round6(testingSimilarity),
				"approach_withdrawal_complement": round6(approachWithdrawal),
				"escalation_risk":                round6(escalationRisk),
				"repair_similarity":              round6(repairSimilarity),
				"structure_similarity":           round6(structureSimilarity),
				"extraversion_complement":        round6(extraversionComp),
				"conscientiousness_complement":   round6(conscientiousnessComp),
				"relocation_similarity":          round6(relocationSimilarity),
				"career_similarity":              round6(careerSimilarity),
				"intentions_similarity":          round6(intentionsSimilarity),
			},
			Penalties: penalties,
			BaseScore: round6(total),
		},
	}
}

// scoreLegacy is the v2 formula and stays separate from the current blend;
// the two paths reflect genuinely different upstream trait shapes.
func scoreLegacy(a, b *traits.ProfileV2, cfg Config, gates []string) CompatibilityScore {
	big5A := legacyBig5Vector(a.Big5)
	big5B := legacyBig5Vector(b.Big5)
	conflictA := legacyConflictVector(a.ConflictRepair)
	conflictB := legacyConflictVector(b.ConflictRepair)

	big5Similarity := vectorSimilarity(big5A, big5B)
	conflictSimilarity := vectorSimilarity(conflictA, conflictB)
	modifierMultiplier := modifierPenalty(a, b, cfg)

	baseScore := cfg.LegacyBig5Weight*big5Similarity + cfg.LegacyConflictWeight*conflictSimilarity
	total := clamp01(baseScore * modifierMultiplier)

	return CompatibilityScore{
		ScoreTotal: round6(total),
		Breakdown: Breakdown{
			KidsHardCheck:      true,
			Gates:              gates,
			Categories:         map[string]float64{},
			Components:         map[string]float64{},
			Penalties:          []Penalty{},
			BaseScore:          round6(baseScore),
			Big5Similarity:     round6(big5Similarity),
			ConflictSimilarity: round6(conflictSimilarity),
			ModifierMultiplier: round6(modifierMultiplier),
		},
	}
}

// Life-preference axes checked by the legacy modifier penalty: modifier key
// against the answer code both users rated.
var modifierAxes = map[string]string{
	"marriage":         "LA_MARRIAGE_01",
	"nyc":              "LA_LOC_01",
	"career_intensity": "LA_CAREER_01",
	"faith":            "LA_FAITH_01",
	"social_lifestyle": "LA_LIFESTYLE_01",
}

func modifierPenalty(a, b *traits.ProfileV2, cfg Config) float64 {
	multiplier := 1.0
	for modKey, lifeKey := range modifierAxes {
		prefA := mapValue(a.LifePreferences, lifeKey, 0.5)
		prefB := mapValue(b.LifePreferences, lifeKey, 0.5)
		mismatch := math.Abs(prefA - prefB)

		importance := (modifierImportance(a.Modifiers, modKey) + modifierImportance(b.Modifiers, modKey)) / 2.0
		flexibility := (modifierFlex(a.Modifiers, modKey) + modifierFlex(b.Modifiers, modKey)) / 2.0

		penalty := mismatch * importance * (1.0 - flexibility) * cfg.ModifierPenaltyScale
		penalty = math.Min(cfg.ModifierPenaltyCap, math.Max(0.0, penalty))
		multiplier *= math.Max(0.0, 1.0-penalty)
	}
	return round6(clamp01(multiplier))
}

func modifierImportance(mods map[string]traits.Modifier, key string) float64 {
	if m, ok := mods[key]; ok {
		return m.Importance
	}
	return 0.5
}

func modifierFlex(mods map[string]traits.Modifier, key string) float64 {
	if m, ok := mods[key]; ok {
		return m.Flexibility
	}
	return 0.5
}

func mapValue(m map[string]float64, key string, def float64) float64 {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func legacyBig5Vector(big5 map[string]float64) []float64 {
	return []float64{
		mapValue(big5, "openness", 0.5),
		mapValue(big5, "conscientiousness", 0.5),
		mapValue(big5, "extraversion", 0.5),
		mapValue(big5, "agreeableness", 0.5),
		mapValue(big5, "neuroticism", 0.5),
	}
}

func legacyConflictVector(conflict map[string]float64) []float64 {
	return []float64{
		mapValue(conflict, "repair_willingness", 0.5),
		mapValue(conflict, "escalation", 0.5),
		mapValue(conflict, "cooldown_need", 0.5),
		mapValue(conflict, "grudge_tendency", 0.5),
	}
}

// vectorSimilarity maps euclidean distance onto [0,1].
func vectorSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0.0
	}
	var sq float64
	for i := range a {
		d := a[i] - b[i]
		sq += d * d
	}
	maxDist := math.Sqrt(float64(len(a)))
	return math.Max(0.0, 1.0-math.Sqrt(sq)/maxDist)
}

func kidsHardMismatch(k1, k2 string) bool {
	if k1 == "" || k2 == "" || k1 == "unsure" || k2 == "unsure" {
		return false
	}
	return (wantsKids(k1) && rejectsKids(k2)) || (wantsKids(k2) && rejectsKids(k1))
}

func wantsKids(k string) bool   { return k == "yes" || k == "probably" }
func rejectsKids(k string) bool { return k == "no" || k == "probably_not" }

func sim(a, b float64) float64 {
	return math.Max(0.0, 1.0-math.Abs(a-b))
}

// comp rewards pairs summing to the target; extreme asymmetry is risky even
// when the sum lands on target, so it takes a 25% haircut.
func comp(a, b float64, cfg Config) float64 {
	base := math.Max(0.0, 1.0-math.Abs((a+b)-cfg.ComplementTargetSum))
	if math.Abs(a-b) > cfg.ExtremeAsymmetryThreshold {
		base *= 0.75
	}
	return base
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
