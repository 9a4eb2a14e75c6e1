package traits

// Trait profiles are a closed set of schema generations. Scoring dispatches
// on the schema tag, never on field presence, so a new generation is added by
// introducing a new variant rather than probing shapes.
type Profile interface {
	SchemaVersion() int
	// KidsIntent returns the categorical kids-intent enum ("yes", "probably",
	// "unsure", "probably_not", "no"); "unsure" when unset.
	KidsIntent() string
	// Dimension returns a named scoring dimension in [0,1], or def when the
	// schema does not carry it.
	Dimension(key string, def float64) float64
}

const (
	SchemaLegacy  = 2
	SchemaCurrent = 3
)

type BigFive struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
}

type Conflict struct {
	Approach           float64 `json:"approach"`
	Withdrawal         float64 `json:"withdrawal"`
	Escalation         float64 `json:"escalation"`
	Structure          float64 `json:"structure"`
	RepairBelief       float64 `json:"repair_belief"`
	AccountabilityNeed float64 `json:"accountability_need"`
}

type Attachment struct {
	ReassuranceNeed  float64 `json:"reassurance_need"`
	TextSensitivity  float64 `json:"text_sensitivity"`
	IndependenceNeed float64 `json:"independence_need"`
	TrustBaseline    float64 `json:"trust_baseline"`
	AloneTimeNeed    float64 `json:"alone_time_need"`
	DramaAvoidance   float64 `json:"drama_avoidance"`
	TestingBehavior  float64 `json:"testing_behavior"`
}

type Life struct {
	KidsIntent                   string  `json:"kids_intent"`
	KidsTimeline                 string  `json:"kids_timeline,omitempty"`
	RelocationOpenness           float64 `json:"relocation_openness"`
	CareerIntensity              float64 `json:"career_intensity"`
	PartnerAchievementPreference float64 `json:"partner_achievement_preference"`
	MarriageIntent               float64 `json:"marriage_intent"`
	DefineIntentionsEarly        float64 `json:"define_intentions_early"`
	WorldviewAlignmentImportance float64 `json:"worldview_alignment_importance"`
	WorldviewAlignment           float64 `json:"worldview_alignment"`
}

type Tradeoffs struct {
	StabilityVsNovelty  float64 `json:"stability_vs_novelty"`
	IntimateVsGroup     float64 `json:"intimate_vs_group"`
	SteadyVsHighs       float64 `json:"steady_vs_highs"`
	DirectVsGradual     float64 `json:"direct_vs_gradual"`
	DefineEarlyVsUnfold float64 `json:"define_early_vs_unfold"`
	FrequentCommVsSpace float64 `json:"frequent_comm_vs_space"`
	CareerVsRelation    float64 `json:"career_vs_relationship"`
	SaveVsSpend         float64 `json:"save_vs_spend"`
}

type CopyOnly struct {
	Vibe   map[string]string `json:"vibe"`
	School map[string]string `json:"school"`
}

// ProfileV3 is the current generation, produced by the match-core-v3
// schedule. Dimensions carries the flat view the scorer consumes.
type ProfileV3 struct {
	TraitsVersion       int                `json:"traits_version"`
	SurveySlug          string             `json:"survey_slug"`
	SurveyVersion       int                `json:"survey_version"`
	BigFive             BigFive            `json:"big_five"`
	EmotionalRegulation struct {
		Stability float64 `json:"stability"`
	} `json:"emotional_regulation"`
	Conflict   Conflict           `json:"conflict"`
	Attachment Attachment         `json:"attachment"`
	Life       Life               `json:"life"`
	Tradeoffs  Tradeoffs          `json:"tradeoffs"`
	Dimensions map[string]float64 `json:"dimensions"`
	CopyOnly   CopyOnly           `json:"copy_only"`
}

func (p *ProfileV3) SchemaVersion() int { return SchemaCurrent }

func (p *ProfileV3) KidsIntent() string {
	if p == nil || p.Life.KidsIntent == "" {
		return "unsure"
	}
	return p.Life.KidsIntent
}

func (p *ProfileV3) Dimension(key string, def float64) float64 {
	if p == nil || p.Dimensions == nil {
		return def
	}
	v, ok := p.Dimensions[key]
	if !ok {
		return def
	}
	return v
}

type Modifier struct {
	Importance  float64 `json:"importance"`
	Flexibility float64 `json:"flexibility"`
}

// ProfileV2 is the legacy generation: Big-Five plus conflict-repair vectors
// and life-preference modifiers. It has no flat dimension set; the scorer
// routes pairs of these through the legacy formula.
type ProfileV2 struct {
	TraitsVersion   int                 `json:"traits_version"`
	SurveySlug      string              `json:"survey_slug"`
	SurveyVersion   int                 `json:"survey_version"`
	Big5            map[string]float64  `json:"big5"`
	ConflictRepair  map[string]float64  `json:"conflict_repair"`
	LifeConstraints struct {
		KidsPreference string `json:"kids_preference,omitempty"`
		KidsTimeline   string `json:"kids_timeline,omitempty"`
	} `json:"life_constraints"`
	LifePreferences map[string]float64  `json:"life_preferences,omitempty"`
	Modifiers       map[string]Modifier `json:"modifiers,omitempty"`
	CopyOnly        CopyOnly            `json:"copy_only"`
}

func (p *ProfileV2) SchemaVersion() int { return SchemaLegacy }

func (p *ProfileV2) KidsIntent() string {
	if p == nil || p.LifeConstraints.KidsPreference == "" {
		return "unsure"
	}
	return p.LifeConstraints.KidsPreference
}

// Legacy profiles carry no flat dimensions; callers get the neutral default.
func (p *ProfileV2) Dimension(_ string, def float64) float64 { return def }
