package matching

import (
	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/utils"
)

type Mode string

const (
	ModeStableBipartiteIfPossible Mode = "stable_bipartite_if_possible"
	ModeGeneral                   Mode = "general"
)

// Config is the full knob surface of the matching engine. Weights of the
// current scoring blend sum to 1.0.
type Config struct {
	// Blend weights (current schema).
	ValuesWeight                  float64
	EmotionalStabilityWeight      float64
	ReassuranceIndependenceWeight float64
	TextSensitivityWeight         float64
	DramaAvoidanceWeight          float64
	TestingBehaviorWeight         float64
	ApproachWithdrawalWeight      float64
	EscalationRiskWeight          float64
	RepairBeliefWeight            float64
	ConflictStructureWeight       float64
	ExtraversionWeight            float64
	ConscientiousnessWeight       float64
	RelocationWeight              float64
	CareerIntensityWeight         float64
	IntentionsWeight              float64

	// Hard gates and multiplicative penalties.
	EscalationGate              float64
	EscalationPenaltyThreshold  float64
	EscalationPenaltyMultiplier float64
	WithdrawalPenaltyThreshold  float64
	WithdrawalPenaltyMultiplier float64
	MismatchPenaltyThreshold    float64
	MismatchPenaltyMultiplier   float64

	// Complementarity shaping.
	ComplementTargetSum       float64
	ExtremeAsymmetryThreshold float64

	// Legacy formula weights and life-preference modifier shaping.
	LegacyBig5Weight     float64
	LegacyConflictWeight float64
	ModifierPenaltyScale float64
	ModifierPenaltyCap   float64

	// Pool selection.
	MinScore      float64
	TopK          int
	LookbackWeeks int
	Mode          Mode

	// Lifecycle: hours after week start before an unanswered match expires.
	ExpiryHours int
}

func DefaultConfig() Config {
	return Config{
		ValuesWeight:                  0.22,
		EmotionalStabilityWeight:      0.12,
		ReassuranceIndependenceWeight: 0.10,
		TextSensitivityWeight:         0.06,
		DramaAvoidanceWeight:          0.03,
		TestingBehaviorWeight:         0.03,
		ApproachWithdrawalWeight:      0.08,
		EscalationRiskWeight:          0.08,
		RepairBeliefWeight:            0.04,
		ConflictStructureWeight:       0.04,
		ExtraversionWeight:            0.06,
		ConscientiousnessWeight:       0.06,
		RelocationWeight:              0.03,
		CareerIntensityWeight:         0.03,
		IntentionsWeight:              0.02,

		EscalationGate:              0.95,
		EscalationPenaltyThreshold:  0.70,
		EscalationPenaltyMultiplier: 0.75,
		WithdrawalPenaltyThreshold:  0.70,
		WithdrawalPenaltyMultiplier: 0.85,
		MismatchPenaltyThreshold:    0.80,
		MismatchPenaltyMultiplier:   0.80,

		ComplementTargetSum:       1.0,
		ExtremeAsymmetryThreshold: 0.75,

		LegacyBig5Weight:     0.7,
		LegacyConflictWeight: 0.3,
		ModifierPenaltyScale: 0.35,
		ModifierPenaltyCap:   0.6,

		MinScore:      0.60,
		TopK:          60,
		LookbackWeeks: 6,
		Mode:          ModeStableBipartiteIfPossible,

		ExpiryHours: 72,
	}
}

// ConfigFromEnv layers the environment knob surface over the defaults.
func ConfigFromEnv(log *logger.Logger) Config {
	cfg := DefaultConfig()

	cfg.ValuesWeight = utils.GetEnvAsFloat("VALUES_W", cfg.ValuesWeight, log)
	cfg.EmotionalStabilityWeight = utils.GetEnvAsFloat("EMO_STAB_W", cfg.EmotionalStabilityWeight, log)
	cfg.ReassuranceIndependenceWeight = utils.GetEnvAsFloat("REASSURANCE_W", cfg.ReassuranceIndependenceWeight, log)
	cfg.TextSensitivityWeight = utils.GetEnvAsFloat("TEXT_SENS_W", cfg.TextSensitivityWeight, log)
	cfg.DramaAvoidanceWeight = utils.GetEnvAsFloat("DRAMA_W", cfg.DramaAvoidanceWeight, log)
	cfg.TestingBehaviorWeight = utils.GetEnvAsFloat("TESTING_W", cfg.TestingBehaviorWeight, log)
	cfg.ApproachWithdrawalWeight = utils.GetEnvAsFloat("APPROACH_WITHDRAWAL_W", cfg.ApproachWithdrawalWeight, log)
	cfg.EscalationRiskWeight = utils.GetEnvAsFloat("ESCALATION_RISK_W", cfg.EscalationRiskWeight, log)
	cfg.RepairBeliefWeight = utils.GetEnvAsFloat("REPAIR_W", cfg.RepairBeliefWeight, log)
	cfg.ConflictStructureWeight = utils.GetEnvAsFloat("STRUCTURE_W", cfg.ConflictStructureWeight, log)
	cfg.ExtraversionWeight = utils.GetEnvAsFloat("EXTRAVERSION_W", cfg.ExtraversionWeight, log)
	cfg.ConscientiousnessWeight = utils.GetEnvAsFloat("CONSCIENTIOUSNESS_W", cfg.ConscientiousnessWeight, log)
	cfg.RelocationWeight = utils.GetEnvAsFloat("RELOCATION_W", cfg.RelocationWeight, log)
	cfg.CareerIntensityWeight = utils.GetEnvAsFloat("CAREER_W", cfg.CareerIntensityWeight, log)
	cfg.IntentionsWeight = utils.GetEnvAsFloat("INTENTIONS_W", cfg.IntentionsWeight, log)

	cfg.EscalationGate = utils.GetEnvAsFloat("ESCALATION_GATE", cfg.EscalationGate, log)
	cfg.EscalationPenaltyThreshold = utils.GetEnvAsFloat("ESCALATION_PENALTY_THRESHOLD", cfg.EscalationPenaltyThreshold, log)
	cfg.EscalationPenaltyMultiplier = utils.GetEnvAsFloat("ESCALATION_PENALTY_MULTIPLIER", cfg.EscalationPenaltyMultiplier, log)
	cfg.WithdrawalPenaltyThreshold = utils.GetEnvAsFloat("WITHDRAWAL_PENALTY_THRESHOLD", cfg.WithdrawalPenaltyThreshold, log)
	cfg.WithdrawalPenaltyMultiplier = utils.GetEnvAsFloat("WITHDRAWAL_PENALTY_MULTIPLIER", cfg.WithdrawalPenaltyMultiplier, log)
	cfg.MismatchPenaltyThreshold = utils.GetEnvAsFloat("MISMATCH_PENALTY_THRESHOLD", cfg.MismatchPenaltyThreshold, log)
	cfg.MismatchPenaltyMultiplier = utils.GetEnvAsFloat("MISMATCH_PENALTY_MULTIPLIER", cfg.MismatchPenaltyMultiplier, log)

	cfg.ModifierPenaltyScale = utils.GetEnvAsFloat("MODIFIER_PENALTY_SCALE", cfg.ModifierPenaltyScale, log)
	cfg.ModifierPenaltyCap = utils.GetEnvAsFloat("MODIFIER_PENALTY_CAP", cfg.ModifierPenaltyCap, log)
	cfg.LegacyBig5Weight = utils.GetEnvAsFloat("BIG5_WEIGHT", cfg.LegacyBig5Weight, log)
	cfg.LegacyConflictWeight = utils.GetEnvAsFloat("CONFLICT_WEIGHT", cfg.LegacyConflictWeight, log)

	cfg.MinScore = utils.GetEnvAsFloat("MIN_SCORE", cfg.MinScore, log)
	cfg.TopK = utils.GetEnvAsInt("MATCH_TOP_K", cfg.TopK, log)
	cfg.LookbackWeeks = utils.GetEnvAsInt("LOOKBACK_WEEKS", cfg.LookbackWeeks, log)
	cfg.ExpiryHours = utils.GetEnvAsInt("MATCH_EXPIRY_HOURS", cfg.ExpiryHours, log)
	if mode := utils.GetEnv("MATCH_ALGO_MODE", string(cfg.Mode), log); mode == string(ModeGeneral) {
		cfg.Mode = ModeGeneral
	} else {
		cfg.Mode = ModeStableBipartiteIfPossible
	}
	return cfg
}
