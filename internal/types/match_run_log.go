package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MatchRunLog records one execution of the weekly matching batch.
type MatchRunLog struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	WeekStart      time.Time      `gorm:"not null;index;column:week_start" json:"week_start"`
	Status         string         `gorm:"not null;index;column:status" json:"status"` // running|succeeded|failed
	Forced         bool           `gorm:"not null;default:false;column:forced" json:"forced"`
	EligibleUsers  int            `gorm:"not null;default:0;column:eligible_users" json:"eligible_users"`
	CandidatePairs int            `gorm:"not null;default:0;column:candidate_pairs" json:"candidate_pairs"`
	MatchedPairs   int            `gorm:"not null;default:0;column:matched_pairs" json:"matched_pairs"`
	Unmatched      int            `gorm:"not null;default:0;column:unmatched" json:"unmatched"`
	Error          string         `gorm:"column:error" json:"error,omitempty"`
	Config         datatypes.JSON `gorm:"type:jsonb;column:config" json:"config"`
	StartedAt      time.Time      `gorm:"not null;default:now();column:started_at" json:"started_at"`
	FinishedAt     *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (MatchRunLog) TableName() string {
	return "match_run_log"
}
