package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SurveyReconciliationState is the per-user carry-forward record for one
// survey slug against the currently active revision. At most one row exists
// per (user, slug, current hash); re-running reconciliation for the same
// triple overwrites it.
type SurveyReconciliationState struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID              uuid.UUID      `gorm:"type:uuid;not null;index:idx_recon_user_slug_hash,unique,priority:1" json:"user_id"`
	User                *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	SurveySlug          string         `gorm:"not null;index:idx_recon_user_slug_hash,unique,priority:2;column:survey_slug" json:"survey_slug"`
	CurrentSurveyHash   string         `gorm:"not null;index:idx_recon_user_slug_hash,unique,priority:3;column:current_survey_hash" json:"current_survey_hash"`
	SourceSurveyHash    string         `gorm:"column:source_survey_hash" json:"source_survey_hash"`
	SourceSurveyVersion int            `gorm:"column:source_survey_version" json:"source_survey_version"`
	AnswersCurrent      datatypes.JSON `gorm:"type:jsonb;not null;column:answers_current" json:"answers_current"`
	MissingQuestionIDs  datatypes.JSON `gorm:"type:jsonb;column:missing_question_ids" json:"missing_question_ids"`
	NeedsRetake         bool           `gorm:"not null;default:false;column:needs_retake" json:"needs_retake"`
	MigrationReport     datatypes.JSON `gorm:"type:jsonb;column:migration_report" json:"migration_report"`
	CreatedAt           time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (SurveyReconciliationState) TableName() string {
	return "survey_reconciliation_state"
}
