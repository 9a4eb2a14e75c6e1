package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SurveySession is a user's raw response set against one survey revision.
type SurveySession struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	SurveySlug    string         `gorm:"not null;index;column:survey_slug" json:"survey_slug"`
	SurveyVersion int            `gorm:"not null;column:survey_version" json:"survey_version"`
	SurveyHash    string         `gorm:"column:survey_hash;index" json:"survey_hash"`
	Answers       datatypes.JSON `gorm:"type:jsonb;not null;column:answers" json:"answers"`
	CompletedAt   *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (SurveySession) TableName() string {
	return "survey_session"
}
