package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SurveyDefinition is one published revision of a survey. The active
// revision per slug is the one users answer; older revisions stay around so
// reconciliation can locate the definition a response set was given against.
type SurveyDefinition struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug       string         `gorm:"not null;index:idx_survey_slug_version,unique,priority:1;column:slug" json:"slug"`
	Version    int            `gorm:"not null;index:idx_survey_slug_version,unique,priority:2;column:version" json:"version"`
	SurveyHash string         `gorm:"uniqueIndex;not null;column:survey_hash" json:"survey_hash"`
	Definition datatypes.JSON `gorm:"type:jsonb;not null;column:definition" json:"definition"`
	Active     bool           `gorm:"not null;default:false;index;column:active" json:"active"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (SurveyDefinition) TableName() string {
	return "survey_definition"
}
