package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserTraits is the derived trait profile for a user, one row per user.
// ComputedForSurveyHash records which revision the profile was derived from
// so recomputation can be skipped when nothing changed.
type UserTraits struct {
	ID                    uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID                uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User                  *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	TraitsVersion         int            `gorm:"not null;column:traits_version" json:"traits_version"`
	Profile               datatypes.JSON `gorm:"type:jsonb;not null;column:profile" json:"profile"`
	ComputedForSurveyHash string         `gorm:"column:computed_for_survey_hash;index" json:"computed_for_survey_hash"`
	ComputedAt            time.Time      `gorm:"not null;default:now();column:computed_at" json:"computed_at"`
	CreatedAt             time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserTraits) TableName() string {
	return "user_traits"
}
