package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WeeklyAssignment is one user's side of a weekly match. A matched pair is
// stored as two mirrored rows; a user with no partner gets a single
// status=no_match row with a null MatchedUserID.
type WeeklyAssignment struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_assignment_user_week,unique,priority:1" json:"user_id"`
	User           *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	MatchedUserID  *uuid.UUID     `gorm:"type:uuid;index;column:matched_user_id" json:"matched_user_id,omitempty"`
	WeekStart      time.Time      `gorm:"not null;index:idx_assignment_user_week,unique,priority:2;column:week_start" json:"week_start"`
	Status         string         `gorm:"not null;index;column:status" json:"status"` // proposed|revealed|accepted|declined|expired|blocked|no_match
	ScoreTotal     float64        `gorm:"column:score_total" json:"score_total"`
	ScoreBreakdown datatypes.JSON `gorm:"type:jsonb;column:score_breakdown" json:"score_breakdown"`
	Reason         string         `gorm:"column:reason" json:"reason,omitempty"`
	RevealedAt     *time.Time     `gorm:"column:revealed_at" json:"revealed_at,omitempty"`
	RespondedAt    *time.Time     `gorm:"column:responded_at" json:"responded_at,omitempty"`
	ExpiresAt      time.Time      `gorm:"not null;column:expires_at" json:"expires_at"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (WeeklyAssignment) TableName() string {
	return "weekly_assignment"
}
