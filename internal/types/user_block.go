package types

import (
	"time"

	"github.com/google/uuid"
)

// UserBlock is a directed block; either direction excludes the pair from
// future candidate generation.
type UserBlock struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BlockerUserID uuid.UUID `gorm:"type:uuid;not null;index:idx_block_pair,unique,priority:1;column:blocker_user_id" json:"blocker_user_id"`
	BlockedUserID uuid.UUID `gorm:"type:uuid;not null;index:idx_block_pair,unique,priority:2;column:blocked_user_id" json:"blocked_user_id"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (UserBlock) TableName() string {
	return "user_block"
}
