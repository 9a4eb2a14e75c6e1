package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Tenant struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Slug      string         `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Name      string         `gorm:"not null;column:name" json:"name"`
	Timezone  string         `gorm:"not null;default:'America/New_York';column:timezone" json:"timezone"`
	Settings  datatypes.JSON `gorm:"type:jsonb;column:settings" json:"settings"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenant"
}
