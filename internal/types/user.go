package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TenantID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Tenant         *Tenant        `gorm:"constraint:OnDelete:CASCADE;foreignKey:TenantID;references:ID" json:"-"`
	Email          string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password       string         `gorm:"not null;column:password" json:"-"`
	FirstName      string         `gorm:"not null;column:first_name" json:"first_name"`
	LastName       string         `gorm:"not null;column:last_name" json:"last_name"`
	GenderIdentity string         `gorm:"column:gender_identity" json:"gender_identity"`
	SeekingGenders datatypes.JSON `gorm:"type:jsonb;column:seeking_genders" json:"seeking_genders"`
	Birthdate      *time.Time     `gorm:"column:birthdate" json:"birthdate,omitempty"`
	Active         bool           `gorm:"not null;default:true;column:active" json:"active"`
	Paused         bool           `gorm:"not null;default:false;column:paused" json:"paused"`
	DisabledAt     *time.Time     `gorm:"column:disabled_at" json:"disabled_at,omitempty"`
	IsAdmin        bool           `gorm:"not null;default:false;column:is_admin" json:"is_admin"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
