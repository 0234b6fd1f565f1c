package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the slice of the account profile this service reads. Accounts are
// issued elsewhere; rows here are a projection keyed by the same id.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nickname string    `gorm:"not null;default:'';column:nickname" json:"nickname"`
	Region   string    `gorm:"not null;default:'';column:region" json:"region"`
	ImageURL string    `gorm:"column:image_url" json:"image_url,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

// HasCompleteProfile reports whether the user may take part in group purchases.
func (u *User) HasCompleteProfile() bool {
	return u != nil && strings.TrimSpace(u.Region) != ""
}
