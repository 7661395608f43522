package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered account. PasswordHash, Tokens and Avatar carry
// `json:"-"` so every serialization of a User is the safe external view; there
// is no other sanctioned way to render a user to a caller.
type User struct {
	ID           uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string         `json:"name" gorm:"size:255;not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"`
	Age          int            `json:"age" gorm:"default:0"`
	Tokens       []SessionToken `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Avatar       []byte         `json:"-" gorm:"type:mediumblob"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// SessionToken is one issued bearer token. A user holds one row per active
// session; removing a row revokes that session.
type SessionToken struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	UserID    uuid.UUID `json:"-" gorm:"type:char(36);index;not null"`
	Token     string    `json:"-" gorm:"size:512;index;not null"`
	CreatedAt time.Time `json:"-"`
}
