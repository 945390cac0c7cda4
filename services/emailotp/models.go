package emailotp

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailOTP is one issued code for a Client. Rows are append-only: the only
// in-place change is the one-way used flag flip on successful verification.
// Expired and superseded rows stay behind as an audit trail.
type EmailOTP struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	ClientID  string    `json:"client_id" gorm:"index;size:36;not null"`
	Email     string    `json:"email" gorm:"not null"`
	CodeHash  string    `json:"-" gorm:"size:128;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (o *EmailOTP) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

func (EmailOTP) TableName() string {
	return "email_otps"
}
