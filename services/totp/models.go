package totp

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TOTPDevice holds the shared secret for a Client's TOTP factor. At most one
// device exists per Client.
type TOTPDevice struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	ClientID  string    `json:"client_id" gorm:"uniqueIndex;size:36;not null"`
	Secret    string    `json:"-" gorm:"size:64;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (d *TOTPDevice) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

func (TOTPDevice) TableName() string {
	return "totp_devices"
}
