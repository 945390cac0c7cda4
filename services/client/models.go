package client

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MFA factor types a Client can be configured with.
const (
	MFATypeTOTP  = "totp"
	MFATypeEmail = "email"
)

// Client is an end-user of one App. ExternalUserID is supplied by the tenant
// and is only unique within the owning App.
type Client struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	AppID          string    `json:"app_id" gorm:"uniqueIndex:idx_clients_app_external,priority:1;size:36;not null"`
	ExternalUserID string    `json:"external_user_id" gorm:"uniqueIndex:idx_clients_app_external,priority:2;size:255;not null"`
	Email          string    `json:"email,omitempty"`
	MFAType        string    `json:"mfa_type" gorm:"size:10;not null"`
	Active         bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt      time.Time `json:"created_at"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (Client) TableName() string {
	return "clients"
}
