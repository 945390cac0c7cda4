package developer

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Developer struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	APIKey       string    `json:"-" gorm:"uniqueIndex;size:64;not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (d *Developer) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

func (Developer) TableName() string {
	return "developers"
}

type App struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	DeveloperID string    `json:"developer_id" gorm:"index;size:36;not null"`
	Name        string    `json:"name" gorm:"size:150;not null"`
	SecretKey   string    `json:"-" gorm:"uniqueIndex;size:64;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *App) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (App) TableName() string {
	return "apps"
}
