package model

import (
	"time"
)

// Account represents the database model for accounts
type Account struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Provider     string    `gorm:"type:varchar(32)"`
	ProviderID   string    `gorm:"type:varchar(128)"`
	Email        string    `gorm:"type:text;not null;uniqueIndex:idx_accounts_email"`
	Name         string    `gorm:"type:text"`
	Image        string    `gorm:"type:text"`
	IsAdmin      bool      `gorm:"not null;default:false"`
	TotalCredits int64     `gorm:"not null"`
	UsedCredits  int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}
