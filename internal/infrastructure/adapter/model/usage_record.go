package model

import (
	"time"
)

// UsageRecord represents the database model for the audit trail of charged calls
type UsageRecord struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	AccountID       int64     `gorm:"not null"`
	Account         *Account  `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	Prompt          string    `gorm:"type:text;not null"`
	ResponsePreview string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime"`
}

// TableName specifies the table name for UsageRecord
func (UsageRecord) TableName() string {
	return "usage_records"
}
