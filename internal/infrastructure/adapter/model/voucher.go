package model

import (
	"time"
)

// Voucher represents the database model for voucher codes
type Voucher struct {
	ID            int64      `gorm:"primaryKey;autoIncrement"`
	Code          string     `gorm:"type:text;not null;uniqueIndex:idx_vouchers_code"`
	CreditAmount  int64      `gorm:"not null"`
	RemainingUses int64      `gorm:"not null"`
	CreatedBy     *int64     `gorm:"index"`
	Creator       *Account   `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL"`
	CreatedAt     time.Time  `gorm:"not null;autoCreateTime"`
	ExpiresAt     *time.Time `gorm:"null"`
}

// TableName specifies the table name for Voucher
func (Voucher) TableName() string {
	return "vouchers"
}
