package migration

import (
	"context"

	"gorm.io/gorm"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/model"
)

// SyncAdminFlags makes is_admin on existing accounts match the configured allow-list,
// so promotions and demotions apply without waiting for the next sign-in.
func SyncAdminFlags(ctx context.Context, db *gorm.DB, admins entity.AdminAllowList, logger coreport.Logger) error {
	emails := admins.Emails()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		demote := tx.Model(&model.Account{}).Where("is_admin = ?", true)
		if len(emails) > 0 {
			demote = demote.Where("email NOT IN ?", emails)
		}
		demoted := demote.Update("is_admin", false)
		if demoted.Error != nil {
			return demoted.Error
		}

		var promoted int64
		if len(emails) > 0 {
			res := tx.Model(&model.Account{}).
				Where("email IN ? AND is_admin = ?", emails, false).
				Update("is_admin", true)
			if res.Error != nil {
				return res.Error
			}
			promoted = res.RowsAffected
		}

		logger.Info("Synchronized admin flags", map[string]any{
			"allow_list_size": admins.Len(),
			"promoted":        promoted,
			"demoted":         demoted.RowsAffected,
		})
		return nil
	})
}
