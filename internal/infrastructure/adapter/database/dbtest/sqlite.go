// Package dbtest opens throwaway in-memory databases for repository tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/model"
)

// Models lists every table the ledger owns, in dependency order
var Models = []any{
	&model.MigrationVersion{},
	&model.Account{},
	&model.Voucher{},
	&model.UsageRecord{},
}

// OpenSQLite returns a migrated in-memory SQLite database private to t.
// SQLite ignores row-locking clauses, so lock semantics are not exercised here.
func OpenSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	db := OpenEmptySQLite(t)
	if err := db.AutoMigrate(Models...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// OpenEmptySQLite returns an in-memory SQLite database with no tables
func OpenEmptySQLite(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// A single connection keeps shared-cache table locks from surfacing as SQLITE_LOCKED.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}
