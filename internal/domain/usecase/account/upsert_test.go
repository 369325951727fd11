package account

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/credit-ledger/mocks/port/core"
	"github.com/amirhossein-jamali/credit-ledger/mocks/port/persistence"
)

func TestDirectory_UpsertFromProfile(t *testing.T) {
	ctx := context.Background()
	admins := entity.ParseAdminAllowList("root@example.com")

	t.Run("New profile gets starting credits and normalised email", func(t *testing.T) {
		// Arrange
		repo := persistence.NewMockAccountRepository(t)
		logger := core.NewMockLogger(t).AllowAll()

		repo.On("Upsert", ctx, mock.MatchedBy(func(a *entity.Account) bool {
			return a.Email == "alice@example.com" &&
				a.Provider == "google" &&
				a.ProviderID == "109" &&
				a.TotalCredits == 3 &&
				a.UsedCredits == 0 &&
				!a.IsAdmin
		})).Return(&entity.Account{ID: 1, Email: "alice@example.com", TotalCredits: 3}, nil)

		directory := NewDirectory(repo, admins, logger)

		// Act
		account, err := directory.UpsertFromProfile(ctx, entity.Profile{
			ID:    "109",
			Email: "  Alice@Example.com ",
			Name:  "Alice",
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(1), account.ID)
		assert.Equal(t, int64(3), account.Remaining())
	})

	t.Run("Admin flag follows the allow-list", func(t *testing.T) {
		repo := persistence.NewMockAccountRepository(t)
		logger := core.NewMockLogger(t).AllowAll()

		repo.On("Upsert", ctx, mock.MatchedBy(func(a *entity.Account) bool {
			return a.Email == "root@example.com" && a.IsAdmin && a.ProviderID == "root@example.com"
		})).Return(&entity.Account{ID: 2, Email: "root@example.com", IsAdmin: true}, nil)

		directory := NewDirectory(repo, admins, logger)

		account, err := directory.UpsertFromProfile(ctx, entity.Profile{Email: "ROOT@example.com"})

		require.NoError(t, err)
		assert.True(t, account.IsAdmin)
	})

	t.Run("Starting credits can be configured", func(t *testing.T) {
		repo := persistence.NewMockAccountRepository(t)
		logger := core.NewMockLogger(t).AllowAll()

		repo.On("Upsert", ctx, mock.MatchedBy(func(a *entity.Account) bool {
			return a.TotalCredits == 10
		})).Return(&entity.Account{ID: 3, TotalCredits: 10}, nil)

		directory := NewDirectory(repo, admins, logger, WithStartingCredits(10))

		account, err := directory.UpsertFromProfile(ctx, entity.Profile{Email: "bob@example.com"})

		require.NoError(t, err)
		assert.Equal(t, int64(10), account.TotalCredits)
	})

	t.Run("Profile without email is rejected before the store", func(t *testing.T) {
		repo := persistence.NewMockAccountRepository(t)
		logger := core.NewMockLogger(t)

		directory := NewDirectory(repo, admins, logger)

		account, err := directory.UpsertFromProfile(ctx, entity.Profile{ID: "x", Email: "  "})

		assert.ErrorIs(t, err, errs.ErrInvalidProfile)
		assert.Nil(t, account)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("Store failure is propagated", func(t *testing.T) {
		repo := persistence.NewMockAccountRepository(t)
		logger := core.NewMockLogger(t)
		logger.On("Error", "Failed to upsert account from profile", mock.Anything).Once()

		repo.On("Upsert", ctx, mock.Anything).Return(nil, errs.ErrDatabaseConnection)

		directory := NewDirectory(repo, admins, logger)

		account, err := directory.UpsertFromProfile(ctx, entity.Profile{Email: "a@example.com"})

		assert.ErrorIs(t, err, errs.ErrDatabaseConnection)
		assert.Equal(t, errs.KindInternalFailure, errs.KindOf(err))
		assert.Nil(t, account)
	})
}

func TestDirectory_LookupByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("Lookup is case-insensitive", func(t *testing.T) {
		repo := persistence.NewMockAccountRepository(t)
		logger := core.NewMockLogger(t)
		expected := &entity.Account{ID: 5, Email: "carol@example.com"}

		repo.On("GetByEmail", ctx, "carol@example.com").Return(expected, nil)

		directory := NewDirectory(repo, entity.AdminAllowList{}, logger)

		account, err := directory.LookupByEmail(ctx, "Carol@Example.COM")

		require.NoError(t, err)
		assert.Same(t, expected, account)
	})

	t.Run("Empty email is not found without a store query", func(t *testing.T) {
		repo := persistence.NewMockAccountRepository(t)
		logger := core.NewMockLogger(t)

		directory := NewDirectory(repo, entity.AdminAllowList{}, logger)

		account, err := directory.LookupByEmail(ctx, "")

		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
		assert.Nil(t, account)
		repo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})

	t.Run("Missing account is not logged as an error", func(t *testing.T) {
		repo := persistence.NewMockAccountRepository(t)
		logger := core.NewMockLogger(t)

		repo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, errs.ErrAccountNotFound)

		directory := NewDirectory(repo, entity.AdminAllowList{}, logger)

		_, err := directory.LookupByEmail(ctx, "ghost@example.com")

		assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	})

	t.Run("Store failure is logged and returned", func(t *testing.T) {
		repo := persistence.NewMockAccountRepository(t)
		logger := core.NewMockLogger(t)
		storeErr := errors.New("connection reset")

		repo.On("GetByEmail", ctx, "a@example.com").Return(nil, storeErr)
		logger.On("Error", "Failed to look up account", mock.Anything).Once()

		directory := NewDirectory(repo, entity.AdminAllowList{}, logger)

		_, err := directory.LookupByEmail(ctx, "a@example.com")

		assert.ErrorIs(t, err, storeErr)
	})
}

func TestDirectory_GetCredits(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewMockAccountRepository(t)
	logger := core.NewMockLogger(t)

	repo.On("GetByEmail", ctx, "dave@example.com").
		Return(&entity.Account{ID: 9, TotalCredits: 13, UsedCredits: 4}, nil)

	directory := NewDirectory(repo, entity.AdminAllowList{}, logger)

	credits, err := directory.GetCredits(ctx, "dave@example.com")

	require.NoError(t, err)
	assert.Equal(t, entity.CreditSummary{Total: 13, Used: 4, Remaining: 9}, *credits)
}
