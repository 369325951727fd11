package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	timeadapter "github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var issuedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newManager(t *testing.T, at time.Time) *SessionManager {
	t.Helper()
	m, err := NewSessionManager(testSecret, "", time.Hour, timeadapter.FixedTimeProvider{At: at})
	require.NoError(t, err)
	return m
}

func TestNewSessionManager_RejectsShortSecret(t *testing.T) {
	_, err := NewSessionManager("short", "", 0, timeadapter.NewRealTimeProvider())
	assert.Error(t, err)
}

func TestIssueAndParse(t *testing.T) {
	manager := newManager(t, issuedAt)

	session, err := manager.Issue(&entity.Account{ID: 7, Email: "a@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, issuedAt.Add(time.Hour), session.ExpiresAt)

	claims, err := manager.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
}

func TestIssue_RequiresEmail(t *testing.T) {
	manager := newManager(t, issuedAt)

	_, err := manager.Issue(nil)
	assert.ErrorIs(t, err, errs.ErrInvalidProfile)

	_, err = manager.Issue(&entity.Account{ID: 1})
	assert.ErrorIs(t, err, errs.ErrInvalidProfile)
}

func TestParse_Failures(t *testing.T) {
	manager := newManager(t, issuedAt)
	session, err := manager.Issue(&entity.Account{ID: 1, Email: "a@example.com"})
	require.NoError(t, err)
	_, err = manager.Parse(session.Token)
	require.NoError(t, err)

	otherIssuer, err := NewSessionManager(testSecret, "someone-else", time.Hour, timeadapter.FixedTimeProvider{At: issuedAt})
	require.NoError(t, err)
	foreign, err := otherIssuer.Issue(&entity.Account{ID: 1, Email: "a@example.com"})
	require.NoError(t, err)

	otherKey, err := NewSessionManager(strings.Repeat("x", 32), "", time.Hour, timeadapter.FixedTimeProvider{At: issuedAt})
	require.NoError(t, err)
	forged, err := otherKey.Issue(&entity.Account{ID: 1, Email: "a@example.com"})
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultIssuer,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"Empty", ""},
		{"Garbage", "not.a.token"},
		{"Wrong issuer", foreign.Token},
		{"Wrong key", forged.Token},
		{"Unsigned", unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := manager.Parse(tt.token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, errs.ErrUnauthenticated)
			assert.Equal(t, errs.KindUnauthenticated, errs.KindOf(err))
		})
	}
}

func TestParse_Expired(t *testing.T) {
	session, err := newManager(t, issuedAt).Issue(&entity.Account{ID: 1, Email: "a@example.com"})
	require.NoError(t, err)

	later := newManager(t, issuedAt.Add(2*time.Hour))
	_, err = later.Parse(session.Token)

	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnauthenticated))
	assert.True(t, errors.Is(err, ErrExpiredSession))
}
