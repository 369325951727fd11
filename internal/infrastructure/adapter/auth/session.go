package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
)

const (
	// DefaultIssuer is written into the iss claim when none is configured
	DefaultIssuer = "credit-ledger"
	// DefaultTTL is the lifetime of a session token
	DefaultTTL = 24 * time.Hour

	minSecretLength = 32
)

// ErrExpiredSession is wrapped into errs.ErrUnauthenticated when a token is past its expiry
var ErrExpiredSession = errors.New("session expired")

// Claims identify the account behind a session. Admin rights are not carried;
// they are read from the store on every admin request.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Session is a freshly issued token
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// SessionManager signs and verifies HS256 session tokens
type SessionManager struct {
	secret       []byte
	issuer       string
	ttl          time.Duration
	timeProvider coreport.TimeProvider
}

// NewSessionManager creates a manager. The secret must be at least 32 bytes.
func NewSessionManager(secret, issuer string, ttl time.Duration, timeProvider coreport.TimeProvider) (*SessionManager, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSecretLength)
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SessionManager{
		secret:       []byte(secret),
		issuer:       issuer,
		ttl:          ttl,
		timeProvider: timeProvider,
	}, nil
}

// Issue signs a session for account
func (m *SessionManager) Issue(account *entity.Account) (*Session, error) {
	if account == nil || account.Email == "" {
		return nil, errs.ErrInvalidProfile
	}

	now := m.timeProvider.Now()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(account.ID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	return &Session{Token: token, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Parse verifies token and returns its claims. Every failure wraps errs.ErrUnauthenticated.
func (m *SessionManager) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, errs.ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.timeProvider.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", errs.ErrUnauthenticated, ErrExpiredSession)
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrUnauthenticated, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Email == "" {
		return nil, errs.ErrUnauthenticated
	}
	return claims, nil
}
