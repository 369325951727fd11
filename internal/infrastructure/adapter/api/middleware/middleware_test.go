package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/credit-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/auth"
	coremocks "github.com/amirhossein-jamali/credit-ledger/mocks/port/core"
	usecasemocks "github.com/amirhossein-jamali/credit-ledger/mocks/port/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubParser struct {
	claims *auth.Claims
	err    error
}

func (p stubParser) Parse(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, errs.ErrUnauthenticated
	}
	return p.claims, p.err
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

type recordingObserver struct {
	method, path, status string
}

func (o *recordingObserver) ObserveHTTP(method, path, status string, _ time.Duration) {
	o.method, o.path, o.status = method, path, status
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	logger := coremocks.NewMockLogger(t).AllowAll()
	router := gin.New()
	router.GET("/me", Authenticate(stubParser{claims: &auth.Claims{Email: "a@example.com"}}, logger), func(c *gin.Context) {
		c.String(http.StatusOK, EmailFrom(c))
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"Missing header", "", http.StatusUnauthorized},
		{"Wrong scheme", "Basic good", http.StatusUnauthorized},
		{"Bad token", "Bearer bad", http.StatusUnauthorized},
		{"Valid", "Bearer good", http.StatusOK},
		{"Lower-case scheme", "bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(router, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "a@example.com", w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"reason":"unauthenticated"`)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name    string
		account *entity.Account
		err     error
		status  int
	}{
		{"Admin", &entity.Account{Email: "a@example.com", IsAdmin: true}, nil, http.StatusOK},
		{"Not admin", &entity.Account{Email: "a@example.com"}, nil, http.StatusForbidden},
		{"No account", nil, errs.ErrAccountNotFound, http.StatusForbidden},
		{"Store failure", nil, errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := coremocks.NewMockLogger(t).AllowAll()
			accounts := usecasemocks.NewMockAccountUseCase(t)
			accounts.On("LookupByEmail", mock.Anything, "a@example.com").Return(tt.account, tt.err).Once()

			router := gin.New()
			router.GET("/admin",
				func(c *gin.Context) { c.Set(emailKey, "a@example.com") },
				RequireAdmin(accounts, logger),
				func(c *gin.Context) { c.Status(http.StatusOK) },
			)

			w := serve(router, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRequireInternalKey(t *testing.T) {
	logger := coremocks.NewMockLogger(t).AllowAll()

	newRouter := func(key string) *gin.Engine {
		router := gin.New()
		router.POST("/session", RequireInternalKey(key, logger), func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	req := func(key string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/session", nil)
		if key != "" {
			r.Header.Set(InternalKeyHeader, key)
		}
		return r
	}

	assert.Equal(t, http.StatusOK, serve(newRouter("k3y"), req("k3y")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(newRouter("k3y"), req("other")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(newRouter("k3y"), req("")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(newRouter(""), req("")).Code)
}

func TestRateLimit(t *testing.T) {
	keyFunc := func(email, route string) string { return route + "|" + email }
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }
	setEmail := func(c *gin.Context) { c.Set(emailKey, "a@example.com") }

	t.Run("Denied", func(t *testing.T) {
		limiter := &stubLimiter{allowed: false}
		router := gin.New()
		router.POST("/chat", setEmail, RateLimit(limiter, keyFunc, 5, time.Minute, coremocks.NewMockLogger(t)), handler)

		w := serve(router, httptest.NewRequest(http.MethodPost, "/chat", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, []string{"/chat|a@example.com"}, limiter.keys)
	})

	t.Run("Limiter failure fails open", func(t *testing.T) {
		logger := coremocks.NewMockLogger(t)
		logger.On("Warn", "Rate limiter unavailable", mock.Anything).Once()
		limiter := &stubLimiter{err: errors.New("dial tcp: refused")}
		router := gin.New()
		router.POST("/chat", setEmail, RateLimit(limiter, keyFunc, 5, time.Minute, logger), handler)

		assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodPost, "/chat", nil)).Code)
	})

	t.Run("Disabled", func(t *testing.T) {
		router := gin.New()
		router.POST("/chat", RateLimit(nil, keyFunc, 5, time.Minute, coremocks.NewMockLogger(t)), handler)

		assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodPost, "/chat", nil)).Code)
	})
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	require.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(router, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	logger := coremocks.NewMockLogger(t)
	logger.On("Error", "Panic recovered in API request", mock.MatchedBy(func(fields map[string]any) bool {
		return fields["error"] == "kaboom" && fields["path"] == "/boom"
	})).Once()

	router := gin.New()
	router.Use(ErrorHandler(logger))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := serve(router, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":5000`)
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	logger := coremocks.NewMockLogger(t)
	logger.On("Info", "Request processed", mock.MatchedBy(func(fields map[string]any) bool {
		return fields["status"] == http.StatusOK && fields["path"] == "/ok"
	})).Once()
	logger.On("Error", "Request failed", mock.MatchedBy(func(fields map[string]any) bool {
		return fields["status"] == http.StatusInternalServerError
	})).Once()

	router := gin.New()
	router.Use(Logger(logger))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(router, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(router, httptest.NewRequest(http.MethodGet, "/fail", nil))
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/keys/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	serve(router, httptest.NewRequest(http.MethodGet, "/keys/42", nil))
	assert.Equal(t, recordingObserver{method: "GET", path: "/keys/:id", status: "202"}, *observer)

	serve(router, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, "unmatched", observer.path)
	assert.Equal(t, "404", observer.status)
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://app.example.com"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := serve(router, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = serve(router, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
