package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Logger      LoggerConfig    `mapstructure:"logger"`
	Ledger      LedgerConfig    `mapstructure:"ledger"`
	Upstream    UpstreamConfig  `mapstructure:"upstream"`
	Session     SessionConfig   `mapstructure:"session"`
	RateLimit   RateLimitConfig `mapstructure:"rateLimit"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
	CORS        CORSConfig      `mapstructure:"cors"`
}

// IsProduction reports whether the production profile is active
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`
}

// DatabaseConfig contains database connection settings. URL, when set, replaces the discrete fields.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"`
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`
	SlowThreshold   time.Duration `mapstructure:"slowThreshold"`
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"`
	LogLevel        string        `mapstructure:"logLevel"`
	AutoMigrate     bool          `mapstructure:"autoMigrate"`
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	CallerInfo bool   `mapstructure:"callerInfo"`
}

// LedgerConfig contains credit and voucher rules
type LedgerConfig struct {
	StartingCredits      int64    `mapstructure:"startingCredits"`
	AdminEmails          []string `mapstructure:"adminEmails"`
	VoucherPrefix        string   `mapstructure:"voucherPrefix"`
	VoucherIssueAttempts int      `mapstructure:"voucherIssueAttempts"`
	ListLimit            int      `mapstructure:"listLimit"`
}

// UpstreamConfig describes the OpenAI-compatible completion service
type UpstreamConfig struct {
	BaseURL        string        `mapstructure:"baseURL"`
	APIKey         string        `mapstructure:"apiKey"`
	Model          string        `mapstructure:"model"`
	SystemPrompt   string        `mapstructure:"systemPrompt"`
	Temperature    float64       `mapstructure:"temperature"`
	TopP           float64       `mapstructure:"topP"`
	Timeout        time.Duration `mapstructure:"timeout"`
	EmptyReplyText string        `mapstructure:"emptyReplyText"`
}

// SessionConfig contains session token settings
type SessionConfig struct {
	Secret      string        `mapstructure:"secret"`
	Issuer      string        `mapstructure:"issuer"`
	TTL         time.Duration `mapstructure:"ttl"`
	InternalKey string        `mapstructure:"internalKey"`
}

// RateLimitConfig configures the per-account chat limiter
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RedisAddr string        `mapstructure:"redisAddr"`
	RedisDB   int           `mapstructure:"redisDB"`
	Limit     int           `mapstructure:"limit"`
	Window    time.Duration `mapstructure:"window"`
}

// TracingConfig configures OpenTelemetry export
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sampleRate"`
	ServiceName string  `mapstructure:"serviceName"`
}

// CORSConfig lists origins allowed to call the API from a browser
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}
