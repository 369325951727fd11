package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// EnvPrefix is prepended to every environment override, e.g. CL_SERVER_PORT
const EnvPrefix = "CL"

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"./configs/.env",
}

// LoadConfig reads .env, then configs/<env>.yaml when present, then CL_* variables.
// A missing config file is not an error; defaults and the environment are enough to run.
func LoadConfig() (*Config, error) {
	loadDotEnvFile()

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v, env)
}

// LoadFromViper decodes an already populated viper instance. Used by tests.
func LoadFromViper(v *viper.Viper, env string) (*Config, error) {
	return decode(v, env)
}

func decode(v *viper.Viper, env string) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env
	config.Ledger.AdminEmails = splitList(config.Ledger.AdminEmails)
	config.CORS.AllowedOrigins = splitList(config.CORS.AllowedOrigins)

	return &config, nil
}

// loadDotEnvFile loads the first .env file found. Variables already set are not overwritten.
func loadDotEnvFile() {
	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", "15s")
	v.SetDefault("server.writeTimeout", "90s")
	v.SetDefault("server.idleTimeout", "60s")
	v.SetDefault("server.readHeaderTimeout", "10s")
	v.SetDefault("server.shutdownTimeout", "10s")

	// Secrets default to empty so CL_* variables for them are still visible to Unmarshal.
	for _, key := range []string{
		"database.url", "database.host", "database.username", "database.password", "database.database",
		"upstream.apiKey", "session.secret", "session.internalKey",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 10)
	v.SetDefault("database.connMaxLifetime", "30m")
	v.SetDefault("database.connMaxIdleTime", "5m")
	v.SetDefault("database.queryTimeout", "10s")
	v.SetDefault("database.slowThreshold", "200ms")
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", "2s")
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("database.autoMigrate", true)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.callerInfo", true)

	v.SetDefault("ledger.startingCredits", 3)
	v.SetDefault("ledger.adminEmails", []string{})
	v.SetDefault("ledger.voucherPrefix", "HYDRA")
	v.SetDefault("ledger.voucherIssueAttempts", 3)
	v.SetDefault("ledger.listLimit", 100)

	v.SetDefault("upstream.baseURL", "https://api.sambanova.ai/v1")
	v.SetDefault("upstream.model", "Meta-Llama-3.1-8B-Instruct")
	v.SetDefault("upstream.systemPrompt", "You are HydraAI, a helpful assistant.")
	v.SetDefault("upstream.temperature", 0.1)
	v.SetDefault("upstream.topP", 0.1)
	v.SetDefault("upstream.timeout", "60s")
	v.SetDefault("upstream.emptyReplyText", "(Empty response from the model)")

	v.SetDefault("session.issuer", "credit-ledger")
	v.SetDefault("session.ttl", "720h")

	v.SetDefault("rateLimit.enabled", false)
	v.SetDefault("rateLimit.redisAddr", "localhost:6379")
	v.SetDefault("rateLimit.limit", 20)
	v.SetDefault("rateLimit.window", "1m")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sampleRate", 1.0)
	v.SetDefault("tracing.serviceName", "credit-ledger")

	v.SetDefault("cors.allowedOrigins", []string{})
}

// getEnvironment determines the environment to use based on CL_ENV
func getEnvironment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv("CL_ENV")))
	if env == "" {
		return Development
	}
	return env
}

// processEnvOverrides maps the flat variable names used in deployments onto config keys.
// AutomaticEnv already covers CL_<SECTION>_<KEY>; these are the established aliases.
func processEnvOverrides(v *viper.Viper) {
	aliases := map[string]string{
		"CL_DATABASE_URL":           "database.url",
		"CL_DB_HOST":                "database.host",
		"CL_DB_PORT":                "database.port",
		"CL_DB_USERNAME":            "database.username",
		"CL_DB_PASSWORD":            "database.password",
		"CL_DB_NAME":                "database.database",
		"CL_DB_SSL_MODE":            "database.sslMode",
		"CL_ADMIN_EMAILS":           "ledger.adminEmails",
		"CL_UPSTREAM_API_KEY":       "upstream.apiKey",
		"CL_SESSION_SECRET":         "session.secret",
		"CL_INTERNAL_KEY":           "session.internalKey",
		"CL_REDIS_ADDR":             "rateLimit.redisAddr",
		"CL_OTEL_EXPORTER_ENDPOINT": "tracing.endpoint",
	}
	for env, key := range aliases {
		if value := os.Getenv(env); value != "" {
			v.Set(key, value)
		}
	}
}

// splitList flattens comma-separated entries and drops blanks
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
