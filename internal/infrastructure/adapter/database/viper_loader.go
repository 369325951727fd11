package database

import (
	"fmt"

	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/config"
)

// FromAppConfig adapts the application configuration to database configuration.
// Values already supplied through CL_DB_* variables take precedence over the file.
func FromAppConfig(conf *config.Config) *Config {
	dbConf := DefaultConfig()
	src := conf.Database

	if dbConf.URL == "" {
		dbConf.URL = src.URL
	}
	if dbConf.Host == "" {
		dbConf.Host = src.Host
	}
	if p := ParsePort(src.Port); p > 0 && configEnv("CL_DB_PORT") == "" {
		dbConf.Port = p
	}
	if dbConf.Username == "" {
		dbConf.Username = src.Username
	}
	if dbConf.Password == "" {
		dbConf.Password = src.Password
	}
	if dbConf.Database == "" {
		dbConf.Database = src.Database
	}

	if src.SSLMode != "" {
		dbConf.SSLMode = src.SSLMode
	}
	if src.MaxOpenConns > 0 {
		dbConf.MaxOpenConns = src.MaxOpenConns
	}
	if src.MaxIdleConns > 0 {
		dbConf.MaxIdleConns = src.MaxIdleConns
	}
	if src.ConnMaxLifetime > 0 {
		dbConf.ConnMaxLifetime = src.ConnMaxLifetime
	}
	if src.ConnMaxIdleTime > 0 {
		dbConf.ConnMaxIdleTime = src.ConnMaxIdleTime
	}
	if src.QueryTimeout > 0 {
		dbConf.QueryTimeout = src.QueryTimeout
	}
	if src.RetryAttempts > 0 {
		dbConf.RetryAttempts = src.RetryAttempts
	}
	if src.RetryDelay > 0 {
		dbConf.RetryDelay = src.RetryDelay
	}
	if src.SlowThreshold > 0 {
		dbConf.SlowThreshold = src.SlowThreshold
	}
	if src.LogLevel != "" {
		dbConf.LogLevel = src.LogLevel
	}

	return dbConf
}

// ParsePort converts a port string to an int, returning 0 when it is unset or invalid
func ParsePort(port string) int {
	var p int
	_, err := fmt.Sscanf(port, "%d", &p)
	if err != nil || p <= 0 || p > 65535 {
		return 0
	}
	return p
}
