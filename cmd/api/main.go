package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/credit-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/credit-ledger/internal/domain/port/core"
	accountUseCase "github.com/amirhossein-jamali/credit-ledger/internal/domain/usecase/account"
	usageUseCase "github.com/amirhossein-jamali/credit-ledger/internal/domain/usecase/usage"
	voucherUseCase "github.com/amirhossein-jamali/credit-ledger/internal/domain/usecase/voucher"

	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/api/routes"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/auth"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/metrics"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/ratelimit"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/repository"
	timeProvider "github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/tracing"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/adapter/upstream"
	"github.com/amirhossein-jamali/credit-ledger/internal/infrastructure/config"
)

const version = "1.1.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate essential configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create logger
	appLogger, err := logger.NewZapLogger(cfg.IsProduction(), logger.Options{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		CallerInfo: cfg.Logger.CallerInfo,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = appLogger.Flush() }()

	ctx := context.Background()
	tp := timeProvider.NewRealTimeProvider()

	// Tracing
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRate:  cfg.Tracing.SampleRate,
		Version:     version,
	})
	if err != nil {
		fatal(appLogger, "Failed to initialise tracing", err)
	}

	ledgerMetrics := metrics.NewLedgerMetrics()

	// Connect to the database
	dbManager := database.NewManager(database.FromAppConfig(cfg), appLogger, tp, ledgerMetrics)
	db, err := dbManager.Connect(ctx)
	if err != nil {
		fatal(appLogger, "Failed to connect to database", err)
	}
	defer dbManager.Close()

	// Run migrations
	if cfg.Database.AutoMigrate {
		if err := migration.NewMigrationManager(db, appLogger, tp).MigrateAll(ctx); err != nil {
			fatal(appLogger, "Failed to run migrations", err)
		}
	}

	admins := entity.NewAdminAllowList(cfg.Ledger.AdminEmails)
	if err := migration.SyncAdminFlags(ctx, db, admins, appLogger); err != nil {
		appLogger.Error("Failed to sync admin flags", map[string]any{
			"error": err.Error(),
		})
	}

	// Initialize repositories
	accountRepo := repository.NewAccountRepository(db, appLogger)
	voucherRepo := repository.NewVoucherRepository(db, appLogger)
	uow := dbManager.CreateUnitOfWork()

	// Upstream completion client
	completion, err := upstream.NewHTTPCompletionClient(upstream.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		APIKey:         cfg.Upstream.APIKey,
		Model:          cfg.Upstream.Model,
		Timeout:        cfg.Upstream.Timeout,
		EmptyReplyText: cfg.Upstream.EmptyReplyText,
	}, appLogger)
	if err != nil {
		fatal(appLogger, "Failed to create completion client", err)
	}

	// Initialize use cases
	accounts := accountUseCase.NewDirectory(accountRepo, admins, appLogger,
		accountUseCase.WithStartingCredits(cfg.Ledger.StartingCredits))

	gate := usageUseCase.NewGate(accountRepo, uow, completion, tp, appLogger, ledgerMetrics, usageUseCase.Config{
		SystemPrompt: cfg.Upstream.SystemPrompt,
		Temperature:  cfg.Upstream.Temperature,
		TopP:         cfg.Upstream.TopP,
	})

	vouchers := voucherUseCase.NewService(uow, accountRepo, voucherRepo, tp, appLogger, ledgerMetrics, voucherUseCase.Config{
		CodePrefix:    cfg.Ledger.VoucherPrefix,
		IssueAttempts: cfg.Ledger.VoucherIssueAttempts,
	})

	sessions, err := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL, tp)
	if err != nil {
		fatal(appLogger, "Failed to create session manager", err)
	}

	guards := routes.Guards{
		Sessions:    sessions,
		Accounts:    accounts,
		InternalKey: cfg.Session.InternalKey,
		LimiterKey:  ratelimit.Key,
		ChatLimit:   cfg.RateLimit.Limit,
		ChatWindow:  cfg.RateLimit.Window,
	}
	if cfg.RateLimit.Enabled {
		redisClient := ratelimit.NewRedisClient(ratelimit.Options{
			Addr: cfg.RateLimit.RedisAddr,
			DB:   cfg.RateLimit.RedisDB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			appLogger.Warn("Redis unreachable, rate limiter will fail open", map[string]any{
				"addr":  cfg.RateLimit.RedisAddr,
				"error": err.Error(),
			})
		}
		cancel()
		guards.Limiter = ratelimit.NewRedisLimiter(redisClient, tp)
	}

	// Initialize Gin router
	router := gin.New()

	middlewareConfig := routes.MiddlewareConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        ledgerMetrics,
	}
	if cfg.Tracing.Enabled {
		middlewareConfig.ServiceName = cfg.Tracing.ServiceName
	}
	routes.SetupMiddlewares(router, middlewareConfig, appLogger)

	routes.SetupRoutes(router, routes.Handlers{
		Account: handler.NewAccountHandler(accounts, sessions, appLogger),
		Chat:    handler.NewChatHandler(gate, appLogger),
		Voucher: handler.NewVoucherHandler(vouchers, cfg.Ledger.ListLimit, appLogger),
		Health:  handler.NewHealthHandler(dbManager, appLogger),
		Metrics: ledgerMetrics.Handler(),
	}, guards, appLogger)

	// Create HTTP server with configurable timeout values
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting server", map[string]any{
			"addr":    server.Addr,
			"env":     cfg.Environment,
			"version": version,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		appLogger.Error("Failed to start server", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Warn("Failed to flush traces", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("Server exited gracefully", nil)
}

func fatal(l coreport.Logger, message string, err error) {
	l.Error(message, map[string]any{
		"error": err.Error(),
	})
	_ = l.Flush()
	os.Exit(1)
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	// Validate server configuration
	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}

	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}

	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}

	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	// Validate database configuration; a URL replaces the discrete fields
	if cfg.Database.URL == "" {
		if cfg.Database.Host == "" {
			missingConfigs = append(missingConfigs, "database.host (or CL_DB_HOST / CL_DATABASE_URL)")
		}
		if cfg.Database.Username == "" {
			missingConfigs = append(missingConfigs, "database.username (or CL_DB_USERNAME)")
		}
		if cfg.Database.Database == "" {
			missingConfigs = append(missingConfigs, "database.database (or CL_DB_NAME)")
		}
	}

	if cfg.Database.QueryTimeout == 0 {
		missingConfigs = append(missingConfigs, "database.queryTimeout")
	}

	// Upstream and session secrets have no usable default
	if cfg.Upstream.BaseURL == "" {
		missingConfigs = append(missingConfigs, "upstream.baseURL")
	}

	if cfg.Upstream.APIKey == "" {
		missingConfigs = append(missingConfigs, "upstream.apiKey (or CL_UPSTREAM_API_KEY)")
	}

	if cfg.Session.Secret == "" {
		missingConfigs = append(missingConfigs, "session.secret (or CL_SESSION_SECRET)")
	}

	if cfg.Session.InternalKey == "" {
		missingConfigs = append(missingConfigs, "session.internalKey (or CL_INTERNAL_KEY)")
	}

	// Validate ledger configuration
	if cfg.Ledger.StartingCredits < 0 {
		return fmt.Errorf("ledger.startingCredits must not be negative, got %d", cfg.Ledger.StartingCredits)
	}

	if cfg.RateLimit.Enabled && (cfg.RateLimit.Limit <= 0 || cfg.RateLimit.Window <= 0) {
		return fmt.Errorf("rateLimit.limit and rateLimit.window must be positive when rate limiting is enabled")
	}

	// Environment should be set with a valid value
	if cfg.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	// Logger configuration
	if cfg.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	// Return error with list of missing configurations
	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	// If we're in production, do additional validation for sensitive settings
	if cfg.IsProduction() {
		var warnings []string

		sslMode := strings.ToLower(cfg.Database.SSLMode)
		if cfg.Database.URL == "" && sslMode != "require" && sslMode != "verify-ca" && sslMode != "verify-full" {
			warnings = append(warnings, "database.sslMode should be set to 'require', 'verify-ca', or 'verify-full' in production")
		}

		if len(cfg.CORS.AllowedOrigins) == 0 {
			warnings = append(warnings, "cors.allowedOrigins is empty, any origin may call the API")
		}

		if cfg.Server.ReadTimeout < 5*time.Second {
			warnings = append(warnings, "server.readTimeout is too low for production")
		}

		if len(warnings) > 0 {
			log.Printf("Warning: potential security issues in production configuration: %v", warnings)
		}
	}

	return nil
}
