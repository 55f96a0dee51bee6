// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	accountHTTP "github.com/allisson/ledger/internal/account/http"
	accountRepository "github.com/allisson/ledger/internal/account/repository"
	accountUsecase "github.com/allisson/ledger/internal/account/usecase"
	clientHTTP "github.com/allisson/ledger/internal/client/http"
	clientRepository "github.com/allisson/ledger/internal/client/repository"
	clientUsecase "github.com/allisson/ledger/internal/client/usecase"
	"github.com/allisson/ledger/internal/config"
	cryptoService "github.com/allisson/ledger/internal/crypto/service"
	"github.com/allisson/ledger/internal/database"
	"github.com/allisson/ledger/internal/fieldcrypt"
	"github.com/allisson/ledger/internal/http"
	"github.com/allisson/ledger/internal/metrics"
	"github.com/allisson/ledger/internal/storage"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Cryptography
	fieldConfig *fieldcrypt.Config
	fieldCipher cryptoService.FieldCipher
	rotator     *cryptoService.Rotator

	// Storage
	rawStore        *storage.SQLStore
	encryptingStore *fieldcrypt.EncryptingStore

	// Repositories
	clientRepo  clientUsecase.ClientRepository
	accountRepo accountUsecase.AccountRepository

	// Use Cases
	clientUseCase  clientUsecase.UseCase
	accountUseCase accountUsecase.UseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	txManagerInit       sync.Once
	fieldConfigInit     sync.Once
	fieldCipherInit     sync.Once
	rotatorInit         sync.Once
	rawStoreInit        sync.Once
	encryptingStoreInit sync.Once
	clientRepoInit      sync.Once
	accountRepoInit     sync.Once
	clientUseCaseInit   sync.Once
	accountUseCaseInit  sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if err, exists := c.initErrors["db"]; exists {
		return nil, err
	}
	return c.db, nil
}

// MetricsProvider returns the metrics provider, or nil if metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if err, exists := c.initErrors["metricsProvider"]; exists {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// used when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		recorder, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		c.businessMetrics = recorder
	})
	if err, exists := c.initErrors["businessMetrics"]; exists {
		return nil, err
	}
	return c.businessMetrics, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err, exists := c.initErrors["txManager"]; exists {
		return nil, err
	}
	return c.txManager, nil
}

// FieldConfig returns the parsed field encryption configuration.
func (c *Container) FieldConfig() (*fieldcrypt.Config, error) {
	c.fieldConfigInit.Do(func() {
		cfg, err := fieldcrypt.ParseConfig(c.config.FieldEncryptionConfig)
		if err != nil {
			c.initErrors["fieldConfig"] = fmt.Errorf("failed to parse field encryption config: %w", err)
			return
		}
		c.fieldConfig = cfg
	})
	if err, exists := c.initErrors["fieldConfig"]; exists {
		return nil, err
	}
	return c.fieldConfig, nil
}

// FieldCipher returns the field cipher engine. Key validation happens here:
// a malformed FIELD_ENCRYPTION_KEY fails startup before any request is served.
func (c *Container) FieldCipher() (cryptoService.FieldCipher, error) {
	c.fieldCipherInit.Do(func() {
		audit, err := c.initAuditLogger()
		if err != nil {
			c.initErrors["fieldCipher"] = err
			return
		}

		cipher, err := cryptoService.NewFieldCipher(c.config.FieldEncryptionKey, audit)
		if err != nil {
			c.initErrors["fieldCipher"] = fmt.Errorf("failed to create field cipher: %w", err)
			return
		}
		c.fieldCipher = cipher
	})
	if err, exists := c.initErrors["fieldCipher"]; exists {
		return nil, err
	}
	return c.fieldCipher, nil
}

// Rotator returns the key rotation utility.
func (c *Container) Rotator() (*cryptoService.Rotator, error) {
	c.rotatorInit.Do(func() {
		cipher, err := c.FieldCipher()
		if err != nil {
			c.initErrors["rotator"] = err
			return
		}
		c.rotator = cryptoService.NewRotator(cipher)
	})
	if err, exists := c.initErrors["rotator"]; exists {
		return nil, err
	}
	return c.rotator, nil
}

// RawStore returns the SQL record store without field encryption. Used by
// the key rotation command, which must see stored envelopes as-is.
func (c *Container) RawStore() (*storage.SQLStore, error) {
	c.rawStoreInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["rawStore"] = fmt.Errorf("failed to get database for store: %w", err)
			return
		}

		var dialect storage.Dialect
		switch c.config.DBDriver {
		case "mysql":
			dialect = storage.DialectMySQL
		case "postgres":
			dialect = storage.DialectPostgreSQL
		default:
			c.initErrors["rawStore"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
			return
		}

		c.rawStore = storage.NewSQLStore(db, modelRegistry(), dialect)
	})
	if err, exists := c.initErrors["rawStore"]; exists {
		return nil, err
	}
	return c.rawStore, nil
}

// Store returns the encrypting record store used by all repositories. This
// is the single point where persistence and field encryption meet.
func (c *Container) Store() (*fieldcrypt.EncryptingStore, error) {
	c.encryptingStoreInit.Do(func() {
		rawStore, err := c.RawStore()
		if err != nil {
			c.initErrors["store"] = err
			return
		}
		cipher, err := c.FieldCipher()
		if err != nil {
			c.initErrors["store"] = err
			return
		}
		fieldConfig, err := c.FieldConfig()
		if err != nil {
			c.initErrors["store"] = err
			return
		}
		c.encryptingStore = fieldcrypt.NewEncryptingStore(rawStore, cipher, fieldConfig)
	})
	if err, exists := c.initErrors["store"]; exists {
		return nil, err
	}
	return c.encryptingStore, nil
}

// ClientRepository returns the client repository instance.
func (c *Container) ClientRepository() (clientUsecase.ClientRepository, error) {
	c.clientRepoInit.Do(func() {
		store, err := c.Store()
		if err != nil {
			c.initErrors["clientRepo"] = err
			return
		}
		c.clientRepo = clientRepository.NewStoreClientRepository(store)
	})
	if err, exists := c.initErrors["clientRepo"]; exists {
		return nil, err
	}
	return c.clientRepo, nil
}

// AccountRepository returns the account repository instance.
func (c *Container) AccountRepository() (accountUsecase.AccountRepository, error) {
	c.accountRepoInit.Do(func() {
		store, err := c.Store()
		if err != nil {
			c.initErrors["accountRepo"] = err
			return
		}
		c.accountRepo = accountRepository.NewStoreAccountRepository(store)
	})
	if err, exists := c.initErrors["accountRepo"]; exists {
		return nil, err
	}
	return c.accountRepo, nil
}

// ClientUseCase returns the client use case instance.
func (c *Container) ClientUseCase() (clientUsecase.UseCase, error) {
	c.clientUseCaseInit.Do(func() {
		repo, err := c.ClientRepository()
		if err != nil {
			c.initErrors["clientUseCase"] = err
			return
		}
		cipher, err := c.FieldCipher()
		if err != nil {
			c.initErrors["clientUseCase"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["clientUseCase"] = err
			return
		}
		c.clientUseCase = clientUsecase.NewUseCaseWithMetrics(
			clientUsecase.NewClientUseCase(repo, cipher),
			businessMetrics,
		)
	})
	if err, exists := c.initErrors["clientUseCase"]; exists {
		return nil, err
	}
	return c.clientUseCase, nil
}

// AccountUseCase returns the account use case instance.
func (c *Container) AccountUseCase() (accountUsecase.UseCase, error) {
	c.accountUseCaseInit.Do(func() {
		accountRepo, err := c.AccountRepository()
		if err != nil {
			c.initErrors["accountUseCase"] = err
			return
		}
		clientRepo, err := c.ClientRepository()
		if err != nil {
			c.initErrors["accountUseCase"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["accountUseCase"] = err
			return
		}
		c.accountUseCase = accountUsecase.NewUseCaseWithMetrics(
			accountUsecase.NewAccountUseCase(accountRepo, clientRepo),
			businessMetrics,
		)
	})
	if err, exists := c.initErrors["accountUseCase"]; exists {
		return nil, err
	}
	return c.accountUseCase, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if err, exists := c.initErrors["httpServer"]; exists {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err, exists := c.initErrors["metricsServer"]; exists {
		return nil, err
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}
	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initAuditLogger assembles the crypto audit pipeline: a structured log sink
// (or no-op when disabled) wrapped with operation metrics.
func (c *Container) initAuditLogger() (cryptoService.AuditLogger, error) {
	var audit cryptoService.AuditLogger
	if c.config.CryptoAuditEnabled {
		audit = cryptoService.NewSlogAuditLogger(c.Logger())
	} else {
		audit = cryptoService.NewNoOpAuditLogger()
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return cryptoService.NewMetricsAuditLogger(audit, businessMetrics), nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	clientUseCase, err := c.ClientUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get client use case for http server: %w", err)
	}

	accountUseCase, err := c.AccountUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get account use case for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	logger := c.Logger()
	clientHandler := clientHTTP.NewClientHandler(clientUseCase, logger)
	accountHandler := accountHTTP.NewAccountHandler(accountUseCase, logger)

	return http.NewServer(c.config, db, logger, metricsProvider, clientHandler, accountHandler), nil
}

// modelRegistry declares the storable models and their columns.
func modelRegistry() *storage.Registry {
	return storage.NewRegistry(
		storage.Model{
			Name:     "clients",
			Table:    "clients",
			IDColumn: "id",
			Columns: []string{
				"id", "name", "email", "email_hash",
				"phone_number", "notes", "created_at", "updated_at",
			},
		},
		storage.Model{
			Name:     "accounts",
			Table:    "accounts",
			IDColumn: "id",
			Columns: []string{
				"id", "client_id", "name", "currency",
				"credit_limit", "notes", "created_at", "updated_at",
			},
		},
	)
}
