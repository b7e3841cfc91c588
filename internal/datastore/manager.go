// Package datastore opens the annotation store and owns its schema.
package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/birdnet-annotations/internal/conf"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/errors"
	"github.com/tphakala/birdnet-annotations/internal/logger"
)

// Manager defines the interface for store lifecycle operations.
type Manager interface {
	// Initialize creates or updates the schema.
	Initialize(ctx context.Context) error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Path returns the database location (file path for SQLite, host:port/database for MySQL).
	Path() string
	// Close closes the database connection.
	Close() error
	// IsMySQL returns true if this is a MySQL manager.
	IsMySQL() bool
}

// Config holds settings shared by all backends.
type Config struct {
	// BatchSize is the number of rows per INSERT statement.
	BatchSize int
	// SlowQueryThreshold logs slower statements as warnings; 0 disables.
	SlowQueryThreshold time.Duration
	// Logger receives SQL trace output; nil discards it.
	Logger logger.Logger
	// QueryObserver is called after every statement, e.g. to record metrics.
	QueryObserver logger.QueryObserver
}

// gormConfig builds the GORM configuration. TranslateError maps unique
// constraint violations of every dialect to gorm.ErrDuplicatedKey.
func (c *Config) gormConfig() *gorm.Config {
	log := c.Logger
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelError, time.UTC)
	}

	adapter := logger.NewGormLoggerAdapter(log, c.SlowQueryThreshold)
	if c.QueryObserver != nil {
		adapter = adapter.WithQueryObserver(c.QueryObserver)
	}

	return &gorm.Config{
		Logger:          adapter,
		TranslateError:  true,
		CreateBatchSize: c.BatchSize,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Open returns the manager selected by settings.Database.Type.
func Open(settings *conf.Settings, cfg Config) (Manager, error) {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = settings.Import.BatchSize
	}
	if cfg.SlowQueryThreshold == 0 {
		cfg.SlowQueryThreshold = settings.Database.SlowQueryThreshold
	}

	switch settings.Database.Type {
	case conf.DatabaseMySQL:
		my := settings.Database.MySQL
		return NewMySQLManager(&MySQLConfig{
			Host:     my.Host,
			Port:     my.Port,
			Username: my.Username,
			Password: my.Password,
			Database: my.Database,
		}, cfg)
	case conf.DatabaseSQLite, "":
		return NewSQLiteManager(settings.Database.SQLite.Path, cfg)
	default:
		return nil, errors.Newf("unsupported database type %q", settings.Database.Type).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// SQLiteManager handles a file-backed SQLite store.
type SQLiteManager struct {
	db     *gorm.DB
	dbPath string
}

// NewSQLiteManager opens (creating if needed) the SQLite database at dbPath.
func NewSQLiteManager(dbPath string, cfg Config) (*SQLiteManager, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(fmt.Errorf("failed to create database directory: %w", err)).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Build()
		}
	}

	// Transactions begin IMMEDIATE so an import takes the write lock before
	// its first read. A deferred transaction upgrading from a stale WAL
	// snapshot fails with SQLITE_BUSY without honouring busy_timeout.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON&_txlock=immediate", dbPath)

	db, err := gorm.Open(sqlite.Open(dsn), cfg.gormConfig())
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open SQLite database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", dbPath).
			Build()
	}

	return &SQLiteManager{db: db, dbPath: dbPath}, nil
}

// Initialize runs AutoMigrate for every entity.
func (m *SQLiteManager) Initialize(ctx context.Context) error {
	return migrate(ctx, m.db)
}

// DB returns the underlying GORM database.
func (m *SQLiteManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database file path.
func (m *SQLiteManager) Path() string {
	return m.dbPath
}

// Close closes the database connection.
func (m *SQLiteManager) Close() error {
	return closeDB(m.db)
}

// IsMySQL returns false for SQLite manager.
func (m *SQLiteManager) IsMySQL() bool {
	return false
}

// MySQLConfig holds MySQL connection settings.
type MySQLConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// DSN returns the go-sql-driver DSN for the configuration.
func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&collation=%s&parseTime=True&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.Database, mysqlCollation)
}

// MySQLManager handles a MySQL store. Transactions run at the server's
// default REPEATABLE READ isolation.
type MySQLManager struct {
	db       *gorm.DB
	location string // host:port/database for display
}

// NewMySQLManager connects to MySQL and configures the connection pool.
func NewMySQLManager(myCfg *MySQLConfig, cfg Config) (*MySQLManager, error) {
	db, err := gorm.Open(mysql.Open(myCfg.DSN()), cfg.gormConfig())
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open MySQL database: %s: %w",
			logger.RedactSensitiveData(myCfg.DSN()), err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &MySQLManager{
		db:       db,
		location: fmt.Sprintf("%s:%s/%s", myCfg.Host, myCfg.Port, myCfg.Database),
	}, nil
}

// Initialize runs AutoMigrate for every entity.
func (m *MySQLManager) Initialize(ctx context.Context) error {
	db := m.db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE="+mysqlCollation)
	if err := migrate(ctx, db); err != nil {
		return err
	}
	return convertCollation(ctx, m.db)
}

// mysqlCollation is the collation of every table. Natural keys are
// compared byte for byte, as the importer does in memory; the server
// default utf8mb4_0900_ai_ci would fold case and accents.
const mysqlCollation = "utf8mb4_bin"

// convertCollation converts tables created under another collation.
func convertCollation(ctx context.Context, db *gorm.DB) error {
	tables := make([]string, 0, len(entities.Models()))
	for _, model := range entities.Models() {
		tables = append(tables, model.(interface{ TableName() string }).TableName())
	}

	var stale []string
	err := db.WithContext(ctx).Raw(
		"SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name IN ? AND table_collation <> ?",
		tables, mysqlCollation).Scan(&stale).Error
	if err != nil {
		return errors.New(fmt.Errorf("failed to read table collations: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	for _, table := range stale {
		stmt := fmt.Sprintf("ALTER TABLE `%s` CONVERT TO CHARACTER SET utf8mb4 COLLATE %s", table, mysqlCollation)
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return errors.New(fmt.Errorf("failed to convert table collation: %w", err)).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("table", table).
				Build()
		}
	}
	return nil
}

// DB returns the underlying GORM database.
func (m *MySQLManager) DB() *gorm.DB {
	return m.db
}

// Path returns host:port/database.
func (m *MySQLManager) Path() string {
	return m.location
}

// Close closes the database connection.
func (m *MySQLManager) Close() error {
	return closeDB(m.db)
}

// IsMySQL returns true for MySQL manager.
func (m *MySQLManager) IsMySQL() bool {
	return true
}

func migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(entities.Models()...); err != nil {
		return errors.New(fmt.Errorf("failed to migrate schema: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}
