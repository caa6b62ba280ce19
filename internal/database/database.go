// Package database opens the gorm connection behind the sql journal: postgres
// when it is reachable, sqlite otherwise.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/mechgrid/turnengine/internal/config"
	"github.com/mechgrid/turnengine/internal/model"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryDSN is the shared-cache in-memory sqlite database.
const MemoryDSN = "file::memory:?cache=shared"

const maxOpenConns = 10

var sqlitePragmas = []string{
	"PRAGMA user_version = 1;",
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA cache_size = -32000;",
	"PRAGMA temp_store = MEMORY;",
}

// Manager owns one journal database connection.
type Manager struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	Valid bool
	// InMemory is set for the in-memory sqlite database, whose contents only
	// survive through Dump.
	InMemory bool
	// DumpPath is where Dump writes the in-memory database.
	DumpPath string
	Logger   zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// Connect opens postgres and falls back to in-memory sqlite when the server
// cannot be reached.
func (m *Manager) Connect(cfg config.DBConfig) error {
	db, err := OpenPostgres(cfg)
	if err == nil {
		err = m.adopt(db)
	}
	if err == nil {
		err = m.SqlDB.Ping()
	}
	if err != nil {
		m.Logger.Error().Err(err).Str("host", cfg.Host).Msg("Postgres unavailable, journaling to SQLite")
		return m.UseSQLite("")
	}

	m.SqlDB.SetMaxOpenConns(maxOpenConns)
	m.InMemory = false
	m.Valid = true
	m.Logger.Info().Str("host", cfg.Host).Str("database", cfg.Database).Msg("Connected to Postgres")
	return nil
}

// UseSQLite opens a sqlite file, or the in-memory database when path is empty.
func (m *Manager) UseSQLite(path string) error {
	db, err := OpenSQLite(path)
	if err != nil {
		m.Valid = false
		return fmt.Errorf("failed to open SQLite: %w", err)
	}
	if err := m.adopt(db); err != nil {
		m.Valid = false
		return err
	}

	m.InMemory = path == ""
	m.Valid = true
	if m.InMemory {
		m.Logger.Info().Msg("Journaling to in-memory SQLite")
	} else {
		m.Logger.Info().Str("path", path).Msg("Journaling to SQLite")
	}
	return nil
}

func (m *Manager) adopt(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	m.DB, m.SqlDB = db, sqlDB
	return nil
}

// Setup creates or migrates the journal tables.
func (m *Manager) Setup() error {
	if m.DB == nil {
		return errors.New("db not connected")
	}
	if err := m.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		m.Valid = false
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	m.Logger.Info().Str("dialect", m.DB.Dialector.Name()).Int("tables", len(model.DatabaseModels)).Msg("Schema ready")
	return nil
}

// Dump copies the in-memory database to DumpPath, replacing any earlier dump.
func (m *Manager) Dump() error {
	start := time.Now()
	if err := VacuumInto(m.DB, m.DumpPath); err != nil {
		return err
	}
	m.Logger.Debug().Dur("duration", time.Since(start)).Str("path", m.DumpPath).Msg("Dumped journal to disk")
	return nil
}

func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	m.Valid = false
	return m.SqlDB.Close()
}

func OpenPostgres(cfg config.DBConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        1000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

// OpenSQLite opens path, or MemoryDSN when path is empty, and applies the
// write-throughput pragmas.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	for _, pragma := range sqlitePragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return db, nil
}

// VacuumInto writes a compacted copy of db to path.
func VacuumInto(db *gorm.DB, path string) error {
	if path == "" {
		return errors.New("dump path not set")
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove previous dump: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}
	if err := db.Exec("VACUUM INTO ?", "file:"+path).Error; err != nil {
		return fmt.Errorf("failed to dump database: %w", err)
	}
	return nil
}
