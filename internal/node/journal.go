package node

import (
	"fmt"
	"path/filepath"

	"github.com/mechgrid/turnengine/internal/config"
	"github.com/mechgrid/turnengine/internal/journal"
	"github.com/mechgrid/turnengine/internal/journal/gormjournal"
	"github.com/mechgrid/turnengine/internal/journal/influx"
	"github.com/mechgrid/turnengine/internal/journal/memory"
	"github.com/rs/zerolog"
)

// Journal types accepted in journal.type.
const (
	JournalMemory   = "memory"
	JournalSQLite   = "sqlite"
	JournalPostgres = "postgres"
	JournalNone     = "none"
)

// InfluxBackupName is the line protocol fallback file, kept next to the memory exports.
const InfluxBackupName = "influx_backup.lp.gz"

// OpenJournal creates the configured journal backend. When influx is enabled
// its telemetry backend is added alongside. The backend is not initialised.
func OpenJournal(cfg config.JournalConfig, log zerolog.Logger) (journal.Backend, error) {
	var primary journal.Backend
	switch cfg.Type {
	case JournalMemory:
		primary = memory.New(cfg.Memory)
	case JournalSQLite:
		primary = gormjournal.New(gormjournal.Config{
			Dialect: gormjournal.SQLite,
			SQLite:  cfg.SQLite,
		}, log.With().Str("journal", JournalSQLite).Logger())
	case JournalPostgres:
		primary = gormjournal.New(gormjournal.Config{
			Dialect: gormjournal.Postgres,
			DB:      cfg.DB,
			SQLite:  cfg.SQLite,
		}, log.With().Str("journal", JournalPostgres).Logger())
	case JournalNone, "":
		primary = journal.Discard{}
	default:
		return nil, fmt.Errorf("unknown journal type: %q", cfg.Type)
	}

	if !cfg.Influx.Enabled {
		return primary, nil
	}
	telemetry := influx.New(cfg.Influx, filepath.Join(cfg.Memory.OutputDir, InfluxBackupName),
		log.With().Str("journal", "influx").Logger())
	return journal.Multi{primary, telemetry}, nil
}
