package gormjournal

import (
	"errors"
	"time"

	"github.com/mechgrid/turnengine/internal/model"
	"github.com/mechgrid/turnengine/internal/queue"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// writeQueue drains q into the database in a single transaction. On failure
// the batch goes back to the front of the queue for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log zerolog.Logger, prepare func([]T)) error {
	if q.Empty() {
		return nil
	}

	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}

	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		log.Error().Err(err).Str("table", name).Int("rows", len(items)).Msg("Error writing batch")
		tx.Rollback()
		q.PushFront(items...)
		return err
	}
	if err := tx.Commit().Error; err != nil {
		q.PushFront(items...)
		return err
	}

	log.Debug().Str("table", name).Int("rows", len(items)).Msg("Wrote batch")
	return nil
}

// Flush writes every queued row now.
func (b *Backend) Flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	matchID := b.match.ID
	db := b.manager.DB

	err := errors.Join(
		writeQueue(db, b.q.commands, "commands", b.log, func(items []model.CommandRecord) {
			for i := range items {
				items[i].MatchID = matchID
			}
		}),
		writeQueue(db, b.q.traces, "movement_traces", b.log, func(items []model.MovementTrace) {
			for i := range items {
				items[i].MatchID = matchID
			}
		}),
		writeQueue(db, b.q.phases, "phase_changes", b.log, func(items []model.PhaseChange) {
			for i := range items {
				items[i].MatchID = matchID
			}
		}),
	)
	if err == nil {
		b.lastWrite.Store(time.Now().UnixNano())
	}
	return err
}

// writeLoop periodically drains the queues into the database.
func (b *Backend) writeLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			// Failed batches are requeued and retried next tick.
			_ = b.Flush()
		}
	}
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
func (b *Backend) dumpLoop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.SQLite.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.manager.Dump(); err != nil {
				b.log.Error().Err(err).Msg("Error dumping journal to disk")
			}
		}
	}
}
