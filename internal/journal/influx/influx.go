// Package influx writes match telemetry to InfluxDB: one point per applied
// command plus points for phase changes, movement and match boundaries.
// When the server cannot be reached, points are appended to a gzip file in
// line protocol so they can be imported later.
package influx

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/mechgrid/turnengine/internal/config"
	"github.com/mechgrid/turnengine/internal/journal"
	"github.com/mechgrid/turnengine/pkg/command"
	"github.com/rs/zerolog"
)

// Measurement names.
const (
	MeasurementCommand  = "command"
	MeasurementPhase    = "phase_change"
	MeasurementMovement = "movement"
	MeasurementMatch    = "match"
)

// pingTimeout bounds the health check done by Init.
const pingTimeout = 3 * time.Second

// Backend records journal entries as InfluxDB points.
type Backend struct {
	cfg        config.InfluxConfig
	backupPath string
	log        zerolog.Logger

	client influxdb2.Client
	writer influxdb2_api.WriteAPI
	valid  bool

	mu         sync.Mutex
	backupFile *os.File
	backup     *gzip.Writer
	match      *journal.Match
	recorded   int64
	turns      int
}

// New creates a backend. backupPath receives gzipped line protocol while the
// server is unreachable.
func New(cfg config.InfluxConfig, backupPath string, log zerolog.Logger) *Backend {
	return &Backend{cfg: cfg, backupPath: backupPath, log: log}
}

// Init connects to the server, creating the org and bucket if needed.
// An unreachable server switches the backend to the backup file.
func (b *Backend) Init() error {
	b.client = influxdb2.NewClientWithOptions(
		b.cfg.URL(),
		b.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	running, err := b.client.Ping(ctx)
	if err != nil || !running {
		b.valid = false
		b.log.Warn().Err(err).Str("backupPath", b.backupPath).
			Msg("InfluxDB unreachable, writing to backup file")
		return b.openBackup()
	}

	if err := b.setupOrganizationAndBucket(); err != nil {
		return err
	}
	b.writer = b.client.WriteAPI(b.cfg.Org, b.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			b.log.Error().Err(writeErr).Str("bucket", b.cfg.Bucket).Msg("Error sending data to InfluxDB")
		}
	}(b.writer.Errors())

	b.valid = true
	b.log.Info().Str("url", b.cfg.URL()).Str("bucket", b.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (b *Backend) openBackup() error {
	if b.backupPath == "" {
		return fmt.Errorf("influxDB unreachable and no backup path configured")
	}
	if err := os.MkdirAll(filepath.Dir(b.backupPath), 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}
	file, err := os.OpenFile(b.backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	b.backupFile = file
	b.backup = gzip.NewWriter(file)
	return nil
}

func (b *Backend) setupOrganizationAndBucket() error {
	ctx := context.Background()

	// ensure org exists
	org, err := b.client.OrganizationsAPI().FindOrganizationByName(ctx, b.cfg.Org)
	if err != nil {
		b.log.Info().Str("org", b.cfg.Org).Msg("Organization not found, creating")
		org, err = b.client.OrganizationsAPI().CreateOrganizationWithName(ctx, b.cfg.Org)
		if err != nil {
			return fmt.Errorf("error creating organization %s: %w", b.cfg.Org, err)
		}
	}

	// ensure bucket exists with 90 day retention
	if _, err := b.client.BucketsAPI().FindBucketByName(ctx, b.cfg.Bucket); err != nil {
		b.log.Info().Str("bucket", b.cfg.Bucket).Msg("Bucket not found, creating")
		rule := domain.RetentionRuleTypeExpire
		_, err = b.client.BucketsAPI().CreateBucketWithName(ctx, org, b.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 90, // 90 days
		})
		if err != nil {
			return fmt.Errorf("error creating bucket %s: %w", b.cfg.Bucket, err)
		}
	}
	return nil
}

// Online reports whether points go to the server rather than the backup file.
func (b *Backend) Online() bool {
	return b.valid
}

// BackupPath is the line protocol fallback file.
func (b *Backend) BackupPath() string {
	return b.backupPath
}

// StartMatch writes a match start point.
func (b *Backend) StartMatch(m journal.Match) error {
	b.mu.Lock()
	b.match = &m
	b.recorded = 0
	b.turns = 0
	b.mu.Unlock()

	p := influxdb2_write.NewPointWithMeasurement(MeasurementMatch).
		AddTag("match", m.ID.String()).
		AddTag("event", "start").
		AddField("name", m.Name).
		AddField("board_width", m.BoardWidth).
		AddField("board_height", m.BoardHeight).
		SetTime(m.StartTime)
	return b.write(p)
}

// Record writes the points derived from an entry.
func (b *Backend) Record(e journal.Entry) error {
	b.mu.Lock()
	if b.match == nil {
		b.mu.Unlock()
		return journal.ErrNoMatch
	}
	matchID := b.match.ID
	b.recorded++
	if e.Turn > b.turns {
		b.turns = e.Turn
	}
	b.mu.Unlock()

	cmd, err := e.Decode()
	if err != nil {
		return fmt.Errorf("failed to decode entry %d: %w", e.Seq, err)
	}
	for _, p := range Points(matchID, e, cmd) {
		if err := b.write(p); err != nil {
			return err
		}
	}
	return nil
}

// EndMatch writes a match end point with the totals.
func (b *Backend) EndMatch() error {
	b.mu.Lock()
	if b.match == nil {
		b.mu.Unlock()
		return journal.ErrNoMatch
	}
	p := influxdb2_write.NewPointWithMeasurement(MeasurementMatch).
		AddTag("match", b.match.ID.String()).
		AddTag("event", "end").
		AddField("commands", b.recorded).
		AddField("turns", b.turns).
		SetTime(time.Now())
	b.match = nil
	b.mu.Unlock()

	if err := b.write(p); err != nil {
		return err
	}
	if b.valid {
		b.writer.Flush()
	}
	return nil
}

// Close flushes pending points and releases the client or backup file.
func (b *Backend) Close() error {
	if b.valid {
		b.writer.Flush()
		b.client.Close()
		b.valid = false
		return nil
	}
	if b.client != nil {
		b.client.Close()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backup == nil {
		return nil
	}
	err := b.backup.Close()
	if closeErr := b.backupFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	b.backup, b.backupFile = nil, nil
	return err
}

// write sends a point to the server or appends it to the backup file.
func (b *Backend) write(p *influxdb2_write.Point) error {
	if b.valid {
		b.writer.WritePoint(p)
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backup == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}
	lineProtocol := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	if _, err := b.backup.Write([]byte(lineProtocol)); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Points converts an entry into InfluxDB points. Every entry yields a command
// point; phase changes and moves yield one more.
func Points(matchID uuid.UUID, e journal.Entry, cmd command.Command) []*influxdb2_write.Point {
	points := []*influxdb2_write.Point{
		influxdb2_write.NewPointWithMeasurement(MeasurementCommand).
			AddTag("match", matchID.String()).
			AddTag("kind", string(e.Kind)).
			AddTag("phase", string(e.Phase)).
			AddTag("origin", e.Origin.String()).
			AddField("seq", e.Seq).
			AddField("turn", e.Turn).
			SetTime(e.Timestamp),
	}

	switch c := cmd.(type) {
	case command.ChangePhase:
		points = append(points, influxdb2_write.NewPointWithMeasurement(MeasurementPhase).
			AddTag("match", matchID.String()).
			AddTag("phase", string(c.Phase)).
			AddField("turn", c.Turn).
			SetTime(e.Timestamp))
	case command.MoveUnit:
		points = append(points, influxdb2_write.NewPointWithMeasurement(MeasurementMovement).
			AddTag("match", matchID.String()).
			AddTag("unit", c.UnitID.String()).
			AddTag("mode", string(c.Mode)).
			AddField("hexes", c.Path.HexesMoved()).
			AddField("cost", c.Path.Cost()).
			AddField("turn", e.Turn).
			SetTime(e.Timestamp))
	}
	return points
}
