package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/journal"
)

// Export is the root JSON structure of a match file.
type Export struct {
	MatchID     uuid.UUID       `json:"matchId"`
	Name        string          `json:"name"`
	Authority   uuid.UUID       `json:"authority"`
	BoardWidth  int             `json:"boardWidth"`
	BoardHeight int             `json:"boardHeight"`
	StartTime   time.Time       `json:"startTime"`
	EndTime     time.Time       `json:"endTime"`
	Turns       int             `json:"turns"`
	Commands    []journal.Entry `json:"commands"`
}

// exportJSON writes the match to a JSON file, gzipped when configured.
func (b *Backend) exportJSON(end time.Time) error {
	export := b.buildExport(end)

	// Build filename
	matchName := strings.ReplaceAll(b.match.Name, " ", "_")
	matchName = strings.ReplaceAll(matchName, ":", "_")
	if matchName == "" {
		matchName = "match"
	}
	timestamp := b.match.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", matchName, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", matchName, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport(end time.Time) Export {
	export := Export{
		MatchID:     b.match.ID,
		Name:        b.match.Name,
		Authority:   b.match.Authority,
		BoardWidth:  b.match.BoardWidth,
		BoardHeight: b.match.BoardHeight,
		StartTime:   b.match.StartTime.UTC(),
		EndTime:     end.UTC(),
		Turns:       b.turns,
		Commands:    b.entries,
	}
	if export.Commands == nil {
		export.Commands = make([]journal.Entry, 0)
	}
	return export
}

func writeJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

// ReadExport loads a match file written by EndMatch. Files ending in .gz are decompressed.
func ReadExport(path string) (Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return Export{}, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return Export{}, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return Export{}, fmt.Errorf("failed to decode export: %w", err)
	}
	return export, nil
}
