package logging

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogFilePath(t *testing.T) {
	started := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		command string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "logs",
			command: "serve",
			want:    filepath.Join("logs", "turnengine_serve_20260212T213836Z.log"),
		},
		{
			name:    "mixed case and separators",
			logsDir: "logs",
			command: " Replay/Final ",
			want:    filepath.Join("logs", "turnengine_replay-final_20260212T213836Z.log"),
		},
		{
			name:    "empty command",
			logsDir: "./logs",
			command: "",
			want:    filepath.Join(".", "logs", "turnengine_20260212T213836Z.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "turnengine"),
			command: "join",
			want:    filepath.Join("/var", "log", "turnengine", "turnengine_join_20260212T213836Z.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, tt.command, started))
		})
	}
}

func TestLogFilePath_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	started := time.Date(2026, 2, 12, 23, 38, 36, 0, loc)

	assert.Equal(t, filepath.Join("logs", "turnengine_serve_20260212T213836Z.log"), LogFilePath("logs", "serve", started))
}
