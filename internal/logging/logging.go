package logging

import (
	"path/filepath"
	"strings"
	"time"
)

const logFileTimeLayout = "20060102T150405Z"

// LogFilePath returns the per-run log file for command inside logsDir.
// Timestamps are UTC so files from different hosts sort together.
func LogFilePath(logsDir, command string, started time.Time) string {
	name := "turnengine"
	if c := logName(command); c != "" {
		name += "_" + c
	}
	return filepath.Join(logsDir, name+"_"+started.UTC().Format(logFileTimeLayout)+".log")
}

// logName lower-cases command and keeps only characters safe in a file name.
func logName(command string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(command)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
