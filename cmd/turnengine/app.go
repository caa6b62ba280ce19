package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/mechgrid/turnengine/internal/config"
	"github.com/mechgrid/turnengine/internal/dice"
	"github.com/mechgrid/turnengine/internal/game"
	"github.com/mechgrid/turnengine/internal/logging"
	"github.com/mechgrid/turnengine/internal/node"
	intOtel "github.com/mechgrid/turnengine/internal/otel"
	"github.com/mechgrid/turnengine/internal/scenario"
	"github.com/mechgrid/turnengine/pkg/hex"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// app holds what every long-running command sets up before it starts a node.
type app struct {
	started time.Time
	slog    *logging.SlogManager
	log     *slog.Logger
	zlog    zerolog.Logger
	otel    *intOtel.Provider
	logFile *os.File

	// logContext is filled in once the node exists.
	logContext atomic.Pointer[logging.ContextProvider]
}

// newApp loads the config and environment and builds the loggers.
func newApp(command string) (*app, error) {
	a := &app{started: time.Now()}

	env, err := config.ReadEnv()
	if err != nil {
		return nil, err
	}
	configErr := config.Load(env.ConfigDir)
	env.Apply()

	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs dir: %w", err)
	}
	a.logFile, err = os.OpenFile(logging.LogFilePath(logsDir, command, a.started), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	a.otel, err = intOtel.New(intOtel.FromConfig(config.GetOTelConfig(), a.logFile))
	if err != nil {
		return nil, fmt.Errorf("failed to set up OpenTelemetry: %w", err)
	}

	opts := logging.Options{
		Level:    config.GetString("logLevel"),
		File:     a.logFile,
		Provider: a.otel.LoggerProvider(),
		Context: func() []slog.Attr {
			if p := a.logContext.Load(); p != nil {
				return (*p)()
			}
			return nil
		},
	}
	if config.GetBool("graylog.enabled") {
		opts.GraylogAddress = config.GetString("graylog.address")
	}

	a.slog = logging.NewSlogManager()
	graylogErr := a.slog.Setup(opts)
	a.log = a.slog.Logger()
	if graylogErr != nil {
		a.log.Warn("Graylog disabled", "error", graylogErr)
	}
	if configErr != nil {
		a.log.Warn("Failed to load config, using defaults", "error", configErr)
	} else {
		a.log.Info("Loaded config", "file", viper.ConfigFileUsed())
	}

	a.zlog = logging.NewZerolog(a.logFile, config.GetString("logLevel"), command)
	return a, nil
}

// attach routes the node's state into every log record.
func (a *app) attach(n *node.Node) {
	p := logging.ContextProvider(n.LogContext)
	a.logContext.Store(&p)
}

// logEvents reports transitions at Info.
func (a *app) logEvents(e game.Event) {
	switch e.Kind {
	case game.PhaseChanged:
		a.log.Info("phase changed", "phase", e.Phase, "turn", e.Turn)
	case game.TurnChanged:
		a.log.Info("turn changed", "turn", e.Turn)
	case game.ActivePlayerChanged:
		a.log.Info("active player changed", "player", e.Player)
	}
}

// sessionConfig builds the session settings shared by serve and join.
func (a *app) sessionConfig(role game.Role, sc *scenario.Scenario, seed int64) (game.Config, error) {
	cfg := config.GetSessionConfig()
	roller, err := dice.New(seed)
	if err != nil {
		return game.Config{}, err
	}

	gc := game.Config{
		Role:           role,
		AutoInitiative: cfg.AutoInitiative,
		Dice:           roller,
		Logger:         a.log,
	}
	if sc != nil {
		if gc.Board, err = sc.BuildBoard(); err != nil {
			return game.Config{}, err
		}
	} else {
		gc.Board = hex.NewBoard(16, 17)
	}
	return gc, nil
}

// loadScenario reads path, or the configured scenario when path is empty.
// No scenario at all is not an error.
func loadScenario(path string) (*scenario.Scenario, error) {
	if path == "" {
		path = config.GetSessionConfig().Scenario
	}
	if path == "" {
		return nil, nil
	}
	return scenario.Load(filepath.Clean(path))
}

// close flushes telemetry and releases the log sinks.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.slog.Flush(ctx); err != nil {
		a.log.Warn("Failed to flush logs", "error", err)
	}
	if err := a.otel.Shutdown(ctx); err != nil {
		a.log.Warn("Failed to shut down OpenTelemetry", "error", err)
	}
	_ = a.slog.Close()
	_ = a.logFile.Close()
}
