package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/mechgrid/turnengine/internal/archive"
	"github.com/mechgrid/turnengine/internal/config"
	"github.com/mechgrid/turnengine/internal/game"
	"github.com/mechgrid/turnengine/internal/journal"
	"github.com/mechgrid/turnengine/internal/logging"
	"github.com/mechgrid/turnengine/internal/monitor"
	"github.com/mechgrid/turnengine/internal/node"
	"github.com/mechgrid/turnengine/internal/transport"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	scenarioPath := fs.String("scenario", "", "scenario file (default session.scenario)")
	seed := fs.Int64("seed", 0, "dice seed; 0 falls back to session.seed, then to a random seed")
	statusFile := fs.String("status-file", "", "rewrite this file with the node status every second")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp("serve")
	if err != nil {
		return err
	}
	defer a.close()

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		return err
	}
	if *seed == 0 {
		*seed = config.GetSessionConfig().Seed
	}
	gc, err := a.sessionConfig(game.Authoritative, sc, *seed)
	if err != nil {
		return err
	}

	backend, err := node.OpenJournal(config.GetJournalConfig(), a.zlog)
	if err != nil {
		return err
	}
	matchName := "match"
	if sc != nil && sc.Name != "" {
		matchName = sc.Name
	}

	n, err := node.New(node.Config{
		Session:          gc,
		Journal:          backend,
		MatchName:        matchName,
		Logger:           a.log,
		DispatcherLogger: logging.NewDispatcherLogger(a.zlog),
	})
	if err != nil {
		return err
	}
	a.attach(n)
	n.OnEvent(a.logEvents)

	srvCfg := config.GetServerConfig()
	hub := transport.NewHub(transport.HubConfig{Secret: srvCfg.Secret, Logger: a.log})
	n.Attach(hub)
	if err := n.Start(journal.Match{}); err != nil {
		_ = n.Close()
		return err
	}

	status := monitor.NewService(monitor.Dependencies{
		Session:    n,
		LaneDepth:  n.LaneDepth,
		Pending:    n.JournalPending,
		Peers:      hub.Peers,
		Logger:     a.log,
		StatusFile: *statusFile,
	})
	if err := status.Start(); err != nil {
		a.log.Warn("Status file disabled", "error", err)
	}

	mux := http.NewServeMux()
	mux.Handle(srvCfg.Path, hub)
	mux.Handle("/status", status)
	srv := &http.Server{
		Addr:              srvCfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("Listening", "addr", srvCfg.Listen, "path", srvCfg.Path, "session", n.ID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	status.Stop()
	if closeErr := n.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if path := n.ExportedFilePath(); path != "" {
		a.log.Info("Match exported", "path", path)
		if ac := config.GetArchiveConfig(); ac.Enabled {
			// ctx is already cancelled here.
			if upErr := uploadExport(context.Background(), archive.New(ac.URL, ac.Secret), path); upErr != nil {
				a.log.Error("Failed to upload match", "error", upErr)
			} else {
				a.log.Info("Match uploaded", "url", ac.URL)
			}
		}
	}
	return err
}
