package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/uuid"
	"github.com/mechgrid/turnengine/internal/config"
	"github.com/mechgrid/turnengine/internal/game"
	"github.com/mechgrid/turnengine/internal/journal"
	"github.com/mechgrid/turnengine/internal/logging"
	"github.com/mechgrid/turnengine/internal/node"
	"github.com/mechgrid/turnengine/internal/transport"
	"github.com/mechgrid/turnengine/pkg/command"
)

func runJoin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("join", flag.ContinueOnError)
	scenarioPath := fs.String("scenario", "", "scenario file with the player's roster (default session.scenario)")
	url := fs.String("url", "", "hub address (default client.url)")
	ready := fs.Bool("ready", false, "mark the player ready right after joining")
	if err := fs.Parse(args); err != nil {
		return err
	}
	name := fs.Arg(0)
	if name == "" {
		return errors.New("player name required")
	}

	a, err := newApp("join")
	if err != nil {
		return err
	}
	defer a.close()

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		return err
	}
	gc, err := a.sessionConfig(game.Replica, sc, 0)
	if err != nil {
		return err
	}
	if auth := config.GetSessionConfig().Authority; auth != "" {
		if gc.Authority, err = uuid.Parse(auth); err != nil {
			return fmt.Errorf("invalid session.authority %q: %w", auth, err)
		}
	}

	join := command.Join{PlayerID: uuid.New(), Name: name}
	if sc != nil {
		p, err := sc.Player(name)
		if err != nil {
			a.log.Warn("Joining without units", "error", err)
		} else {
			join = p.Join()
		}
	}

	n, err := node.New(node.Config{
		Session:          gc,
		MatchName:        name,
		Logger:           a.log,
		DispatcherLogger: logging.NewDispatcherLogger(a.zlog),
	})
	if err != nil {
		return err
	}
	a.attach(n)
	n.OnEvent(a.logEvents)

	cl := config.GetClientConfig()
	if *url != "" {
		cl.URL = *url
	}
	client := transport.NewClient(transport.ClientConfig{URL: cl.URL, Secret: cl.Secret, Logger: a.log})
	if err := client.Dial(); err != nil {
		_ = n.Close()
		return fmt.Errorf("failed to connect to %s: %w", cl.URL, err)
	}
	client.OnReconnect(func() { a.log.Info("Reconnected", "url", cl.URL) })
	n.Attach(client)

	if err := n.Start(journal.Match{}); err != nil {
		_ = n.Close()
		return err
	}
	a.log.Info("Joining", "player", join.PlayerID, "name", join.Name, "units", len(join.Units))
	if err := n.Submit(join); err != nil {
		_ = n.Close()
		return err
	}
	if *ready {
		if err := n.Submit(command.UpdatePlayerStatus{PlayerID: join.PlayerID, Status: command.StatusPlaying}); err != nil {
			_ = n.Close()
			return err
		}
	}

	<-ctx.Done()
	return n.Close()
}
