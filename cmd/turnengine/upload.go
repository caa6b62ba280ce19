package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/mechgrid/turnengine/internal/archive"
	"github.com/mechgrid/turnengine/internal/config"
	"github.com/mechgrid/turnengine/internal/journal/memory"
)

const uploadTimeout = 2 * time.Minute

func runUpload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	url := fs.String("url", "", "archive address (default archive.url)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one export file required")
	}

	a, err := newApp("upload")
	if err != nil {
		return err
	}
	defer a.close()

	cfg := config.GetArchiveConfig()
	if *url != "" {
		cfg.URL = *url
	}
	client := archive.New(cfg.URL, cfg.Secret)
	if err := client.Healthcheck(ctx); err != nil {
		return err
	}
	if err := uploadExport(ctx, client, fs.Arg(0)); err != nil {
		return err
	}
	a.log.Info("Match uploaded", "path", fs.Arg(0), "url", cfg.URL)
	return nil
}

// uploadExport sends an export file along with the metadata read from it.
func uploadExport(ctx context.Context, client *archive.Client, path string) error {
	export, err := memory.ReadExport(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	err = client.Upload(ctx, path, archive.Meta{
		MatchID:  export.MatchID,
		Name:     export.Name,
		Turns:    export.Turns,
		Commands: len(export.Commands),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return nil
}
