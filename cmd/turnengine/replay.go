package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/mechgrid/turnengine/internal/journal/memory"
)

func runReplay(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(w)
	verbose := fs.Bool("v", false, "print each command's payload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("exactly one export file required")
	}

	export, err := memory.ReadExport(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "match %s %q\n", export.MatchID, export.Name)
	fmt.Fprintf(w, "authority %s, board %dx%d, %d turns, %d commands\n",
		export.Authority, export.BoardWidth, export.BoardHeight, export.Turns, len(export.Commands))
	fmt.Fprintf(w, "started %s, ended %s\n\n",
		export.StartTime.Format(time.RFC3339), export.EndTime.Format(time.RFC3339))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTURN\tPHASE\tKIND\tORIGIN\tTIME")
	undecodable := 0
	for _, e := range export.Commands {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			e.Seq, e.Turn, e.Phase, e.Kind, e.Origin, e.Timestamp.Format(time.RFC3339))
		if _, err := e.Decode(); err != nil {
			undecodable++
			fmt.Fprintf(tw, "\t\t\t\t! %v\t\n", err)
		} else if *verbose {
			fmt.Fprintf(tw, "\t\t\t\t%s\t\n", e.Payload)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if undecodable > 0 {
		return fmt.Errorf("%d of %d commands could not be decoded", undecodable, len(export.Commands))
	}
	return nil
}
