// Command turnengine runs a match server, joins one as a replica, or prints a
// recorded match.
//
//	turnengine serve [-scenario file] [-seed n]
//	turnengine join [-ready] <player>
//	turnengine replay [-v] <export.json[.gz]>
//	turnengine upload [-url addr] <export.json[.gz]>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// BuildDate can be set at build time via ldflags.
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const usage = `usage: turnengine <command> [flags]

commands:
  serve     run the authoritative session behind a websocket hub
  join      join a server as a replica
  replay    print the command log of a match export
  upload    send a match export to the archive
  version   print the version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	args := os.Args[2:]
	switch strings.ToLower(os.Args[1]) {
	case "serve":
		err = runServe(ctx, args)
	case "join":
		err = runJoin(ctx, args)
	case "replay":
		err = runReplay(os.Stdout, args)
	case "upload":
		err = runUpload(ctx, args)
	case "version":
		fmt.Printf("turnengine %s (built %s)\n", Version, BuildDate)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "turnengine %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}
