// Command hegossip-sim runs the encrypted consensus simulation and keeps a
// history of its reports.
//
//	hegossip-sim run [--config file] [flags]
//	hegossip-sim history [--config file] [--id report-id]
//	hegossip-sim version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

const usage = `usage: hegossip-sim <command> [flags]

commands:
  run       run the simulation and print the report
  history   list stored reports, or print one with --id
  version   print the version
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := dispatch(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func dispatch(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "run":
		err = runCommand(ctx, args[1:], stdout)
	case "history":
		err = historyCommand(args[1:], stdout)
	case "version":
		versionCommand(stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "interrupted")
		return 130
	default:
		fmt.Fprintf(stderr, "hegossip-sim %s: %v\n", args[0], err)
		return 1
	}
}
