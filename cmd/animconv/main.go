// Command animconv converts keyframe animation files to .animation.json.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

// version info, set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const appName = "animconv"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code.
func run(args []string) int {
	fs := newFlagSet(os.Stderr)
	opts, err := parseFlags(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	if opts.showVersion {
		fmt.Printf("%s %s (built %s)\n", appName, Version, BuildDate)
		return 0
	}
	if opts.watchDir == "" && opts.listHistory == 0 && len(opts.files) == 0 {
		fs.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, fs, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	defer a.close()

	switch {
	case opts.listHistory > 0:
		err = a.printHistory(os.Stdout, opts.listHistory)
	case opts.watchDir != "":
		err = a.watch(ctx, opts.watchDir)
	default:
		if failed := a.convertAll(ctx, opts.files); failed > 0 {
			return 1
		}
	}
	if err != nil {
		a.logger.Error("Command failed", "error", err)
		return 1
	}
	return 0
}
