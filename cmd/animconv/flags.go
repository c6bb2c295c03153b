package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// options holds the flags that are not config keys.
type options struct {
	configDir   string
	watchDir    string
	listHistory int
	showVersion bool
	files       []string
}

// flagKeys maps a flag name to the config key it overrides.
var flagKeys = map[string]string{
	"bone":        "defaultBone",
	"out":         "output.dir",
	"steps":       "steps",
	"gzip":        "output.compress",
	"log-level":   "logLevel",
	"history":     "history.type",
	"preview-url": "preview.url",
}

func newFlagSet(out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("animconv", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: animconv [flags] FILE...\n       animconv --watch DIR [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.String("config", ".", "directory containing animconv.cfg.json")
	fs.StringP("bone", "b", "root", "bone name for keyframes without a part_name")
	fs.StringP("out", "o", "", "output directory (default: next to each source file)")
	fs.Int("steps", 10, "samples per curved transition")
	fs.Bool("gzip", false, "gzip converted files")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("history", "none", "conversion history backend (none, sqlite, postgres)")
	fs.String("preview-url", "", "push conversions to a live preview WebSocket server")
	fs.StringP("watch", "w", "", "watch a drop folder instead of converting FILE arguments")
	fs.Int("list-history", 0, "print the N most recent conversions and exit")
	fs.BoolP("version", "v", false, "print version and exit")
	return fs
}

// parseFlags parses args into opts. Config keys are bound separately by
// bindFlags once the config file has been loaded.
func parseFlags(fs *pflag.FlagSet, args []string) (options, error) {
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	var opts options
	opts.configDir, _ = fs.GetString("config")
	opts.watchDir, _ = fs.GetString("watch")
	opts.listHistory, _ = fs.GetInt("list-history")
	opts.showVersion, _ = fs.GetBool("version")
	opts.files = fs.Args()

	if opts.watchDir != "" && len(opts.files) > 0 {
		return opts, fmt.Errorf("--watch cannot be combined with file arguments")
	}
	if opts.listHistory < 0 {
		return opts, fmt.Errorf("--list-history must not be negative")
	}
	return opts, nil
}

// bindFlags lets explicitly set flags override the config file.
func bindFlags(fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	if fs.Changed("preview-url") {
		viper.Set("preview.enabled", true)
	}
	return nil
}
