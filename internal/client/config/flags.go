package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/flagx"
)

var clientFlags = []string{"-a", "-t", "-u", "-e"}

// parseFlags populates selected Config fields from command-line flags. Only
// the flags listed in clientFlags are looked at.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the vehiclefeed API")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.Username, "u", cfg.Username, "login name")
	fs.StringVar(&cfg.ExportDir, "e", cfg.ExportDir, "export directory")

	if err := fs.Parse(flagx.FilterArgs(args, clientFlags)); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	return nil
}
