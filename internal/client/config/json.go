package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/vehiclefeed/internal/flagx"
	"github.com/dmitrijs2005/vehiclefeed/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	Username       string         `json:"username"`
	ExportDir      string         `json:"export_dir"`
}

// parseJson overlays cfg with the values set in the file named by -c or
// -config. Without either flag nothing is loaded.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.Username != "" {
		cfg.Username = jc.Username
	}
	if jc.ExportDir != "" {
		cfg.ExportDir = jc.ExportDir
	}
	return nil
}
